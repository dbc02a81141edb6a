package users

import (
	"context"
	"errors"
)

// ErrEmailTaken is returned by Create when the email is already registered.
// Callers use it to fall back to looking the existing account up by email.
var ErrEmailTaken = errors.New("email already registered")

// ErrNotFound is returned when no user matches the lookup key.
var ErrNotFound = errors.New("user not found")

type Repo interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
