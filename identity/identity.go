// Package identity links one external provider account to one local user.
// At most one Identity exists per external id; the mutable profile fields
// are overwritten on every successful authorization.
package identity

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("identity not found")

type Identity struct {
	ExternalID string    // Provider account id, unique
	UserID     string    // Local user this identity resolves to
	Email      string
	Name       string
	AvatarURL  string
	UpdatedAt  time.Time
}

// Repo persists external-id to local-user links. Upsert must be an atomic
// conditional write keyed by ExternalID, never read-then-write.
type Repo interface {
	Upsert(ctx context.Context, ident *Identity) error
	GetByExternalID(ctx context.Context, externalID string) (*Identity, error)
}
