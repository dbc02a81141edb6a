// Package tokens stores the provider credential pair for each user. Records
// are replaced wholesale — a refresh or re-auth writes a complete new row,
// never a partial update — so concurrent writers can only race toward one of
// two fully consistent states.
package tokens

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("token record not found")

// Record is the current OAuth credential for one user. The access token is
// only ever used server-side; nothing in this struct reaches a client.
type Record struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token needs refreshing at the given time.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Repo keeps at most one live Record per user id. Upsert must be atomic.
type Repo interface {
	Upsert(ctx context.Context, record *Record) error
	Get(ctx context.Context, userID string) (*Record, error)
	Delete(ctx context.Context, userID string) error
}
