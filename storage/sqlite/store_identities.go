package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/figstack/go-figma-gateway/identity"
)

// IdentityStore implements identity.Repo.
type IdentityStore struct {
	db *sql.DB
}

var _ identity.Repo = (*IdentityStore)(nil)

// Identities returns the identity repository backed by this store.
func (s *Store) Identities() *IdentityStore {
	return &IdentityStore{db: s.db}
}

func (is *IdentityStore) Upsert(ctx context.Context, ident *identity.Identity) error {
	if ident.UpdatedAt.IsZero() {
		ident.UpdatedAt = time.Now()
	}

	const q = `
INSERT INTO identities (external_id, user_id, email, name, avatar_url, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id) DO UPDATE SET
    user_id    = excluded.user_id,
    email      = excluded.email,
    name       = excluded.name,
    avatar_url = excluded.avatar_url,
    updated_at = excluded.updated_at;
`
	_, err := is.db.ExecContext(ctx, q,
		ident.ExternalID, ident.UserID, ident.Email, ident.Name,
		ident.AvatarURL, toMillis(ident.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

func (is *IdentityStore) GetByExternalID(ctx context.Context, externalID string) (*identity.Identity, error) {
	const q = `
SELECT external_id, user_id, email, name, avatar_url, updated_at
FROM identities WHERE external_id = ?;
`
	var ident identity.Identity
	var updatedAt int64
	err := is.db.QueryRowContext(ctx, q, externalID).Scan(
		&ident.ExternalID, &ident.UserID, &ident.Email, &ident.Name,
		&ident.AvatarURL, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	ident.UpdatedAt = fromMillis(updatedAt)
	return &ident, nil
}
