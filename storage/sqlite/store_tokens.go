package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/figstack/go-figma-gateway/tokens"
)

// TokenStore implements tokens.Repo.
type TokenStore struct {
	db *sql.DB
}

var _ tokens.Repo = (*TokenStore)(nil)

// Tokens returns the credential repository backed by this store.
func (s *Store) Tokens() *TokenStore {
	return &TokenStore{db: s.db}
}

// Upsert replaces the user's credential wholesale in one statement, so a
// reader can never observe a mix of two writes.
func (ts *TokenStore) Upsert(ctx context.Context, record *tokens.Record) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	const q = `
INSERT INTO figma_tokens (user_id, access_token, refresh_token, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    access_token  = excluded.access_token,
    refresh_token = excluded.refresh_token,
    expires_at    = excluded.expires_at,
    updated_at    = excluded.updated_at;
`
	_, err := ts.db.ExecContext(ctx, q,
		record.UserID, record.AccessToken, record.RefreshToken,
		toMillis(record.ExpiresAt), toMillis(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert token record: %w", err)
	}
	return nil
}

func (ts *TokenStore) Get(ctx context.Context, userID string) (*tokens.Record, error) {
	const q = `
SELECT user_id, access_token, refresh_token, expires_at, updated_at
FROM figma_tokens WHERE user_id = ?;
`
	var rec tokens.Record
	var expiresAt, updatedAt int64
	err := ts.db.QueryRowContext(ctx, q, userID).Scan(
		&rec.UserID, &rec.AccessToken, &rec.RefreshToken, &expiresAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tokens.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan token record: %w", err)
	}
	rec.ExpiresAt = fromMillis(expiresAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func (ts *TokenStore) Delete(ctx context.Context, userID string) error {
	_, err := ts.db.ExecContext(ctx, `DELETE FROM figma_tokens WHERE user_id = ?;`, userID)
	if err != nil {
		return fmt.Errorf("delete token record: %w", err)
	}
	return nil
}
