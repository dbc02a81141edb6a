package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/figstack/go-figma-gateway/users"
	"github.com/google/uuid"
)

// UserStore implements users.Repo.
type UserStore struct {
	db *sql.DB
}

var _ users.Repo = (*UserStore)(nil)

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserStore {
	return &UserStore{db: s.db}
}

func (us *UserStore) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO users (id, email, name, avatar_url, created_at, last_login_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := us.db.ExecContext(ctx, q,
		user.ID, user.Email, user.Name, user.AvatarURL,
		toMillis(user.CreatedAt), toMillis(user.LastLoginAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (us *UserStore) Update(ctx context.Context, user *users.User) error {
	const q = `
UPDATE users SET email = ?, name = ?, avatar_url = ?, last_login_at = ?
WHERE id = ?;
`
	res, err := us.db.ExecContext(ctx, q,
		user.Email, user.Name, user.AvatarURL, toMillis(user.LastLoginAt), user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (us *UserStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	const q = `
SELECT id, email, name, avatar_url, created_at, last_login_at
FROM users WHERE id = ?;
`
	return scanUser(us.db.QueryRowContext(ctx, q, id))
}

func (us *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	const q = `
SELECT id, email, name, avatar_url, created_at, last_login_at
FROM users WHERE email = ?;
`
	return scanUser(us.db.QueryRowContext(ctx, q, email))
}

func scanUser(row *sql.Row) (*users.User, error) {
	var u users.User
	var createdAt, lastLoginAt int64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &createdAt, &lastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.LastLoginAt = fromMillis(lastLoginAt)
	return &u, nil
}
