package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/figstack/go-figma-gateway/filecache"
)

// FileStore implements filecache.Repo.
type FileStore struct {
	db *sql.DB
}

var _ filecache.Repo = (*FileStore)(nil)

// Files returns the file-cache repository backed by this store.
func (s *Store) Files() *FileStore {
	return &FileStore{db: s.db}
}

// Upsert refreshes the cached metadata for one file. The bookmark flag is
// owned by SetBookmarked and survives metadata refreshes.
func (fs *FileStore) Upsert(ctx context.Context, entry *filecache.Entry) error {
	if entry.LastAccessedAt.IsZero() {
		entry.LastAccessedAt = time.Now()
	}

	const q = `
INSERT INTO cached_files (user_id, file_key, title, thumbnail_url, editor_type, bookmarked, last_accessed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, file_key) DO UPDATE SET
    title            = excluded.title,
    thumbnail_url    = excluded.thumbnail_url,
    editor_type      = excluded.editor_type,
    last_accessed_at = excluded.last_accessed_at;
`
	_, err := fs.db.ExecContext(ctx, q,
		entry.UserID, entry.FileKey, entry.Title, entry.ThumbnailURL,
		entry.EditorType, entry.Bookmarked, toMillis(entry.LastAccessedAt))
	if err != nil {
		return fmt.Errorf("upsert cached file: %w", err)
	}
	return nil
}

func (fs *FileStore) Get(ctx context.Context, userID, fileKey string) (*filecache.Entry, error) {
	const q = `
SELECT user_id, file_key, title, thumbnail_url, editor_type, bookmarked, last_accessed_at
FROM cached_files WHERE user_id = ? AND file_key = ?;
`
	entry, err := scanEntry(fs.db.QueryRowContext(ctx, q, userID, fileKey))
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (fs *FileStore) ListRecent(ctx context.Context, userID string, limit int) ([]*filecache.Entry, error) {
	const q = `
SELECT user_id, file_key, title, thumbnail_url, editor_type, bookmarked, last_accessed_at
FROM cached_files WHERE user_id = ?
ORDER BY last_accessed_at DESC
LIMIT ?;
`
	rows, err := fs.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list cached files: %w", err)
	}
	defer rows.Close()

	var entries []*filecache.Entry
	for rows.Next() {
		var e filecache.Entry
		var lastAccessed int64
		if err := rows.Scan(&e.UserID, &e.FileKey, &e.Title, &e.ThumbnailURL,
			&e.EditorType, &e.Bookmarked, &lastAccessed); err != nil {
			return nil, fmt.Errorf("scan cached file: %w", err)
		}
		e.LastAccessedAt = fromMillis(lastAccessed)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached files: %w", err)
	}
	return entries, nil
}

func (fs *FileStore) SetBookmarked(ctx context.Context, userID, fileKey string, bookmarked bool) error {
	const q = `
UPDATE cached_files SET bookmarked = ? WHERE user_id = ? AND file_key = ?;
`
	res, err := fs.db.ExecContext(ctx, q, bookmarked, userID, fileKey)
	if err != nil {
		return fmt.Errorf("set bookmarked: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set bookmarked rows affected: %w", err)
	}
	if affected == 0 {
		return filecache.ErrNotFound
	}
	return nil
}

func scanEntry(row *sql.Row) (*filecache.Entry, error) {
	var e filecache.Entry
	var lastAccessed int64
	err := row.Scan(&e.UserID, &e.FileKey, &e.Title, &e.ThumbnailURL,
		&e.EditorType, &e.Bookmarked, &lastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, filecache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cached file: %w", err)
	}
	e.LastAccessedAt = fromMillis(lastAccessed)
	return &e, nil
}
