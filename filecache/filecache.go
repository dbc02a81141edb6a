// Package filecache holds the last known metadata for remote files a user has
// opened. The provider stays the source of truth; entries are only read back
// when a live fetch fails, so a stale entry beats an empty list.
package filecache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cached file not found")

type Entry struct {
	UserID         string
	FileKey        string
	Title          string
	ThumbnailURL   string
	EditorType     string
	Bookmarked     bool
	LastAccessedAt time.Time
}

type Repo interface {
	Upsert(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, userID, fileKey string) (*Entry, error)
	// ListRecent returns the user's entries ordered by most recently accessed.
	ListRecent(ctx context.Context, userID string, limit int) ([]*Entry, error)
	SetBookmarked(ctx context.Context, userID, fileKey string, bookmarked bool) error
}
