package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/figstack/go-figma-gateway/filecache"
	apperrors "github.com/figstack/go-figma-gateway/internal/errors"
	"github.com/figstack/go-figma-gateway/tokens"
	"github.com/rs/zerolog/log"
)

// recentFileLimit caps how many cached entries one listing refreshes.
const recentFileLimit = 20

const emptyLibraryMessage = "No files yet. Open a Figma file link to add it to your library."

// FileSummary is the DTO returned to the client. Derived per request, never
// persisted.
type FileSummary struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	EditorType   string `json:"editor_type,omitempty"`
	IsBookmarked bool   `json:"is_bookmarked"`
}

type filesResponse struct {
	Files   []FileSummary `json:"files"`
	Message string        `json:"message,omitempty"`
}

// FilesHandler serves the caller's file list. Each previously-opened file key
// is refreshed from the provider; a per-key failure degrades to the cached
// metadata rather than aborting the listing.
func (s *Server) FilesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := userIDFromContext(ctx)

		accessToken, err := s.accessTokenForUser(ctx, userID)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		entries, err := s.repos.Files.ListRecent(ctx, userID, recentFileLimit)
		if err != nil {
			writeTaxonomyError(w, apperrors.Wrapf(err, "list cached files for %s", userID))
			return
		}

		files := make([]FileSummary, 0, len(entries))
		for _, entry := range entries {
			files = append(files, s.summarize(ctx, accessToken, entry))
		}

		resp := filesResponse{Files: files}
		if len(files) == 0 {
			resp.Message = emptyLibraryMessage
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// summarize fetches current metadata for one cached entry, falling back to
// the last known values when the provider call fails.
func (s *Server) summarize(ctx context.Context, accessToken string, entry *filecache.Entry) FileSummary {
	meta, err := s.provider.File(ctx, accessToken, entry.FileKey)
	if err != nil {
		log.Warn().Err(err).Str("file_key", entry.FileKey).Msg("file metadata fetch failed, serving cached entry")
		return FileSummary{
			Key:          entry.FileKey,
			Name:         entry.Title,
			ThumbnailURL: entry.ThumbnailURL,
			LastModified: entry.LastAccessedAt.Format(time.RFC3339),
			EditorType:   entry.EditorType,
			IsBookmarked: entry.Bookmarked,
		}
	}

	summary := FileSummary{
		Key:          entry.FileKey,
		Name:         meta.Name,
		ThumbnailURL: meta.ThumbnailURL,
		LastModified: meta.LastModified,
		EditorType:   meta.EditorType,
		IsBookmarked: entry.Bookmarked,
	}
	if summary.Name == "" {
		summary.Name = entry.Title
	}
	if summary.ThumbnailURL == "" {
		summary.ThumbnailURL = entry.ThumbnailURL
	}
	if summary.EditorType == "" {
		summary.EditorType = entry.EditorType
	}
	return summary
}

// accessTokenForUser is the refresh guard: it loads the user's stored
// credential and refreshes it when expired. Concurrent callers for the same
// user share one refresh via singleflight; the provider tolerates reuse of
// the refresh token inside its propagation window, so a duplicate refresh is
// safe either way.
func (s *Server) accessTokenForUser(ctx context.Context, userID string) (string, error) {
	record, err := s.repos.Tokens.Get(ctx, userID)
	if errors.Is(err, tokens.ErrNotFound) {
		return "", apperrors.Wrapf(apperrors.ErrNoCredential, "no token record for %s", userID)
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "load token record for %s", userID)
	}

	if !record.Expired(time.Now()) {
		return record.AccessToken, nil
	}

	token, err, _ := s.refreshGroup.Do(userID, func() (any, error) {
		return s.refreshCredential(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// refreshCredential performs one refresh round-trip and atomically replaces
// the stored record. The stored credential is left untouched on failure; the
// client must restart authorization.
func (s *Server) refreshCredential(ctx context.Context, userID string) (string, error) {
	// Re-read inside the flight: a just-finished refresh from another
	// request may already have renewed the record.
	record, err := s.repos.Tokens.Get(ctx, userID)
	if err != nil {
		return "", apperrors.Wrapf(err, "reload token record for %s", userID)
	}
	if !record.Expired(time.Now()) {
		return record.AccessToken, nil
	}

	tokenSet, err := s.provider.Refresh(ctx, record.RefreshToken)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrReauthRequired, "refresh: %v", err)
	}

	// Providers may or may not rotate the refresh token.
	if tokenSet.RefreshToken == "" {
		tokenSet.RefreshToken = record.RefreshToken
	}

	record.AccessToken = tokenSet.AccessToken
	record.RefreshToken = tokenSet.RefreshToken
	record.ExpiresAt = tokenSet.ExpiresAt
	record.UpdatedAt = time.Now()
	if err := s.repos.Tokens.Upsert(ctx, record); err != nil {
		return "", apperrors.Wrapf(err, "persist refreshed token for %s", userID)
	}

	return record.AccessToken, nil
}

// parseFileKey extracts a file key from either a raw key or a figma.com file
// URL ("https://www.figma.com/design/<key>/Title").
func parseFileKey(raw string) (string, error) {
	if raw == "" {
		return "", apperrors.Wrapf(apperrors.ErrValidation, "file key or url is required")
	}
	if !strings.Contains(raw, "/") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "figma.com") {
		return "", apperrors.Wrapf(apperrors.ErrValidation, "unrecognized file url %q", raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 {
		switch parts[0] {
		case "file", "design", "board", "proto":
			return parts[1], nil
		}
	}
	return "", apperrors.Wrapf(apperrors.ErrValidation, "no file key in url %q", raw)
}
