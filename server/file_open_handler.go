package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/figstack/go-figma-gateway/figma"
	"github.com/figstack/go-figma-gateway/filecache"
	apperrors "github.com/figstack/go-figma-gateway/internal/errors"
)

type fileOpenRequest struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
}

// FileOpenHandler registers a file in the caller's library. This is how
// entries enter the cache that FilesHandler lists.
func (s *Server) FileOpenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fileOpenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		raw := req.Key
		if raw == "" {
			raw = req.URL
		}
		key, err := parseFileKey(raw)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		ctx := r.Context()
		userID := userIDFromContext(ctx)

		accessToken, err := s.accessTokenForUser(ctx, userID)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		meta, err := s.provider.File(ctx, accessToken, key)
		if err != nil {
			var apiErr *figma.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrNotFound, "file %s", key))
				return
			}
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrProvider, "fetch file %s: %v", key, err))
			return
		}

		entry := &filecache.Entry{
			UserID:         userID,
			FileKey:        key,
			Title:          meta.Name,
			ThumbnailURL:   meta.ThumbnailURL,
			EditorType:     meta.EditorType,
			LastAccessedAt: time.Now(),
		}
		if err := s.repos.Files.Upsert(ctx, entry); err != nil {
			writeTaxonomyError(w, apperrors.Wrapf(err, "cache file %s", key))
			return
		}

		// Bookmark state survives re-opens; read it back for the response.
		if cached, err := s.repos.Files.Get(ctx, userID, key); err == nil {
			entry.Bookmarked = cached.Bookmarked
		}

		writeJSON(w, http.StatusOK, FileSummary{
			Key:          key,
			Name:         meta.Name,
			ThumbnailURL: meta.ThumbnailURL,
			LastModified: meta.LastModified,
			EditorType:   meta.EditorType,
			IsBookmarked: entry.Bookmarked,
		})
	}
}

type bookmarkRequest struct {
	Bookmarked bool `json:"bookmarked"`
}

// FileBookmarkHandler flips the bookmark flag on an owned library entry.
func (s *Server) FileBookmarkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		key := r.PathValue("key")
		if key == "" {
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrValidation, "file key is required"))
			return
		}

		ctx := r.Context()
		userID := userIDFromContext(ctx)

		err := s.repos.Files.SetBookmarked(ctx, userID, key, req.Bookmarked)
		if errors.Is(err, filecache.ErrNotFound) {
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrNotFound, "file %s not in library", key))
			return
		}
		if err != nil {
			writeTaxonomyError(w, apperrors.Wrapf(err, "bookmark file %s", key))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"key": key, "bookmarked": req.Bookmarked})
	}
}
