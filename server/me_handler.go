package server

import (
	"errors"
	"net/http"

	apperrors "github.com/figstack/go-figma-gateway/internal/errors"
	"github.com/figstack/go-figma-gateway/users"
)

// MeHandler returns the authenticated user's profile.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := userIDFromContext(ctx)

		user, err := s.repos.Users.GetByID(ctx, userID)
		if errors.Is(err, users.ErrNotFound) {
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrNotAuthenticated, "user %s no longer exists", userID))
			return
		}
		if err != nil {
			writeTaxonomyError(w, apperrors.Wrapf(err, "load user %s", userID))
			return
		}

		writeJSON(w, http.StatusOK, userProfile{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
		})
	}
}
