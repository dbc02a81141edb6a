package server

import (
	"net/http"
	"time"

	apperrors "github.com/figstack/go-figma-gateway/internal/errors"
	"github.com/figstack/go-figma-gateway/server/authstate"
)

type authURLRequest struct {
	RedirectURI string `json:"redirect_uri"`
	State       string `json:"state,omitempty"`
}

type authURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// AuthURLHandler builds the provider authorize URL for a new login attempt.
// The state value is recorded server-side and consumed, once, by the
// callback handler.
func (s *Server) AuthURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authURLRequest
		if err := decodeJSON(r, &req); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		if req.RedirectURI == "" {
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrValidation, "redirect_uri is required"))
			return
		}
		if !s.config.RedirectURIAllowed(req.RedirectURI) {
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrValidation, "redirect_uri %q not in allow-list", req.RedirectURI))
			return
		}

		state := req.State
		if state == "" {
			state = generateRandomString(stateEntropyBytes)
		}

		if err := s.authState.Put(&authstate.State{
			Value:       state,
			RedirectURI: req.RedirectURI,
			CreatedAt:   time.Now(),
		}); err != nil {
			writeTaxonomyError(w, apperrors.Wrapf(err, "store auth state"))
			return
		}

		writeJSON(w, http.StatusOK, authURLResponse{
			URL:   s.provider.AuthorizationURL(req.RedirectURI, state),
			State: state,
		})
	}
}
