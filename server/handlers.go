package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/figstack/go-figma-gateway/internal/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError sends the short error code the client is allowed to see. Full
// detail stays in the server logs.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeTaxonomyError maps a sentinel from the error taxonomy to its HTTP
// status and wire code, logging the underlying cause server-side.
func writeTaxonomyError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")

	switch {
	case apperrors.Is(err, apperrors.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "invalid_state")
	case apperrors.Is(err, apperrors.ErrTokenExchangeFailed):
		writeError(w, http.StatusBadGateway, "token_exchange_failed")
	case apperrors.Is(err, apperrors.ErrIdentityFetchFailed):
		writeError(w, http.StatusBadGateway, "identity_fetch_failed")
	case apperrors.Is(err, apperrors.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	case apperrors.Is(err, apperrors.ErrNoCredential):
		writeError(w, http.StatusUnauthorized, "no_credential")
	case apperrors.Is(err, apperrors.ErrReauthRequired):
		writeError(w, http.StatusUnauthorized, "reauth_required")
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case apperrors.Is(err, apperrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed")
	case apperrors.Is(err, apperrors.ErrProvider):
		writeError(w, http.StatusBadGateway, "provider_error")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrapf(apperrors.ErrValidation, "decode request body: %v", err)
	}
	return nil
}
