package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/figstack/go-figma-gateway/figma"
	"github.com/figstack/go-figma-gateway/identity"
	apperrors "github.com/figstack/go-figma-gateway/internal/errors"
	"github.com/figstack/go-figma-gateway/tokens"
	"github.com/figstack/go-figma-gateway/users"
	"github.com/rs/zerolog/log"
)

type authCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
	State       string `json:"state"`
}

type authCallbackResponse struct {
	Session string      `json:"session"`
	User    userProfile `json:"user"`
}

type userProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// AuthCallbackHandler turns a one-time authorization code into a confirmed
// local session. The steps run strictly in order and every failure is
// terminal for this invocation; the client restarts from AuthURLHandler.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authCallbackRequest
		if err := decodeJSON(r, &req); err != nil {
			writeTaxonomyError(w, err)
			return
		}
		if req.Code == "" || req.State == "" {
			writeTaxonomyError(w, apperrors.Wrapf(apperrors.ErrValidation, "code and state are required"))
			return
		}

		ctx := r.Context()

		if err := s.validateState(req.State); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		tokenSet, err := s.exchangeCode(ctx, req.Code, req.RedirectURI)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		user, err := s.resolveIdentity(ctx, tokenSet.AccessToken)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		if err := s.persistTokens(ctx, user.ID, tokenSet); err != nil {
			writeTaxonomyError(w, err)
			return
		}

		session, err := s.sessions.Issue(user.ID, user.Email)
		if err != nil {
			writeTaxonomyError(w, apperrors.Wrapf(err, "issue session"))
			return
		}

		writeJSON(w, http.StatusOK, authCallbackResponse{
			Session: session,
			User: userProfile{
				ID:        user.ID,
				Email:     user.Email,
				Name:      user.Name,
				AvatarURL: user.AvatarURL,
			},
		})
	}
}

// validateState consumes the stored state for this login attempt. The store
// removes the value whether or not it is still live, so a second callback
// with the same state always fails here, before any exchange happens.
func (s *Server) validateState(state string) error {
	if _, err := s.authState.Consume(state); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidState, "consume state: %v", err)
	}
	return nil
}

// exchangeCode swaps the authorization code for the provider's token pair.
// Codes are single-use; a rejection is never retried.
func (s *Server) exchangeCode(ctx context.Context, code, redirectURI string) (figma.TokenSet, error) {
	tokenSet, err := s.provider.Exchange(ctx, code, redirectURI)
	if err != nil {
		return figma.TokenSet{}, apperrors.Wrapf(apperrors.ErrTokenExchangeFailed, "exchange: %v", err)
	}
	return tokenSet, nil
}

// resolveIdentity fetches the provider identity behind the new access token
// and maps it onto a local user, creating one on first contact.
func (s *Server) resolveIdentity(ctx context.Context, accessToken string) (*users.User, error) {
	profile, err := s.provider.Me(ctx, accessToken)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrIdentityFetchFailed, "fetch identity: %v", err)
	}

	now := time.Now()

	var user *users.User
	ident, err := s.repos.Identities.GetByExternalID(ctx, profile.ID)
	switch {
	case err == nil:
		// Known identity: refresh the mutable profile fields upstream may
		// have changed.
		user, err = s.repos.Users.GetByID(ctx, ident.UserID)
		if err != nil {
			return nil, apperrors.Wrapf(err, "load user %s for identity %s", ident.UserID, profile.ID)
		}
		user.Email = profile.Email
		user.Name = profile.Handle
		user.AvatarURL = profile.AvatarURL
		user.LastLoginAt = now
		if err := s.repos.Users.Update(ctx, user); err != nil {
			return nil, apperrors.Wrapf(err, "update user %s", user.ID)
		}

	case errors.Is(err, identity.ErrNotFound):
		user, err = s.createOrReclaimUser(ctx, profile, now)
		if err != nil {
			return nil, err
		}

	default:
		return nil, apperrors.Wrapf(err, "lookup identity %s", profile.ID)
	}

	if err := s.repos.Identities.Upsert(ctx, &identity.Identity{
		ExternalID: profile.ID,
		UserID:     user.ID,
		Email:      profile.Email,
		Name:       profile.Handle,
		AvatarURL:  profile.AvatarURL,
		UpdatedAt:  now,
	}); err != nil {
		return nil, apperrors.Wrapf(err, "upsert identity %s", profile.ID)
	}

	return user, nil
}

// createOrReclaimUser creates a local user for a first-time identity. When
// the email is already registered, the existing account is reused rather
// than failing the whole flow: account creation and identity linking are not
// atomic against a concurrently-existing account.
func (s *Server) createOrReclaimUser(ctx context.Context, profile figma.UserProfile, now time.Time) (*users.User, error) {
	user := &users.User{
		Email:       profile.Email,
		Name:        profile.Handle,
		AvatarURL:   profile.AvatarURL,
		CreatedAt:   now,
		LastLoginAt: now,
	}

	err := s.repos.Users.Create(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrEmailTaken) {
		return nil, apperrors.Wrapf(err, "create user for %s", profile.ID)
	}

	existing, lookupErr := s.repos.Users.GetByEmail(ctx, profile.Email)
	if lookupErr != nil {
		return nil, apperrors.Wrapf(lookupErr, "reclaim user by email")
	}

	// Linking by email without verifying provider ownership of that address
	// merges accounts on collision. Kept for continuity; loud on purpose.
	log.Warn().
		Str("external_id", profile.ID).
		Str("user_id", existing.ID).
		Msg("identity linked to pre-existing account by email match")

	existing.Name = profile.Handle
	existing.AvatarURL = profile.AvatarURL
	existing.LastLoginAt = now
	if err := s.repos.Users.Update(ctx, existing); err != nil {
		return nil, apperrors.Wrapf(err, "update reclaimed user %s", existing.ID)
	}
	return existing, nil
}

// persistTokens replaces the user's stored credential wholesale. Upsert
// semantics keep this idempotent: a double-submitted callback leaves exactly
// one live record.
func (s *Server) persistTokens(ctx context.Context, userID string, tokenSet figma.TokenSet) error {
	record := &tokens.Record{
		UserID:       userID,
		AccessToken:  tokenSet.AccessToken,
		RefreshToken: tokenSet.RefreshToken,
		ExpiresAt:    tokenSet.ExpiresAt,
		UpdatedAt:    time.Now(),
	}
	if err := s.repos.Tokens.Upsert(ctx, record); err != nil {
		return apperrors.Wrapf(err, "persist token record for %s", userID)
	}
	return nil
}
