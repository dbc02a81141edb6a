package server_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/figstack/go-figma-gateway/internal/config"
	"github.com/stretchr/testify/require"
)

func TestAuthURLHandler(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/url", map[string]string{
		"redirect_uri": testRedirectURI,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[map[string]string](t, rec)
	require.Contains(t, resp["url"], testRedirectURI)
	require.Contains(t, resp["url"], resp["state"])
	require.GreaterOrEqual(t, len(resp["state"]), 16)
}

func TestAuthURLHandlerStatesAreUnique(t *testing.T) {
	f := setupTestFixture(t)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/url", map[string]string{
			"redirect_uri": testRedirectURI,
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		state := decodeBody[map[string]string](t, rec)["state"]
		require.False(t, seen[state], "state %q issued twice", state)
		seen[state] = true
	}
}

func TestAuthURLHandlerEchoesCallerState(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/url", map[string]string{
		"redirect_uri": testRedirectURI,
		"state":        "caller-chosen-state",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "caller-chosen-state", decodeBody[map[string]string](t, rec)["state"])
}

func TestAuthURLHandlerMissingRedirectURI(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/url", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_failed", decodeBody[map[string]string](t, rec)["error"])
}

func TestAuthURLHandlerRedirectAllowlist(t *testing.T) {
	f := setupTestFixtureWith(t, func(cfg *config.Config) {
		cfg.RedirectAllowlist = []string{"https://app.example.com/auth"}
	})

	rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/url", map[string]string{
		"redirect_uri": "https://evil.example.com/steal",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_failed", decodeBody[map[string]string](t, rec)["error"])

	rec = f.doJSON(t, http.MethodPost, "/api/v1/auth/url", map[string]string{
		"redirect_uri": "https://app.example.com/auth",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	if !strings.HasPrefix(decodeBody[map[string]string](t, rec)["url"], "https://") {
		t.Fatalf("expected absolute authorize url")
	}
}
