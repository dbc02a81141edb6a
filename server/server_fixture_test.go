package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/figstack/go-figma-gateway/figma"
	filecachefake "github.com/figstack/go-figma-gateway/filecache/repofake"
	identityfake "github.com/figstack/go-figma-gateway/identity/repofake"
	"github.com/figstack/go-figma-gateway/internal/config"
	"github.com/figstack/go-figma-gateway/server"
	"github.com/figstack/go-figma-gateway/server/authstate"
	"github.com/figstack/go-figma-gateway/sessions"
	tokenfake "github.com/figstack/go-figma-gateway/tokens/repofake"
	userfake "github.com/figstack/go-figma-gateway/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret = "test-session-secret"
	testRedirectURI   = "https://app.example.com/auth"
	testExternalID    = "figma-user-1"
	testEmail         = "jane.doe@example.com"
	testHandle        = "Jane Doe"
	testAvatarURL     = "https://cdn.example.com/avatar.png"
	testAccessToken   = "access-token-1"
	testRefreshToken  = "refresh-token-1"
)

// fakeProvider is a scriptable server.Provider that counts calls.
type fakeProvider struct {
	mu sync.Mutex

	exchangeCalls int
	refreshCalls  int
	meCalls       int
	fileCalls     int

	exchangeFunc func(code, redirectURI string) (figma.TokenSet, error)
	refreshFunc  func(refreshToken string) (figma.TokenSet, error)
	meFunc       func(accessToken string) (figma.UserProfile, error)
	fileFunc     func(accessToken, key string) (figma.FileMeta, error)
}

var _ server.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) AuthorizationURL(redirectURI, state string) string {
	return "https://www.figma.com/oauth?redirect_uri=" + redirectURI + "&state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code, redirectURI string) (figma.TokenSet, error) {
	f.mu.Lock()
	f.exchangeCalls++
	fn := f.exchangeFunc
	f.mu.Unlock()
	if fn == nil {
		return figma.TokenSet{
			AccessToken:  testAccessToken,
			RefreshToken: testRefreshToken,
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}
	return fn(code, redirectURI)
}

func (f *fakeProvider) Refresh(_ context.Context, refreshToken string) (figma.TokenSet, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refreshFunc
	f.mu.Unlock()
	if fn == nil {
		return figma.TokenSet{
			AccessToken:  "refreshed-access-token",
			RefreshToken: "rotated-refresh-token",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}
	return fn(refreshToken)
}

func (f *fakeProvider) Me(_ context.Context, accessToken string) (figma.UserProfile, error) {
	f.mu.Lock()
	f.meCalls++
	fn := f.meFunc
	f.mu.Unlock()
	if fn == nil {
		return figma.UserProfile{
			ID:        testExternalID,
			Email:     testEmail,
			Handle:    testHandle,
			AvatarURL: testAvatarURL,
		}, nil
	}
	return fn(accessToken)
}

func (f *fakeProvider) File(_ context.Context, accessToken, key string) (figma.FileMeta, error) {
	f.mu.Lock()
	f.fileCalls++
	fn := f.fileFunc
	f.mu.Unlock()
	if fn == nil {
		return figma.FileMeta{
			Name:         "Live " + key,
			ThumbnailURL: "https://cdn.example.com/thumb/" + key,
			LastModified: "2026-08-01T10:00:00Z",
			EditorType:   "figma",
		}, nil
	}
	return fn(accessToken, key)
}

func (f *fakeProvider) callCounts() (exchange, refresh, me, file int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls, f.refreshCalls, f.meCalls, f.fileCalls
}

// testFixture holds all test dependencies
type testFixture struct {
	server   *server.Server
	provider *fakeProvider
	users    *userfake.FakeUserRepo
	idents   *identityfake.FakeIdentityRepo
	tokens   *tokenfake.FakeTokenRepo
	files    *filecachefake.FakeFileRepo
	sessions *sessions.Manager
	state    *authstate.InMemoryRepo
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	return setupTestFixtureWith(t, nil)
}

func setupTestFixtureWith(t *testing.T, mutateConfig func(*config.Config)) *testFixture {
	t.Helper()

	f := &testFixture{
		provider: &fakeProvider{},
		users:    userfake.NewFakeUserRepo(),
		idents:   identityfake.NewFakeIdentityRepo(),
		tokens:   tokenfake.NewFakeTokenRepo(),
		files:    filecachefake.NewFakeFileRepo(),
		sessions: sessions.NewManager(testSessionSecret, "figma-gateway-test", time.Hour),
		state:    authstate.NewInMemoryRepo(10 * time.Minute),
	}

	cfg := config.Config{
		AppName:           "figma-gateway-test",
		Env:               "TEST",
		FigmaClientID:     "client-id",
		FigmaClientSecret: "client-secret",
		SessionSecret:     testSessionSecret,
		SessionTTL:        time.Hour,
		AuthStateTTL:      10 * time.Minute,
		AllowedOrigins:    []string{"*"},
	}
	if mutateConfig != nil {
		mutateConfig(&cfg)
	}

	srv, err := server.New(cfg, f.provider, server.Repos{
		Users:      f.users,
		Identities: f.idents,
		Tokens:     f.tokens,
		Files:      f.files,
	}, f.sessions, f.state)
	require.NoError(t, err)

	f.server = srv
	return f
}

// doJSON performs a JSON request against the fixture server.
func (f *testFixture) doJSON(t *testing.T, method, path string, body any, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
