package server_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/figstack/go-figma-gateway/figma"
	"github.com/figstack/go-figma-gateway/filecache"
	"github.com/figstack/go-figma-gateway/tokens"
	"github.com/figstack/go-figma-gateway/users"
	"github.com/stretchr/testify/require"
)

type fileListBody struct {
	Files []struct {
		Key          string `json:"key"`
		Name         string `json:"name"`
		ThumbnailURL string `json:"thumbnail_url"`
		EditorType   string `json:"editor_type"`
		IsBookmarked bool   `json:"is_bookmarked"`
	} `json:"files"`
	Message string `json:"message"`
}

// seedAuthedUser installs a user with a stored credential and returns the
// user id plus a valid session token.
func seedAuthedUser(t *testing.T, f *testFixture, expiresAt time.Time) (string, string) {
	t.Helper()

	user := &users.User{Email: testEmail, Name: testHandle, CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), user))

	require.NoError(t, f.tokens.Upsert(context.Background(), &tokens.Record{
		UserID:       user.ID,
		AccessToken:  testAccessToken,
		RefreshToken: testRefreshToken,
		ExpiresAt:    expiresAt,
		UpdatedAt:    time.Now(),
	}))

	session, err := f.sessions.Issue(user.ID, user.Email)
	require.NoError(t, err)
	return user.ID, session
}

func seedCachedFile(t *testing.T, f *testFixture, userID, key, title string, accessedAt time.Time) {
	t.Helper()
	require.NoError(t, f.files.Upsert(context.Background(), &filecache.Entry{
		UserID:         userID,
		FileKey:        key,
		Title:          title,
		ThumbnailURL:   "https://cdn.example.com/cached/" + key,
		EditorType:     "figma",
		LastAccessedAt: accessedAt,
	}))
}

func TestFilesHandlerRequiresSession(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", decodeBody[map[string]string](t, rec)["error"])

	rec = f.doJSON(t, http.MethodGet, "/api/v1/files", nil, "not-a-session")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFilesHandlerNoCredential(t *testing.T) {
	f := setupTestFixture(t)

	user := &users.User{Email: testEmail, CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), user))
	session, err := f.sessions.Issue(user.ID, user.Email)
	require.NoError(t, err)

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "no_credential", decodeBody[map[string]string](t, rec)["error"])
}

func TestFilesHandlerEmptyLibrary(t *testing.T) {
	f := setupTestFixture(t)
	_, session := seedAuthedUser(t, f, time.Now().Add(time.Hour))

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[fileListBody](t, rec)
	require.Empty(t, body.Files)
	require.NotEmpty(t, body.Message)
}

func TestFilesHandlerListsLiveMetadata(t *testing.T) {
	f := setupTestFixture(t)
	userID, session := seedAuthedUser(t, f, time.Now().Add(time.Hour))
	seedCachedFile(t, f, userID, "key-old", "Old Title", time.Now().Add(-time.Hour))
	seedCachedFile(t, f, userID, "key-new", "New Title", time.Now())

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[fileListBody](t, rec)
	require.Len(t, body.Files, 2)
	require.Equal(t, "key-new", body.Files[0].Key, "most recently accessed first")
	require.Equal(t, "Live key-new", body.Files[0].Name)
	require.Equal(t, "key-old", body.Files[1].Key)

	_, refresh, _, _ := f.provider.callCounts()
	require.Zero(t, refresh, "a live credential must not trigger a refresh")
}

func TestFilesHandlerDegradesToCacheOnFetchFailure(t *testing.T) {
	f := setupTestFixture(t)
	userID, session := seedAuthedUser(t, f, time.Now().Add(time.Hour))
	seedCachedFile(t, f, userID, "key-ok", "Cached OK", time.Now())
	seedCachedFile(t, f, userID, "key-broken", "Cached Broken", time.Now().Add(-time.Minute))

	f.provider.fileFunc = func(accessToken, key string) (figma.FileMeta, error) {
		if key == "key-broken" {
			return figma.FileMeta{}, errors.New("upstream 500")
		}
		return figma.FileMeta{Name: "Live " + key, EditorType: "figma"}, nil
	}

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[fileListBody](t, rec)
	require.Len(t, body.Files, 2)
	require.Equal(t, "Live key-ok", body.Files[0].Name)
	require.Equal(t, "Cached Broken", body.Files[1].Name, "failed fetch serves the cached entry")
	require.Equal(t, "https://cdn.example.com/cached/key-broken", body.Files[1].ThumbnailURL)
}

func TestFilesHandlerRefreshesExpiredCredential(t *testing.T) {
	f := setupTestFixture(t)
	userID, session := seedAuthedUser(t, f, time.Now().Add(-time.Minute))
	seedCachedFile(t, f, userID, "key-1", "Title", time.Now())

	var seenAccessToken string
	f.provider.fileFunc = func(accessToken, key string) (figma.FileMeta, error) {
		seenAccessToken = accessToken
		return figma.FileMeta{Name: "Live " + key}, nil
	}

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	_, refresh, _, _ := f.provider.callCounts()
	require.Equal(t, 1, refresh)
	require.Equal(t, "refreshed-access-token", seenAccessToken, "file fetches must use the renewed token")

	record, err := f.tokens.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "refreshed-access-token", record.AccessToken)
	require.Equal(t, "rotated-refresh-token", record.RefreshToken)
	require.True(t, record.ExpiresAt.After(time.Now()))
}

func TestFilesHandlerRefreshKeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	f := setupTestFixture(t)
	userID, session := seedAuthedUser(t, f, time.Now().Add(-time.Minute))

	f.provider.refreshFunc = func(refreshToken string) (figma.TokenSet, error) {
		return figma.TokenSet{
			AccessToken: "refreshed-access-token",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, nil
	}

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	record, err := f.tokens.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "refreshed-access-token", record.AccessToken)
	require.Equal(t, testRefreshToken, record.RefreshToken, "absent rotation keeps the prior refresh token")
}

func TestFilesHandlerRefreshFailureLeavesRecordUntouched(t *testing.T) {
	f := setupTestFixture(t)
	expiry := time.Now().Add(-time.Minute)
	userID, session := seedAuthedUser(t, f, expiry)

	f.provider.refreshFunc = func(refreshToken string) (figma.TokenSet, error) {
		return figma.TokenSet{}, errors.New("invalid_grant")
	}

	rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "reauth_required", decodeBody[map[string]string](t, rec)["error"])

	record, err := f.tokens.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, testAccessToken, record.AccessToken)
	require.Equal(t, testRefreshToken, record.RefreshToken)
	require.True(t, record.ExpiresAt.Equal(expiry), "a failed refresh must not mutate the stored record")
}

func TestFilesHandlerConcurrentRequestsShareOneRefresh(t *testing.T) {
	f := setupTestFixture(t)
	_, session := seedAuthedUser(t, f, time.Now().Add(-time.Minute))

	f.provider.refreshFunc = func(refreshToken string) (figma.TokenSet, error) {
		time.Sleep(20 * time.Millisecond)
		return figma.TokenSet{
			AccessToken:  "refreshed-access-token",
			RefreshToken: "rotated-refresh-token",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}

	const callers = 8
	codes := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := f.doJSON(t, http.MethodGet, "/api/v1/files", nil, session)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		require.Equal(t, http.StatusOK, code)
	}

	_, refresh, _, _ := f.provider.callCounts()
	require.Equal(t, 1, refresh, "concurrent listings must collapse into one refresh")
}
