package figma

import "time"

// TokenSet is the credential material returned by the token-exchange and
// token-refresh endpoints. RefreshToken may be empty on refresh responses;
// the provider does not always rotate it.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// UserProfile is the identity behind an access token, as reported by /v1/me.
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Handle    string `json:"handle"`
	AvatarURL string `json:"img_url"`
}

// FileMeta is the subset of /v1/files/{key} metadata the gateway cares about.
// The full document tree is never requested (depth=1).
type FileMeta struct {
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
	LastModified string `json:"lastModified"`
	EditorType   string `json:"editorType"`
}

// tokenResponse is the wire shape of the refresh endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
