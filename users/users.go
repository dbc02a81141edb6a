package users

import "time"

// User is a local account. It exists only because an external provider
// identity resolved to it; there are no local credentials.
type User struct {
	ID          string    `json:"id,omitempty"`           // Unique identifier for the user
	Email       string    `json:"email,omitempty"`        // User's email address, unique
	Name        string    `json:"name,omitempty"`         // Display name reported by the provider
	AvatarURL   string    `json:"avatar_url,omitempty"`   // Avatar reference reported by the provider
	CreatedAt   time.Time `json:"created_at,omitempty"`   // When the account was first created
	LastLoginAt time.Time `json:"last_login_at,omitempty"` // Last successful authorization
}
