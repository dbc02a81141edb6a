package server

import (
	"crypto/rand"
	"encoding/base64"
)

// stateEntropyBytes generates 32 base64url characters, comfortably past the
// guessing-resistance floor for the anti-forgery state value.
const stateEntropyBytes = 24

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
