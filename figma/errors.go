package figma

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the provider. The body is kept for
// server-side diagnostics only and must never be forwarded to clients.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("figma: api error %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether the provider rejected the credential itself,
// as opposed to a transient or resource-level failure.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
