package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Authorization flow
	RouteAuthURL      = "/api/v1/auth/url"
	RouteAuthCallback = "/api/v1/auth/callback"

	// Authenticated API
	RouteMe           = "/api/v1/me"
	RouteFiles        = "/api/v1/files"
	RouteFileOpen     = "/api/v1/files/open"
	RouteFileBookmark = "/api/v1/files/{key}/bookmark"

	// Operational
	RouteHealth = "/healthz"
)
