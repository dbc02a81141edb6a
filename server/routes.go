package server

import "net/http"

func (s *Server) initRoutes() {
	// Authorization flow
	s.RegisterRouteFunc("POST "+RouteAuthURL, ChainMiddleware(s.AuthURLHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthCallback, ChainMiddleware(s.AuthCallbackHandler(), s.APIMiddleware()...))

	// Authenticated API (session required)
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteFunc("GET "+RouteFiles, ChainMiddleware(s.FilesHandler(), s.APIMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteFunc("POST "+RouteFileOpen, ChainMiddleware(s.FileOpenHandler(), s.APIMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteFunc("POST "+RouteFileBookmark, ChainMiddleware(s.FileBookmarkHandler(), s.APIMiddleware(s.RequireSessionAuth())...))

	// Preflight for the API surface
	s.RegisterRouteFunc("OPTIONS /api/v1/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
