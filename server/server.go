// Package server exposes the gateway's HTTP surface: authorization initiation,
// the OAuth callback state machine, and the authenticated file endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/figstack/go-figma-gateway/figma"
	"github.com/figstack/go-figma-gateway/filecache"
	"github.com/figstack/go-figma-gateway/identity"
	"github.com/figstack/go-figma-gateway/internal/config"
	"github.com/figstack/go-figma-gateway/server/authstate"
	"github.com/figstack/go-figma-gateway/sessions"
	"github.com/figstack/go-figma-gateway/tokens"
	"github.com/figstack/go-figma-gateway/users"
	"golang.org/x/sync/singleflight"
)

// Provider is the slice of the Figma API the handlers depend on. Tests
// substitute a fake; production wires *figma.Client.
type Provider interface {
	AuthorizationURL(redirectURI, state string) string
	Exchange(ctx context.Context, code, redirectURI string) (figma.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (figma.TokenSet, error)
	Me(ctx context.Context, accessToken string) (figma.UserProfile, error)
	File(ctx context.Context, accessToken, key string) (figma.FileMeta, error)
}

// Repos aggregates the durable stores the handlers mutate.
type Repos struct {
	Users      users.Repo
	Identities identity.Repo
	Tokens     tokens.Repo
	Files      filecache.Repo
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	provider  Provider
	repos     Repos
	sessions  *sessions.Manager
	authState authstate.Repo

	// refreshGroup collapses concurrent token refreshes for one user into a
	// single provider call. Correctness does not depend on it; the token
	// store's wholesale upsert already makes duplicate refreshes safe.
	refreshGroup singleflight.Group
}

func New(cfg config.Config, provider Provider, repos Repos, sessionMgr *sessions.Manager, stateRepo authstate.Repo) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("[Server New] provider is required")
	}
	if sessionMgr == nil {
		return nil, fmt.Errorf("[Server New] session manager is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		provider:  provider,
		repos:     repos,
		sessions:  sessionMgr,
		authState: stateRepo,
	}
	s.env = cfg.Env

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
