package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting for the gateway. All values come from
// the environment; missing provider credentials fail startup rather than the
// first request that needs them.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"Figma Gateway"`
	Port    string `env:"PORT" envDefault:"8080"`
	Env     string `env:"ENV" envDefault:"DEV"`

	FigmaClientID     string   `env:"FIGMA_CLIENT_ID"`
	FigmaClientSecret string   `env:"FIGMA_CLIENT_SECRET"`
	FigmaAuthURL      string   `env:"FIGMA_AUTH_URL" envDefault:"https://www.figma.com/oauth"`
	FigmaTokenURL     string   `env:"FIGMA_TOKEN_URL" envDefault:"https://api.figma.com/v1/oauth/token"`
	FigmaRefreshURL   string   `env:"FIGMA_REFRESH_URL" envDefault:"https://api.figma.com/v1/oauth/refresh"`
	FigmaAPIBaseURL   string   `env:"FIGMA_API_BASE_URL" envDefault:"https://api.figma.com"`
	FigmaScopes       []string `env:"FIGMA_SCOPES" envSeparator:"," envDefault:"file_content:read,file_metadata:read,file_versions:read"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	AuthStateTTL  time.Duration `env:"AUTH_STATE_TTL" envDefault:"10m"`

	// RedirectAllowlist restricts the redirect_uri accepted by the
	// authorization initiator. Empty means any URI is accepted.
	RedirectAllowlist []string `env:"REDIRECT_ALLOWLIST" envSeparator:","`

	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"figma-gateway.db"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the gateway cannot run without.
func (c Config) Validate() error {
	var missing []string
	if c.FigmaClientID == "" {
		missing = append(missing, "FIGMA_CLIENT_ID")
	}
	if c.FigmaClientSecret == "" {
		missing = append(missing, "FIGMA_CLIENT_SECRET")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	port := c.Port
	if port != "" && port[0] != ':' {
		port = ":" + port
	}
	return port
}

// RedirectURIAllowed reports whether the caller-supplied redirect target may
// be used. An empty allow-list permits any URI.
func (c Config) RedirectURIAllowed(uri string) bool {
	if len(c.RedirectAllowlist) == 0 {
		return true
	}
	for _, allowed := range c.RedirectAllowlist {
		if uri == allowed {
			return true
		}
	}
	return false
}
