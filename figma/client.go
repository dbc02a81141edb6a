// Package figma wraps the Figma OAuth and REST endpoints the gateway depends
// on: authorization URL construction, code exchange, token refresh, identity
// lookup and per-key file metadata. The client is stateless; credentials are
// passed per call.
package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultTimeout = 15 * time.Second

// Options configures a Client. AuthURL, TokenURL, RefreshURL and APIBaseURL
// default to Figma's production endpoints; tests point them at a fake.
type Options struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RefreshURL   string
	APIBaseURL   string
	Scopes       []string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

type Client struct {
	oauth      oauth2.Config
	refreshURL string
	apiBaseURL string
	scopes     []string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(opts Options) *Client {
	if opts.AuthURL == "" {
		opts.AuthURL = "https://www.figma.com/oauth"
	}
	if opts.TokenURL == "" {
		opts.TokenURL = "https://api.figma.com/v1/oauth/token"
	}
	if opts.RefreshURL == "" {
		opts.RefreshURL = "https://api.figma.com/v1/oauth/refresh"
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = "https://api.figma.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		oauth: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  opts.AuthURL,
				TokenURL: opts.TokenURL,
			},
			Scopes: opts.Scopes,
		},
		refreshURL: opts.RefreshURL,
		apiBaseURL: strings.TrimRight(opts.APIBaseURL, "/"),
		scopes:     opts.Scopes,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// AuthorizationURL builds the provider-facing authorize URL for a login
// attempt. Scopes are comma-joined; Figma does not accept the space-joined
// form the oauth2 package produces.
func (c *Client) AuthorizationURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {c.oauth.ClientID},
		"redirect_uri":  {redirectURI},
		"scope":         {strings.Join(c.scopes, ",")},
		"state":         {state},
		"response_type": {"code"},
	}
	return c.oauth.Endpoint.AuthURL + "?" + params.Encode()
}

// Exchange swaps a one-time authorization code for a token set. Codes are
// single-use by provider contract, so a failure here is never retried.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (TokenSet, error) {
	cfg := c.oauth
	cfg.RedirectURL = redirectURI

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			return TokenSet{}, &APIError{StatusCode: rErr.Response.StatusCode, Body: string(rErr.Body)}
		}
		return TokenSet{}, fmt.Errorf("figma: code exchange: %w", err)
	}

	return TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

// Refresh trades a refresh token for a fresh token set. Figma's refresh
// endpoint is not RFC 6749 shaped (no grant_type, separate URL), so this is
// a plain form POST rather than an oauth2.TokenSource.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenSet{}, fmt.Errorf("figma: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenSet{}, fmt.Errorf("figma: refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn().Int("status", resp.StatusCode).Msg("token refresh rejected by provider")
		return TokenSet{}, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return TokenSet{}, fmt.Errorf("figma: decode refresh response: %w", err)
	}

	return TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

// Me returns the identity behind an access token.
func (c *Client) Me(ctx context.Context, accessToken string) (UserProfile, error) {
	var profile UserProfile
	if err := c.getJSON(ctx, "/v1/me", accessToken, &profile); err != nil {
		return UserProfile{}, err
	}
	return profile, nil
}

// File returns metadata for one file key. depth=1 keeps the response to
// top-level metadata instead of the whole document tree.
func (c *Client) File(ctx context.Context, accessToken, key string) (FileMeta, error) {
	var meta FileMeta
	path := "/v1/files/" + url.PathEscape(key) + "?depth=1"
	if err := c.getJSON(ctx, path, accessToken, &meta); err != nil {
		return FileMeta{}, err
	}
	return meta, nil
}

func (c *Client) getJSON(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("figma: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("figma: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("figma: decode %s response: %w", path, err)
	}
	return nil
}
