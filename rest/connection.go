// Package rest implements the authenticated HTTP layer shared by every
// resource client. It owns token acquisition and refresh, request spacing,
// throttling backoff and retries, and decoding of the service's JSON error
// envelope.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/m365/auth"
)

// Flow selects the OAuth2 grant used to obtain tokens.
type Flow string

const (
	// FlowAuthorization is the authorization code grant for confidential
	// clients. Requires a client secret.
	FlowAuthorization Flow = "authorization"
	// FlowPublic is the authorization code grant with PKCE for public
	// clients. No client secret is used.
	FlowPublic Flow = "public"
	// FlowCredentials is the client credentials grant for daemon
	// applications. Requires a client secret and a concrete tenant.
	FlowCredentials Flow = "credentials"
	// FlowPassword is the resource owner password grant. Discouraged by
	// Microsoft but still supported for legacy setups.
	FlowPassword Flow = "password"
)

const (
	// DefaultTenant is the multi-tenant authority endpoint.
	DefaultTenant = "common"

	// DefaultRedirectURL is the native client redirect used for console
	// based authentication, where the user pastes the redirected URL back.
	DefaultRedirectURL = "https://login.microsoftonline.com/common/oauth2/nativeclient"

	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second

	// backoffFactor is the base delay for exponential retry backoff.
	backoffFactor = 500 * time.Millisecond
)

// Config configures a Connection.
type Config struct {
	// ClientID is the application (client) ID from the Azure portal.
	ClientID string
	// ClientSecret is the client secret. Required for the authorization
	// and credentials flows, forbidden for the public flow.
	ClientSecret string
	// TenantID is the directory tenant. Defaults to "common". The
	// credentials flow requires a concrete tenant ID.
	TenantID string
	// Flow selects the OAuth2 grant. Defaults to FlowAuthorization.
	Flow Flow
	// Scopes are the fully qualified scopes to request, normally produced
	// by protocol.ScopesFor.
	Scopes []string
	// RedirectURL overrides DefaultRedirectURL for the code flows.
	RedirectURL string
	// Username and Password are used by FlowPassword only.
	Username string
	Password string
	// Backend persists tokens across runs. Defaults to a file system
	// backend in the current directory.
	Backend auth.Backend
	// HTTPClient overrides the default client (60 second timeout).
	HTTPClient *http.Client
	// Logger receives debug and warning events. Defaults to discard.
	Logger *slog.Logger
	// RequestSpacing is the minimum delay between requests. Defaults to
	// DefaultRequestSpacing.
	RequestSpacing time.Duration
	// MaxRetries is the number of retries for throttled and server
	// errors. Defaults to 3.
	MaxRetries int
}

// Connection is an authenticated client for the Microsoft REST services.
// It is safe for concurrent use.
type Connection struct {
	cfg      Config
	client   *http.Client
	naked    *http.Client
	backend  auth.Backend
	throttle *throttle
	logger   *slog.Logger

	mu    sync.Mutex
	token *auth.Token

	refreshGroup singleflight.Group
}

// NewConnection validates the configuration and returns a Connection.
func NewConnection(cfg Config) (*Connection, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.Flow == "" {
		cfg.Flow = FlowAuthorization
	}
	if cfg.TenantID == "" {
		cfg.TenantID = DefaultTenant
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}

	switch cfg.Flow {
	case FlowAuthorization:
		if cfg.ClientSecret == "" {
			return nil, errors.New("authorization flow requires a client secret")
		}
	case FlowPublic:
		if cfg.ClientSecret != "" {
			return nil, errors.New("public flow must not use a client secret")
		}
	case FlowCredentials:
		if cfg.ClientSecret == "" {
			return nil, errors.New("credentials flow requires a client secret")
		}
		if cfg.TenantID == DefaultTenant {
			return nil, errors.New("credentials flow requires a concrete tenant ID")
		}
	case FlowPassword:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, errors.New("password flow requires a username and password")
		}
	default:
		return nil, fmt.Errorf("unknown auth flow %q", cfg.Flow)
	}

	backend := cfg.Backend
	if backend == nil {
		backend = auth.NewFileSystemBackend("")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	return &Connection{
		cfg:      cfg,
		client:   client,
		naked:    &http.Client{Timeout: client.Timeout},
		backend:  backend,
		throttle: newThrottle(cfg.RequestSpacing),
		logger:   logger,
	}, nil
}

// Logger returns the connection's logger.
func (c *Connection) Logger() *slog.Logger {
	return c.logger
}

// NakedClient returns an HTTP client that attaches no authentication.
// Use it for pre-signed URLs such as OneDrive download links, where an
// Authorization header would be rejected.
func (c *Connection) NakedClient() *http.Client {
	return c.naked
}

func (c *Connection) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint:     microsoft.AzureADEndpoint(c.cfg.TenantID),
		RedirectURL:  c.cfg.RedirectURL,
		Scopes:       c.cfg.Scopes,
	}
}

// AuthRequest holds the state of an in-progress authorization code flow.
type AuthRequest struct {
	// URL is the consent URL the user must visit.
	URL string
	// State is the anti-forgery state embedded in the URL.
	State string
	// Verifier is the PKCE code verifier for the token exchange.
	Verifier string
}

// NewAuthRequest starts an authorization code flow and returns the consent
// URL the user must visit, together with the state and PKCE verifier needed
// to complete the exchange.
func (c *Connection) NewAuthRequest() (*AuthRequest, error) {
	switch c.cfg.Flow {
	case FlowAuthorization, FlowPublic:
	default:
		return nil, fmt.Errorf("auth flow %q does not use a consent URL", c.cfg.Flow)
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := c.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	return &AuthRequest{URL: authURL, State: state, Verifier: verifier}, nil
}

// RequestToken completes an authorization code flow from the URL the user
// was redirected to after consenting. It verifies the state, exchanges the
// code and stores the resulting token in the backend.
func (c *Connection) RequestToken(ctx context.Context, redirectedURL string, req *AuthRequest) error {
	u, err := url.Parse(redirectedURL)
	if err != nil {
		return fmt.Errorf("parse redirected URL: %w", err)
	}

	q := u.Query()
	if errCode := q.Get("error"); errCode != "" {
		return fmt.Errorf("authorization denied: %s: %s", errCode, q.Get("error_description"))
	}
	if q.Get("state") != req.State {
		return errors.New("state mismatch in redirected URL")
	}
	code := q.Get("code")
	if code == "" {
		return errors.New("no authorization code in redirected URL")
	}

	return c.ExchangeCode(ctx, code, req.Verifier)
}

// ExchangeCode exchanges an authorization code for a token and stores it.
// The verifier must be the PKCE verifier from the matching AuthRequest.
func (c *Connection) ExchangeCode(ctx context.Context, code, verifier string) error {
	tok, err := c.oauthConfig().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return c.storeToken(ctx, tok)
}

// Authenticate obtains a token for the non-interactive flows (credentials
// and password). The code flows authenticate through NewAuthRequest and
// RequestToken instead.
func (c *Connection) Authenticate(ctx context.Context) error {
	switch c.cfg.Flow {
	case FlowCredentials:
		_, err := c.fetchClientCredentials(ctx)
		return err
	case FlowPassword:
		tok, err := c.oauthConfig().PasswordCredentialsToken(ctx, c.cfg.Username, c.cfg.Password)
		if err != nil {
			return fmt.Errorf("password grant: %w", err)
		}
		return c.storeToken(ctx, tok)
	default:
		return fmt.Errorf("auth flow %q authenticates interactively", c.cfg.Flow)
	}
}

// IsAuthenticated reports whether a usable token is available, refreshing
// an expired one when possible.
func (c *Connection) IsAuthenticated(ctx context.Context) bool {
	_, err := c.Token(ctx)
	return err == nil
}

// Token returns a valid access token, loading it from the backend and
// refreshing it as needed.
func (c *Connection) Token(ctx context.Context) (*auth.Token, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()

	if tok == nil {
		loaded, err := c.backend.Load(ctx)
		switch {
		case errors.Is(err, auth.ErrNoToken):
			if c.cfg.Flow == FlowCredentials || c.cfg.Flow == FlowPassword {
				return c.refresh(ctx)
			}
			return nil, ErrAuthRequired
		case err != nil:
			return nil, fmt.Errorf("load token: %w", err)
		}
		c.mu.Lock()
		c.token = loaded
		c.mu.Unlock()
		tok = loaded
	}

	if !tok.Expired() {
		return tok, nil
	}
	return c.refresh(ctx)
}

// refresh obtains a fresh token, deduplicating concurrent attempts. Before
// hitting the authority it re-reads the backend, so a refresh done by
// another process is picked up instead of repeated.
func (c *Connection) refresh(ctx context.Context) (*auth.Token, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		if stored, err := c.backend.Load(ctx); err == nil && !stored.Expired() {
			c.logger.Debug("picked up token refreshed elsewhere")
			c.mu.Lock()
			c.token = stored
			c.mu.Unlock()
			return stored, nil
		}

		switch c.cfg.Flow {
		case FlowCredentials:
			return c.fetchClientCredentials(ctx)
		case FlowPassword:
			c.mu.Lock()
			tok := c.token
			c.mu.Unlock()
			if tok.IsLongLived() {
				return c.refreshWithToken(ctx, tok)
			}
			oTok, err := c.oauthConfig().PasswordCredentialsToken(ctx, c.cfg.Username, c.cfg.Password)
			if err != nil {
				return nil, fmt.Errorf("password grant: %w", err)
			}
			if err := c.storeToken(ctx, oTok); err != nil {
				return nil, err
			}
			return auth.FromOAuth2(oTok), nil
		default:
			c.mu.Lock()
			tok := c.token
			c.mu.Unlock()
			if !tok.IsLongLived() {
				return nil, ErrNoRefreshToken
			}
			return c.refreshWithToken(ctx, tok)
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*auth.Token), nil
}

func (c *Connection) refreshWithToken(ctx context.Context, tok *auth.Token) (*auth.Token, error) {
	c.logger.Debug("refreshing access token")

	oTok, err := c.oauthConfig().TokenSource(ctx, tok.OAuth2()).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if err := c.storeToken(ctx, oTok); err != nil {
		return nil, err
	}
	return auth.FromOAuth2(oTok), nil
}

func (c *Connection) fetchClientCredentials(ctx context.Context) (*auth.Token, error) {
	cc := &clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     microsoft.AzureADEndpoint(c.cfg.TenantID).TokenURL,
		Scopes:       c.cfg.Scopes,
	}
	oTok, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials grant: %w", err)
	}
	if err := c.storeToken(ctx, oTok); err != nil {
		return nil, err
	}
	return auth.FromOAuth2(oTok), nil
}

func (c *Connection) storeToken(ctx context.Context, oTok *oauth2.Token) error {
	tok := auth.FromOAuth2(oTok)
	if len(tok.Scopes) == 0 {
		tok.Scopes = c.cfg.Scopes
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	if err := c.backend.Store(ctx, tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// SignOut drops the in-memory token and deletes the stored one.
func (c *Connection) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()

	if err := c.backend.Delete(ctx); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// RequestOption mutates an outgoing request before it is sent.
type RequestOption func(*http.Request)

// WithHeader sets a header on the request.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithPrefer appends a value to the Prefer header, e.g.
// `outlook.timezone="GMT Standard Time"` or "outlook.body-content-type".
func WithPrefer(value string) RequestOption {
	return func(req *http.Request) {
		if existing := req.Header.Get("Prefer"); existing != "" {
			value = existing + ", " + value
		}
		req.Header.Set("Prefer", value)
	}
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Connection) Get(ctx context.Context, rawURL string, params url.Values, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, rawURL, params, nil, "", out, opts)
}

// Post issues a POST request with a JSON body and decodes the response
// into out. Both body and out may be nil.
func (c *Connection) Post(ctx context.Context, rawURL string, body, out any, opts ...RequestOption) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, rawURL, nil, payload, "application/json", out, opts)
}

// Patch issues a PATCH request with a JSON body and decodes the response
// into out.
func (c *Connection) Patch(ctx context.Context, rawURL string, body, out any, opts ...RequestOption) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, rawURL, nil, payload, "application/json", out, opts)
}

// Put issues a PUT request with a JSON body and decodes the response
// into out.
func (c *Connection) Put(ctx context.Context, rawURL string, body, out any, opts ...RequestOption) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, rawURL, nil, payload, "application/json", out, opts)
}

// PutContent issues a PUT request with a raw payload, for content uploads.
func (c *Connection) PutContent(ctx context.Context, rawURL, contentType string, payload []byte, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, rawURL, nil, payload, contentType, out, opts)
}

// Delete issues a DELETE request.
func (c *Connection) Delete(ctx context.Context, rawURL string, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, rawURL, nil, nil, "", nil, opts)
}

// Download fetches a pre-signed URL with the naked client and returns the
// response body. The caller must close it.
func (c *Connection) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.naked.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, apiError(resp.StatusCode, body)
	}
	return resp.Body, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

func (c *Connection) do(ctx context.Context, method, rawURL string, params url.Values, payload []byte, contentType string, out any, opts []RequestOption) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse request URL: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		u.RawQuery = q.Encode()
	}

	var refreshed bool
	for attempt := 0; ; attempt++ {
		if err := c.throttle.wait(ctx); err != nil {
			return err
		}

		tok, err := c.Token(ctx)
		if err != nil {
			return err
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("client-request-id", uuid.NewString())
		if payload != nil {
			req.Header.Set("Content-Type", contentType)
		}
		for _, opt := range opts {
			opt(req)
		}

		c.logger.Debug("request", "method", method, "url", u.String(), "attempt", attempt)

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.cfg.MaxRetries {
				if werr := sleepBackoff(ctx, attempt, 0); werr != nil {
					return werr
				}
				continue
			}
			return fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && !refreshed {
			drain(resp)
			refreshed = true
			c.logger.Debug("got 401, refreshing token and retrying")
			if _, err := c.refresh(ctx); err != nil {
				return err
			}
			continue
		}

		if IsRetryable(resp.StatusCode) && attempt < c.cfg.MaxRetries {
			retryAfter := parseRetryAfter(resp.Header)
			drain(resp)
			if resp.StatusCode == http.StatusTooManyRequests {
				c.throttle.recordRetryAfter(retryAfter)
				c.logger.Warn("throttled", "retry_after", retryAfter)
			}
			if err := sleepBackoff(ctx, attempt, retryAfter); err != nil {
				return err
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		if resp.StatusCode >= 400 {
			return apiError(resp.StatusCode, body)
		}
		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response body: %w", err)
			}
		}
		return nil
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// sleepBackoff waits before the next retry attempt. When the service sent a
// Retry-After it takes precedence over the exponential schedule.
func sleepBackoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	wait := retryAfter
	if wait <= 0 {
		wait = backoffFactor << attempt
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return time.Until(at)
	}
	return 0
}

func apiError(statusCode int, body []byte) error {
	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)
	return &APIError{
		StatusCode: statusCode,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
	}
}
