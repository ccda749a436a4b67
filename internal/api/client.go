package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Airzone Cloud API host.
	DefaultBaseURL = "https://m.airzonecloud.com"

	// DefaultUserAgent mimics the official mobile app web view.
	DefaultUserAgent = "Mozilla/5.0 (Linux; Android 6.0.1; Nexus 7 Build/MOB30X; wv) AppleWebKit/537.26 (KHTML, like Gecko) Version/4.0 Chrome/70.0.3538.110 Safari/537.36"

	// DefaultConfigCacheTTL is how long device config responses are reused.
	DefaultConfigCacheTTL = 5 * time.Minute

	loginPath = "/api/v1/auth/login"
)

// Observer receives transport events. It is used for metrics. A status code of
// 0 means no response was received.
type Observer interface {
	ObserveRequest(method string, statusCode int, duration time.Duration)
	ObserveRelogin()
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RateLimit is the maximum number of requests per second. Zero disables pacing.
	RateLimit      float64
	ConfigCacheTTL time.Duration
	Logger         *slog.Logger
	Observer       Observer
	HTTPClient     *http.Client
}

// Client is an HTTP client for the Airzone Cloud API. It owns the session and
// transparently logs in again once when a request comes back unauthorized.
type Client struct {
	baseURL    string
	userAgent  string
	session    *Session
	httpClient *http.Client
	limiter    *rate.Limiter
	configs    *cache.Cache
	logger     *slog.Logger
	observer   Observer

	// loginMu serializes logins so concurrent 401s trigger a single re-login.
	loginMu sync.Mutex
}

// NewClient creates a new Airzone Cloud API client. No network call is made.
func NewClient(session *Session, opts Options) *Client {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}
	ttl := opts.ConfigCacheTTL
	if ttl <= 0 {
		ttl = DefaultConfigCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		session:    session,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		configs:    cache.New(ttl, 2*ttl),
		logger:     logger,
		observer:   opts.Observer,
	}
}

// Session returns the session shared by every request of this client.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the API base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login authenticates with the account credentials and stores the new token.
func (c *Client) Login(ctx context.Context) (string, error) {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	return c.login(ctx)
}

// ensureLogin logs in when the session has no token yet. Concurrent first
// requests share a single login.
func (c *Client) ensureLogin(ctx context.Context) error {
	if c.session.HasToken() {
		return nil
	}
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if c.session.HasToken() {
		return nil
	}
	_, err := c.login(ctx)
	return err
}

// relogin logs in again unless another caller already renewed the token issued
// at generation staleGen.
func (c *Client) relogin(ctx context.Context, staleGen uint64) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if _, gen := c.session.Token(); gen != staleGen {
		c.logger.Debug("token already renewed by another request")
		return nil
	}
	_, err := c.login(ctx)
	return err
}

// login must be called with loginMu held.
func (c *Client) login(ctx context.Context) (string, error) {
	if c.session.email == "" || c.session.password == "" {
		return "", ErrNoCredentials
	}

	payload, err := json.Marshal(map[string]string{
		"email":    c.session.email,
		"password": c.session.password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login body: %w", err)
	}

	status, data, err := c.roundTrip(ctx, http.MethodPost, loginPath, nil, payload, "")
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", &AuthError{
			Message: "credentials rejected",
			Err:     &HTTPError{Method: http.MethodPost, Path: loginPath, StatusCode: status, Body: string(data)},
		}
	case status < 200 || status >= 300:
		return "", &HTTPError{Method: http.MethodPost, Path: loginPath, StatusCode: status, Body: string(data)}
	}

	var resp struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			return "", &AuthError{Message: "invalid login response", Err: err}
		}
	}
	if resp.Token == "" {
		return "", &AuthError{Message: "login response did not contain a token"}
	}

	c.session.mu.Lock()
	c.session.set(resp.Token, resp.RefreshToken)
	c.session.mu.Unlock()

	c.logger.Info("login success", slog.String("email", c.session.email))
	return resp.Token, nil
}

// Logout invalidates the token server side and clears the session.
func (c *Client) Logout(ctx context.Context) error {
	if !c.session.HasToken() {
		return nil
	}
	_, err := c.Request(ctx, http.MethodGet, "/api/v1/auth/logout", nil, nil)
	c.session.clear()
	c.configs.Flush()
	return err
}

// Request performs an authenticated API call and returns the raw JSON body.
// An empty response body is returned as a nil RawMessage without parsing.
// On HTTP 401 the client logs in once and retries once; a second 401 is an *AuthError.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}

	return c.request(ctx, method, path, query, payload, true)
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, payload []byte, relogin bool) (json.RawMessage, error) {
	token, gen := c.session.Token()

	status, data, err := c.roundTrip(ctx, method, path, query, payload, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		httpErr := &HTTPError{Method: method, Path: path, StatusCode: status, Body: string(data)}
		if !relogin {
			return nil, &AuthError{Message: "still unauthorized after re-login", Err: httpErr}
		}

		c.logger.Info("unauthorized (token expired?), logging in again", slog.String("method", method), slog.String("path", path))
		if c.observer != nil {
			c.observer.ObserveRelogin()
		}
		if err := c.relogin(ctx, gen); err != nil {
			return nil, err
		}
		return c.request(ctx, method, path, query, payload, false)
	}

	if status < 200 || status >= 300 {
		return nil, &HTTPError{Method: method, Path: path, StatusCode: status, Body: string(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

// roundTrip sends one HTTP request and returns status and body.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	if method == http.MethodGet {
		params.Set("format", "json")
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.observer != nil {
			c.observer.ObserveRequest(method, 0, time.Since(start))
		}
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.observer != nil {
		c.observer.ObserveRequest(method, resp.StatusCode, time.Since(start))
	}
	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return resp.StatusCode, data, nil
}
