// Package transport issues authenticated requests against the synthetic data
// service and decodes its JSON responses.
//
// A Client is safe for concurrent use: independent synthesizer handles share
// one Client, its connection pool and its rate limiter.
package transport

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
	"strings"
	"time"

	"golang.org/x/time/rate"

	"synthkit/internal/logging"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "synthkit/dev"
	defaultRateLimit   = 10.0
	defaultRateBurst   = 5
	maxErrorBody       = 64 * 1024
)

// Config describes how to reach the service. It is passed explicitly; nothing is
// read from process state.
type Config struct {
	// BaseURL is the API root, e.g. https://fabric.example.com/api.
	BaseURL string
	// StaticURL serves generated files. Defaults to BaseURL.
	StaticURL string
	// Token is sent verbatim in the Authorization header.
	Token     string
	UserAgent string
	// Timeout bounds each request (default 30s). Ignored when HTTPClient is set.
	Timeout time.Duration
	// RateLimit is requests per second (default 10). Negative disables limiting.
	RateLimit float64
	RateBurst int
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client is the HTTP transport shared by the resource clients.
type Client struct {
	baseURL   *url.URL
	staticURL *url.URL
	token     string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "transport")
		}
	}
}

// New creates a Client from the supplied configuration. It fails when the token is
// missing or is a JWT that has already expired.
func New(cfg Config, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("transport: token is required")
	}
	if expiry, ok := TokenExpiry(token); ok && !expiry.After(time.Now()) {
		return nil, fmt.Errorf("%w (expired at %s)", ErrTokenExpired, expiry.UTC().Format(time.RFC3339))
	}

	baseURL, err := parseRoot(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	staticURL := baseURL
	if strings.TrimSpace(cfg.StaticURL) != "" {
		staticURL, err = parseRoot(cfg.StaticURL)
		if err != nil {
			return nil, fmt.Errorf("transport: parse static url: %w", err)
		}
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Limit(cfg.RateLimit)
	burst := cfg.RateBurst
	switch {
	case cfg.RateLimit < 0:
		limit = rate.Inf
	case cfg.RateLimit == 0:
		limit = rate.Limit(defaultRateLimit)
	}
	if burst <= 0 {
		burst = defaultRateBurst
	}

	client := &Client{
		baseURL:   baseURL,
		staticURL: staticURL,
		token:     token,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func parseRoot(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed, nil
}

// endpoint joins path onto root, keeping a trailing slash when path has one
// (the service distinguishes "/synthesizer/" from "/synthesizer").
func endpoint(root *url.URL, path string) string {
	u := *root
	u.Path = root.Path + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// Get fetches path and decodes the JSON body into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, endpoint(c.baseURL, path), path, nil)
	if err != nil {
		return err
	}
	return decodeJSON(http.MethodGet, path, body, out)
}

// Post sends payload as JSON to path and decodes the JSON response into out (out may be nil).
func (c *Client) Post(ctx context.Context, path string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transport: encode POST %s: %w", path, err)
	}
	body, err := c.do(ctx, http.MethodPost, endpoint(c.baseURL, path), path, encoded)
	if err != nil {
		return err
	}
	return decodeJSON(http.MethodPost, path, body, out)
}

// GetStatic downloads a generated file from the static host and returns its raw bytes.
func (c *Client) GetStatic(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint(c.staticURL, path), path, nil)
}

func (c *Client) do(ctx context.Context, method, target, path string, payload []byte) ([]byte, error) {
	if c == nil {
		return nil, errors.New("transport: client is nil")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("transport: rate limiter: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newResponseError(method, path, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read %s %s: %w", method, path, err)
	}
	return body, nil
}

func decodeJSON(method, path string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("transport: decode %s %s: %w", method, path, err)
	}
	return nil
}
