// Package client implements the Stackby REST API client.
//
// One client serves both process variants: in stdio mode it carries a
// process-wide API key configured at startup, in HTTP mode each call reads
// the caller's credentials from its context (see the credentials package).
// Per-call context credentials always win over the configured key.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stackbyhq/stackby-mcp/api"
	"github.com/stackbyhq/stackby-mcp/credentials"
	"github.com/stackbyhq/stackby-mcp/internal/logfields"
	"pkt.systems/pslog"
)

const (
	// DefaultBaseURL is the production API root, including the version prefix.
	// The prefix is part of the base URL so one client serves any path scheme
	// the service exposes; there is no second "legacy" client.
	DefaultBaseURL = "https://stackby.com/api/betav1"

	headerAPIKey = "api-key"

	defaultHTTPTimeout = 30 * time.Second
)

// ErrNoCredentials is returned before any network call when neither the
// request context nor the client configuration supplies an API key.
var ErrNoCredentials = errors.New("stackby: no API key available (set STACKBY_API_KEY or send request credentials)")

// Client issues HTTP calls against the Stackby REST API.
type Client struct {
	baseURL     string
	apiKey      string
	httpTimeout time.Duration
	httpClient  *http.Client
	logger      pslog.Base
}

// Option mutates client construction.
type Option func(*Client)

// WithAPIKey configures the process-wide fallback API key used when a call's
// context carries no credentials.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithHTTPClient supplies a custom HTTP client/transport stack.
func WithHTTPClient(cli *http.Client) Option {
	return func(c *Client) {
		if cli != nil {
			c.httpClient = cli
		}
	}
}

// WithLogger supplies a logger for client diagnostics.
// Passing nil falls back to pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(c *Client) {
		if logger == nil {
			c.logger = pslog.NoopLogger()
			return
		}
		if full, ok := logger.(pslog.Logger); ok {
			c.logger = logfields.WithSubsystem(full, "client.api")
			return
		}
		c.logger = logger
	}
}

// WithHTTPTimeout overrides the per-request timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpTimeout = d
		}
	}
}

// New constructs a client rooted at baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("stackby: parse base URL: %w", err)
	}
	c := &Client{
		baseURL:     trimmed,
		httpTimeout: defaultHTTPTimeout,
		logger:      pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// HasAPIKey reports whether a process-wide fallback key is configured.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// resolveCredentials applies the precedence rule: request-scoped context
// credentials first, then the configured key. Neither present is a hard
// precondition failure surfaced before any network I/O.
func (c *Client) resolveCredentials(ctx context.Context) (credentials.Credentials, error) {
	if creds, ok := credentials.FromContext(ctx); ok && creds.Valid() {
		if creds.APIURL == "" {
			creds.APIURL = c.baseURL
		}
		return creds, nil
	}
	if c.apiKey != "" {
		return credentials.Credentials{APIKey: c.apiKey, APIURL: c.baseURL}, nil
	}
	return credentials.Credentials{}, ErrNoCredentials
}

// APIError describes a non-success response from the remote API.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Response is the decoded error envelope, when the body parsed.
	Response api.ErrorResponse
	// Body holds the raw response bytes for diagnostics.
	Body []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stackby: status %d: %s", e.Status, e.Message())
}

// Message returns the most specific server-supplied diagnostic available.
func (e *APIError) Message() string {
	if msg := strings.TrimSpace(e.Response.Message); msg != "" {
		return msg
	}
	if code := strings.TrimSpace(e.Response.Code); code != "" {
		return code
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		return body
	}
	return http.StatusText(e.Status)
}

// Unwrap normalizes the remote response envelope: {"data": X} yields X, any
// other payload passes through untouched.
func Unwrap(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var env api.DataEnvelope
	if err := json.Unmarshal(trimmed, &env); err == nil {
		if data := bytes.TrimSpace(env.Data); len(data) > 0 {
			return data
		}
	}
	return trimmed
}

func (c *Client) getJSON(ctx context.Context, segments []string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, segments, query, nil, out)
}

func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, payload any, out any) error {
	creds, err := c.resolveCredentials(ctx)
	if err != nil {
		return err
	}
	target := joinURL(creds.APIURL, segments)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("stackby: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.httpTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	applyAuth(req.Header, creds.APIKey)

	c.logTrace("api.request", "method", method, "path", "/"+strings.Join(segments, "/"))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logWarn("api.transport_error", "method", method, "path", "/"+strings.Join(segments, "/"), "error", err)
		return fmt.Errorf("stackby: %s %s: %w", method, strings.Join(segments, "/"), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stackby: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.logWarn("api.error", "method", method, "path", "/"+strings.Join(segments, "/"), "status", resp.StatusCode)
		return decodeAPIError(resp.StatusCode, data)
	}
	c.logDebug("api.response", "method", method, "path", "/"+strings.Join(segments, "/"),
		"status", resp.StatusCode, "size", humanize.IBytes(uint64(len(data))))
	if out == nil {
		return nil
	}
	unwrapped := Unwrap(data)
	if len(unwrapped) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapped, out); err != nil {
		return fmt.Errorf("stackby: decode response: %w", err)
	}
	return nil
}

// applyAuth sets the api-key header, and for personal access tokens also the
// bearer authorization header the PAT endpoints expect.
func applyAuth(h http.Header, key string) {
	h.Set(headerAPIKey, key)
	if strings.HasPrefix(key, api.PersonalAccessTokenPrefix) {
		h.Set("Authorization", "Bearer "+key)
	}
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status, Body: body}
	if len(bytes.TrimSpace(body)) > 0 {
		// Best effort: older endpoints return plain text.
		_ = json.Unmarshal(body, &apiErr.Response)
	}
	return apiErr
}

func joinURL(base string, segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, strings.TrimRight(base, "/"))
	for _, seg := range segments {
		parts = append(parts, url.PathEscape(seg))
	}
	return strings.Join(parts, "/")
}

func (c *Client) logTrace(msg string, keyvals ...any) {
	if c.logger != nil {
		c.logger.Trace(msg, keyvals...)
	}
}

func (c *Client) logDebug(msg string, keyvals ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, keyvals...)
	}
}

func (c *Client) logWarn(msg string, keyvals ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, keyvals...)
	}
}
