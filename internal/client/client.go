// Package client talks to the FlowTasks REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenSource returns the bearer token to attach, or "" for none.
// It is consulted on every request.
type TokenSource func() string

// UnauthorizedHook is invoked when a bearer-authenticated call is rejected
// with 401. token is the credential that was rejected.
type UnauthorizedHook func(token string)

// Client calls the FlowTasks REST API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger

	mu             sync.RWMutex
	token          TokenSource
	onUnauthorized UnauthorizedHook
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger for malformed responses.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource replaces the token source used by subsequent requests.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.token = ts
	c.mu.Unlock()
}

// OnUnauthorized registers the 401 hook.
func (c *Client) OnUnauthorized(h UnauthorizedHook) {
	c.mu.Lock()
	c.onUnauthorized = h
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	ts := c.token
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one request. When auth is set the current token is attached.
// out, when non-nil, receives the envelope's data.
func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindValidation, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var token string
	if auth {
		token = c.currentToken()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Kind:    KindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: env.Message,
		}
		if apiErr.Kind == KindAuth && auth {
			c.unauthorized(token)
		}
		return apiErr
	}

	if decodeErr != nil {
		c.log.Warn("malformed api response", "method", method, "path", path, "status", resp.StatusCode, "err", decodeErr)
		return &Error{Kind: KindServer, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !env.Success {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.log.Warn("malformed api data", "method", method, "path", path, "err", err)
			return &Error{Kind: KindServer, Status: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}

func (c *Client) unauthorized(token string) {
	c.mu.RLock()
	h := c.onUnauthorized
	c.mu.RUnlock()
	if h != nil && token != "" {
		h(token)
	}
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
