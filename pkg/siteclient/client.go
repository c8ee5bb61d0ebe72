// Package siteclient is the data-access layer a site front end or admin console uses to
// talk to the API. It unwraps the response envelope into typed values and typed errors.
package siteclient

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
	"sync"
	"time"
)

const (
	adminTokenHeader = "X-Admin-Token"
	resetKeyHeader   = "X-Reset-Key"
	healthTimeout    = 10 * time.Second
)

var (
	// ErrUnauthorized is returned for HTTP 401. The stored admin token is dropped first.
	ErrUnauthorized = errors.New("siteclient: unauthorized")
	// ErrStoreUnreachable is returned by WaitForConnection after the last failed attempt.
	ErrStoreUnreachable = errors.New("siteclient: store unreachable")
)

// ConnectionError reports a transport failure; the request never got an HTTP answer.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("siteclient: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// APIError is any other non-2xx answer or a success:false envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("siteclient: http %d: %s", e.StatusCode, e.Message)
}

// Client calls the API. The zero value is not usable; build one with New.
type Client struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
	// OnUnauthorized runs after any 401, once the token has been dropped.
	OnUnauthorized func()

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL, e.g. "https://example.com/api".
func New(baseURL, anonKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		AnonKey:    strings.TrimSpace(anonKey),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the current admin session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken stores an admin session token, e.g. one restored from disk.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Logout forgets the admin session token.
func (c *Client) Logout() {
	c.SetToken("")
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	admin   bool
	headers map[string]string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	op := req.method + " " + req.path
	endpoint := c.BaseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("siteclient: encode %s: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("siteclient: build %s: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.AnonKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.AnonKey)
	}
	if req.admin {
		if token := c.Token(); token != "" {
			httpReq.Header.Set(adminTokenHeader, token)
		}
	}
	for name, value := range req.headers {
		httpReq.Header.Set(name, value)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized {
		c.Logout()
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		if env.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, env.Error)
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		message := env.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return fmt.Errorf("siteclient: decode %s: %w", op, decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("siteclient: decode %s: %w", op, err)
	}
	return nil
}

// Health is the answer of GET /health.
type Health struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Health checks the API and its store, giving up after ten seconds.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var health Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health"}, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// WaitForConnection polls Health up to attempts times, sleeping delay between tries.
// progress, when set, is told about every failed attempt.
func (c *Client) WaitForConnection(ctx context.Context, attempts int, delay time.Duration, progress func(attempt, attempts int, err error)) error {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := c.Health(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if progress != nil {
			progress(attempt, attempts, lastErr)
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrStoreUnreachable, attempts, lastErr)
}
