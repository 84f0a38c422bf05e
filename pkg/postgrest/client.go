// Package postgrest is a minimal client for hosted PostgREST endpoints
// (Supabase and friends). It only speaks the subset the waitlist needs:
// single-row inserts and a reachability probe.
package postgrest

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

	"github.com/akeren/mandarin-waitlist/pkg/circuitbreaker"
)

const (
	restPathPrefix = "rest/v1"
	maxErrorBody   = 64 << 10
)

type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co
	URL    string
	APIKey string
	// Timeout bounds a single HTTP round trip. Zero keeps the transport default.
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    circuitbreaker.CircuitBreaker
}

type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// Error is the JSON error body PostgREST returns for rejected requests.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest: %d: %s", e.StatusCode, e.Message)
}

// Structured reports whether the body decoded into a code or message, as
// opposed to an empty or foreign (HTML, plain text) body.
func (e *Error) Structured() bool {
	return e.Code != "" || strings.TrimSpace(e.Message) != ""
}

func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, errors.New("postgrest: URL is required")
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("postgrest: invalid URL %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("postgrest: unsupported scheme %q in %q", base.Scheme, raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("postgrest: invalid URL %q: missing host", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		breaker:    cfg.Breaker,
	}, nil
}

// Insert posts one record into table. A rejection by the server is
// returned as *Error; anything else is a transport failure.
func (c *Client) Insert(ctx context.Context, table string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("postgrest: encode record: %w", err)
	}

	endpoint := c.baseURL.JoinPath(restPathPrefix, table)

	return c.guard(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("postgrest: build request: %w", err)
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("postgrest: insert into %s: %w", table, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		return decodeError(resp)
	})
}

// Ping checks that the REST endpoint answers. Any non-5xx response counts
// as reachable, since the root path may require elevated keys.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := c.baseURL.JoinPath(restPathPrefix + "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("postgrest: build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("postgrest: ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// BreakerState reports the guarding circuit's state, or Closed when the
// client runs unguarded.
func (c *Client) BreakerState() circuitbreaker.CircuitState {
	if c.breaker == nil {
		return circuitbreaker.Closed
	}
	return c.breaker.State()
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Call(fn)
}

// IsServerRejection reports whether err is a well-formed 4xx answer from the
// server, as opposed to a transport fault or a 5xx. Circuit breakers should
// only count the latter.
func IsServerRejection(err error) bool {
	var pgErr *Error
	return errors.As(err, &pgErr) && pgErr.StatusCode < 500
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("postgrest: read error body (status %d): %w", resp.StatusCode, err)
	}

	if len(bytes.TrimSpace(payload)) > 0 {
		// Undecodable bodies (HTML from a proxy, plain text) leave the
		// structured fields empty.
		_ = json.Unmarshal(payload, apiErr)
	}

	return apiErr
}
