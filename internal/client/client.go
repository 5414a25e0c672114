// internal/client/client.go
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxStatusBody bounds the status response read.
const maxStatusBody = 64 << 10

var (
	// ErrHTTPStatus matches any *StatusError.
	ErrHTTPStatus = errors.New("client: unexpected http status")

	// ErrDecode is returned for a malformed status body.
	ErrDecode = errors.New("client: malformed status body")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: HTTP %d: %s", e.Code, e.Text)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Config is the minimal transport config.
type Config struct {
	BaseURL    string
	StatusPath string
	HealthPath string

	// Timeout bounds every request unless the caller's context is shorter.
	Timeout time.Duration
}

// Client talks to the detection server's status and health endpoints.
// It keeps no state between calls.
type Client struct {
	hc        *http.Client
	statusURL string
	healthURL string
	timeout   time.Duration
}

// New creates a client. A nil hc uses a dedicated http.Client.
func New(cfg Config, hc *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base url required")
	}
	if cfg.StatusPath == "" || cfg.HealthPath == "" {
		return nil, errors.New("client: status and health paths required")
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		hc:        hc,
		statusURL: cfg.BaseURL + cfg.StatusPath,
		healthURL: cfg.BaseURL + cfg.HealthPath,
		timeout:   cfg.Timeout,
	}, nil
}

// FetchStatus performs GET on the status endpoint and returns the raw
// "status" field. A missing field yields "".
func (c *Client) FetchStatus(ctx context.Context) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return "", fmt.Errorf("client: build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("client: status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxStatusBody))
		return "", &StatusError{Code: resp.StatusCode, Text: http.StatusText(resp.StatusCode)}
	}

	var body *struct {
		Status *string `json:"status"`
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxStatusBody))
	if err := dec.Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if body == nil {
		return "", fmt.Errorf("%w: null body", ErrDecode)
	}
	// the body must be exactly one JSON value
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return "", fmt.Errorf("%w: trailing data after status object", ErrDecode)
	}
	if body.Status == nil {
		return "", nil
	}
	return *body.Status, nil
}

// CheckHealth performs HEAD on the health endpoint.
// Any 2xx is healthy; everything else is an error.
func (c *Client) CheckHealth(ctx context.Context) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("client: build health request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("client: health request: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Text: http.StatusText(resp.StatusCode)}
	}
	return nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
