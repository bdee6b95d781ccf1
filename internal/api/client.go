// Package api contains the HTTP transport and the typed resource clients
// for the Panacea backend.
//
// One Client carries authentication and error shaping for every resource
// group (chat, resumes, applications, profile, job search, billing,
// resume editor, auto-apply). The resource methods live in sibling files
// and stay thin: endpoint shaping only, no business logic.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/panacea-app/panacea-cli/internal/log"
)

// ErrUnauthorized is returned on a 401 outside dev mode, after the
// sign-out hook has run. Callers treat it as a terminal auth failure,
// not a retryable error.
var ErrUnauthorized = errors.New("api: unauthorized")

// requestTimeout bounds plain request/response calls. Streaming requests
// deliberately carry no timeout; see Config.streamClient.
const requestTimeout = 30 * time.Second

// Error is a structured backend error. The Message is the backend's own
// wording and is surfaced to the user verbatim (rate-limit messages in
// particular).
type Error struct {
	Status  int    // HTTP status code
	Message string // Backend-provided detail, verbatim
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// IsRateLimited reports whether err is a backend 429.
func IsRateLimited(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// Client is the authenticated HTTP client for the Panacea backend.
// It attaches the bearer token to every request and funnels 401 handling
// through a single sign-out hook.
type Client struct {
	baseURL      string
	token        string
	devMode      bool
	httpClient   *http.Client // request/response calls, bounded timeout
	streamClient *http.Client // SSE calls, no timeout
	logger       log.Logger

	// onUnauthorized runs once per 401 outside dev mode, before
	// ErrUnauthorized is returned. The app wires sign-out here.
	onUnauthorized func()
}

// Config carries Client construction parameters.
type Config struct {
	BaseURL string // Required, no trailing slash
	Token   string // Bearer token; may be empty in dev mode
	DevMode bool   // Skip auth header and 401 sign-out

	// OnUnauthorized is invoked on a 401 outside dev mode. Optional.
	OnUnauthorized func()
}

// New creates a backend client.
func New(cfg Config, logger log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	if !cfg.DevMode && cfg.Token == "" {
		return nil, fmt.Errorf("api token is required outside dev mode")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		devMode:        cfg.DevMode,
		httpClient:     &http.Client{Timeout: requestTimeout},
		streamClient:   &http.Client{},
		logger:         logger,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a JSON request/response round trip.
// body and result may be nil. Non-2xx statuses become *Error (or
// ErrUnauthorized for a 401 outside dev mode).
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.send(ctx, c.httpClient, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// stream opens a streaming request and hands the raw body to the caller.
// The caller owns closing it. Status checking happens here so stream
// consumers only ever see frame data.
func (c *Client) stream(ctx context.Context, method, path string, body any) (io.ReadCloser, error) {
	resp, err := c.send(ctx, c.streamClient, method, path, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			respBody = nil
		}
		return nil, c.checkStatus(resp.StatusCode, respBody)
	}

	return resp.Body, nil
}

// send builds and executes one HTTP request with auth headers attached.
func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if !c.devMode {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	return resp, nil
}

// checkStatus converts a non-2xx response into an error.
func (c *Client) checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	if status == http.StatusUnauthorized && !c.devMode {
		c.logger.Warn("authentication rejected, signing out")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}

	return &Error{Status: status, Message: extractMessage(body)}
}

// unmarshalJSON decodes a response body with a uniform error wrap.
func unmarshalJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// extractMessage pulls the human-readable detail out of a structured
// error body. The backend uses {"detail": "..."} for business errors;
// {"message": "..."} appears on a few older endpoints.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}
