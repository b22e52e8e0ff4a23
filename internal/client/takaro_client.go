// Package client implements the authenticated Takaro REST API client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gettakaro/MCP/internal/common"
)

// maxResponseSize caps response bodies to prevent OOM from unexpectedly large responses.
const maxResponseSize = 50 << 20 // 50MB

// RequestConfig describes one HTTP call against the Takaro API.
type RequestConfig struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// APIError is a structured error returned by the Takaro API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("takaro api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("takaro api error %d: %s", e.Status, e.Message)
}

// Client communicates with the Takaro REST API. A single authenticated
// client is shared by all tool calls in the process; construct it once at
// startup and inject it where needed.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *common.Logger
	token      string
}

// New creates a new client targeting the given Takaro API URL.
func New(baseURL, username, password string, logger *common.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 300 * time.Second},
		logger:     logger,
	}
}

// BaseURL returns the configured Takaro API URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether a login has succeeded.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Login authenticates against POST /login and stores the session token.
// Must succeed before the server starts serving tool calls.
func (c *Client) Login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach takaro api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp.StatusCode, body)
	}

	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if result.Data.Token == "" {
		return fmt.Errorf("login response contained no token")
	}

	c.token = result.Data.Token
	c.logger.Info().Str("url", c.baseURL).Msg("authenticated with takaro api")
	return nil
}

// Request performs one HTTP call described by cfg and returns the raw
// response body. Non-2xx responses are returned as *APIError with any
// structured error detail the API provided.
func (c *Client) Request(ctx context.Context, cfg RequestConfig) ([]byte, error) {
	method := strings.ToUpper(cfg.Method)
	fullURL := c.baseURL + cfg.Path
	if len(cfg.Query) > 0 {
		fullURL += "?" + cfg.Query.Encode()
	}

	var bodyReader io.Reader
	if cfg.Body != nil {
		jsonData, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	c.logger.Debug().Str("method", method).Str("path", cfg.Path).Msg("api request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, err
	}
	if cfg.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", cfg.Path).Dur("duration", duration).Msg("api request failed")
		return nil, fmt.Errorf("takaro request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Dur("duration", duration).Msg("api response")

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	return body, nil
}

// parseErrorResponse extracts a structured error from a Takaro error envelope,
// falling back to the raw body when the envelope is absent.
func parseErrorResponse(statusCode int, body []byte) error {
	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return &APIError{
			Status:  statusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Details: envelope.Error.Details,
		}
	}
	return &APIError{
		Status:  statusCode,
		Message: strings.TrimSpace(string(body)),
	}
}
