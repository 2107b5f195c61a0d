// Package remote talks to a forumhub server: account endpoints plus a
// store.Store implementation over the data API and websocket listeners.
package remote

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

	"forumhub/internal/store"
	"forumhub/pkg/models"
)

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	Token() string
}

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// Unwrap maps the status onto the sentinel callers match with errors.Is
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		if strings.Contains(e.Message, store.ErrInvalidPath.Error()) {
			return store.ErrInvalidPath
		}
		return models.ErrInvalidInput
	case http.StatusUnauthorized:
		if strings.Contains(e.Message, models.ErrInvalidCredentials.Error()) {
			return models.ErrInvalidCredentials
		}
		return models.ErrUnauthorized
	case http.StatusForbidden:
		return store.ErrPermissionDenied
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusConflict:
		return models.ErrEmailExists
	case http.StatusTooManyRequests:
		return models.ErrRateLimited
	}
	return nil
}

// Client handles HTTP API communication
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a client for the server at baseURL (scheme://host:port)
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// BaseURL returns the server address the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account and returns its first session
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user the current token belongs to
func (c *Client) Me(ctx context.Context) (models.AuthUser, error) {
	var user models.AuthUser
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user)
	return user, err
}

// Health reports whether the server answers /health
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: "unhealthy"}
	}
	return nil
}

// listenURL builds the websocket URL for a listener on path
func (c *Client) listenURL(path string, q store.Query) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	params := url.Values{"path": {path}}
	if q.OrderBy != "" {
		params.Set("orderBy", q.OrderBy)
	}
	if token := c.token(); token != "" {
		params.Set("token", token)
	}
	return base + "/ws/listen?" + params.Encode()
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// do sends body (nil, raw JSON bytes or a value to marshal) and decodes the
// APIResponse envelope's data into target
func (c *Client) do(ctx context.Context, method, path string, body any, target any) error {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !apiResp.Success {
		msg := apiResp.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if target != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, target); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
