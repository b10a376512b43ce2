package client

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

	"github.com/oklog/ulid/v2"

	"github.com/donezo-dev/donezo/internal/models"
)

const (
	// RequestIDHeader carries a per-call correlation id
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// TokenSource resolves the bearer token at call time
type TokenSource interface {
	Token() (string, bool)
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() (string, bool)

func (f TokenFunc) Token() (string, bool) { return f() }

// APIError is returned for any non-2xx response or an undecodable 2xx body
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Client represents an HTTP client for the Donezo API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a new API client talking to baseURL.
// A zero timeout keeps the transport default.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// SetTokenSource sets where the bearer token is read from on every call
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// BaseURL returns the backend origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
// Raw holds the payload verbatim, including fields the client does not model.
type LoginResponse struct {
	ID    models.ID       `json:"id"`
	Email string          `json:"email"`
	Token string          `json:"token"`
	Raw   json.RawMessage `json:"-"`
}

// Login posts the credentials to /api/login
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/api/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := decodeBody(body, status, &loginResp); err != nil {
		return nil, err
	}
	loginResp.Raw = json.RawMessage(body)

	return &loginResp, nil
}

// Summary fetches the project counters from /api/summary
func (c *Client) Summary(ctx context.Context) (*models.Summary, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/api/summary", nil)
	if err != nil {
		return nil, err
	}

	var summary *models.Summary
	if err := decodeBody(body, status, &summary); err != nil {
		return nil, err
	}
	if summary == nil {
		summary = &models.Summary{}
	}

	return summary, nil
}

// Projects fetches the project list from /api/projects.
// A null or empty body yields an empty list.
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/api/projects", nil)
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := decodeBody(body, status, &projects); err != nil {
		return nil, err
	}

	return projects, nil
}

// do sends one request and returns the 2xx body with its status
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, ulid.Make().String())
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok && token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode, &APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(body),
			Body:    strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// decodeBody unmarshals a 2xx body; an empty body leaves v untouched
func decodeBody(body []byte, status int, v interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &APIError{
			Status:  status,
			Message: fmt.Sprintf("failed to decode response: %v", err),
			Body:    strings.TrimSpace(string(body)),
		}
	}
	return nil
}

// extractMessage pulls a human readable message out of an error payload
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// IsAPIError reports whether err is an APIError with the given status
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
