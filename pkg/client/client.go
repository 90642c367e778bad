package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sulwork/breakfast/pkg/domain"
)

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// LoginResponse is the identity service's answer to a successful login.
// User is nil when the service only returns the bare token.
type LoginResponse struct {
	User  *domain.Identity
	Token string
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// Client is the identity service API client.
type Client struct {
	baseURL     string
	tokenSource func() string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets the function queried for the bearer token on every request.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.tokenSource = fn }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges CPF and password for a session token.
func (c *Client) Login(ctx context.Context, cpf, password string) (*LoginResponse, error) {
	var raw json.RawMessage
	req := LoginRequest{CPF: cpf, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", req, &raw); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	resp, err := decodeLogin(raw)
	if err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return resp, nil
}

// Logout ends the server-side session for token.
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.send(ctx, http.MethodPost, "/auth/logout", token, nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Register creates a new USER account.
func (c *Client) Register(ctx context.Context, r RegisterRequest) error {
	if err := c.post(ctx, "/auth/register", r, nil); err != nil {
		return fmt.Errorf("client.Register: %w", err)
	}
	return nil
}

// Validate asks the service whether token is still accepted.
func (c *Client) Validate(ctx context.Context, token string) (bool, error) {
	var ok bool
	if err := c.send(ctx, http.MethodPost, "/auth/validate", token, nil, &ok); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return false, nil
		}
		return false, fmt.Errorf("client.Validate: %w", err)
	}
	return ok, nil
}

// loginUser accepts numeric or string ids.
type loginUser struct {
	ID   any    `json:"id"`
	CPF  string `json:"cpf"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (u loginUser) id() string {
	switch v := u.ID.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	}
	return ""
}

// decodeLogin accepts both {user, token} objects and a bare JSON or text token.
func decodeLogin(raw json.RawMessage) (*LoginResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var body struct {
			User  *loginUser `json:"user"`
			Token string     `json:"token"`
		}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decode response: %w: %w", ErrBadResponse, err)
		}
		resp := &LoginResponse{Token: body.Token}
		if body.User != nil {
			resp.User = &domain.Identity{
				ID:   body.User.id(),
				CPF:  domain.SanitizeCPF(body.User.CPF),
				Name: body.User.Name,
				Role: domain.Role(body.User.Role),
			}
		}
		return resp, nil
	}
	var tok string
	if err := json.Unmarshal(trimmed, &tok); err != nil {
		tok = string(trimmed)
	}
	return &LoginResponse{Token: strings.TrimSpace(tok)}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var token string
	if c.tokenSource != nil {
		token = c.tokenSource()
	}
	return c.send(ctx, method, path, token, body, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Message != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
			}
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
			}
		}
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if b, ok := out.(*bool); ok {
		v, perr := strconv.ParseBool(strings.TrimSpace(string(data)))
		if perr != nil {
			return fmt.Errorf("decode response: %w: %w", ErrBadResponse, perr)
		}
		*b = v
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w: %w", ErrBadResponse, err)
	}
	return nil
}
