// Package client is the typed API client for the gatherly REST backend. It
// owns the authenticated-request convention: token resolution with fallback,
// bearer attachment, forced logout on 401, and strict one-place decoding of
// responses.
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
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gatherhub/gatherly/pkg/session"
)

var (
	// ErrNotAuthenticated means no token could be resolved; the request
	// was never issued.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired means the server rejected the token; the local
	// session has been destroyed.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrNotFound wraps 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrBookingInFlight rejects a duplicate booking for an event whose
	// booking request has not settled yet.
	ErrBookingInFlight = errors.New("booking already in progress for this event")
)

// APIError carries the server's own message for non-auth failures, surfaced
// verbatim to the user.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client issues API calls on behalf of the session held by its Manager.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *session.Manager
	validate *validator.Validate

	mu      sync.Mutex
	booking map[int64]struct{}
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client against the given base URL.
func New(baseURL string, sess *session.Manager, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		session:  sess,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		booking:  make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the manager, mainly for the CLI's guard checks.
func (c *Client) Session() *session.Manager {
	return c.session
}

// do issues one request. The token is resolved through the manager's fallback
// chain and attached when present; when authRequired is set and no token
// resolves, the call is never issued. A 401 destroys the local session.
func (c *Client) do(ctx context.Context, method, path string, body any, authRequired bool, out any) error {
	token := c.session.ResolveToken()
	if authRequired && token == "" {
		return ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The server is the sole authority on token validity.
		c.session.Logout()
		return ErrSessionExpired
	}
	if resp.StatusCode >= 400 {
		message := serverMessage(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// serverMessage extracts the server's error body, falling back to a generic
// failure string so no error is ever swallowed silently.
func serverMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "request failed"
}
