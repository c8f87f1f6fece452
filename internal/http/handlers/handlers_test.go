package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherhub/gatherly/internal/auth"
	"github.com/gatherhub/gatherly/internal/middleware"
	"github.com/gatherhub/gatherly/internal/models/dto"
	"github.com/gatherhub/gatherly/internal/storage/memory"
)

// newTestServer wires all handlers over a fresh in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenManager("test-secret-0123456789abcdef", "gatherly-test", time.Hour)
	protect := middleware.RequireAuth(tokens)

	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(store, tokens).Register(mux, protect)
	NewEventsHandler(store).Register(mux, protect)
	NewTicketsHandler(store, store).Register(mux, protect)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// doJSON issues one request and decodes the response body into out (if non-nil).
func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

// signupUser registers a user and returns its auth response.
func signupUser(t *testing.T, ts *httptest.Server, username, email, password string) dto.AuthResponse {
	t.Helper()
	var resp dto.AuthResponse
	httpResp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp)
	if httpResp.StatusCode != http.StatusCreated {
		t.Fatalf("signup %s: status %d", email, httpResp.StatusCode)
	}
	return resp
}

// createEvent creates an event as the given user and returns it.
func createEvent(t *testing.T, ts *httptest.Server, token string, body map[string]any) dto.EventResponse {
	t.Helper()
	var resp dto.EventResponse
	httpResp := doJSON(t, http.MethodPost, ts.URL+"/events", token, body, &resp)
	if httpResp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: status %d", httpResp.StatusCode)
	}
	return resp
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error
}
