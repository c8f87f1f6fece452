package handlers

import (
	"net/http"
	"testing"

	"github.com/gatherhub/gatherly/internal/models/dto"
)

func TestSignupThenLogin(t *testing.T) {
	ts := newTestServer(t)

	signup := signupUser(t, ts, "ada", "ada@x.com", "secret1")
	if signup.AccessToken == "" {
		t.Fatal("signup returned empty access_token")
	}
	if signup.User.Email != "ada@x.com" || signup.User.Username != "ada" {
		t.Fatalf("signup user mismatch: %+v", signup.User)
	}

	var login dto.AuthResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    "ada@x.com",
		"password": "secret1",
	}, &login)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	if login.User.Email != signup.User.Email {
		t.Fatalf("login email = %q, want %q", login.User.Email, signup.User.Email)
	}
	if login.AccessToken == "" {
		t.Fatal("login returned empty access_token")
	}
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name:           "missing username",
			body:           map[string]string{"email": "a@x.com", "password": "pw"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing password",
			body:           map[string]string{"username": "a", "email": "a@x.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad email",
			body:           map[string]string{"username": "a", "email": "not-an-email", "password": "pw"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", test.body, nil)
			if resp.StatusCode != test.expectedStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, test.expectedStatus)
			}
		})
	}
}

func TestSignupDuplicate(t *testing.T) {
	ts := newTestServer(t)
	signupUser(t, ts, "ada", "ada@x.com", "secret1")

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"username": "other", "email": "ada@x.com", "password": "secret1",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"username": "ada", "email": "other@x.com", "password": "secret1",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate username: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	signupUser(t, ts, "ada", "ada@x.com", "secret1")

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "wrong password", body: map[string]string{"email": "ada@x.com", "password": "nope"}},
		{name: "unknown user", body: map[string]string{"email": "ghost@x.com", "password": "secret1"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", test.body, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
			if msg := errorMessage(t, resp); msg != "invalid credentials" {
				t.Fatalf("error = %q, want %q", msg, "invalid credentials")
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	ada := signupUser(t, ts, "ada", "ada@x.com", "secret1")
	signupUser(t, ts, "bob", "bob@x.com", "secret1")

	var updated dto.ProfileResponse
	resp := doJSON(t, http.MethodPatch, ts.URL+"/auth/update-profile", ada.AccessToken,
		map[string]string{"username": "countess"}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}
	if updated.User.Username != "countess" {
		t.Fatalf("username = %q, want %q", updated.User.Username, "countess")
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/auth/update-profile", ada.AccessToken,
		map[string]string{"username": ""}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty username: status %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/auth/update-profile", ada.AccessToken,
		map[string]string{"username": "bob"}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("taken username: status %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/auth/update-profile", "",
		map[string]string{"username": "x"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}
