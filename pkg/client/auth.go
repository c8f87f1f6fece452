package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gatherhub/gatherly/pkg/session"
)

// SignupInput carries the signup form fields.
type SignupInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account and establishes the session, persisting it
// durably when remember is set.
func (c *Client) Signup(ctx context.Context, in SignupInput, remember bool) (session.User, error) {
	if err := c.validate.Struct(in); err != nil {
		return session.User{}, fmt.Errorf("invalid signup input: %w", err)
	}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", in, false, &resp); err != nil {
		return session.User{}, err
	}
	if err := c.session.Login(resp.User, resp.AccessToken, remember); err != nil {
		return session.User{}, err
	}
	return resp.User, nil
}

// Login authenticates with email and password and establishes the session.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (session.User, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, false, &resp)
	if err != nil {
		return session.User{}, err
	}
	if err := c.session.Login(resp.User, resp.AccessToken, remember); err != nil {
		return session.User{}, err
	}
	return resp.User, nil
}

// Logout destroys the local session. The API keeps no server-side session
// state beyond token expiry, so no call is issued.
func (c *Client) Logout() error {
	return c.session.Logout()
}

// UpdateProfile changes the username and re-persists the refreshed profile
// into whichever backend holds the session.
func (c *Client) UpdateProfile(ctx context.Context, username string) (session.User, error) {
	var resp profileResponse
	body := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPatch, "/auth/update-profile", body, true, &resp); err != nil {
		return session.User{}, err
	}
	if err := c.session.SetUser(resp.User); err != nil {
		return session.User{}, err
	}
	return resp.User, nil
}
