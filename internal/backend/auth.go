package backend

import (
	"context"
	"net/http"

	"github.com/iliyamo/apartment-portal/internal/model"
)

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the user's profile.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out, "Login failed")
	return out, err
}

// Me returns the profile of the token holder.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out, "Failed to load profile")
	return out, err
}

// ChangePassword changes the token holder's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	in := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPut, "/auth/change-password", nil, in, nil, "Failed to change password")
}
