// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "context"

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// User is the authenticated user's profile as returned by /auth/me.
type User struct {
	ID       int64  `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// loginRequest is the body for /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse carries the bearer token issued on login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// signupRequest is the body for /auth/signup.
type signupRequest struct {
	UserName        string `json:"user_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login exchanges credentials for a bearer token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.postJSON(ctx, "/auth/login", nil, loginRequest{
		Email:    email,
		Password: password,
	}, &resp, true)
	if err != nil {
		return "", err
	}
	c.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

// Signup creates a new account. The backend validates that the passwords
// match; the client passes both through untouched.
func (c *Client) Signup(ctx context.Context, userName, email, password, confirmPassword string) error {
	return c.postJSON(ctx, "/auth/signup", nil, signupRequest{
		UserName:        userName,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
	}, nil, true)
}

// Me validates the current token and returns the user profile. A failure
// wrapping ErrAuthFailed means the token is expired or invalid and should
// be cleared.
func (c *Client) Me(ctx context.Context) (*User, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var user User
	if err := c.getJSON(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
