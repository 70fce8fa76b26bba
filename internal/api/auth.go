// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package api

import (
	"context"
	"net/http"
	"strings"
)

// RoleAdmin is the only backend role allowed into the dashboard.
const RoleAdmin = "admin"

// Account is the authenticated user as returned by the login endpoint.
type Account struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// FullName joins first and last name, falling back to the email.
func (a Account) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

// AuthResponse is the body of a successful login.
type AuthResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
	TokenType    string  `json:"tokenType"`
	User         Account `json:"user"`
}

// Login authenticates against the backend. Accounts without the admin role
// are rejected with ErrNotAdmin even when the credentials are valid.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/v1/auth/login",
		body:     map[string]string{"email": email, "password": password},
		fallback: "Error al iniciar sesión",
		public:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.User.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return &resp, nil
}
