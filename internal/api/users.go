// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Role selects which kind of field user an operation manages.
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleWorker     Role = "worker"
)

// listValue is the role filter the users endpoint expects on GET.
func (r Role) listValue() string { return string(r) }

// writeValue is the role sent on create and update. Workers are stored
// under the Spanish role name.
func (r Role) writeValue() string {
	if r == RoleWorker {
		return "trabajador"
	}
	return string(r)
}

// Singular returns the Spanish noun for one user of this role.
func (r Role) Singular() string {
	if r == RoleWorker {
		return "trabajador"
	}
	return "supervisor"
}

// Plural returns the Spanish noun for users of this role.
func (r Role) Plural() string {
	if r == RoleWorker {
		return "trabajadores"
	}
	return "supervisores"
}

// User is a supervisor or worker account.
type User struct {
	ID                    ID     `json:"id"`
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
	Position              string `json:"position"`
	Rut                   string `json:"rut"`
	CompanyID             ID     `json:"companyId"`
	IsActive              bool   `json:"isActive"`
	Role                  string `json:"role"`
	CreatedAt             string `json:"createdAt"`
	UpdatedAt             string `json:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserInput is the form data of a user create or update. An empty Password
// is left out of the request, keeping the current one on update.
type UserInput struct {
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	Email                 string `json:"email"`
	Password              string `json:"password,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactPhone,omitempty"`
	Position              string `json:"position,omitempty"`
	Rut                   string `json:"rut,omitempty"`
	CompanyID             int    `json:"companyId,omitempty"`
}

type userPayload struct {
	UserInput
	Role string `json:"role"`
}

func userFallback(verb string, r Role) string {
	return "Error al " + verb + " el " + r.Singular()
}

// ListUsers returns the users with role r.
func (c *Client) ListUsers(ctx context.Context, token string, r Role) ([]User, error) {
	raw, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/v1/users",
		token:    token,
		query:    url.Values{"role": {r.listValue()}},
		fallback: "Error al obtener los " + r.Plural(),
	})
	if err != nil {
		return nil, err
	}
	return decodeList[User](raw)
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, token string, r Role, id ID) (*User, error) {
	var u User
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/api/v1/users/" + id.path(),
		token:    token,
		fallback: userFallback("obtener", r),
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser adds a user with role r.
func (c *Client) CreateUser(ctx context.Context, token string, r Role, in UserInput) (*User, error) {
	var u User
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/v1/users",
		token:    token,
		body:     userPayload{UserInput: in, Role: r.writeValue()},
		fallback: userFallback("crear", r),
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser replaces the profile of a user with role r.
func (c *Client) UpdateUser(ctx context.Context, token string, r Role, id ID, in UserInput) (*User, error) {
	var u User
	err := c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/api/v1/users/" + id.path(),
		token:    token,
		body:     userPayload{UserInput: in, Role: r.writeValue()},
		fallback: userFallback("actualizar", r),
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUserActive pauses or reactivates a user.
func (c *Client) SetUserActive(ctx context.Context, token string, r Role, id ID, active bool) error {
	verb := "pausar"
	if active {
		verb = "reactivar"
	}
	return c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/api/v1/users/" + id.path(),
		token:    token,
		body:     map[string]bool{"isActive": active},
		fallback: userFallback(verb, r),
	}, nil)
}
