// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package api

import (
	"context"
	"net/http"
)

// Category groups templates. The categories endpoint uses snake_case keys.
type Category struct {
	ID          ID           `json:"id"`
	CompanyID   ID           `json:"company_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	IsActive    bool         `json:"is_active"`
	FormType    TemplateType `json:"form_type"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// CategoryInput is the body of a category create or update.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context, token string) ([]Category, error) {
	raw, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/v1/categories",
		token:    token,
		fallback: "Error al obtener categorías",
	})
	if err != nil {
		return nil, err
	}
	return decodeList[Category](raw)
}

// GetCategory fetches one category.
func (c *Client) GetCategory(ctx context.Context, token string, id ID) (*Category, error) {
	var cat Category
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/api/v1/categories/" + id.path(),
		token:    token,
		fallback: "Error al obtener la categoría",
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, token string, in CategoryInput) (*Category, error) {
	var cat Category
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/v1/categories",
		token:    token,
		body:     in,
		fallback: "Error al crear la categoría",
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory patches a category.
func (c *Client) UpdateCategory(ctx context.Context, token string, id ID, in CategoryInput) (*Category, error) {
	var cat Category
	err := c.do(ctx, call{
		method:   http.MethodPatch,
		path:     "/api/v1/categories/" + id.path(),
		token:    token,
		body:     in,
		fallback: "Error al actualizar la categoría",
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// SetCategoryStatus activates or deactivates a category.
func (c *Client) SetCategoryStatus(ctx context.Context, token string, id ID, active bool) error {
	fallback := "Error al desactivar la categoría"
	if active {
		fallback = "Error al activar la categoría"
	}
	return c.do(ctx, call{
		method:   http.MethodPatch,
		path:     "/api/v1/categories/" + id.path() + "/status",
		token:    token,
		body:     map[string]bool{"is_active": active},
		fallback: fallback,
	}, nil)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, token string, id ID) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/v1/categories/" + id.path(),
		token:    token,
		fallback: "Error al eliminar la categoría",
	}, nil)
}
