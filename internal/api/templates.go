// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"safecheck/internal/structure"
)

// TemplateType is the kind of form a template produces.
type TemplateType string

const (
	TemplateChecklist TemplateType = "checklist"
	TemplateART       TemplateType = "art"
	TemplateReport    TemplateType = "reporte"
	TemplateActivity  TemplateType = "actividades"
)

// TemplateTypes lists the template types in the order the dashboard shows
// them.
var TemplateTypes = []TemplateType{TemplateChecklist, TemplateART, TemplateReport, TemplateActivity}

// Label returns the display name of the type.
func (t TemplateType) Label() string {
	switch t {
	case TemplateChecklist:
		return "Checklist"
	case TemplateART:
		return "ART"
	case TemplateReport:
		return "Reporte"
	case TemplateActivity:
		return "Actividades"
	default:
		return string(t)
	}
}

// Valid reports whether t is a known template type.
func (t TemplateType) Valid() bool {
	for _, v := range TemplateTypes {
		if v == t {
			return true
		}
	}
	return false
}

// CategoryRef is the category summary embedded in a template.
type CategoryRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Template is a form template as stored by the backend.
type Template struct {
	ID          ID                  `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Type        TemplateType        `json:"type"`
	Structure   structure.Structure `json:"structure"`
	IsActive    bool                `json:"isActive"`
	CategoryID  ID                  `json:"categoryId"`
	CompanyID   ID                  `json:"companyId"`
	Category    *CategoryRef        `json:"category,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

// UnmarshalJSON decodes the structure leniently; see structure.Decode.
func (t *Template) UnmarshalJSON(b []byte) error {
	type plain Template
	var aux struct {
		plain
		Structure json.RawMessage `json:"structure"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s, err := structure.Decode(aux.Structure)
	if err != nil {
		return fmt.Errorf("template %s: %w", aux.ID, err)
	}
	*t = Template(aux.plain)
	t.Structure = s
	return nil
}

// CategoryName returns the embedded category name, if any.
func (t Template) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// TemplateInput is the body of a template create or full update. The
// structure is always sent whole and normalized. The backend expects a
// numeric categoryId; nil leaves it out.
type TemplateInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Type        TemplateType        `json:"type"`
	Structure   structure.Structure `json:"structure"`
	CategoryID  *int                `json:"categoryId,omitempty"`
}

func (in TemplateInput) normalized() TemplateInput {
	in.Structure = structure.Normalize(in.Structure)
	return in
}

// TemplateFilter narrows ListTemplates. Zero values are not sent.
type TemplateFilter struct {
	CategoryID string
	Type       TemplateType
	IsActive   *bool
}

func (f TemplateFilter) query() url.Values {
	q := url.Values{}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.IsActive != nil {
		q.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	return q
}

// ListTemplates returns the templates matching f. A template whose structure
// cannot be decoded is logged and left out so the rest of the list still
// renders.
func (c *Client) ListTemplates(ctx context.Context, token string, f TemplateFilter) ([]Template, error) {
	raw, err := c.send(ctx, call{
		method:   http.MethodGet,
		path:     "/api/v1/templates",
		token:    token,
		query:    f.query(),
		fallback: "Error al obtener templates",
	})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[json.RawMessage](raw)
	if err != nil {
		return nil, err
	}
	out := make([]Template, 0, len(items))
	for i, item := range items {
		var t Template
		if err := json.Unmarshal(item, &t); err != nil {
			slog.Warn("skipping undecodable template", "index", i, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTemplate fetches one template.
func (c *Client) GetTemplate(ctx context.Context, token string, id ID) (*Template, error) {
	var t Template
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/api/v1/templates/" + id.path(),
		token:    token,
		fallback: "Error al obtener el template",
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate posts a new template. Callers validate the structure first.
func (c *Client) CreateTemplate(ctx context.Context, token string, in TemplateInput) (*Template, error) {
	var t Template
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/v1/templates",
		token:    token,
		body:     in.normalized(),
		fallback: "Error al crear el template",
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTemplate replaces a template, structure included.
func (c *Client) UpdateTemplate(ctx context.Context, token string, id ID, in TemplateInput) (*Template, error) {
	var t Template
	err := c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/api/v1/templates/" + id.path(),
		token:    token,
		body:     in.normalized(),
		fallback: "Error al actualizar el template",
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetTemplateStatus activates or deactivates a template.
func (c *Client) SetTemplateStatus(ctx context.Context, token string, id ID, active bool) error {
	return c.do(ctx, call{
		method:   http.MethodPatch,
		path:     "/api/v1/templates/" + id.path() + "/status",
		token:    token,
		body:     map[string]bool{"isActive": active},
		fallback: "Error al actualizar el estado del template",
	}, nil)
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, token string, id ID) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/v1/templates/" + id.path(),
		token:    token,
		fallback: "Error al eliminar el template",
	}, nil)
}
