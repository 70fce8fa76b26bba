// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin interface.
// It supports full-page and HTMX partial rendering, automatically detecting
// the request type via the HX-Request header.
package render

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"safecheck/internal/api"
	"safecheck/internal/middleware"
	"safecheck/internal/rut"
	"safecheck/internal/session"
	"safecheck/internal/structure"
)

//go:embed templates/admin/*.html
var adminFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active sidebar section (e.g., "dashboard", "forms")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash = session.Flash

// Renderer handles template parsing and execution for admin pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// partialsFile holds blocks shared by every page (flashes, badges, icons).
const partialsFile = "_partials.html"

// New creates a Renderer by parsing all admin templates from the embedded
// filesystem. Each page template is paired with the base layout and the
// shared partials. When devMode is true, templates use CDN-hosted assets
// (TailwindCSS, HTMX); when false, they reference local static files.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "bg-gray-900 text-white"
				}
				return "text-gray-300 hover:bg-gray-700 hover:text-white"
			},
			// isDev returns true when the app runs in development mode.
			// Used by templates to conditionally load CDN vs local assets.
			"isDev": func() bool {
				return devMode
			},
			"add": func(a, b int) int { return a + b },
			// intValue renders an optional number for an input's value.
			"intValue": func(p *int) string {
				if p == nil {
					return ""
				}
				return strconv.Itoa(*p)
			},
			"accepts": func(t structure.QuestionType, f string) bool {
				return t.Accepts(structure.Field(f))
			},
			"questionTypes": func() []structure.QuestionType { return structure.QuestionTypes },
			"templateTypes": func() []api.TemplateType { return api.TemplateTypes },
			"formatRUT":     rut.Format,
			"flashClass":    flashClass,
			"dict":          dict,
		},
	}

	entries, err := adminFS.ReadDir("templates/admin")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || strings.HasPrefix(name, "_") {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		// Standalone templates render as full pages without the base layout.
		var tmpl *template.Template
		var parseErr error
		if standaloneTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(
				adminFS, "templates/admin/"+partialsFile, "templates/admin/"+name,
			)
		} else {
			tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(
				adminFS, "templates/admin/base.html", "templates/admin/"+partialsFile, "templates/admin/"+name,
			)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// For full page loads, the entire base layout is rendered.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())

	// Inject session from context.
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	// HTMX request: render only the content fragment.
	execName := "content"
	if !middleware.IsHTMX(r) {
		execName = "base.html"
		// Standalone pages use their own root template (not base.html).
		if standaloneTemplates[name] {
			execName = name + ".html"
		}
	}

	rn.execute(w, tmpl, name, execName, data)
}

// Fragment renders one named block of a page template with data as its
// dot, e.g. a table cell or the builder editor in reply to an HTMX request.
func (rn *Renderer) Fragment(w http.ResponseWriter, name, block string, data any) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	rn.execute(w, tmpl, name, block, data)
}

func (rn *Renderer) execute(w http.ResponseWriter, tmpl *template.Template, name, execName string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := executeTemplate(w, tmpl, execName, data); err != nil {
		slog.Error("template execute failed", "template", name, "block", execName, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// executeTemplate renders into a buffer; nothing is written when execution
// fails.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

func flashClass(typ string) string {
	switch typ {
	case "success":
		return "bg-green-50 text-green-800 border-green-200"
	case "error":
		return "bg-red-50 text-red-800 border-red-200"
	case "warning":
		return "bg-yellow-50 text-yellow-800 border-yellow-200"
	default:
		return "bg-blue-50 text-blue-800 border-blue-200"
	}
}

// dict builds a map from alternating keys and values so a template can pass
// several values to a nested template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
