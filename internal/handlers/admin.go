// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the SafeCheck admin
// dashboard. Handlers are grouped by concern (admin screens, auth) and
// receive their dependencies through the handler struct. All business data
// lives in the SafeCheck backend and is reached through the api client.
package handlers

import (
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"safecheck/internal/api"
	"safecheck/internal/cache"
	"safecheck/internal/middleware"
	"safecheck/internal/render"
	"safecheck/internal/session"
	"safecheck/internal/store"
	"safecheck/internal/structure"
)

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer *render.Renderer
	sessions *session.Store
	api      *api.Client
	drafts   *cache.DraftStore
	audit    *store.AuditStore
	builder  *structure.Builder
	policy   *bluemonday.Policy
}

// NewAdmin creates a new Admin handler group with the given dependencies.
// audit may be nil when PostgreSQL is not configured.
func NewAdmin(renderer *render.Renderer, sessions *session.Store, client *api.Client, drafts *cache.DraftStore, audit *store.AuditStore) *Admin {
	return &Admin{
		renderer: renderer,
		sessions: sessions,
		api:      client,
		drafts:   drafts,
		audit:    audit,
		builder:  structure.NewBuilder(),
		policy:   bluemonday.StrictPolicy(),
	}
}

// stat is one dashboard counter. OK is false when the count could not be
// fetched.
type stat struct {
	Label string
	Href  string
	Count int
	OK    bool
}

// Dashboard renders the admin dashboard. Each counter is fetched on its own;
// a failing count is shown as unavailable without affecting the others.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, tok := r.Context(), token(r)

	counters := []struct {
		label, href string
		count       func() (int, error)
	}{
		{"Formularios", "/admin/forms", func() (int, error) {
			items, err := a.api.ListTemplates(ctx, tok, api.TemplateFilter{})
			return len(items), err
		}},
		{"Categorías", "/admin/categories", func() (int, error) {
			items, err := a.api.ListCategories(ctx, tok)
			return len(items), err
		}},
		{"Supervisores", "/admin/supervisors", func() (int, error) {
			items, err := a.api.ListUsers(ctx, tok, api.RoleSupervisor)
			return len(items), err
		}},
		{"Trabajadores", "/admin/workers", func() (int, error) {
			items, err := a.api.ListUsers(ctx, tok, api.RoleWorker)
			return len(items), err
		}},
	}

	stats := make([]stat, len(counters))
	errs := make([]error, len(counters))
	var wg sync.WaitGroup
	for i, c := range counters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.count()
			stats[i] = stat{Label: c.label, Href: c.href, Count: n, OK: err == nil}
			errs[i] = err
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Warn("dashboard count failed", "counter", counters[i].label, "error", err)
	}

	data := map[string]any{
		"Stats":        stats,
		"AuditEnabled": a.audit != nil,
	}
	if a.audit != nil {
		entries, err := a.audit.Recent(10)
		if err != nil {
			slog.Error("load audit log failed", "error", err)
		}
		data["Activity"] = entries
	}

	a.page(w, r, "dashboard", &render.PageData{
		Title:   "Inicio",
		Section: "dashboard",
		Data:    data,
	})
}

// page renders a full page with the session's pending flashes.
func (a *Admin) page(w http.ResponseWriter, r *http.Request, name string, data *render.PageData) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		data.Flashes = a.sessions.TakeFlashes(r.Context(), r, sess)
	}
	a.renderer.Page(w, r, name, data)
}

// flash queues a message for the next full page render.
func (a *Admin) flash(r *http.Request, typ, message string) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return
	}
	if err := a.sessions.AddFlash(r.Context(), r, sess, typ, message); err != nil {
		slog.Warn("flash store failed", "error", err)
	}
}

// sessionExpired ends the session and sends the browser to the login page
// when the backend no longer accepts the session's token. It reports whether
// it wrote the response.
func (a *Admin) sessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !api.IsStatus(err, http.StatusUnauthorized) && !errors.Is(err, api.ErrNoToken) {
		return false
	}
	slog.Info("backend rejected session token", "path", r.URL.Path)
	a.drafts.DeleteSession(r.Context(), session.ID(r))
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	middleware.Redirect(w, r, "/admin/login")
	return true
}

// record writes an audit entry for the current admin. No-op without a
// database.
func (a *Admin) record(r *http.Request, action, entityType, entityID, detail string) {
	if a.audit == nil {
		return
	}
	e := store.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		e.ActorID = sess.UserID
		e.ActorEmail = sess.Email
	}
	a.audit.Log(e)
}

// clean strips markup from user input and trims it.
func (a *Admin) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(a.policy.Sanitize(s)))
}

// token returns the backend access token of the current session.
func token(r *http.Request) string {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess.AccessToken
	}
	return ""
}

// toggle flips an active flag optimistically: set receives the new state
// and, when it fails, the previous state is returned with the error so the
// caller re-renders the snapshot.
func toggle(current bool, set func(next bool) error) (bool, error) {
	next := !current
	if err := set(next); err != nil {
		return current, err
	}
	return next, nil
}

// formBool reads a boolean form field.
func formBool(r *http.Request, key string) (bool, error) {
	return strconv.ParseBool(r.FormValue(key))
}

// statusWord returns the Spanish participle for an activation change.
func statusWord(active bool, on, off string) string {
	if active {
		return on
	}
	return off
}
