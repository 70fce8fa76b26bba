// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests: a fake SafeCheck backend served by httptest and a Valkey-backed
// session. Tests are skipped when Valkey is unavailable.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"safecheck/internal/api"
	"safecheck/internal/cache"
	"safecheck/internal/middleware"
	"safecheck/internal/render"
	"safecheck/internal/session"
)

const (
	testToken = "test-token"
	testAdmin = "admin@safecheck.test"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "draft:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})
	return client
}

// fakeBackend is an in-memory SafeCheck backend. fail makes a route answer
// with the given status; calls records every request as "METHOD path".
type fakeBackend struct {
	mu         sync.Mutex
	nextID     int
	templates  map[string]api.Template
	categories map[string]api.Category
	users      map[string]api.User
	fail       map[string]int
	calls      []string
	lastBody   map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:     100,
		templates:  map[string]api.Template{},
		categories: map[string]api.Category{},
		users:      map[string]api.User{},
		fail:       map[string]int{},
	}
}

// failRoute makes the route (e.g. "PATCH /api/v1/templates/{id}/status")
// answer with status.
func (b *fakeBackend) failRoute(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[route] = status
}

func (b *fakeBackend) callCount(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) id() string {
	b.nextID++
	return strconv.Itoa(b.nextID)
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	route := func(method, pattern string, h func(w http.ResponseWriter, r *http.Request, body map[string]any)) {
		r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.calls = append(b.calls, r.Method+" "+r.URL.Path)

			if pattern != "/api/v1/auth/login" && r.Header.Get("Authorization") != "Bearer "+testToken {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
				return
			}
			if status, ok := b.fail[method+" "+pattern]; ok {
				writeJSON(w, status, map[string]any{"message": "fallo simulado"})
				return
			}
			var body map[string]any
			if r.Body != nil {
				_ = json.NewDecoder(r.Body).Decode(&body)
			}
			b.lastBody = body
			h(w, r, body)
		}))
	}

	route(http.MethodPost, "/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		email, _ := body["email"].(string)
		if body["password"] != "Secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Credenciales inválidas"})
			return
		}
		role := "admin"
		if strings.HasPrefix(email, "worker") {
			role = "trabajador"
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"accessToken": testToken, "refreshToken": "refresh",
			"user": map[string]any{"id": 7, "email": email, "firstName": "Ana", "lastName": "Pérez", "role": role},
		}})
	})

	route(http.MethodGet, "/api/v1/templates", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		list := []api.Template{}
		for _, t := range b.templates {
			if v := r.URL.Query().Get("isActive"); v != "" && v != strconv.FormatBool(t.IsActive) {
				continue
			}
			list = append(list, t)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": list})
	})
	route(http.MethodGet, "/api/v1/templates/{id}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		t, ok := b.templates[chi.URLParam(r, "id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Template no encontrado"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	})
	route(http.MethodPost, "/api/v1/templates", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		t := api.Template{ID: api.ID(b.id()), Name: body["name"].(string), IsActive: true}
		b.templates[t.ID.String()] = t
		writeJSON(w, http.StatusCreated, t)
	})
	route(http.MethodPut, "/api/v1/templates/{id}", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		t := b.templates[chi.URLParam(r, "id")]
		t.Name = body["name"].(string)
		b.templates[t.ID.String()] = t
		writeJSON(w, http.StatusOK, t)
	})
	route(http.MethodPatch, "/api/v1/templates/{id}/status", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		t := b.templates[chi.URLParam(r, "id")]
		t.IsActive, _ = body["isActive"].(bool)
		b.templates[chi.URLParam(r, "id")] = t
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	route(http.MethodDelete, "/api/v1/templates/{id}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		delete(b.templates, chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	route(http.MethodGet, "/api/v1/categories", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		list := []api.Category{}
		for _, c := range b.categories {
			list = append(list, c)
		}
		writeJSON(w, http.StatusOK, list)
	})
	route(http.MethodGet, "/api/v1/categories/{id}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		c, ok := b.categories[chi.URLParam(r, "id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Categoría no encontrada"})
			return
		}
		writeJSON(w, http.StatusOK, c)
	})
	route(http.MethodPost, "/api/v1/categories", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		c := api.Category{ID: api.ID(b.id()), Name: body["name"].(string), IsActive: true}
		c.Color, _ = body["color"].(string)
		b.categories[c.ID.String()] = c
		writeJSON(w, http.StatusCreated, c)
	})
	route(http.MethodPatch, "/api/v1/categories/{id}", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		c := b.categories[chi.URLParam(r, "id")]
		c.Name = body["name"].(string)
		b.categories[chi.URLParam(r, "id")] = c
		writeJSON(w, http.StatusOK, c)
	})
	route(http.MethodPatch, "/api/v1/categories/{id}/status", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		c := b.categories[chi.URLParam(r, "id")]
		c.IsActive, _ = body["is_active"].(bool)
		b.categories[chi.URLParam(r, "id")] = c
		writeJSON(w, http.StatusOK, c)
	})
	route(http.MethodDelete, "/api/v1/categories/{id}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		delete(b.categories, chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	route(http.MethodGet, "/api/v1/users", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		list := []api.User{}
		for _, u := range b.users {
			if u.Role == r.URL.Query().Get("role") {
				list = append(list, u)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list, "total": len(list)})
	})
	route(http.MethodGet, "/api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		u, ok := b.users[chi.URLParam(r, "id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Usuario no encontrado"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	})
	route(http.MethodPost, "/api/v1/users", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		u := api.User{ID: api.ID(b.id()), IsActive: true}
		u.FirstName, _ = body["firstName"].(string)
		u.Email, _ = body["email"].(string)
		u.Rut, _ = body["rut"].(string)
		u.Role, _ = body["role"].(string)
		if u.Role == "trabajador" {
			u.Role = "worker"
		}
		b.users[u.ID.String()] = u
		writeJSON(w, http.StatusCreated, u)
	})
	route(http.MethodPut, "/api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		u := b.users[chi.URLParam(r, "id")]
		if v, ok := body["isActive"].(bool); ok {
			u.IsActive = v
		}
		if v, ok := body["firstName"].(string); ok {
			u.FirstName = v
		}
		b.users[chi.URLParam(r, "id")] = u
		writeJSON(w, http.StatusOK, u)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	Valkey   *redis.Client
	Backend  *fakeBackend
	Renderer *render.Renderer
	Sessions *session.Store
	Drafts   *cache.DraftStore
	Admin    *Admin
	Auth     *Auth

	cookie *http.Cookie
	sess   *session.Data
}

// newTestEnv creates a test environment with a signed-in admin session.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	vk := testValkeyClient(t)
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	drafts := cache.NewDraftStore(vk, time.Minute)
	client := api.New(srv.URL, 5*time.Second)

	env := &testEnv{
		Valkey:   vk,
		Backend:  backend,
		Renderer: renderer,
		Sessions: sessions,
		Drafts:   drafts,
		Admin:    NewAdmin(renderer, sessions, client, drafts, nil),
		Auth:     NewAuth(renderer, sessions, client, drafts, nil, nil),
	}

	env.sess = &session.Data{
		UserID:      "7",
		Email:       testAdmin,
		DisplayName: "Ana Pérez",
		Role:        api.RoleAdmin,
		AccessToken: testToken,
		TwoFADone:   true,
	}
	rec := httptest.NewRecorder()
	if _, err := sessions.Create(context.Background(), rec, env.sess); err != nil {
		t.Fatalf("session create: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			env.cookie = c
		}
	}
	if env.cookie == nil {
		t.Fatal("session cookie not set")
	}
	return env
}

// request builds an HTMX request carrying the session cookie, the session
// in the context and the given chi URL params (name, value pairs).
func (e *testEnv) request(method, target string, form url.Values, params ...string) *http.Request {
	var req *http.Request
	if form != nil && method != http.MethodGet && method != http.MethodDelete {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if form != nil {
			target += "?" + form.Encode()
		}
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("HX-Request", "true")
	req.AddCookie(e.cookie)

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, e.sess)
	return req.WithContext(ctx)
}

// flashes returns the flashes queued on the stored session.
func (e *testEnv) flashes(t *testing.T) []session.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(e.cookie)
	data, err := e.Sessions.Get(context.Background(), req)
	if err != nil || data == nil {
		t.Fatalf("session get: %v", err)
	}
	return data.Flashes
}

// toastOf decodes the HX-Trigger toast of a response.
func toastOf(t *testing.T, rec *httptest.ResponseRecorder) (typ, message string) {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		return "", ""
	}
	var payload struct {
		Toast struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"toast"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("HX-Trigger = %q: %v", raw, err)
	}
	return payload.Toast.Type, payload.Toast.Message
}
