// Package router sets up all HTTP routes and middleware chains for the
// SafeCheck admin dashboard. Every page lives under /admin; the root
// redirects there.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"safecheck/internal/api"
	"safecheck/internal/handlers"
	"safecheck/internal/middleware"
	"safecheck/internal/session"
	"safecheck/web"
)

// Login attempts allowed per client IP and window.
const (
	loginLimit  = 10
	loginWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. The returned stop func releases the login
// rate limiter.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, secureCookies bool) (chi.Router, func()) {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	if static, err := fs.Sub(web.StaticFS, "static"); err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	})

	loginLimiter := middleware.NewRateLimiter(loginLimit, loginWindow)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secureCookies))

		// Auth pages, accessible without a session.
		r.Get("/login", auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA: requires a backend session but not a completed second factor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.With(loginLimiter.Middleware).Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// Authenticated admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Get("/", admin.Dashboard)
			r.Get("/dashboard", admin.Dashboard)

			// Form templates
			r.Route("/forms", func(r chi.Router) {
				r.Get("/", admin.FormsList)
				r.Get("/new", admin.FormNew)
				r.Get("/{id}/edit", admin.FormEdit)
				r.Post("/{id}/status", admin.FormStatus)
				r.Delete("/{id}", admin.FormDelete)

				// Template editor, addressed by draft key ("new" or a template id).
				r.Route("/builder/{key}", func(r chi.Router) {
					r.Post("/meta", admin.BuilderMeta)
					r.Post("/submit", admin.BuilderSubmit)
					r.Post("/discard", admin.BuilderDiscard)
					r.Post("/sections", admin.BuilderAddSection)
					r.Route("/sections/{si}", func(r chi.Router) {
						r.Put("/", admin.BuilderUpdateSection)
						r.Delete("/", admin.BuilderRemoveSection)
						r.Post("/questions", admin.BuilderAddQuestion)
						r.Route("/questions/{qi}", func(r chi.Router) {
							r.Put("/", admin.BuilderUpdateQuestion)
							r.Delete("/", admin.BuilderRemoveQuestion)
							r.Post("/move", admin.BuilderMoveQuestion)
							r.Post("/options", admin.BuilderAddOption)
							r.Put("/options/{oi}", admin.BuilderUpdateOption)
							r.Delete("/options/{oi}", admin.BuilderRemoveOption)
						})
					})
				})
			})

			// Categories
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", admin.CategoriesList)
				r.Post("/", admin.CategoryCreate)
				r.Get("/{id}/edit", admin.CategoryEdit)
				r.Put("/{id}", admin.CategoryUpdate)
				r.Post("/{id}/status", admin.CategoryStatus)
				r.Delete("/{id}", admin.CategoryDelete)
			})

			// Supervisors and workers share one set of handlers.
			userRoutes(r, admin, api.RoleSupervisor)
			userRoutes(r, admin, api.RoleWorker)

			r.Post("/rut/check", admin.RutCheck)
		})
	})

	return r, loginLimiter.Stop
}

func userRoutes(r chi.Router, admin *handlers.Admin, role api.Role) {
	r.Route(handlers.UserBase(role)[len("/admin"):], func(r chi.Router) {
		r.Get("/", admin.UsersList(role))
		r.Get("/new", admin.UserNew(role))
		r.Post("/", admin.UserCreate(role))
		r.Get("/{id}/edit", admin.UserEdit(role))
		r.Put("/{id}", admin.UserUpdate(role))
		r.Post("/{id}/status", admin.UserStatus(role))
	})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
