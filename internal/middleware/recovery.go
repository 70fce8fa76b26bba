// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

const msgUnexpected = "Ocurrió un error inesperado. Intente nuevamente."

// Recoverer catches panics in downstream handlers, logs the stack trace,
// and answers 500 instead of crashing the server. http.ErrAbortHandler is
// re-raised so net/http can drop the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			attrs := []any{
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"htmx", IsHTMX(r),
			}
			if sess := SessionFromCtx(r.Context()); sess != nil {
				attrs = append(attrs, "user_id", sess.UserID)
			}
			attrs = append(attrs, "stack", string(debug.Stack()))
			slog.Error("panic recovered", attrs...)

			fail(w, r, http.StatusInternalServerError, msgUnexpected)
		}()

		next.ServeHTTP(w, r)
	})
}
