// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
)

// IsHTMX reports whether the request was issued by HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Toast asks the layout to show a notification once the HTMX response is
// processed. typ is one of "success", "error", "warning" or "info".
func Toast(w http.ResponseWriter, typ, message string) {
	payload, err := json.Marshal(map[string]any{
		"toast": map[string]string{"type": typ, "message": message},
	})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

// fail ends a request that cannot be served. HTMX requests get a toast and
// no swap, so the current page stays as it is; others get plain text.
func fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if IsHTMX(r) {
		Toast(w, "error", message)
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(status)
		return
	}
	http.Error(w, message, status)
}
