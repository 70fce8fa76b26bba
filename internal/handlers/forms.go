// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safecheck/internal/api"
	"safecheck/internal/middleware"
	"safecheck/internal/render"
	"safecheck/internal/store"
)

// FormsList renders the template list, filtered by the status and type
// query parameters.
func (a *Admin) FormsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter api.TemplateFilter

	status := q.Get("status")
	switch status {
	case "active":
		active := true
		filter.IsActive = &active
	case "inactive":
		active := false
		filter.IsActive = &active
	default:
		status = ""
	}

	typ := api.TemplateType(q.Get("type"))
	if typ.Valid() {
		filter.Type = typ
	} else {
		typ = ""
	}

	var errMsg string
	forms, err := a.api.ListTemplates(r.Context(), token(r), filter)
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("list templates failed", "error", err)
		errMsg = "No se pudieron cargar los formularios. Por favor, intente nuevamente."
	}

	a.page(w, r, "forms_list", &render.PageData{
		Title:   "Formularios",
		Section: "forms",
		Data: map[string]any{
			"Forms":  forms,
			"Status": status,
			"Type":   string(typ),
			"Error":  errMsg,
		},
	})
}

// FormStatus flips a template between active and inactive. The form posts
// the state the row currently shows; on failure that state is rendered back.
func (a *Admin) FormStatus(w http.ResponseWriter, r *http.Request) {
	id := api.ID(chi.URLParam(r, "id"))
	current, err := formBool(r, "active")
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	shown, err := toggle(current, func(next bool) error {
		return a.api.SetTemplateStatus(r.Context(), token(r), id, next)
	})
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("set template status failed", "template_id", id, "error", err)
		middleware.Toast(w, "error", "No se pudo cambiar el estado del formulario.")
	} else {
		a.record(r, statusWord(shown, store.ActionActivate, store.ActionDeactivate), "template", id.String(), "")
		middleware.Toast(w, "success", "Formulario "+statusWord(shown, "activado", "desactivado")+" exitosamente")
	}

	a.renderer.Fragment(w, "forms_list", "form_status", api.Template{ID: id, IsActive: shown})
}

// FormDelete removes a template. On success the row is swapped out; on
// failure the row stays and a toast explains why.
func (a *Admin) FormDelete(w http.ResponseWriter, r *http.Request) {
	id := api.ID(chi.URLParam(r, "id"))

	if err := a.api.DeleteTemplate(r.Context(), token(r), id); err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("delete template failed", "template_id", id, "error", err)
		w.Header().Set("HX-Reswap", "none")
		middleware.Toast(w, "error", "No se pudo eliminar el formulario")
		w.WriteHeader(http.StatusOK)
		return
	}

	a.record(r, store.ActionDelete, "template", id.String(), "")
	middleware.Toast(w, "success", "Formulario eliminado correctamente")
	w.WriteHeader(http.StatusOK)
}
