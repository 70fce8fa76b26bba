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

// defaultCategoryColor is preselected in the create form.
const defaultCategoryColor = "#0a7ea4"

// categoryForm is the create/edit form shown beside the category list.
type categoryForm struct {
	ID          string
	Name        string
	Description string
	Color       string
	Error       string
}

// CategoriesList renders the categories page with an empty create form.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	a.renderCategories(w, r, categoryForm{Color: defaultCategoryColor})
}

// CategoryEdit renders the categories page with the form filled in for one
// category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id := api.ID(chi.URLParam(r, "id"))
	cat, err := a.api.GetCategory(r.Context(), token(r), id)
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("get category failed", "category_id", id, "error", err)
		a.flash(r, "error", api.Message(err))
		middleware.Redirect(w, r, "/admin/categories")
		return
	}

	color := cat.Color
	if !validColor(color) {
		color = defaultCategoryColor
	}
	a.renderCategories(w, r, categoryForm{
		ID:          cat.ID.String(),
		Name:        cat.Name,
		Description: cat.Description,
		Color:       color,
	})
}

// CategoryCreate handles the category create form.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	form, in, ok := a.categoryInput(r)
	if !ok {
		a.renderCategories(w, r, form)
		return
	}

	cat, err := a.api.CreateCategory(r.Context(), token(r), in)
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("create category failed", "error", err)
		form.Error = "Error al crear la categoría. Por favor, intente nuevamente."
		if api.IsStatus(err, http.StatusConflict) || api.IsStatus(err, http.StatusBadRequest) {
			form.Error = api.Message(err)
		}
		a.renderCategories(w, r, form)
		return
	}

	a.record(r, store.ActionCreate, "category", cat.ID.String(), cat.Name)
	a.flash(r, "success", "Categoría creada exitosamente")
	middleware.Redirect(w, r, "/admin/categories")
}

// CategoryUpdate handles the category edit form.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id := api.ID(chi.URLParam(r, "id"))
	form, in, ok := a.categoryInput(r)
	form.ID = id.String()
	if !ok {
		a.renderCategories(w, r, form)
		return
	}

	if _, err := a.api.UpdateCategory(r.Context(), token(r), id, in); err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("update category failed", "category_id", id, "error", err)
		form.Error = "Error al actualizar la categoría. Por favor, intente nuevamente."
		if api.IsStatus(err, http.StatusConflict) || api.IsStatus(err, http.StatusBadRequest) {
			form.Error = api.Message(err)
		}
		a.renderCategories(w, r, form)
		return
	}

	a.record(r, store.ActionUpdate, "category", id.String(), in.Name)
	a.flash(r, "success", "Categoría actualizada exitosamente")
	middleware.Redirect(w, r, "/admin/categories")
}

// CategoryStatus flips a category between active and inactive.
func (a *Admin) CategoryStatus(w http.ResponseWriter, r *http.Request) {
	id := api.ID(chi.URLParam(r, "id"))
	current, err := formBool(r, "active")
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	shown, err := toggle(current, func(next bool) error {
		return a.api.SetCategoryStatus(r.Context(), token(r), id, next)
	})
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("set category status failed", "category_id", id, "error", err)
		middleware.Toast(w, "error", api.Message(err))
	} else {
		a.record(r, statusWord(shown, store.ActionActivate, store.ActionDeactivate), "category", id.String(), "")
		middleware.Toast(w, "success", "Categoría "+statusWord(shown, "activada", "desactivada")+" exitosamente")
	}

	a.renderer.Fragment(w, "categories", "category_status", api.Category{ID: id, IsActive: shown})
}

// CategoryDelete removes a category.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id := api.ID(chi.URLParam(r, "id"))

	if err := a.api.DeleteCategory(r.Context(), token(r), id); err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("delete category failed", "category_id", id, "error", err)
		w.Header().Set("HX-Reswap", "none")
		middleware.Toast(w, "error", api.Message(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	a.record(r, store.ActionDelete, "category", id.String(), "")
	middleware.Toast(w, "success", "Categoría eliminada exitosamente")
	w.WriteHeader(http.StatusOK)
}

// categoryInput reads and validates the category form. ok is false when
// the form has errors; form.Error then holds the message.
func (a *Admin) categoryInput(r *http.Request) (form categoryForm, in api.CategoryInput, ok bool) {
	form = categoryForm{
		Name:        a.clean(r.FormValue("name")),
		Description: a.clean(r.FormValue("description")),
		Color:       a.clean(r.FormValue("color")),
	}
	if form.Color == "" {
		form.Color = defaultCategoryColor
	}
	if msg := validateCategory(form.Name, form.Description, form.Color); msg != "" {
		form.Error = msg
		return form, in, false
	}
	return form, api.CategoryInput{
		Name:        form.Name,
		Description: form.Description,
		Color:       form.Color,
	}, true
}

func (a *Admin) renderCategories(w http.ResponseWriter, r *http.Request, form categoryForm) {
	var errMsg string
	cats, err := a.api.ListCategories(r.Context(), token(r))
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("list categories failed", "error", err)
		errMsg = "No se pudieron cargar las categorías. Por favor, intente nuevamente."
	}

	a.page(w, r, "categories", &render.PageData{
		Title:   "Categorías",
		Section: "categories",
		Data: map[string]any{
			"Categories": cats,
			"Form":       form,
			"Error":      errMsg,
		},
	})
}
