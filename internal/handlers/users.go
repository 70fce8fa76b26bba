// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"safecheck/internal/api"
	"safecheck/internal/middleware"
	"safecheck/internal/render"
	"safecheck/internal/rut"
	"safecheck/internal/store"
)

// defaultCompanyID is the company new supervisors and workers belong to.
const defaultCompanyID = 1

// UserBase returns the admin path prefix of the screens for role.
func UserBase(role api.Role) string {
	if role == api.RoleWorker {
		return "/admin/workers"
	}
	return "/admin/supervisors"
}

func userSection(role api.Role) string {
	if role == api.RoleWorker {
		return "workers"
	}
	return "supervisors"
}

// UsersList returns the list handler for users of role.
func (a *Admin) UsersList(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var errMsg string
		users, err := a.api.ListUsers(r.Context(), token(r), role)
		if err != nil {
			if a.sessionExpired(w, r, err) {
				return
			}
			slog.Error("list users failed", "role", role, "error", err)
			errMsg = "No se pudieron cargar los " + role.Plural() + ". Intente nuevamente."
		}

		a.page(w, r, "users_list", &render.PageData{
			Title:   capitalize(role.Plural()),
			Section: userSection(role),
			Data: map[string]any{
				"Users": users,
				"Role":  role,
				"Base":  UserBase(role),
				"Error": errMsg,
			},
		})
	}
}

// UserNew returns the handler rendering an empty form for role.
func (a *Admin) UserNew(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.renderUserForm(w, r, role, userForm{}, "")
	}
}

// UserEdit returns the handler rendering the form of an existing user.
func (a *Admin) UserEdit(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := api.ID(chi.URLParam(r, "id"))
		u, err := a.api.GetUser(r.Context(), token(r), role, id)
		if err != nil {
			if a.sessionExpired(w, r, err) {
				return
			}
			slog.Error("get user failed", "role", role, "user_id", id, "error", err)
			a.flash(r, "error", api.Message(err))
			middleware.Redirect(w, r, UserBase(role))
			return
		}
		a.renderUserForm(w, r, role, userForm{
			ID:                    u.ID.String(),
			FirstName:             u.FirstName,
			LastName:              u.LastName,
			Email:                 u.Email,
			Rut:                   u.Rut,
			Phone:                 u.Phone,
			EmergencyContactPhone: u.EmergencyContactPhone,
			Position:              u.Position,
		}, "")
	}
}

// UserCreate returns the create handler for role.
func (a *Admin) UserCreate(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.saveUser(w, r, role, "")
	}
}

// UserUpdate returns the update handler for role.
func (a *Admin) UserUpdate(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.saveUser(w, r, role, api.ID(chi.URLParam(r, "id")))
	}
}

// saveUser validates the posted form and creates (id empty) or updates the
// user. Validation errors are shown under their fields without calling the
// backend.
func (a *Admin) saveUser(w http.ResponseWriter, r *http.Request, role api.Role, id api.ID) {
	isNew := id == ""
	form := userForm{
		ID:                    id.String(),
		FirstName:             a.clean(r.FormValue("firstName")),
		LastName:              a.clean(r.FormValue("lastName")),
		Email:                 a.clean(r.FormValue("email")),
		Rut:                   a.clean(r.FormValue("rut")),
		Phone:                 a.clean(r.FormValue("phone")),
		EmergencyContactPhone: a.clean(r.FormValue("emergencyContactPhone")),
		Position:              a.clean(r.FormValue("position")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	if errs := validateUser(form, password, confirm, isNew); len(errs) > 0 {
		form.Errors = errs
		a.renderUserForm(w, r, role, form, "")
		return
	}

	in := api.UserInput{
		FirstName:             form.FirstName,
		LastName:              form.LastName,
		Email:                 form.Email,
		Password:              password,
		Phone:                 form.Phone,
		EmergencyContactPhone: form.EmergencyContactPhone,
		Position:              form.Position,
		CompanyID:             defaultCompanyID,
	}
	if form.Rut != "" {
		in.Rut = rut.Format(form.Rut)
	}

	var (
		u   *api.User
		err error
	)
	if isNew {
		u, err = a.api.CreateUser(r.Context(), token(r), role, in)
	} else {
		u, err = a.api.UpdateUser(r.Context(), token(r), role, id, in)
	}
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("save user failed", "role", role, "user_id", id, "error", err)
		verb := "crear"
		if !isNew {
			verb = "actualizar"
		}
		msg := "No se pudo " + verb + " el " + role.Singular() + ". Intente nuevamente."
		if api.IsStatus(err, http.StatusConflict) || api.IsStatus(err, http.StatusBadRequest) {
			msg = api.Message(err)
		}
		a.renderUserForm(w, r, role, form, msg)
		return
	}

	action, done := store.ActionCreate, "creado"
	if !isNew {
		action, done = store.ActionUpdate, "actualizado"
	}
	entityID := id.String()
	if u != nil && u.ID != "" {
		entityID = u.ID.String()
	}
	a.record(r, action, string(role), entityID, form.Email)
	a.flash(r, "success", capitalize(role.Singular())+" "+done+" exitosamente")
	middleware.Redirect(w, r, UserBase(role))
}

// UserStatus returns the handler that pauses or reactivates a user.
func (a *Admin) UserStatus(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := api.ID(chi.URLParam(r, "id"))
		current, err := formBool(r, "active")
		if err != nil {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		shown, err := toggle(current, func(next bool) error {
			return a.api.SetUserActive(r.Context(), token(r), role, id, next)
		})
		if err != nil {
			if a.sessionExpired(w, r, err) {
				return
			}
			slog.Error("set user status failed", "role", role, "user_id", id, "error", err)
			verb := statusWord(!current, "reactivar", "pausar")
			middleware.Toast(w, "error", "No se pudo "+verb+" el "+role.Singular()+". Intente nuevamente.")
		} else {
			a.record(r, statusWord(shown, store.ActionActivate, store.ActionDeactivate), string(role), id.String(), "")
			middleware.Toast(w, "success", capitalize(role.Singular())+" "+statusWord(shown, "reactivado", "pausado"))
		}

		a.renderer.Fragment(w, "users_list", "user_status", map[string]any{
			"User": api.User{ID: id, IsActive: shown},
			"Base": UserBase(role),
		})
	}
}

// rutFeedback is the inline RUT check result.
type rutFeedback struct {
	Message   string
	Formatted string
}

// RutCheck validates the rut form field as it is typed and renders the
// inline feedback.
func (a *Admin) RutCheck(w http.ResponseWriter, r *http.Request) {
	var fb rutFeedback
	if v := strings.TrimSpace(r.FormValue("rut")); v != "" {
		if rut.Valid(v) {
			fb.Formatted = rut.Format(v)
		} else {
			fb.Message = msgInvalidRUT
		}
	}
	a.renderer.Fragment(w, "user_form", "rut_feedback", fb)
}

func (a *Admin) renderUserForm(w http.ResponseWriter, r *http.Request, role api.Role, form userForm, errMsg string) {
	title := "Nuevo " + role.Singular()
	if form.ID != "" {
		title = "Editar " + role.Singular()
	}
	a.page(w, r, "user_form", &render.PageData{
		Title:   title,
		Section: userSection(role),
		Data: map[string]any{
			"Form":  form,
			"Role":  role,
			"Base":  UserBase(role),
			"Error": errMsg,
		},
	})
}

// capitalize upper-cases the first letter of an ASCII-initial word.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
