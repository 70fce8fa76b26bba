// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"safecheck/internal/api"
	"safecheck/internal/cache"
	"safecheck/internal/middleware"
	"safecheck/internal/render"
	"safecheck/internal/session"
	"safecheck/internal/store"
	"safecheck/internal/structure"
)

var errNameRequired = errors.New("template name is required")

const msgDraftExpired = "El borrador expiró. Vuelva a abrir el formulario."

// builderView is the data of the template editor. ErrSection and
// ErrQuestion point at the element a failed validation refers to, -1 when
// none.
type builderView struct {
	Key         string
	IsNew       bool
	Draft       *cache.Draft
	Categories  []api.Category
	Error       string
	ErrSection  int
	ErrQuestion int
}

func newBuilderView(key string, d *cache.Draft) builderView {
	return builderView{
		Key:         key,
		IsNew:       key == cache.NewDraftKey,
		Draft:       d,
		ErrSection:  -1,
		ErrQuestion: -1,
	}
}

// FormNew opens the editor for a new template, resuming the session's
// unsaved draft when there is one.
func (a *Admin) FormNew(w http.ResponseWriter, r *http.Request) {
	sid := session.ID(r)
	d, err := a.drafts.Get(r.Context(), sid, cache.NewDraftKey)
	if err != nil {
		slog.Error("load draft failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if d == nil {
		d = &cache.Draft{
			Type:     string(api.TemplateChecklist),
			Sections: a.builder.NewStructure(),
		}
		if err := a.drafts.Put(r.Context(), sid, cache.NewDraftKey, d); err != nil {
			slog.Error("store draft failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
	a.renderBuilder(w, r, cache.NewDraftKey, d)
}

// FormEdit loads an existing template into a fresh draft and opens the
// editor on it.
func (a *Admin) FormEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := a.api.GetTemplate(r.Context(), token(r), api.ID(id))
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Error("get template failed", "template_id", id, "error", err)
		a.flash(r, "error", api.Message(err))
		middleware.Redirect(w, r, "/admin/forms")
		return
	}

	d := &cache.Draft{
		TemplateID:  t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Type:        string(t.Type),
		CategoryID:  t.CategoryID.String(),
		Sections:    t.Structure.Sections,
	}
	if d.CategoryID == "" && t.Category != nil {
		d.CategoryID = t.Category.ID.String()
	}
	if len(d.Sections) == 0 {
		d.Sections = a.builder.NewStructure()
	}
	if err := a.drafts.Put(r.Context(), session.ID(r), id, d); err != nil {
		slog.Error("store draft failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.renderBuilder(w, r, id, d)
}

func (a *Admin) renderBuilder(w http.ResponseWriter, r *http.Request, key string, d *cache.Draft) {
	view := newBuilderView(key, d)
	cats, err := a.api.ListCategories(r.Context(), token(r))
	if err != nil {
		if a.sessionExpired(w, r, err) {
			return
		}
		slog.Warn("list categories failed", "error", err)
	}
	view.Categories = cats

	title := "Nuevo formulario"
	if !view.IsNew {
		title = "Editar formulario"
	}
	a.page(w, r, "builder", &render.PageData{
		Title:   title,
		Section: "forms",
		Data:    map[string]any{"View": view},
	})
}

// BuilderMeta stores the name, type, category and description fields.
func (a *Admin) BuilderMeta(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := r.PostForm
	_, err := a.drafts.Update(r.Context(), session.ID(r), chi.URLParam(r, "key"), func(d *cache.Draft) error {
		if v, ok := formField(form, "name"); ok {
			d.Name = a.clean(v)
		}
		if v, ok := formField(form, "description"); ok {
			d.Description = a.clean(v)
		}
		if v, ok := formField(form, "type"); ok && api.TemplateType(v).Valid() {
			d.Type = v
		}
		if v, ok := formField(form, "category_id"); ok {
			d.CategoryID = strings.TrimSpace(v)
		}
		return nil
	})
	switch {
	case errors.Is(err, cache.ErrNoDraft):
		a.flash(r, "error", msgDraftExpired)
		middleware.Redirect(w, r, "/admin/forms")
		return
	case err != nil:
		slog.Error("update draft metadata failed", "error", err)
		middleware.Toast(w, "error", "No se pudieron guardar los datos del formulario.")
	}
	w.WriteHeader(http.StatusNoContent)
}

// BuilderAddSection appends an empty section.
func (a *Admin) BuilderAddSection(w http.ResponseWriter, r *http.Request) {
	a.edit(w, r, func(d *cache.Draft) error {
		d.Sections = a.builder.AddSection(d.Sections)
		return nil
	})
}

// BuilderUpdateSection edits a section's title or description.
func (a *Admin) BuilderUpdateSection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	var p structure.SectionPatch
	if v, ok := formField(r.PostForm, "title"); ok {
		v = a.clean(v)
		p.Title = &v
	}
	if v, ok := formField(r.PostForm, "description"); ok {
		v = a.clean(v)
		p.Description = &v
	}
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.UpdateSection(d.Sections, ix[0], p)
		return err
	}, "si")
}

// BuilderRemoveSection deletes a section. The last section cannot be removed.
func (a *Admin) BuilderRemoveSection(w http.ResponseWriter, r *http.Request) {
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.RemoveSection(d.Sections, ix[0])
		return err
	}, "si")
}

// BuilderAddQuestion appends a question of the posted type to a section.
func (a *Admin) BuilderAddQuestion(w http.ResponseWriter, r *http.Request) {
	t := structure.QuestionType(r.FormValue("type"))
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.AddQuestion(d.Sections, ix[0], t)
		return err
	}, "si")
}

// BuilderUpdateQuestion applies the posted fields to a question. Only the
// fields present in the request change; an empty numeric field clears it.
func (a *Admin) BuilderUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	p, perr := a.questionPatch(r.PostForm)
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		if perr != nil {
			return perr
		}
		d.Sections, err = a.builder.UpdateQuestion(d.Sections, ix[0], ix[1], p)
		return err
	}, "si", "qi")
}

// BuilderRemoveQuestion deletes a question.
func (a *Admin) BuilderRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.RemoveQuestion(d.Sections, ix[0], ix[1])
		return err
	}, "si", "qi")
}

// BuilderMoveQuestion moves a question up (delta -1) or down (delta 1).
func (a *Admin) BuilderMoveQuestion(w http.ResponseWriter, r *http.Request) {
	delta, derr := strconv.Atoi(r.FormValue("delta"))
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		if derr != nil {
			return fmt.Errorf("%w: delta", structure.ErrInvalidValue)
		}
		d.Sections, err = a.builder.MoveQuestion(d.Sections, ix[0], ix[1], delta)
		return err
	}, "si", "qi")
}

// BuilderAddOption appends an option to a choice question.
func (a *Admin) BuilderAddOption(w http.ResponseWriter, r *http.Request) {
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.AddOption(d.Sections, ix[0], ix[1])
		return err
	}, "si", "qi")
}

// BuilderUpdateOption relabels an option.
func (a *Admin) BuilderUpdateOption(w http.ResponseWriter, r *http.Request) {
	label := a.clean(r.FormValue("label"))
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.UpdateOption(d.Sections, ix[0], ix[1], ix[2], label)
		return err
	}, "si", "qi", "oi")
}

// BuilderRemoveOption deletes an option. Choice questions keep at least two.
func (a *Admin) BuilderRemoveOption(w http.ResponseWriter, r *http.Request) {
	a.editAt(w, r, func(d *cache.Draft, ix []int) (err error) {
		d.Sections, err = a.builder.RemoveOption(d.Sections, ix[0], ix[1], ix[2])
		return err
	}, "si", "qi", "oi")
}

// BuilderSubmit validates the draft and saves it to the backend. Nothing is
// sent when the name is missing or the structure is invalid; the editor is
// re-rendered with the first problem highlighted instead.
func (a *Admin) BuilderSubmit(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	view := newBuilderView(key, nil)

	var saved *api.Template
	err := a.drafts.Submit(r.Context(), session.ID(r), key, func(d *cache.Draft) error {
		view.Draft = d
		if strings.TrimSpace(d.Name) == "" {
			return errNameRequired
		}
		if err := structure.Validate(d.Sections); err != nil {
			return err
		}

		in := api.TemplateInput{
			Name:        d.Name,
			Description: d.Description,
			Type:        api.TemplateType(d.Type),
			Structure:   structure.Structure{Sections: d.Sections},
			CategoryID:  categoryRef(d.CategoryID),
		}
		var err error
		if d.TemplateID == "" {
			saved, err = a.api.CreateTemplate(r.Context(), token(r), in)
		} else {
			saved, err = a.api.UpdateTemplate(r.Context(), token(r), api.ID(d.TemplateID), in)
		}
		return err
	})

	if err == nil {
		action, msg := store.ActionCreate, "Formulario creado exitosamente"
		if !view.IsNew {
			action, msg = store.ActionUpdate, "Formulario actualizado exitosamente"
		}
		a.record(r, action, "template", saved.ID.String(), saved.Name)
		a.flash(r, "success", msg)
		middleware.Redirect(w, r, "/admin/forms")
		return
	}
	if errors.Is(err, cache.ErrNoDraft) {
		a.flash(r, "error", msgDraftExpired)
		middleware.Redirect(w, r, "/admin/forms")
		return
	}
	if a.sessionExpired(w, r, err) {
		return
	}
	if view.Draft == nil {
		slog.Error("load draft failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var verr *structure.ValidationError
	switch {
	case errors.Is(err, errNameRequired):
		view.Error = "El nombre del checklist es requerido"
	case errors.As(err, &verr):
		view.Error = verr.Message
		view.ErrSection = verr.SectionIndex
		view.ErrQuestion = verr.QuestionIndex
	default:
		slog.Error("save template failed", "key", key, "error", err)
		view.Error = "No se pudo crear el checklist. Por favor, intente nuevamente."
		if !view.IsNew {
			view.Error = "No se pudo actualizar el checklist. Por favor, intente nuevamente."
		}
	}
	a.renderer.Fragment(w, "builder", "builder_editor", view)
}

// BuilderDiscard drops the draft and returns to the template list.
func (a *Admin) BuilderDiscard(w http.ResponseWriter, r *http.Request) {
	a.drafts.Delete(r.Context(), session.ID(r), chi.URLParam(r, "key"))
	middleware.Redirect(w, r, "/admin/forms")
}

// edit applies op to the draft named by the key URL parameter and renders
// the editor. When op fails, the unchanged draft is rendered with the error.
func (a *Admin) edit(w http.ResponseWriter, r *http.Request, op func(*cache.Draft) error) {
	key := chi.URLParam(r, "key")
	d, err := a.drafts.Update(r.Context(), session.ID(r), key, op)
	view := newBuilderView(key, d)
	switch {
	case errors.Is(err, cache.ErrNoDraft):
		a.flash(r, "error", msgDraftExpired)
		middleware.Redirect(w, r, "/admin/forms")
		return
	case err != nil && d == nil:
		slog.Error("load draft failed", "key", key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	case err != nil:
		slog.Debug("builder operation rejected", "key", key, "error", err)
		view.Error = structure.UserMessage(err)
	}
	a.renderer.Fragment(w, "builder", "builder_editor", view)
}

// editAt is edit for operations addressed by index URL parameters, passed
// to op in the order named.
func (a *Admin) editAt(w http.ResponseWriter, r *http.Request, op func(*cache.Draft, []int) error, params ...string) {
	ix := make([]int, len(params))
	var ixErr error
	for i, name := range params {
		n, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil {
			ixErr = fmt.Errorf("%w: %s", structure.ErrOutOfRange, name)
			break
		}
		ix[i] = n
	}
	a.edit(w, r, func(d *cache.Draft) error {
		if ixErr != nil {
			return ixErr
		}
		return op(d, ix)
	})
}

// questionPatch builds a patch from the fields present in form.
func (a *Admin) questionPatch(form url.Values) (structure.QuestionPatch, error) {
	var p structure.QuestionPatch

	text := func(key string, dst **string) {
		if v, ok := formField(form, key); ok {
			v = a.clean(v)
			*dst = &v
		}
	}
	text("text", &p.Text)
	text("instructions", &p.Instructions)
	text("placeholder", &p.Placeholder)
	text("unit", &p.Unit)
	text("minDate", &p.MinDate)
	text("maxDate", &p.MaxDate)

	if v, ok := formField(form, "type"); ok {
		t := structure.QuestionType(v)
		p.Type = &t
	}
	if v, ok := formField(form, "required"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%w: required", structure.ErrInvalidValue)
		}
		p.Required = &b
	}

	number := func(key string, f structure.Field, dst **int) error {
		v, ok := formField(form, key)
		if !ok {
			return nil
		}
		v = strings.TrimSpace(v)
		if v == "" {
			p.Clear = append(p.Clear, f)
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s", structure.ErrInvalidValue, key)
		}
		*dst = &n
		return nil
	}
	for _, nf := range []struct {
		key string
		f   structure.Field
		dst **int
	}{
		{"maxLength", structure.FieldMaxLength, &p.MaxLength},
		{"min", structure.FieldMin, &p.Min},
		{"max", structure.FieldMax, &p.Max},
		{"maxPhotos", structure.FieldMaxPhotos, &p.MaxPhotos},
	} {
		if err := number(nf.key, nf.f, nf.dst); err != nil {
			return p, err
		}
	}
	return p, nil
}

// formField returns the first value of key and whether it was sent.
func formField(form url.Values, key string) (string, bool) {
	vs, ok := form[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// categoryRef converts the selected category into the numeric id the backend
// stores. Empty or non-numeric values leave the template uncategorized.
func categoryRef(v string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
