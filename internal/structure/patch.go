// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package structure

import "fmt"

// SectionPatch is a partial update of a section. Nil fields are left as is.
type SectionPatch struct {
	Title       *string
	Description *string
}

func (p SectionPatch) apply(s *Section) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
}

// QuestionPatch is a partial update of a question. Nil fields are left as
// is; Clear resets optional numeric attributes. Variant attributes are checked
// against the question's type (after any Type change in the same patch).
type QuestionPatch struct {
	Text         *string
	Type         *QuestionType
	Required     *bool
	Instructions *string

	MaxLength   *int
	Placeholder *string
	Min         *int
	Max         *int
	Unit        *string
	MinDate     *string
	MaxDate     *string
	MaxPhotos   *int

	Clear []Field
}

// Fields lists the variant attributes the patch touches.
func (p QuestionPatch) Fields() []Field {
	var fs []Field
	add := func(set bool, f Field) {
		if set {
			fs = append(fs, f)
		}
	}
	add(p.MaxLength != nil, FieldMaxLength)
	add(p.Placeholder != nil, FieldPlaceholder)
	add(p.Min != nil, FieldMin)
	add(p.Max != nil, FieldMax)
	add(p.Unit != nil, FieldUnit)
	add(p.MinDate != nil, FieldMinDate)
	add(p.MaxDate != nil, FieldMaxDate)
	add(p.MaxPhotos != nil, FieldMaxPhotos)
	return append(fs, p.Clear...)
}

func (b *Builder) applyPatch(q *Question, p QuestionPatch) error {
	if p.Type != nil && *p.Type != q.Type {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownType, *p.Type)
		}
		var prev []Option
		if q.Type.IsChoice() {
			prev = q.Options
		}
		*q = Question{
			ID:           q.ID,
			Text:         q.Text,
			Type:         *p.Type,
			Required:     q.Required,
			Instructions: q.Instructions,
		}
		b.applyDefaults(q, prev)
	}

	for _, f := range p.Fields() {
		if !q.Type.Accepts(f) {
			return fmt.Errorf("%w: %s on %s", ErrFieldNotApplicable, f, q.Type)
		}
	}
	if p.MaxLength != nil && *p.MaxLength <= 0 {
		return fmt.Errorf("%w: maxLength must be positive", ErrInvalidValue)
	}
	if p.MaxPhotos != nil && *p.MaxPhotos <= 0 {
		return fmt.Errorf("%w: maxPhotos must be positive", ErrInvalidValue)
	}

	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Required != nil {
		q.Required = *p.Required
	}
	if p.Instructions != nil {
		q.Instructions = *p.Instructions
	}
	if p.MaxLength != nil {
		q.MaxLength = intPtr(*p.MaxLength)
	}
	if p.Placeholder != nil {
		q.Placeholder = *p.Placeholder
	}
	if p.Min != nil {
		q.Min = intPtr(*p.Min)
	}
	if p.Max != nil {
		q.Max = intPtr(*p.Max)
	}
	if p.Unit != nil {
		q.Unit = *p.Unit
	}
	if p.MinDate != nil {
		q.MinDate = *p.MinDate
	}
	if p.MaxDate != nil {
		q.MaxDate = *p.MaxDate
	}
	if p.MaxPhotos != nil {
		q.MaxPhotos = intPtr(*p.MaxPhotos)
	}

	for _, f := range p.Clear {
		switch f {
		case FieldMaxLength:
			q.MaxLength = nil
		case FieldMin:
			q.Min = nil
		case FieldMax:
			q.Max = nil
		case FieldMaxPhotos:
			q.MaxPhotos = nil
		case FieldPlaceholder:
			q.Placeholder = ""
		case FieldUnit:
			q.Unit = ""
		case FieldMinDate:
			q.MinDate = ""
		case FieldMaxDate:
			q.MaxDate = ""
		case FieldOptions:
			return fmt.Errorf("%w: options are edited one at a time", ErrInvalidValue)
		}
	}
	return nil
}
