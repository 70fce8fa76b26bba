// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package structure models the content of a SafeCheck form template: an
// ordered list of sections, each holding an ordered list of typed questions.
// It provides the builder operations used by the template editor, the
// pre-submit validator, and the normalization applied before a structure is
// sent to the backend.
package structure

// QuestionType discriminates the question variants.
type QuestionType string

const (
	TypeTextInput      QuestionType = "text_input"
	TypeTextArea       QuestionType = "text_area"
	TypeNumber         QuestionType = "number"
	TypeBoolean        QuestionType = "boolean"
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeDate           QuestionType = "date"
	TypeTime           QuestionType = "time"
	TypePhoto          QuestionType = "photo"
	TypeSignature      QuestionType = "signature"
)

// QuestionTypes lists every question type in the order the editor offers them.
var QuestionTypes = []QuestionType{
	TypeTextInput,
	TypeTextArea,
	TypeNumber,
	TypeBoolean,
	TypeSingleChoice,
	TypeMultipleChoice,
	TypeDate,
	TypeTime,
	TypePhoto,
	TypeSignature,
}

var typeLabels = map[QuestionType]string{
	TypeTextInput:      "Texto Corto",
	TypeTextArea:       "Texto Largo",
	TypeNumber:         "Número",
	TypeBoolean:        "Verdadero/Falso",
	TypeSingleChoice:   "Selección Única",
	TypeMultipleChoice: "Selección Múltiple",
	TypeDate:           "Fecha",
	TypeTime:           "Hora",
	TypePhoto:          "Foto",
	TypeSignature:      "Firma",
}

// Label returns the human-readable name of the type. Unknown types are
// returned verbatim.
func (t QuestionType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Valid reports whether t is one of the ten known question types.
func (t QuestionType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// IsChoice reports whether questions of this type carry an option list.
func (t QuestionType) IsChoice() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice
}

// Field names a variant-specific question attribute.
type Field string

const (
	FieldMaxLength   Field = "maxLength"
	FieldPlaceholder Field = "placeholder"
	FieldMin         Field = "min"
	FieldMax         Field = "max"
	FieldUnit        Field = "unit"
	FieldOptions     Field = "options"
	FieldMinDate     Field = "minDate"
	FieldMaxDate     Field = "maxDate"
	FieldMaxPhotos   Field = "maxPhotos"
)

// variantFields is the accepted attribute set per question type. Types that
// are absent (boolean, signature) accept no variant attributes.
var variantFields = map[QuestionType][]Field{
	TypeTextInput:      {FieldMaxLength, FieldPlaceholder},
	TypeTextArea:       {FieldMaxLength, FieldPlaceholder},
	TypeNumber:         {FieldMin, FieldMax, FieldUnit},
	TypeSingleChoice:   {FieldOptions},
	TypeMultipleChoice: {FieldOptions},
	TypeDate:           {FieldMinDate, FieldMaxDate},
	TypeTime:           {FieldMinDate, FieldMaxDate},
	TypePhoto:          {FieldMaxPhotos},
}

// Accepts reports whether questions of type t carry the given attribute.
func (t QuestionType) Accepts(f Field) bool {
	for _, v := range variantFields[t] {
		if v == f {
			return true
		}
	}
	return false
}

// Option is one entry of a choice question. Value is unique within its
// question; Label is what the worker sees.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is a single form question. Only the attributes accepted by Type
// are meaningful; Normalize clears the rest.
type Question struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	Required     bool         `json:"required"`
	Instructions string       `json:"instructions,omitempty"`

	// text_input, text_area
	MaxLength   *int   `json:"maxLength,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`

	// number
	Min  *int   `json:"min,omitempty"`
	Max  *int   `json:"max,omitempty"`
	Unit string `json:"unit,omitempty"`

	// single_choice, multiple_choice
	Options []Option `json:"options,omitempty"`

	// date, time
	MinDate string `json:"minDate,omitempty"`
	MaxDate string `json:"maxDate,omitempty"`

	// photo
	MaxPhotos *int `json:"maxPhotos,omitempty"`
}

// Section groups questions under a title.
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Structure is the document stored in a template's "structure" field.
type Structure struct {
	Sections []Section `json:"sections"`
}

// clone returns a deep copy of q.
func (q Question) clone() Question {
	c := q
	c.MaxLength = cloneInt(q.MaxLength)
	c.Min = cloneInt(q.Min)
	c.Max = cloneInt(q.Max)
	c.MaxPhotos = cloneInt(q.MaxPhotos)
	if q.Options != nil {
		c.Options = make([]Option, len(q.Options))
		copy(c.Options, q.Options)
	}
	return c
}

func (s Section) clone() Section {
	c := s
	if s.Questions != nil {
		c.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			c.Questions[i] = q.clone()
		}
	}
	return c
}

// CloneSections returns a deep copy of sections.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s.clone()
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intPtr(v int) *int { return &v }
