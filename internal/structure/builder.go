// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package structure

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Builder errors. UserMessage maps them to the text shown in the editor.
var (
	ErrLastSection        = errors.New("structure: a template needs at least one section")
	ErrMinOptions         = errors.New("structure: a choice question needs at least two options")
	ErrOutOfRange         = errors.New("structure: index out of range")
	ErrNotChoice          = errors.New("structure: question has no options")
	ErrUnknownType        = errors.New("structure: unknown question type")
	ErrFieldNotApplicable = errors.New("structure: field not applicable to question type")
	ErrInvalidValue       = errors.New("structure: invalid field value")
)

const (
	// minOptions is the smallest option count a choice question may keep.
	minOptions = 2

	defaultMaxLength = 255
	defaultMin       = 0
	defaultMax       = 100
	defaultMaxPhotos = 1
)

// Builder applies editor operations to a section list. Every operation
// returns a new list; the input is never modified, so a caller can keep the
// previous value as an undo snapshot.
type Builder struct {
	// NewID generates section and question ids.
	NewID func() string
	// Now stamps generated option values.
	Now func() time.Time
}

// NewBuilder returns a Builder that uses random UUIDs and the wall clock.
func NewBuilder() *Builder {
	return &Builder{NewID: uuid.NewString, Now: time.Now}
}

// NewStructure returns the initial editor state: a single empty section.
func (b *Builder) NewStructure() []Section {
	return []Section{b.newSection(1)}
}

func (b *Builder) newSection(n int) Section {
	return Section{
		ID:        b.NewID(),
		Title:     fmt.Sprintf("Sección %d", n),
		Questions: []Question{},
	}
}

// NewQuestion builds an empty question of type t with the defaults the editor
// starts from.
func (b *Builder) NewQuestion(t QuestionType) (Question, error) {
	if !t.Valid() {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	q := Question{ID: b.NewID(), Type: t, Required: true}
	b.applyDefaults(&q, nil)
	return q, nil
}

// applyDefaults fills the variant attributes of q for its type. When q is a
// choice question and prev holds options, those are carried over instead of
// generating new ones.
func (b *Builder) applyDefaults(q *Question, prev []Option) {
	switch q.Type {
	case TypeSingleChoice, TypeMultipleChoice:
		if len(prev) > 0 {
			q.Options = append([]Option(nil), prev...)
			return
		}
		ts := b.Now().UnixMilli()
		q.Options = []Option{
			{Value: fmt.Sprintf("option-1-%d", ts), Label: "Opción 1"},
			{Value: fmt.Sprintf("option-2-%d", ts), Label: "Opción 2"},
		}
	case TypeNumber:
		q.Min = intPtr(defaultMin)
		q.Max = intPtr(defaultMax)
	case TypeTextInput:
		q.MaxLength = intPtr(defaultMaxLength)
	case TypeDate, TypeTime:
		q.MinDate = ""
		q.MaxDate = ""
	case TypePhoto:
		q.MaxPhotos = intPtr(defaultMaxPhotos)
	}
}

// AddSection appends an empty section titled after its position.
func (b *Builder) AddSection(sections []Section) []Section {
	out := make([]Section, len(sections), len(sections)+1)
	copy(out, sections)
	return append(out, b.newSection(len(sections)+1))
}

// RemoveSection drops the section at si. The last remaining section cannot
// be removed.
func (b *Builder) RemoveSection(sections []Section, si int) ([]Section, error) {
	if err := checkIndex(si, len(sections)); err != nil {
		return sections, err
	}
	if len(sections) == 1 {
		return sections, ErrLastSection
	}
	out := make([]Section, 0, len(sections)-1)
	out = append(out, sections[:si]...)
	return append(out, sections[si+1:]...), nil
}

// UpdateSection applies p to the section at si.
func (b *Builder) UpdateSection(sections []Section, si int, p SectionPatch) ([]Section, error) {
	return withSection(sections, si, func(s *Section) error {
		p.apply(s)
		return nil
	})
}

// AddQuestion appends a new question of type t to the section at si.
func (b *Builder) AddQuestion(sections []Section, si int, t QuestionType) ([]Section, error) {
	q, err := b.NewQuestion(t)
	if err != nil {
		return sections, err
	}
	return withSection(sections, si, func(s *Section) error {
		s.Questions = append(s.Questions, q)
		return nil
	})
}

// RemoveQuestion drops question qi from section si.
func (b *Builder) RemoveQuestion(sections []Section, si, qi int) ([]Section, error) {
	return withSection(sections, si, func(s *Section) error {
		if err := checkIndex(qi, len(s.Questions)); err != nil {
			return err
		}
		s.Questions = append(s.Questions[:qi:qi], s.Questions[qi+1:]...)
		return nil
	})
}

// MoveQuestion shifts question qi of section si by delta positions, clamped
// to the bounds of the section.
func (b *Builder) MoveQuestion(sections []Section, si, qi, delta int) ([]Section, error) {
	return withSection(sections, si, func(s *Section) error {
		if err := checkIndex(qi, len(s.Questions)); err != nil {
			return err
		}
		to := qi + delta
		if to < 0 {
			to = 0
		}
		if to > len(s.Questions)-1 {
			to = len(s.Questions) - 1
		}
		q := s.Questions[qi]
		if to < qi {
			copy(s.Questions[to+1:qi+1], s.Questions[to:qi])
		} else {
			copy(s.Questions[qi:to], s.Questions[qi+1:to+1])
		}
		s.Questions[to] = q
		return nil
	})
}

// UpdateQuestion applies p to question qi of section si. A type change
// re-derives the variant defaults and keeps the common attributes.
func (b *Builder) UpdateQuestion(sections []Section, si, qi int, p QuestionPatch) ([]Section, error) {
	return withQuestion(sections, si, qi, func(q *Question) error {
		return b.applyPatch(q, p)
	})
}

// AddOption appends "Opción N" to choice question qi of section si.
func (b *Builder) AddOption(sections []Section, si, qi int) ([]Section, error) {
	return withQuestion(sections, si, qi, func(q *Question) error {
		if !q.Type.IsChoice() {
			return ErrNotChoice
		}
		n := len(q.Options) + 1
		value := uniqueOptionValue(q.Options, fmt.Sprintf("option-%d-%d", n, b.Now().UnixMilli()))
		q.Options = append(q.Options, Option{Value: value, Label: fmt.Sprintf("Opción %d", n)})
		return nil
	})
}

// UpdateOption sets the label of option oi.
func (b *Builder) UpdateOption(sections []Section, si, qi, oi int, label string) ([]Section, error) {
	return withQuestion(sections, si, qi, func(q *Question) error {
		if !q.Type.IsChoice() {
			return ErrNotChoice
		}
		if err := checkIndex(oi, len(q.Options)); err != nil {
			return err
		}
		q.Options[oi].Label = label
		return nil
	})
}

// RemoveOption drops option oi. A choice question always keeps at least two
// options.
func (b *Builder) RemoveOption(sections []Section, si, qi, oi int) ([]Section, error) {
	return withQuestion(sections, si, qi, func(q *Question) error {
		if !q.Type.IsChoice() {
			return ErrNotChoice
		}
		if err := checkIndex(oi, len(q.Options)); err != nil {
			return err
		}
		if len(q.Options) <= minOptions {
			return ErrMinOptions
		}
		q.Options = append(q.Options[:oi:oi], q.Options[oi+1:]...)
		return nil
	})
}

// withSection copies the path down to section si, lets fn edit the copy and
// returns the new list. On error the original list is returned.
func withSection(sections []Section, si int, fn func(*Section) error) ([]Section, error) {
	if err := checkIndex(si, len(sections)); err != nil {
		return sections, err
	}
	s := sections[si]
	s.Questions = append([]Question(nil), sections[si].Questions...)
	if s.Questions == nil {
		s.Questions = []Question{}
	}
	if err := fn(&s); err != nil {
		return sections, err
	}
	out := make([]Section, len(sections))
	copy(out, sections)
	out[si] = s
	return out, nil
}

// withQuestion is withSection narrowed to one question, which fn receives as
// a deep copy.
func withQuestion(sections []Section, si, qi int, fn func(*Question) error) ([]Section, error) {
	return withSection(sections, si, func(s *Section) error {
		if err := checkIndex(qi, len(s.Questions)); err != nil {
			return err
		}
		q := s.Questions[qi].clone()
		if err := fn(&q); err != nil {
			return err
		}
		s.Questions[qi] = q
		return nil
	})
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, n)
	}
	return nil
}

// uniqueOptionValue returns candidate, suffixed if another option of the same
// question already uses it.
func uniqueOptionValue(opts []Option, candidate string) string {
	taken := make(map[string]bool, len(opts))
	for _, o := range opts {
		taken[o.Value] = true
	}
	v := candidate
	for i := 2; taken[v]; i++ {
		v = fmt.Sprintf("%s-%d", candidate, i)
	}
	return v
}

// UserMessage returns the Spanish message the editor shows for err.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrLastSection):
		return "Debe haber al menos una sección en el checklist."
	case errors.Is(err, ErrMinOptions):
		return "Debe haber al menos dos opciones para este tipo de pregunta."
	case errors.Is(err, ErrUnknownType):
		return "Tipo de pregunta no válido."
	case errors.Is(err, ErrFieldNotApplicable):
		return "Ese campo no aplica a este tipo de pregunta."
	case errors.Is(err, ErrInvalidValue):
		return "El valor ingresado no es válido."
	case errors.Is(err, ErrNotChoice):
		return "Esta pregunta no tiene opciones."
	default:
		return "No se pudo modificar el formulario."
	}
}
