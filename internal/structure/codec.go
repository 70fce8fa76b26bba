// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Normalize returns a deep copy of s prepared for submission: every question
// keeps only the attributes its type accepts, and choice questions without
// options carry no options key at all.
func Normalize(s Structure) Structure {
	out := Structure{Sections: make([]Section, len(s.Sections))}
	for i, sec := range s.Sections {
		ns := Section{
			ID:          sec.ID,
			Title:       sec.Title,
			Description: sec.Description,
			Questions:   make([]Question, len(sec.Questions)),
		}
		for j, q := range sec.Questions {
			ns.Questions[j] = normalizeQuestion(q)
		}
		out.Sections[i] = ns
	}
	return out
}

func normalizeQuestion(q Question) Question {
	n := Question{
		ID:           q.ID,
		Text:         q.Text,
		Type:         q.Type,
		Required:     q.Required,
		Instructions: q.Instructions,
	}
	t := q.Type
	if t.Accepts(FieldMaxLength) {
		n.MaxLength = cloneInt(q.MaxLength)
	}
	if t.Accepts(FieldPlaceholder) {
		n.Placeholder = q.Placeholder
	}
	if t.Accepts(FieldMin) {
		n.Min = cloneInt(q.Min)
	}
	if t.Accepts(FieldMax) {
		n.Max = cloneInt(q.Max)
	}
	if t.Accepts(FieldUnit) {
		n.Unit = q.Unit
	}
	if t.Accepts(FieldOptions) && len(q.Options) > 0 {
		n.Options = append([]Option(nil), q.Options...)
	}
	if t.Accepts(FieldMinDate) {
		n.MinDate = q.MinDate
	}
	if t.Accepts(FieldMaxDate) {
		n.MaxDate = q.MaxDate
	}
	if t.Accepts(FieldMaxPhotos) {
		n.MaxPhotos = cloneInt(q.MaxPhotos)
	}
	return n
}

// Encode normalizes sections and marshals them as a structure document.
func Encode(sections []Section) ([]byte, error) {
	b, err := json.Marshal(Normalize(Structure{Sections: sections}))
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	return b, nil
}

// Decode maps a structure document received from the backend into the local
// shape. It accepts the document as an object, as a bare section list, or as
// a JSON string wrapping either. Numeric attributes sent as strings are
// parsed, scalars sent for text attributes are stringified, and missing ids
// are replaced by fresh UUIDs. The result is normalized.
func Decode(data []byte) (Structure, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Structure{Sections: []Section{}}, nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return Structure{}, fmt.Errorf("decode structure string: %w", err)
		}
		return Decode([]byte(inner))
	}

	var raw rawStructure
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw.Sections); err != nil {
			return Structure{}, fmt.Errorf("decode sections: %w", err)
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return Structure{}, fmt.Errorf("decode structure: %w", err)
	}

	s := Structure{Sections: make([]Section, len(raw.Sections))}
	for i, rs := range raw.Sections {
		sec := Section{
			ID:          orNewID(rs.ID.v),
			Title:       rs.Title.v,
			Description: rs.Description.v,
			Questions:   make([]Question, len(rs.Questions)),
		}
		for j, rq := range rs.Questions {
			sec.Questions[j] = rq.question()
		}
		s.Sections[i] = sec
	}
	return Normalize(s), nil
}

type rawStructure struct {
	Sections []rawSection `json:"sections"`
}

type rawSection struct {
	ID          flexString    `json:"id"`
	Title       flexString    `json:"title"`
	Description flexString    `json:"description"`
	Questions   []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	ID           flexString  `json:"id"`
	Text         flexString  `json:"text"`
	Type         flexString  `json:"type"`
	Required     flexBool    `json:"required"`
	Instructions flexString  `json:"instructions"`
	MaxLength    flexInt     `json:"maxLength"`
	Placeholder  flexString  `json:"placeholder"`
	Min          flexInt     `json:"min"`
	Max          flexInt     `json:"max"`
	Unit         flexString  `json:"unit"`
	Options      []rawOption `json:"options"`
	MinDate      flexString  `json:"minDate"`
	MaxDate      flexString  `json:"maxDate"`
	MaxPhotos    flexInt     `json:"maxPhotos"`
}

type rawOption struct {
	Value flexString `json:"value"`
	Label flexString `json:"label"`
}

func (rq rawQuestion) question() Question {
	q := Question{
		ID:           orNewID(rq.ID.v),
		Text:         rq.Text.v,
		Type:         QuestionType(rq.Type.v),
		Required:     rq.Required.v,
		Instructions: rq.Instructions.v,
		MaxLength:    rq.MaxLength.positive(),
		Placeholder:  rq.Placeholder.v,
		Min:          rq.Min.ptr(),
		Max:          rq.Max.ptr(),
		Unit:         rq.Unit.v,
		MinDate:      rq.MinDate.v,
		MaxDate:      rq.MaxDate.v,
		MaxPhotos:    rq.MaxPhotos.positive(),
	}
	for _, ro := range rq.Options {
		q.Options = append(q.Options, Option{Value: ro.Value.v, Label: ro.Label.v})
	}
	return q
}

func orNewID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

// flexString accepts any JSON scalar and keeps its textual form.
type flexString struct{ v string }

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		f.v = ""
	case len(b) > 0 && b[0] == '"':
		return json.Unmarshal(b, &f.v)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("expected scalar, got %s", b)
	default:
		f.v = string(b)
	}
	return nil
}

// flexInt accepts a JSON number or a numeric string. Fractions are truncated;
// empty or non-numeric strings leave the value unset.
type flexInt struct {
	set bool
	v   int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexInt{}
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		*f = flexInt{}
		return nil
	}
	n = math.Trunc(n)
	// float64(math.MaxInt) rounds up to 2^63, which no int can hold.
	if n >= float64(math.MaxInt) || n < float64(math.MinInt) {
		*f = flexInt{}
		return nil
	}
	*f = flexInt{set: true, v: int(n)}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.set {
		return nil
	}
	return intPtr(f.v)
}

// positive is ptr for limits that only make sense above zero.
func (f flexInt) positive() *int {
	if !f.set || f.v <= 0 {
		return nil
	}
	return intPtr(f.v)
}

// flexBool accepts booleans, "true"/"false" strings and 0/1.
type flexBool struct{ v bool }

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToLower(s) {
	case "true", "1":
		f.v = true
	default:
		f.v = false
	}
	return nil
}
