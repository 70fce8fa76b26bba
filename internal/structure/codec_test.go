// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package structure

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// allKinds returns one section holding a question of every type with every
// variant attribute populated, plus stray attributes that do not apply.
func allKinds() Structure {
	q := func(id string, t QuestionType) Question {
		return Question{
			ID:           id,
			Text:         "Pregunta " + id,
			Type:         t,
			Required:     id != "q4",
			Instructions: "Instrucciones " + id,
			MaxLength:    intPtr(120),
			Placeholder:  "Escriba aquí",
			Min:          intPtr(-5),
			Max:          intPtr(40),
			Unit:         "°C",
			Options:      []Option{{Value: "si", Label: "Sí"}, {Value: "no", Label: "No"}},
			MinDate:      "2026-01-01",
			MaxDate:      "2026-12-31",
			MaxPhotos:    intPtr(3),
		}
	}
	var qs []Question
	for i, t := range QuestionTypes {
		qs = append(qs, q("q"+string(rune('0'+i)), t))
	}
	return Structure{Sections: []Section{
		{ID: "s1", Title: "General", Description: "Revisión diaria", Questions: qs},
		{ID: "s2", Title: "Vacía", Questions: []Question{}},
	}}
}

func TestNormalizeKeepsOnlyApplicableFields(t *testing.T) {
	in := allKinds()
	got := Normalize(in)

	for _, q := range got.Sections[0].Questions {
		t.Run(string(q.Type), func(t *testing.T) {
			check := func(f Field, present bool) {
				if present != q.Type.Accepts(f) {
					t.Errorf("%s present = %v, accepted = %v", f, present, q.Type.Accepts(f))
				}
			}
			check(FieldMaxLength, q.MaxLength != nil)
			check(FieldPlaceholder, q.Placeholder != "")
			check(FieldMin, q.Min != nil)
			check(FieldMax, q.Max != nil)
			check(FieldUnit, q.Unit != "")
			check(FieldOptions, q.Options != nil)
			check(FieldMinDate, q.MinDate != "")
			check(FieldMaxDate, q.MaxDate != "")
			check(FieldMaxPhotos, q.MaxPhotos != nil)
			if q.Text == "" || q.Instructions == "" {
				t.Error("common fields dropped")
			}
		})
	}

	// Normalize must deep copy.
	*got.Sections[0].Questions[0].MaxLength = 1
	if *in.Sections[0].Questions[0].MaxLength != 120 {
		t.Error("Normalize shares pointers with its input")
	}
}

func TestNormalizeDropsEmptyOptions(t *testing.T) {
	s := Structure{Sections: []Section{{ID: "s", Title: "T", Questions: []Question{
		{ID: "a", Text: "A", Type: TypeSingleChoice, Options: []Option{}},
		{ID: "b", Text: "B", Type: TypeMultipleChoice},
	}}}}

	data, err := json.Marshal(Normalize(s))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"options"`) {
		t.Errorf("options key present in %s", data)
	}
}

func TestEncodeEmptySectionHasQuestionsList(t *testing.T) {
	data, err := Encode([]Section{{ID: "s", Title: "T"}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"sections":[{"id":"s","title":"T","questions":[]}]}`
	if string(data) != want {
		t.Errorf("Encode = %s, want %s", data, want)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	want := Normalize(allKinds())
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripIgnoringServerIDs(t *testing.T) {
	b := NewBuilder()
	s := b.NewStructure()
	for _, qt := range QuestionTypes {
		var err error
		s, err = b.AddQuestion(s, 0, qt)
		if err != nil {
			t.Fatal(err)
		}
	}
	want := Normalize(Structure{Sections: s})

	// The backend may assign its own ids; drop ours before submitting.
	var doc map[string]any
	data, _ := json.Marshal(want)
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, sec := range doc["sections"].([]any) {
		m := sec.(map[string]any)
		delete(m, "id")
		for _, q := range m["questions"].([]any) {
			delete(q.(map[string]any), "id")
		}
	}
	stripped, _ := json.Marshal(doc)

	got, err := Decode(stripped)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ignoreIDs := cmp.Options{
		cmpopts.IgnoreFields(Section{}, "ID"),
		cmpopts.IgnoreFields(Question{}, "ID"),
	}
	if diff := cmp.Diff(want, got, ignoreIDs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	for _, q := range got.Sections[0].Questions {
		if q.ID == "" {
			t.Error("missing id not filled")
		}
	}
}

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Structure
	}{
		{
			name:  "empty",
			input: "",
			want:  Structure{Sections: []Section{}},
		},
		{
			name:  "null",
			input: "null",
			want:  Structure{Sections: []Section{}},
		},
		{
			name:  "string wrapped",
			input: `"{\"sections\":[{\"id\":\"s\",\"title\":\"T\",\"questions\":[]}]}"`,
			want:  Structure{Sections: []Section{{ID: "s", Title: "T", Questions: []Question{}}}},
		},
		{
			name:  "bare section list",
			input: `[{"id":"s","title":"T"}]`,
			want:  Structure{Sections: []Section{{ID: "s", Title: "T", Questions: []Question{}}}},
		},
		{
			name: "numeric strings and numeric ids",
			input: `{"sections":[{"id":7,"title":"T","questions":[
				{"id":12,"text":"Temp","type":"number","required":"true","min":"-3","max":"40.9","unit":"°C"},
				{"id":"p","text":"Fotos","type":"photo","required":1,"maxPhotos":"2"},
				{"id":"t","text":"Obs","type":"text_input","required":false,"maxLength":"","placeholder":10}
			]}]}`,
			want: Structure{Sections: []Section{{ID: "7", Title: "T", Questions: []Question{
				{ID: "12", Text: "Temp", Type: TypeNumber, Required: true, Min: intPtr(-3), Max: intPtr(40), Unit: "°C"},
				{ID: "p", Text: "Fotos", Type: TypePhoto, Required: true, MaxPhotos: intPtr(2)},
				{ID: "t", Text: "Obs", Type: TypeTextInput, Placeholder: "10"},
			}}}},
		},
		{
			name: "out of range and non-positive limits unset",
			input: `{"sections":[{"id":"s","title":"T","questions":[
				{"id":"n","text":"Carga","type":"number","min":1e30,"max":"-1e30"},
				{"id":"t","text":"Obs","type":"text_input","maxLength":-3},
				{"id":"p","text":"Fotos","type":"photo","maxPhotos":0}
			]}]}`,
			want: Structure{Sections: []Section{{ID: "s", Title: "T", Questions: []Question{
				{ID: "n", Text: "Carga", Type: TypeNumber},
				{ID: "t", Text: "Obs", Type: TypeTextInput},
				{ID: "p", Text: "Fotos", Type: TypePhoto},
			}}}},
		},
		{
			name: "irrelevant fields dropped",
			input: `{"sections":[{"id":"s","title":"T","questions":[
				{"id":"b","text":"¿OK?","type":"boolean","required":true,"maxLength":10,"options":[{"value":"a","label":"A"}]}
			]}]}`,
			want: Structure{Sections: []Section{{ID: "s", Title: "T", Questions: []Question{
				{ID: "b", Text: "¿OK?", Type: TypeBoolean, Required: true},
			}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, in := range []string{`{"sections":`, `{"sections":[{"title":{"x":1}}]}`, `"not json"`} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%s) succeeded, want error", in)
		}
	}
}

func TestFlexIntRange(t *testing.T) {
	tests := []struct {
		in   string
		set  bool
		want int
	}{
		{in: `12`, set: true, want: 12},
		{in: `"-7.9"`, set: true, want: -7},
		{in: `1e30`, set: false},
		{in: `-1e30`, set: false},
		{in: `9223372036854775808`, set: false},
		{in: `"abc"`, set: false},
	}
	for _, tt := range tests {
		var f flexInt
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if f.set != tt.set || (tt.set && f.v != tt.want) {
			t.Errorf("Unmarshal(%s) = {set:%v v:%d}, want {set:%v v:%d}", tt.in, f.set, f.v, tt.set, tt.want)
		}
	}
}
