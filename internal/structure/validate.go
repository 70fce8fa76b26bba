// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package structure

import (
	"fmt"
	"strings"
)

// Rule identifies which pre-submit check failed.
type Rule string

const (
	RuleNoSections   Rule = "no_sections"
	RuleSectionEmpty Rule = "section_empty"
	RuleSectionTitle Rule = "section_title"
	RuleQuestionText Rule = "question_text"
	RuleOptionCount  Rule = "option_count"
	RuleOptionLabel  Rule = "option_label"
)

// ValidationError describes the first rule a structure violates.
// QuestionIndex is -1 when the failure concerns a whole section.
type ValidationError struct {
	Rule          Rule
	SectionIndex  int
	QuestionIndex int
	Message       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("structure: %s (section %d, question %d)", e.Rule, e.SectionIndex, e.QuestionIndex)
}

// Validate checks a section list before it is submitted and returns the first
// violation, or nil. Sections without questions are reported before anything
// else; the remaining checks run section by section.
func Validate(sections []Section) error {
	if len(sections) == 0 {
		return &ValidationError{
			Rule:          RuleNoSections,
			SectionIndex:  -1,
			QuestionIndex: -1,
			Message:       "Debe haber al menos una sección en el checklist.",
		}
	}

	for si, s := range sections {
		if len(s.Questions) == 0 {
			return &ValidationError{
				Rule:          RuleSectionEmpty,
				SectionIndex:  si,
				QuestionIndex: -1,
				Message:       fmt.Sprintf("La sección %q no tiene preguntas. Agregue al menos una pregunta.", s.Title),
			}
		}
	}

	for si, s := range sections {
		if strings.TrimSpace(s.Title) == "" {
			return &ValidationError{
				Rule:          RuleSectionTitle,
				SectionIndex:  si,
				QuestionIndex: -1,
				Message:       fmt.Sprintf("La sección %d no tiene título.", si+1),
			}
		}

		for qi, q := range s.Questions {
			if strings.TrimSpace(q.Text) == "" {
				return &ValidationError{
					Rule:          RuleQuestionText,
					SectionIndex:  si,
					QuestionIndex: qi,
					Message:       fmt.Sprintf("Hay una pregunta sin texto en la sección %q.", s.Title),
				}
			}
		}

		for qi, q := range s.Questions {
			if !q.Type.IsChoice() {
				continue
			}
			if len(q.Options) < minOptions {
				return &ValidationError{
					Rule:          RuleOptionCount,
					SectionIndex:  si,
					QuestionIndex: qi,
					Message:       fmt.Sprintf("La pregunta %q debe tener al menos dos opciones.", q.Text),
				}
			}
			for _, o := range q.Options {
				if strings.TrimSpace(o.Label) == "" {
					return &ValidationError{
						Rule:          RuleOptionLabel,
						SectionIndex:  si,
						QuestionIndex: qi,
						Message:       fmt.Sprintf("Hay una opción sin texto en la pregunta %q.", q.Text),
					}
				}
			}
		}
	}
	return nil
}
