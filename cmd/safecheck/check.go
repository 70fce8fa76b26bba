// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"safecheck/internal/structure"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a checklist structure file",
	Long: `check reads a checklist structure (JSON, or YAML for .yaml/.yml files),
applies the same decoding the dashboard uses for backend documents and runs
the pre-submit validation. Use "-" to read JSON from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readStructureFile(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return checkStructure(cmd.OutOrStdout(), data)
	},
}

// readStructureFile returns the file contents as JSON, converting YAML files.
func readStructureFile(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	}
	return data, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return out, nil
}

// checkStructure decodes and validates a structure document, printing a
// summary. It returns an error describing the first violation.
func checkStructure(w io.Writer, data []byte) error {
	s, err := structure.Decode(data)
	if err != nil {
		return err
	}

	questions := 0
	for _, sec := range s.Sections {
		questions += len(sec.Questions)
	}
	fmt.Fprintf(w, "%d secciones, %d preguntas\n", len(s.Sections), questions)

	if err := structure.Validate(s.Sections); err != nil {
		var verr *structure.ValidationError
		if errors.As(err, &verr) {
			return errors.New(verr.Message)
		}
		return err
	}

	fmt.Fprintln(w, "OK")
	return nil
}
