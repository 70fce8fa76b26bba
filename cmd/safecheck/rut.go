// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"safecheck/internal/rut"
)

var rutCmd = &cobra.Command{
	Use:   "rut [value]",
	Short: "Validate and format a Chilean RUT",
	Long: `rut checks the verification digit of a RUT and prints it formatted as
12.345.678-5. Without an argument it prompts for the value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			prompt := &survey.Input{
				Message: "RUT:",
				Help:    "Con o sin puntos y guion, por ejemplo 12.345.678-5",
			}
			if err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)); err != nil {
				return fmt.Errorf("prompt: %w", err)
			}
		}
		return checkRUT(cmd.OutOrStdout(), value)
	},
}

var errInvalidRUT = errors.New("RUT inválido")

func checkRUT(w io.Writer, value string) error {
	if !rut.Valid(value) {
		return fmt.Errorf("%w: %q", errInvalidRUT, value)
	}
	fmt.Fprintln(w, rut.Format(value))
	return nil
}
