package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"safecheck/internal/rut"
)

// Validation limits for category and user fields.
const (
	maxCategoryNameLen = 100
	maxCategoryDescLen = 500
	maxUserFieldLen    = 100
	minPasswordLen     = 8
)

// passwordSymbols are the non-alphanumeric characters a password may use.
const passwordSymbols = "@$!%*?&"

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

const msgInvalidRUT = "RUT inválido. Verifica el dígito verificador"

// userForm is the supervisor/worker form. Errors maps field names to the
// message shown under each field.
type userForm struct {
	ID                    string
	FirstName             string
	LastName              string
	Email                 string
	Rut                   string
	Phone                 string
	EmergencyContactPhone string
	Position              string
	Errors                map[string]string
}

// validateUser checks the user form and returns the per-field errors. The
// password is required on create; on edit it is only checked when set.
func validateUser(f userForm, password, confirm string, isNew bool) map[string]string {
	errs := map[string]string{}

	if f.FirstName == "" {
		errs["firstName"] = "El nombre es requerido"
	} else if utf8.RuneCountInString(f.FirstName) > maxUserFieldLen {
		errs["firstName"] = "El nombre es demasiado largo"
	}
	if f.LastName == "" {
		errs["lastName"] = "El apellido es requerido"
	} else if utf8.RuneCountInString(f.LastName) > maxUserFieldLen {
		errs["lastName"] = "El apellido es demasiado largo"
	}

	if f.Email == "" {
		errs["email"] = "El email es requerido"
	} else if !emailPattern.MatchString(f.Email) {
		errs["email"] = "El email no es válido"
	}

	if isNew || password != "" {
		if msg := validatePassword(password); msg != "" {
			errs["password"] = msg
		}
		if password != confirm {
			errs["confirmPassword"] = "Las contraseñas no coinciden"
		}
	}

	if f.Rut != "" && !rut.Valid(f.Rut) {
		errs["rut"] = msgInvalidRUT
	}
	return errs
}

// validatePassword returns the message for a password that breaks the
// policy: at least 8 characters from letters, digits and @$!%*?&, with one
// lowercase letter, one uppercase letter and one digit.
func validatePassword(p string) string {
	switch {
	case p == "":
		return "La contraseña es requerida"
	case utf8.RuneCountInString(p) < minPasswordLen:
		return "La contraseña debe tener al menos 8 caracteres"
	}

	var lower, upper, digit bool
	for _, c := range p {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, c):
		default:
			return "La contraseña debe contener al menos 1 letra mayúscula, 1 minúscula y 1 número"
		}
	}
	if !lower || !upper || !digit {
		return "La contraseña debe contener al menos 1 letra mayúscula, 1 minúscula y 1 número"
	}
	return ""
}

// validateCategory checks the category form and returns the first error.
func validateCategory(name, description, color string) string {
	if strings.TrimSpace(name) == "" {
		return "El nombre de la categoría es obligatorio"
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "El nombre de la categoría es demasiado largo (máx. 100 caracteres)"
	}
	if utf8.RuneCountInString(description) > maxCategoryDescLen {
		return "La descripción es demasiado larga (máx. 500 caracteres)"
	}
	if !validColor(color) {
		return "El color no es válido"
	}
	return ""
}

// validColor reports whether s is a #rrggbb color.
func validColor(s string) bool {
	return colorPattern.MatchString(s)
}
