// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package rut validates and formats Chilean RUT numbers.
package rut

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	separators = strings.NewReplacer(".", "", "-", "", " ", "")
	nonRUTChar = regexp.MustCompile(`[^0-9kK]`)
	rutPattern = regexp.MustCompile(`^[0-9]{7,8}[0-9kK]$`)
)

// Clean strips dots, dashes and spaces from s.
func Clean(s string) string {
	return separators.Replace(s)
}

// Format renders s as "12.345.678-5". Characters other than digits and K are
// dropped first; inputs shorter than two characters are returned cleaned but
// otherwise untouched.
func Format(s string) string {
	v := nonRUTChar.ReplaceAllString(Clean(s), "")
	if len(v) < 2 {
		return v
	}
	body, dv := v[:len(v)-1], v[len(v)-1:]

	var groups []string
	for len(body) > 3 {
		groups = append([]string{body[len(body)-3:]}, groups...)
		body = body[:len(body)-3]
	}
	groups = append([]string{body}, groups...)
	return strings.Join(groups, ".") + "-" + strings.ToUpper(dv)
}

// CheckDigit computes the modulo-11 verifier for a numeric RUT body. It
// returns "" when body contains anything other than digits.
func CheckDigit(body string) string {
	if body == "" {
		return ""
	}
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		d := body[i]
		if d < '0' || d > '9' {
			return ""
		}
		sum += int(d-'0') * mul
		if mul == 7 {
			mul = 2
		} else {
			mul++
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}

// Valid reports whether s is a well-formed RUT whose verifier matches its
// body. Separators are ignored and K is matched case-insensitively.
func Valid(s string) bool {
	v := Clean(s)
	if !rutPattern.MatchString(v) {
		return false
	}
	return strings.EqualFold(v[len(v)-1:], CheckDigit(v[:len(v)-1]))
}
