// Package rut validates and formats Chilean RUT tax identifiers.
package rut

import (
	"errors"
	"strings"
)

var ErrInvalid = errors.New("invalid RUT")

// Normalize strips dots, dashes and spaces and upper-cases the check digit.
func Normalize(s string) string {
	r := strings.NewReplacer(".", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(s)))
}

// CheckDigit computes the modulo 11 verifier for a numeric body.
func CheckDigit(body string) (byte, error) {
	if body == "" {
		return 0, ErrInvalid
	}
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		d := body[i]
		if d < '0' || d > '9' {
			return 0, ErrInvalid
		}
		sum += int(d-'0') * factor
		if factor == 7 {
			factor = 2
		} else {
			factor++
		}
	}
	switch v := 11 - sum%11; v {
	case 11:
		return '0', nil
	case 10:
		return 'K', nil
	default:
		return byte('0' + v), nil
	}
}

// Valid reports whether s is a 7 or 8 digit body followed by the right verifier.
func Valid(s string) bool {
	n := Normalize(s)
	if len(n) < 8 || len(n) > 9 {
		return false
	}
	body, dv := n[:len(n)-1], n[len(n)-1]
	want, err := CheckDigit(body)
	if err != nil {
		return false
	}
	return dv == want
}

// Format renders a valid RUT as 12.345.678-5.
func Format(s string) (string, error) {
	if !Valid(s) {
		return "", ErrInvalid
	}
	n := Normalize(s)
	body, dv := n[:len(n)-1], n[len(n)-1:]

	var b strings.Builder
	lead := len(body) % 3
	if lead > 0 {
		b.WriteString(body[:lead])
	}
	for i := lead; i < len(body); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(body[i : i+3])
	}
	b.WriteByte('-')
	b.WriteString(dv)
	return b.String(), nil
}
