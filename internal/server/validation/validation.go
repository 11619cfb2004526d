// Package validation provides explicit request validators. Each validator is
// a pure function appending field-level errors; handlers compose them and
// reject the request before any flow method runs.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the full set of problems found in a request. It satisfies the
// error interface so services and handlers can pass it around like any other
// failure.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorOrNil returns nil when no field failed, so callers can write
// `if err := v.ErrorOrNil(); err != nil`.
func (e Errors) ErrorOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Required appends an error when value is empty or blank.
func (e Errors) Required(field, value string) Errors {
	if strings.TrimSpace(value) == "" {
		return append(e, FieldError{Field: field, Message: "is required"})
	}
	return e
}

// Email appends an error when value does not look like an email address.
// Empty values are ignored; combine with Required.
func (e Errors) Email(field, value string) Errors {
	if value == "" {
		return e
	}
	if !emailRe.MatchString(value) {
		return append(e, FieldError{Field: field, Message: "must be a valid email address"})
	}
	return e
}

// Password enforces the password policy: at least 8 characters containing
// both a letter and a digit.
func (e Errors) Password(field, value string) Errors {
	if value == "" {
		return e
	}
	if len(value) < 8 {
		return append(e, FieldError{Field: field, Message: "must be at least 8 characters"})
	}
	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return append(e, FieldError{Field: field, Message: "must contain both letters and digits"})
	}
	return e
}

// Match appends an error when confirm differs from value.
func (e Errors) Match(field, value, confirm string) Errors {
	if value != confirm {
		return append(e, FieldError{Field: field, Message: "fields didn't match"})
	}
	return e
}

// NumericCode appends an error when value is not exactly length decimal digits.
func (e Errors) NumericCode(field, value string, length int) Errors {
	if value == "" {
		return e
	}
	if len(value) != length {
		return append(e, FieldError{Field: field, Message: fmt.Sprintf("must be %d digits", length)})
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return append(e, FieldError{Field: field, Message: "must contain only digits"})
		}
	}
	return e
}

// FileExtension appends an error when name's extension is not in allowed
// (compared case-insensitively, without the leading dot).
func (e Errors) FileExtension(field, name string, allowed []string) Errors {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return append(e, FieldError{Field: field, Message: "must have a file extension"})
	}
	ext := strings.ToLower(name[idx+1:])
	for _, a := range allowed {
		if ext == a {
			return e
		}
	}
	return append(e, FieldError{Field: field, Message: fmt.Sprintf("extension %q is not allowed", ext)})
}

// NormalizeEmail lowercases and trims an email address; every store keys
// emails by this normal form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
