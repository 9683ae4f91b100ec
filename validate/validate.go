// Package validate checks request input at the transport boundary and reports
// every offending field at once.
package validate

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by every check in this package. A nil Errors means the
// input is valid.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *Errors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Err returns nil when no field failed, so callers can write
// `if err := v.Err(); err != nil`.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

const (
	minCredentialLength = 4
	maxCredentialLength = 20
	minStrongPassword   = 8
)

// Credentials validates a username/password pair used for registration and
// login.
func Credentials(username, password string) error {
	var errs Errors

	switch n := utf8.RuneCountInString(username); {
	case n < minCredentialLength:
		errs.add("username", "Username must be at least 4 characters")
	case n > maxCredentialLength:
		errs.add("username", "Username must be less than 20 characters")
	}

	switch n := utf8.RuneCountInString(password); {
	case n < minCredentialLength:
		errs.add("password", "Password must be at least 4 characters")
	case n > maxCredentialLength:
		errs.add("password", "Password must be less than 20 characters")
	}

	if !strongPassword(password) {
		errs.add("password", "Password must contain at least one uppercase, one lowercase, one number and one special character")
	}

	return errs.Err()
}

// strongPassword needs an ASCII digit, an ASCII lower-case and an ASCII
// upper-case letter and at least eight characters.
func strongPassword(password string) bool {
	var digit, lower, upper bool
	for _, r := range password {
		switch {
		case '0' <= r && r <= '9':
			digit = true
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		}
	}
	return digit && lower && upper && utf8.RuneCountInString(password) >= minStrongPassword
}

// NewTask validates the body of a task creation request.
func NewTask(title, description string) error {
	var errs Errors

	if strings.TrimSpace(title) == "" {
		errs.add("title", "Title should not be empty")
	}
	if strings.TrimSpace(description) == "" {
		errs.add("description", "Description should not be empty")
	}

	return errs.Err()
}

// OneOf checks that value is one of allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	var errs Errors
	errs.add(field, `"`+value+`" must be one of `+strings.Join(allowed, ", "))
	return errs
}

// ID parses a positive integer path parameter.
func ID(field, value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		var errs Errors
		errs.add(field, field+" must be a positive integer")
		return 0, errs
	}
	return id, nil
}
