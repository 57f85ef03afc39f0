package service

import (
	"errors"
	"sort"
	"strings"
)

// FieldErrors maps a field name to a user-facing message
type FieldErrors map[string]string

// Add records msg for field, keeping the first message per field
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// Fields returns the failing field names in sorted order
func (f FieldErrors) Fields() []string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// ValidationError is returned when one or more fields fail a business rule.
// The caller is expected to show the messages next to the fields and let
// the user resubmit.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields.Fields() {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) match any *ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// AsValidationError extracts the field errors from err, if any
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Validation messages
const (
	MsgEmailExists     = "A user with this email already exists"
	MsgUsernameExists  = "A user with this username already exists"
	MsgPasswordTooLong = "Password must be at most 72 bytes"
)

// merge copies other into f without overwriting existing messages
func (f FieldErrors) merge(other FieldErrors) {
	for field, msg := range other {
		f.Add(field, msg)
	}
}

// Service errors
var (
	ErrValidationFailed = errors.New("validation failed")
)
