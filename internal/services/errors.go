package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"taskflow-api/internal/policy"
	"taskflow-api/internal/repository"
)

var (
	// ErrTaskNotFound is returned when the task id does not resolve.
	ErrTaskNotFound = repository.ErrTaskNotFound
	// ErrUserNotFound is returned when a user id or email does not resolve.
	ErrUserNotFound = repository.ErrUserNotFound
	// ErrForbidden is returned when the actor fails the policy rule.
	ErrForbidden = policy.ErrForbidden
	// ErrInvalidCredentials is wrapped by login validation failures.
	ErrInvalidCredentials = errors.New("the provided credentials are incorrect")
	// ErrEmailTaken is wrapped by registration validation failures.
	ErrEmailTaken = errors.New("the email has already been taken")
)

// ValidationError carries per-field messages for rejected input.
// No state is changed when one is returned.
type ValidationError struct {
	Fields map[string][]string
	cause  error
}

// NewValidationError returns a ValidationError with a single message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

func fieldError(field, message string, cause error) *ValidationError {
	v := NewValidationError(field, message)
	v.cause = cause
	return v
}

// Add appends a message for field.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Has reports whether field already has a message.
func (v *ValidationError) Has(field string) bool {
	return len(v.Fields[field]) > 0
}

// OrNil returns v as an error, or nil when no field failed.
func (v *ValidationError) OrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v.Fields[f], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error {
	return v.cause
}
