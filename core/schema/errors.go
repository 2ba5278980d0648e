package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors raised while defining, coding or compiling entities.
type ErrorKind string

const (
	ErrValidation         ErrorKind = "validation"          // A value has the wrong shape for its field
	ErrDecode             ErrorKind = "decode"              // A stored value cannot be parsed
	ErrUnregisteredEntity ErrorKind = "unregistered_entity" // A nested type has no registered schema
	ErrCyclicSchema       ErrorKind = "cyclic_schema"       // A nested type refers back to itself
	ErrDefinition         ErrorKind = "definition"          // A schema definition is malformed
)

// Error is the error type returned by the schema, entity and index packages.
// None of these errors are retryable: coding and compiling are deterministic.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// IsKind reports whether err, or any error it wraps, is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// ValidationError reports a value that cannot be assigned to a field.
func ValidationError(field, msg string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: msg}
}

// DecodeError reports a stored value that cannot be parsed for a field.
func DecodeError(field, msg string) *Error {
	return &Error{Kind: ErrDecode, Field: field, Message: msg}
}

// UnregisteredEntityError reports a nested type with no registered schema.
func UnregisteredEntityError(entity string) *Error {
	return &Error{Kind: ErrUnregisteredEntity, Message: fmt.Sprintf("no schema registered for entity '%s'", entity)}
}

// CyclicSchemaError reports a nested type that is already being expanded.
func CyclicSchemaError(field, entity string) *Error {
	return &Error{Kind: ErrCyclicSchema, Field: field, Message: fmt.Sprintf("entity '%s' contains itself", entity)}
}

// DefinitionError reports a malformed schema definition.
func DefinitionError(field, msg string) *Error {
	return &Error{Kind: ErrDefinition, Field: field, Message: msg}
}
