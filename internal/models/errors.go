package models

import "fmt"

// Typed errors for the insight pipeline. Handlers map these onto HTTP
// status codes; services never deal in status codes themselves.

// ValidationError marks malformed input: a missing required field, an
// unrecognized enum value, a bad date range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError marks a caller lacking the required role.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// NotFoundError marks an absent referenced entity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// DependencyError marks a failed read or write against the durable store or
// a collaborator. Batch detection runs report partial progress through
// Partial, since each insert is independently guarded.
type DependencyError struct {
	Op      string
	Err     error
	Partial int
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func NewDependencyError(op string, err error) *DependencyError {
	return &DependencyError{Op: op, Err: err}
}
