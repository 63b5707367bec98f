package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates that a unique field (login, email) is already taken.
	ErrConflict = errors.New("conflict")
	// ErrReferenced indicates that a delete was rejected because other rows
	// still reference the entity.
	ErrReferenced = errors.New("entity is still referenced")
	// ErrInvalidReference indicates that a write pointed at a row that does not exist.
	ErrInvalidReference = errors.New("referenced entity does not exist")
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports an invalid or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrColumnNotInDesk is returned when a task would point at a column owned by another desk.
var ErrColumnNotInDesk = Invalid("columnId", "column does not belong to the task's desk")
