package services

import (
	"errors"
	"fmt"
	"strings"

	"sow-signoff/backend/internal/repository"
)

// NotFoundError reports that a referenced record does not exist in scope.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return repository.ErrNotFound }

// ValidationError reports input that an operation refuses to act on.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError reports that a record changed between read and write. The
// caller should re-read and retry.
type ConflictError struct {
	Kind string
	ID   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q was modified concurrently; reload and retry", e.Kind, e.ID)
}

func (e *ConflictError) Unwrap() error { return repository.ErrVersionConflict }

// SkippedEntry names an item a bulk operation could not process.
type SkippedEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// PartialFailure reports the entries a bulk operation skipped while
// completing the rest.
type PartialFailure struct {
	Operation string
	Skipped   []SkippedEntry
}

func (e *PartialFailure) Error() string {
	ids := make([]string, 0, len(e.Skipped))
	for _, s := range e.Skipped {
		ids = append(ids, s.ID)
	}
	return fmt.Sprintf("%s skipped %d entries: %s", e.Operation, len(e.Skipped), strings.Join(ids, ", "))
}

func partialFailure(op string, skipped []SkippedEntry) error {
	if len(skipped) == 0 {
		return nil
	}
	return &PartialFailure{Operation: op, Skipped: skipped}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// storeError translates repository sentinels into service errors.
func storeError(err error, kind, id, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Kind: kind, ID: id}
	case errors.Is(err, repository.ErrVersionConflict):
		return &ConflictError{Kind: kind, ID: id}
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	return nil
}
