package store

import (
	"errors"
	"strings"
)

var (
	// ErrNoTransaction is returned when an operation requires an open transaction.
	ErrNoTransaction = errors.New("no transaction in context")

	// ErrTransactionDone is returned when a finished transaction is used again.
	ErrTransactionDone = errors.New("transaction already committed or rolled back")

	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("entity not found")
)

// Violation is one failed validation rule of one entity.
type Violation struct {
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

// String formats the violation as "<Entity>: <message>".
func (v Violation) String() string {
	return v.Entity + ": " + v.Message
}

// ValidationError aggregates every violation found while flushing.
type ValidationError struct {
	Violations []Violation
}

// Error joins all violations with newlines.
func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
