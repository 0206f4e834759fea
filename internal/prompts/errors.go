package prompts

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with [errors.Is]; the concrete
// types below carry the details.
var (
	// ErrNotFound means a prompt identifier is not registered. It is
	// fatal to the request and not retryable.
	ErrNotFound = errors.New("prompt not found")

	// ErrPersistence means the local settings store failed to read,
	// write or delete a value.
	ErrPersistence = errors.New("prompt settings persistence failed")
)

// NotFoundError reports an unregistered prompt identifier.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("prompt %q not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a store failure with the operation and key
// that triggered it.
type PersistenceError struct {
	Op  string // "get", "set" or "delete"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
