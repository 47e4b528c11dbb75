package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested object doesn't exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey is returned when a storage key is empty or contains
	// path traversal sequences.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when an object exceeds the maximum allowed size.
	ErrTooLarge = errors.New("object exceeds maximum size")
)

// StorageError wraps storage operation errors with context. It supports
// errors.Is for the sentinel errors above.
type StorageError struct {
	Op  string // operation that failed ("Put", "Get", ...)
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error chain indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
