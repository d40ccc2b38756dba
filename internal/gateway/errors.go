package gateway

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors. Callers classify results with
// errors.Is against these; drivers never surface backend errors raw.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a uniqueness constraint was violated,
	// typically an insert with an existing primary key.
	ErrConflict = errors.New("key conflict")

	// ErrValidation means the input record or patch is malformed.
	ErrValidation = errors.New("invalid record")

	// ErrTransient means the store is temporarily unavailable.
	// The caller may retry with backoff; this package never retries.
	ErrTransient = errors.New("store unavailable")

	// ErrInternal covers everything unexpected.
	ErrInternal = errors.New("internal store error")
)

// NewKind tags kind with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags kind with op and preserves the underlying cause.
// errors.Is matches both kind and cause.
func WrapKind(op string, kind, cause error) error {
	if cause == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// Kind reduces err to its sentinel, or ErrInternal when untagged.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict):
		return ErrConflict
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrTransient):
		return ErrTransient
	default:
		return ErrInternal
	}
}
