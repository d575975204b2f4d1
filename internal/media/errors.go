package media

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey marks a record or key with no usable catalog ID.
	// Batch operations report it per item and keep going.
	ErrInvalidKey = errors.New("media: invalid key: missing external id")

	// ErrIdentityRequired is returned by write operations invoked
	// without a signed-in identity.
	ErrIdentityRequired = errors.New("media: identity required")

	// ErrInvalidRating is returned for ratings outside 0-5 or not on
	// a half-point step.
	ErrInvalidRating = errors.New("media: rating must be 0-5 in half-point steps")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("media: not found")

	// ErrInconsistentWrite is returned when a composite write could
	// not be applied atomically and has been rolled back.
	ErrInconsistentWrite = errors.New("media: composite write rolled back")
)

// TransientError wraps a storage failure that the caller may retry.
// The core never retries internally: resolver creates are only safe
// to repeat once the uniqueness constraint is known to have held.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("media: transient storage failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError, preserving nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
