package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistenceUnavailable wraps any read/write failure of the document
	// backend. Callers should keep their own result and report "not saved".
	ErrPersistenceUnavailable = errors.New("profile persistence unavailable")

	// ErrMalformedProfile is only returned in strict decode mode; otherwise a
	// malformed document is discarded and replaced with a default profile.
	ErrMalformedProfile = errors.New("malformed persisted profile")

	// ErrUnknownAchievement is only returned with strict achievements enabled.
	ErrUnknownAchievement = errors.New("unknown achievement id")

	ErrInvalidCatalog  = errors.New("invalid catalog")
	ErrInvalidUsername = errors.New("invalid username")
)

func persistenceErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistenceUnavailable, op, key, err)
}
