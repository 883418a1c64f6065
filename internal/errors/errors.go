package errors

import (
	"errors"
	"fmt"
)

// Error categories surfaced by the list client
var (
	// Input errors, raised before any network effect
	ErrValidation           = errors.New("validation failed")
	ErrConfirmationRequired = fmt.Errorf("confirmation required: %w", ErrValidation)

	// Authorization errors: no session, or the user has no access grant
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = fmt.Errorf("no active session: %w", ErrUnauthorized)
	ErrNoAccess     = fmt.Errorf("access not granted: %w", ErrUnauthorized)

	// Backend errors (network, query, subscription)
	ErrBackend = errors.New("backend error")

	// Identity flow errors
	ErrInvalidState   = errors.New("invalid or expired sign-in state")
	ErrInvalidNonce   = errors.New("invalid nonce")
	ErrSessionExpired = errors.New("session expired")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Backend marks err as a backend failure while keeping the original in the chain.
func Backend(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackend) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackend, err)
}

// Validation builds a validation error with a reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
