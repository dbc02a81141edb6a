package errors

import (
	"errors"
	"fmt"
)

// Common error types for the gateway
var (
	// Authorization flow errors
	ErrInvalidState        = errors.New("invalid_state")
	ErrTokenExchangeFailed = errors.New("token_exchange_failed")
	ErrIdentityFetchFailed = errors.New("identity_fetch_failed")

	// Session / credential errors
	ErrNotAuthenticated = errors.New("unauthenticated")
	ErrNoCredential     = errors.New("no_credential")
	ErrReauthRequired   = errors.New("reauth_required")

	// Request errors
	ErrValidation = errors.New("validation_failed")
	ErrNotFound   = errors.New("not_found")

	// Provider errors
	ErrProvider = errors.New("provider_error")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
