package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWrongMfaCode       = errors.New("wrong mfa code")
	ErrRateLimited        = errors.New("rate limited")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrUnauthorized       = errors.New("unauthorized")
)

// AccountLockedError carries a human-readable reason for administrative
// locks. Brute-force locks use the generic sentinel message so attempt
// counts are not leaked.
type AccountLockedError struct {
	Reason     string
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	if e.Reason == "" {
		return ErrAccountLocked.Error()
	}
	return fmt.Sprintf("account locked: %s", e.Reason)
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// RateLimitedError carries a retry-after hint for throttled operations.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

func NewAccountLocked(reason string, retryAfter time.Duration) error {
	return &AccountLockedError{Reason: reason, RetryAfter: retryAfter}
}

func NewRateLimited(retryAfter time.Duration) error {
	return &RateLimitedError{RetryAfter: retryAfter}
}
