package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrValidation     = errors.New("validation failed")
	ErrInternalServer = errors.New("internal server error")

	// Abuse-defense state errors
	ErrAccountLocked = errors.New("account is temporarily locked")
	ErrIPBlocked     = errors.New("source address is blocked")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// LockedError reports an authentication attempt against a locked account.
// RemainingMinutes is the whole-minute ceiling of the remaining lock time.
type LockedError struct {
	RemainingMinutes int
}

func (e *LockedError) Error() string {
	unit := "minutes"
	if e.RemainingMinutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("account is temporarily locked, try again in %d %s", e.RemainingMinutes, unit)
}

// Is lets errors.Is(err, ErrAccountLocked) match a LockedError
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// RateLimitedError reports a denied request with the seconds remaining
// until the current window resets.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests, try again in %d seconds", e.RetryAfterSeconds)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
