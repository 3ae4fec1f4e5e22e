package models

import (
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string // "user", "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Lockout state. FailedAttempts counts consecutive authentication
	// failures since the last success; LockedUntil, when set and in the
	// future, suspends authentication for the account. Expiry is lazy:
	// an elapsed LockedUntil is treated as no lock without being cleared.
	FailedAttempts int
	LockedUntil    *time.Time
}

// Locked reports whether the account is locked as of now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
