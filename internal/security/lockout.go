package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtrenholm/argus/internal/models"
)

// LockStore persists per-account lockout state. Implementations must make
// RecordFailure an atomic read-increment-write so concurrent failed logins
// against the same account never lose updates.
type LockStore interface {
	// RecordFailure increments the account's failure counter and, when the
	// new count reaches threshold, applies lockUntil. It returns the state
	// after the update.
	RecordFailure(ctx context.Context, accountID string, threshold int, lockUntil time.Time) (failed int, lockedUntil *time.Time, err error)
	// ResetLock clears the failure counter and any lock.
	ResetLock(ctx context.Context, accountID string) error
	// LockState reads the current counter and lock expiry without mutation.
	LockState(ctx context.Context, accountID string) (failed int, lockedUntil *time.Time, err error)
}

// LockoutConfig holds the lockout thresholds.
type LockoutConfig struct {
	Threshold    int           // consecutive failures before locking
	LockDuration time.Duration // how long an account stays locked
}

// Lockout is the per-account lockout state machine: Active until Threshold
// consecutive failures, then Locked until LockDuration elapses or a success
// resets it. Expiry is lazy; no background sweep touches account state.
type Lockout struct {
	store  LockStore
	cfg    LockoutConfig
	clock  Clock
	logger *slog.Logger
}

// NewLockout creates a Lockout over the given store.
func NewLockout(store LockStore, cfg LockoutConfig, clock Clock, logger *slog.Logger) *Lockout {
	return &Lockout{store: store, cfg: cfg, clock: clock, logger: logger}
}

// RecordFailure registers one failed authentication attempt and reports
// whether the account is now locked. Callers must not invoke this for
// attempts rejected because the account was already locked; a locked
// account is not penalized further.
func (l *Lockout) RecordFailure(ctx context.Context, accountID string) (locked bool, err error) {
	lockUntil := l.clock.Now().Add(l.cfg.LockDuration)

	failed, lockedUntil, err := l.store.RecordFailure(ctx, accountID, l.cfg.Threshold, lockUntil)
	if err != nil {
		return false, err
	}

	locked = lockedUntil != nil && lockedUntil.After(l.clock.Now())
	if locked {
		l.logger.Warn("account locked after repeated failures",
			slog.String("account_id", accountID),
			slog.Int("failed_attempts", failed),
			slog.Time("locked_until", *lockedUntil))
	}
	return locked, nil
}

// RecordSuccess resets the failure counter and clears any lock. Only called
// after the password matched and the account was not locked.
func (l *Lockout) RecordSuccess(ctx context.Context, accountID string) error {
	return l.store.ResetLock(ctx, accountID)
}

// Status reports whether the account is locked and, if so, the remaining
// lock time in whole minutes (ceiling).
func (l *Lockout) Status(ctx context.Context, accountID string) (locked bool, remainingMinutes int, err error) {
	_, lockedUntil, err := l.store.LockState(ctx, accountID)
	if err != nil {
		return false, 0, err
	}

	now := l.clock.Now()
	if lockedUntil == nil || !lockedUntil.After(now) {
		return false, 0, nil
	}

	return true, RemainingMinutes(now, *lockedUntil), nil
}

// Check returns a LockedError carrying the remaining whole minutes if the
// account is locked, nil otherwise.
func (l *Lockout) Check(ctx context.Context, accountID string) error {
	locked, remaining, err := l.Status(ctx, accountID)
	if err != nil {
		return err
	}
	if locked {
		return &models.LockedError{RemainingMinutes: remaining}
	}
	return nil
}

// RemainingMinutes converts the time left until expiry to whole minutes,
// rounding up (ceiling of remaining milliseconds / 60000).
func RemainingMinutes(now, expiry time.Time) int {
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}
