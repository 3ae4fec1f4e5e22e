package security_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/security"
	"github.com/stretchr/testify/assert"
)

// memLockStore implements LockStore in memory with the same atomic
// increment semantics the SQL implementation provides.
type memLockStore struct {
	mu       sync.Mutex
	accounts map[string]*lockState
}

type lockState struct {
	failed      int
	lockedUntil *time.Time
}

func newMemLockStore() *memLockStore {
	return &memLockStore{accounts: make(map[string]*lockState)}
}

func (s *memLockStore) RecordFailure(ctx context.Context, accountID string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.accounts[accountID]
	if !ok {
		st = &lockState{}
		s.accounts[accountID] = st
	}
	st.failed++
	if st.failed >= threshold {
		until := lockUntil
		st.lockedUntil = &until
	}
	return st.failed, st.lockedUntil, nil
}

func (s *memLockStore) ResetLock(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.accounts[accountID]
	if !ok {
		return models.ErrNotFound
	}
	st.failed = 0
	st.lockedUntil = nil
	return nil
}

func (s *memLockStore) LockState(ctx context.Context, accountID string) (int, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.accounts[accountID]
	if !ok {
		return 0, nil, nil
	}
	return st.failed, st.lockedUntil, nil
}

func newTestLockout(store security.LockStore, clock security.Clock) *security.Lockout {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return security.NewLockout(store, security.LockoutConfig{
		Threshold:    5,
		LockDuration: 5 * time.Minute,
	}, clock, logger)
}

func TestLockoutLocksAfterFiveFailures(t *testing.T) {
	clock := newFakeClock()
	store := newMemLockStore()
	lo := newTestLockout(store, clock)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		locked, err := lo.RecordFailure(ctx, "acct-1")
		assert.NoError(t, err)
		assert.False(t, locked, "failure %d should not lock", i)
	}

	locked, err := lo.RecordFailure(ctx, "acct-1")
	assert.NoError(t, err)
	assert.True(t, locked)

	locked, remaining, err := lo.Status(ctx, "acct-1")
	assert.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 5, remaining)
}

func TestLockoutExpiresNaturally(t *testing.T) {
	clock := newFakeClock()
	store := newMemLockStore()
	lo := newTestLockout(store, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		lo.RecordFailure(ctx, "acct-1")
	}

	clock.Advance(4 * time.Minute)
	locked, remaining, err := lo.Status(ctx, "acct-1")
	assert.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 1, remaining)

	clock.Advance(1 * time.Minute)
	locked, remaining, err = lo.Status(ctx, "acct-1")
	assert.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 0, remaining)
}

func TestLockoutSuccessResetsState(t *testing.T) {
	clock := newFakeClock()
	store := newMemLockStore()
	lo := newTestLockout(store, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		lo.RecordFailure(ctx, "acct-1")
	}

	assert.NoError(t, lo.RecordSuccess(ctx, "acct-1"))

	locked, remaining, err := lo.Status(ctx, "acct-1")
	assert.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 0, remaining)

	failed, lockedUntil, err := store.LockState(ctx, "acct-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, failed)
	assert.Nil(t, lockedUntil)
}

func TestLockoutCheckReturnsRemainingMinutes(t *testing.T) {
	clock := newFakeClock()
	store := newMemLockStore()
	lo := newTestLockout(store, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		lo.RecordFailure(ctx, "acct-1")
	}

	// 30 seconds into the lock: 4m30s remaining rounds up to 5 minutes.
	clock.Advance(30 * time.Second)

	err := lo.Check(ctx, "acct-1")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAccountLocked))

	var lockedErr *models.LockedError
	assert.True(t, errors.As(err, &lockedErr))
	assert.Equal(t, 5, lockedErr.RemainingMinutes)
}

func TestLockoutConcurrentFailuresAreNotLost(t *testing.T) {
	clock := newFakeClock()
	store := newMemLockStore()
	lo := newTestLockout(store, clock)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = lo.RecordFailure(ctx, "acct-1")
		}()
	}
	wg.Wait()

	failed, lockedUntil, err := store.LockState(ctx, "acct-1")
	assert.NoError(t, err)
	assert.Equal(t, 20, failed)
	assert.NotNil(t, lockedUntil)
}

func TestRemainingMinutesCeiling(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining time.Duration
		expected  int
	}{
		{"exact minutes", 3 * time.Minute, 3},
		{"partial minute rounds up", 2*time.Minute + 1*time.Second, 3},
		{"sub-minute rounds up to one", 900 * time.Millisecond, 1},
		{"expired", 0, 0},
		{"past expiry", -1 * time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := security.RemainingMinutes(now, now.Add(tt.remaining))
			assert.Equal(t, tt.expected, got)
		})
	}
}
