package security_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/mtrenholm/argus/internal/security"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(clock security.Clock, max int) *security.RateLimiter {
	return security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "API",
		MaxRequests: max,
		Window:      60 * time.Second,
	}, clock)
}

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock, 10)

	for i := 1; i <= 10; i++ {
		allowed, _, count := rl.Allow("198.51.100.1")
		assert.True(t, allowed, "request %d should be allowed", i)
		assert.Equal(t, i, count)
	}
}

func TestRateLimiterDeniesEleventhRequest(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock, 10)

	for i := 0; i < 10; i++ {
		rl.Allow("198.51.100.1")
	}

	allowed, retryAfter, count := rl.Allow("198.51.100.1")
	assert.False(t, allowed)
	assert.Equal(t, 11, count)
	assert.Equal(t, 60, retryAfter)
}

func TestRateLimiterRetryAfterCountsDown(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock, 1)

	rl.Allow("198.51.100.1")
	clock.Advance(45*time.Second + 500*time.Millisecond)

	allowed, retryAfter, _ := rl.Allow("198.51.100.1")
	assert.False(t, allowed)
	// 14.5s remaining, rounded up to whole seconds.
	assert.Equal(t, 15, retryAfter)
}

func TestRateLimiterResetsAtWindowBoundary(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock, 10)

	for i := 0; i < 11; i++ {
		rl.Allow("198.51.100.1")
	}

	clock.Advance(60 * time.Second)

	allowed, _, count := rl.Allow("198.51.100.1")
	assert.True(t, allowed, "first request of the next window must succeed")
	assert.Equal(t, 1, count)
}

func TestRateLimiterKeyspacesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock, 1)

	rl.Allow("198.51.100.1")
	allowed, _, _ := rl.Allow("198.51.100.1")
	assert.False(t, allowed)

	allowed, _, _ = rl.Allow("198.51.100.2")
	assert.True(t, allowed, "a different IP has its own window")
}

func TestRateLimiterInstancesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	general := newTestLimiter(clock, 100)
	auth := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "Authentication",
		MaxRequests: 10,
		Window:      60 * time.Second,
	}, clock)

	for i := 0; i < 11; i++ {
		auth.Allow("198.51.100.1")
	}

	allowed, _, _ := auth.Allow("198.51.100.1")
	assert.False(t, allowed)

	allowed, _, _ = general.Allow("198.51.100.1")
	assert.True(t, allowed, "general limiter keeps its own count for the same IP")
}

func TestRateLimiterSweepDropsStaleEntries(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(clock, 10)

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("198.51.100.%d", i))
	}
	assert.Equal(t, 5, rl.Len())

	clock.Advance(60 * time.Second)
	rl.Allow("198.51.100.0") // renews one entry

	removed := rl.Sweep()
	assert.Equal(t, 4, removed)
	assert.Equal(t, 1, rl.Len())
}
