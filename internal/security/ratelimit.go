package security

import (
	"math"
	"sync"
	"time"
)

// RateLimiterConfig holds the threshold and window for one limiter instance.
type RateLimiterConfig struct {
	Name        string // limiter name, used in denial events ("API", "Authentication")
	MaxRequests int
	Window      time.Duration
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a per-source-IP fixed-window request counter. Counting is
// deliberately fixed-window rather than sliding: state resets exactly at
// window boundaries, which keeps reset-time semantics stable and testable.
// Each limiter instance owns its own keyspace; the service runs a general
// instance for all API traffic and a stricter one for auth endpoints.
type RateLimiter struct {
	cfg   RateLimiterConfig
	clock Clock

	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewRateLimiter creates a limiter with an empty keyspace.
func NewRateLimiter(cfg RateLimiterConfig, clock Clock) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		clock:   clock,
		entries: make(map[string]*windowEntry),
	}
}

// Name returns the limiter's configured name.
func (rl *RateLimiter) Name() string { return rl.cfg.Name }

// Allow records one request from ip and reports whether it is within the
// limit. When denied, retryAfter is the number of whole seconds until the
// current window resets, and count is the violation count observed. The
// read-increment-write is atomic per call.
func (rl *RateLimiter) Allow(ip string) (allowed bool, retryAfter int, count int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()

	entry, ok := rl.entries[ip]
	if !ok || !now.Before(entry.windowStart.Add(rl.cfg.Window)) {
		// First request from this IP, or the previous window elapsed.
		rl.entries[ip] = &windowEntry{count: 1, windowStart: now}
		return true, 0, 1
	}

	entry.count++
	if entry.count <= rl.cfg.MaxRequests {
		return true, 0, entry.count
	}

	remaining := entry.windowStart.Add(rl.cfg.Window).Sub(now)
	retryAfter = int(math.Ceil(remaining.Seconds()))
	return false, retryAfter, entry.count
}

// Sweep removes entries whose window has fully elapsed. An entry never
// outlives one window past its last reset.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	removed := 0
	for ip, entry := range rl.entries {
		if !now.Before(entry.windowStart.Add(rl.cfg.Window)) {
			delete(rl.entries, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked source IPs.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}
