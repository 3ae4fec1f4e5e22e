package security

import (
	"sync"
	"time"
)

// Blocklist is the temporary IP block registry. It is consulted before any
// other request handling; a blocked IP short-circuits with a fixed denial.
// Expiry is checked live on every lookup, so SweepExpired only bounds
// memory and is never required for correctness.
type Blocklist struct {
	mu      sync.Mutex
	entries map[string]time.Time // ip -> expiry
	clock   Clock
}

// NewBlocklist creates an empty block registry.
func NewBlocklist(clock Clock) *Blocklist {
	return &Blocklist{
		entries: make(map[string]time.Time),
		clock:   clock,
	}
}

// IsBlocked reports whether an unexpired block entry exists for ip.
func (b *Blocklist) IsBlocked(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.entries[ip]
	return ok && expiry.After(b.clock.Now())
}

// Block inserts or overwrites the entry for ip with the given duration.
func (b *Blocklist) Block(ip string, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[ip] = b.clock.Now().Add(duration)
}

// SweepExpired removes all entries whose expiry has passed and returns
// how many were removed.
func (b *Blocklist) SweepExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	removed := 0
	for ip, expiry := range b.entries {
		if !expiry.After(now) {
			delete(b.entries, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (b *Blocklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
