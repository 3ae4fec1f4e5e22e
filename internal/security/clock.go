// Package security implements the abuse and brute-force defense subsystem:
// per-account lockout, per-IP fixed-window rate limiting, a temporary IP
// block registry and the periodic brute-force detector that feeds it.
package security

import "time"

// Clock abstracts the time source so windowed logic can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
