package http

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig controls which peers are allowed to assert a client IP on behalf
// of someone else via forwarding headers.
type IPConfig struct {
	TrustedProxies []string // CIDR ranges
}

// ExtractClientIP resolves the client IP used for rate limiting, lockout
// events, and the block list. X-Forwarded-For and X-Real-IP are only honored
// when the TCP peer is inside a trusted proxy range; otherwise a client could
// forge headers to dodge per-IP limits or pin blocks on someone else.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	peer := peerAddr(r)

	if config == nil || !inTrustedRange(peer, config.TrustedProxies) {
		return peer
	}

	// First entry in X-Forwarded-For is the originating client; later
	// entries are intermediate proxies.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			candidate := strings.TrimSpace(part)
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}

	return peer
}

// peerAddr returns the TCP peer's address with any port stripped.
func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func inTrustedRange(addr string, ranges []string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, cidr := range ranges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Misconfigured ranges are skipped rather than trusted.
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
