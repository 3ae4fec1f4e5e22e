package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/security"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
)

// EventSink logs security events raised by middleware, best effort.
type EventSink interface {
	RecordBestEffort(ctx context.Context, event *models.SecurityEvent)
}

// RateLimitByIP enforces the given limiter per client IP. A denied request
// gets 429 with a Retry-After header and is logged as a high severity event.
func RateLimitByIP(limiter *security.RateLimiter, events EventSink, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, ipConfig)

			allowed, retryAfter, count := limiter.Allow(ip)
			if !allowed {
				if events != nil {
					events.RecordBestEffort(r.Context(), &models.SecurityEvent{
						SourceIP:      ip,
						DestinationIP: "system",
						Severity:      models.SeverityHigh,
						Message:       fmt.Sprintf("Rate limit exceeded on %s limiter: %d requests from %s", limiter.Name(), count, ip),
						DetectedBy:    "RateLimiter",
					})
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				pkghttp.WriteTooManyRequests(w, fmt.Sprintf("Too many requests, please try again in %d seconds", retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
