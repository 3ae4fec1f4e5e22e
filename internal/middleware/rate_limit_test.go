package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/security"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

type recordingSink struct {
	mu     sync.Mutex
	events []*models.SecurityEvent
}

func (r *recordingSink) RecordBestEffort(ctx context.Context, event *models.SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	limiter := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "general",
		MaxRequests: 3,
		Window:      60 * time.Second,
	}, clock)
	sink := &recordingSink{}
	handler := RateLimitByIP(limiter, sink, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
		req.RemoteAddr = "203.0.113.5:41234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, sink.events)
}

func TestRateLimitDeniesOverLimit(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	limiter := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "auth",
		MaxRequests: 2,
		Window:      60 * time.Second,
	}, clock)
	sink := &recordingSink{}
	handler := RateLimitByIP(limiter, sink, nil)(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.5:41234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	send()
	send()
	rec := send()

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "try again in 60 seconds")

	require.Len(t, sink.events, 1)
	assert.Equal(t, models.SeverityHigh, sink.events[0].Severity)
	assert.Equal(t, "203.0.113.5", sink.events[0].SourceIP)
	assert.Equal(t, "RateLimiter", sink.events[0].DetectedBy)
	assert.Contains(t, sink.events[0].Message, "auth limiter")
}

func TestRateLimitRetryAfterCountsDown(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	limiter := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "general",
		MaxRequests: 1,
		Window:      60 * time.Second,
	}, clock)
	handler := RateLimitByIP(limiter, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.RemoteAddr = "203.0.113.5:41234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	clock.now = clock.now.Add(45500 * time.Millisecond)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "15", rec.Header().Get("Retry-After"))
}

func TestRateLimitPerIPIndependence(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	limiter := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "general",
		MaxRequests: 1,
		Window:      60 * time.Second,
	}, clock)
	handler := RateLimitByIP(limiter, nil, nil)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	first.RemoteAddr = "203.0.113.5:41234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different source IP has its own window.
	second := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	second.RemoteAddr = "198.51.100.9:52000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}
