package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mtrenholm/argus/internal/auth"
	"github.com/mtrenholm/argus/internal/config"
	"github.com/mtrenholm/argus/internal/database"
	"github.com/mtrenholm/argus/internal/handlers"
	middlewareCustom "github.com/mtrenholm/argus/internal/middleware"
	"github.com/mtrenholm/argus/internal/notify"
	"github.com/mtrenholm/argus/internal/repositories"
	"github.com/mtrenholm/argus/internal/routes"
	"github.com/mtrenholm/argus/internal/security"
	"github.com/mtrenholm/argus/internal/services"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
	pkglogger "github.com/mtrenholm/argus/pkg/logger"
)

// TestServer wraps httptest.Server with the full stack over a real database.
// The rate limits are set high so authentication and lockout tests sharing a
// client IP never trip the limiter unless a test constructs its own.
type TestServer struct {
	Server    *httptest.Server
	DB        *database.DB
	Config    *config.Config
	Blocklist *security.Blocklist
	Detector  *security.Detector
	Hub       *notify.Hub

	EventRepo *repositories.EventRepository
	AlertRepo *repositories.AlertRepository
}

// NewTestServer initializes a complete HTTP server with a real database.
// The background scheduler is not started; tests drive detector passes
// directly via ts.Detector.RunPass for deterministic timing.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
			TrustedProxies: []string{},
		},
		Security: config.SecurityConfig{
			LockoutThreshold:    5,
			LockoutDuration:     5 * time.Minute,
			GeneralRateLimit:    100000,
			AuthRateLimit:       100000,
			RateLimitWindow:     time.Minute,
			DetectorWindow:      15 * time.Minute,
			DetectorThreshold:   10,
			DetectorBlockTime:   5 * time.Minute,
			DashboardStatWindow: 24 * time.Hour,
		},
	}

	userRepo := repositories.NewUserRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	reputationRepo := repositories.NewReputationRepository(db)

	clock := security.SystemClock()
	blocklist := security.NewBlocklist(clock)
	lockout := security.NewLockout(userRepo, security.LockoutConfig{
		Threshold:    cfg.Security.LockoutThreshold,
		LockDuration: cfg.Security.LockoutDuration,
	}, clock, logger)
	generalLimiter := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "API",
		MaxRequests: cfg.Security.GeneralRateLimit,
		Window:      cfg.Security.RateLimitWindow,
	}, clock)
	authLimiter := security.NewRateLimiter(security.RateLimiterConfig{
		Name:        "Authentication",
		MaxRequests: cfg.Security.AuthRateLimit,
		Window:      cfg.Security.RateLimitWindow,
	}, clock)

	hub := notify.NewHub(cfg.Server.AllowedOrigins, logger)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)
	eventService := services.NewEventService(eventRepo, hub, logger)
	alertService := services.NewAlertService(alertRepo, hub, nil, logger)
	reputationService := services.NewReputationService(reputationRepo, eventService, alertService, logger)
	authService := services.NewAuthService(userRepo, lockout, tokenManager, eventService, auditLogger, logger)
	dashboardService := services.NewDashboardService(eventRepo, alertRepo, blocklist, cfg.Security.DashboardStatWindow, clock, logger)

	detector := security.NewDetector(eventRepo, alertService, blocklist, security.DetectorConfig{
		Window:        cfg.Security.DetectorWindow,
		Threshold:     cfg.Security.DetectorThreshold,
		BlockDuration: cfg.Security.DetectorBlockTime,
	}, clock, logger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, routes.Deps{
		AuthHandler:        handlers.NewAuthHandler(authService, ipConfig),
		EventHandler:       handlers.NewEventHandler(eventService, ipConfig),
		AlertHandler:       handlers.NewAlertHandler(alertService),
		ThreatIntelHandler: handlers.NewThreatIntelHandler(reputationService),
		DashboardHandler:   handlers.NewDashboardHandler(dashboardService),
		Hub:                hub,
		TokenManager:       tokenManager,
		UserRepo:           userRepo,
		Blocklist:          blocklist,
		GeneralLimiter:     generalLimiter,
		AuthLimiter:        authLimiter,
		Events:             eventService,
		IPConfig:           ipConfig,
	})

	server := httptest.NewServer(r)

	return &TestServer{
		Server:    server,
		DB:        db,
		Config:    cfg,
		Blocklist: blocklist,
		Detector:  detector,
		Hub:       hub,
		EventRepo: eventRepo,
		AlertRepo: alertRepo,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	if ts.Hub != nil {
		ts.Hub.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractTokensFromResponse extracts access/refresh tokens from auth response
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken string, err error) {
	defer resp.Body.Close()

	var authResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", "", err
	}

	if access, ok := authResp["access_token"].(string); ok {
		accessToken = access
	}
	if refresh, ok := authResp["refresh_token"].(string); ok {
		refreshToken = refresh
	}

	return
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
