package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtrenholm/argus/internal/auth"
	"github.com/mtrenholm/argus/internal/background"
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

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Apply migrations
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 1*time.Minute)
	if err := database.Migrate(migrateCtx, cfg.Database.DSN()); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	reputationRepo := repositories.NewReputationRepository(db)

	// Security primitives share one wall clock
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

	// Websocket hub
	hub := notify.NewHub(cfg.Server.AllowedOrigins, logger)

	// Email notifications for critical alerts
	var notifier services.AlertNotifier
	if cfg.Email.Enabled {
		emailService, err := services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.ToAddresses,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = emailService
	}

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	// Initialize services
	auditLogger := pkglogger.NewAuditLogger(logger)
	eventService := services.NewEventService(eventRepo, hub, logger)
	alertService := services.NewAlertService(alertRepo, hub, notifier, logger)
	reputationService := services.NewReputationService(reputationRepo, eventService, alertService, logger)
	authService := services.NewAuthService(userRepo, lockout, tokenManager, eventService, auditLogger, logger)
	dashboardService := services.NewDashboardService(eventRepo, alertRepo, blocklist, cfg.Security.DashboardStatWindow, clock, logger)

	// Seed baseline threat intelligence entries
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := reputationService.Seed(seedCtx); err != nil {
		logger.Warn("failed to seed threat intelligence", slog.Any("error", err))
	}
	seedCancel()

	// Brute-force detector and background scheduler
	detector := security.NewDetector(eventRepo, alertService, blocklist, security.DetectorConfig{
		Window:        cfg.Security.DetectorWindow,
		Threshold:     cfg.Security.DetectorThreshold,
		BlockDuration: cfg.Security.DetectorBlockTime,
	}, clock, logger)

	scheduler := background.NewScheduler(
		detector,
		[]*security.RateLimiter{generalLimiter, authLimiter},
		eventRepo,
		clock,
		background.SchedulerConfig{
			DetectorInterval:  cfg.Security.DetectorInterval,
			RetentionInterval: cfg.Security.RetentionInterval,
			RetentionMaxAge:   cfg.Security.RetentionMaxAge,
		},
		logger,
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	eventHandler := handlers.NewEventHandler(eventService, ipConfig)
	alertHandler := handlers.NewAlertHandler(alertService)
	threatIntelHandler := handlers.NewThreatIntelHandler(reputationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Deps{
		AuthHandler:        authHandler,
		EventHandler:       eventHandler,
		AlertHandler:       alertHandler,
		ThreatIntelHandler: threatIntelHandler,
		DashboardHandler:   dashboardHandler,
		Hub:                hub,
		TokenManager:       tokenManager,
		UserRepo:           userRepo,
		Blocklist:          blocklist,
		GeneralLimiter:     generalLimiter,
		AuthLimiter:        authLimiter,
		Events:             eventService,
		IPConfig:           ipConfig,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start background jobs
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()

	go scheduler.Start(schedulerCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	schedulerCancel()
	scheduler.Stop()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
