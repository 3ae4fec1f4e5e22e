package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mtrenholm/argus/internal/auth"
	"github.com/mtrenholm/argus/internal/handlers"
	"github.com/mtrenholm/argus/internal/middleware"
	"github.com/mtrenholm/argus/internal/notify"
	"github.com/mtrenholm/argus/internal/security"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
)

// Deps carries everything the route table needs.
type Deps struct {
	AuthHandler        *handlers.AuthHandler
	EventHandler       *handlers.EventHandler
	AlertHandler       *handlers.AlertHandler
	ThreatIntelHandler *handlers.ThreatIntelHandler
	DashboardHandler   *handlers.DashboardHandler
	Hub                *notify.Hub

	TokenManager   *auth.TokenManager
	UserRepo       auth.UserRepository
	Blocklist      *security.Blocklist
	GeneralLimiter *security.RateLimiter
	AuthLimiter    *security.RateLimiter
	Events         middleware.EventSink
	IPConfig       *pkghttp.IPConfig
}

// RegisterRoutes registers all application routes. Every /api request runs
// the block check first and then the general limiter; auth endpoints get a
// second, stricter limiter on top.
func RegisterRoutes(router chi.Router, deps Deps) {
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.BlockByIP(deps.Blocklist, deps.IPConfig))
		r.Use(middleware.RateLimitByIP(deps.GeneralLimiter, deps.Events, deps.IPConfig))

		// Public auth endpoints, with the stricter auth limiter stacked on.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(deps.AuthLimiter, deps.Events, deps.IPConfig))
			r.Post("/auth/login", deps.AuthHandler.Login)
			r.Post("/auth/register", deps.AuthHandler.Register)
			r.Post("/auth/refresh", deps.AuthHandler.RefreshToken)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(deps.TokenManager))

			r.Get("/auth/profile", deps.AuthHandler.Profile)
			r.Post("/auth/change-password", deps.AuthHandler.ChangePassword)
			r.Post("/auth/logout", deps.AuthHandler.Logout)

			r.Get("/logs", deps.EventHandler.List)
			r.Post("/logs", deps.EventHandler.Create)
			r.Patch("/logs/{id}/status", deps.EventHandler.UpdateStatus)

			r.Get("/alerts", deps.AlertHandler.List)
			r.Post("/alerts", deps.AlertHandler.Create)
			r.Patch("/alerts/{id}/status", deps.AlertHandler.UpdateStatus)

			r.Get("/threat-intel/ip/{ip}", deps.ThreatIntelHandler.CheckIP)
			r.Get("/threat-intel/domain/{domain}", deps.ThreatIntelHandler.CheckDomain)
			r.Get("/threat-intel/ips", deps.ThreatIntelHandler.ListIPs)
			r.Get("/threat-intel/domains", deps.ThreatIntelHandler.ListDomains)

			// Curating the registry is admin-only.
			r.With(auth.RequireRole(deps.UserRepo, "admin")).
				Post("/threat-intel/entries", deps.ThreatIntelHandler.AddEntry)

			r.Get("/dashboard/stats", deps.DashboardHandler.Stats)
		})
	})

	// Live event and alert stream for the dashboard.
	router.Get("/ws", deps.Hub.ServeHTTP)
}
