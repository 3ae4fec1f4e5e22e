package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mtrenholm/argus/internal/services"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
)

// DashboardServiceInterface defines the interface for dashboard aggregates
type DashboardServiceInterface interface {
	Stats(ctx context.Context) (*services.DashboardStats, error)
}

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats returns aggregate counts over the trailing window
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}
