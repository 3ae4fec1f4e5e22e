package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mtrenholm/argus/internal/models"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
)

// AlertServiceInterface defines the interface for the alert surface
type AlertServiceInterface interface {
	Create(ctx context.Context, alert *models.Alert) (*models.Alert, error)
	List(ctx context.Context, limit, offset int) ([]*models.Alert, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// AlertHandler handles alert HTTP requests
type AlertHandler struct {
	service AlertServiceInterface
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(service AlertServiceInterface) *AlertHandler {
	return &AlertHandler{service: service}
}

// CreateAlertRequest represents the request body for manually raising an alert
type CreateAlertRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=256"`
	Description string `json:"description" validate:"max=2048"`
	Type        string `json:"type" validate:"required,oneof=intrusion malware phishing unauthorized-access dos"`
	Severity    string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}

// UpdateAlertStatusRequest represents the request body for status transitions
type UpdateAlertStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new acknowledged resolved"`
}

// List returns recent alerts, newest first
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	offset := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			pkghttp.WriteBadRequest(w, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			pkghttp.WriteBadRequest(w, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	alerts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(alerts)
}

// Create raises an operator-submitted alert
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), &models.Alert{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Severity:    req.Severity,
		Source:      "Manual Entry",
	})
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// UpdateStatus transitions an alert between new, acknowledged and resolved
func (h *AlertHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "alert id is required")
		return
	}

	var req UpdateAlertStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Alert not found")
		case errors.Is(err, models.ErrValidation):
			pkghttp.WriteBadRequest(w, "Invalid status")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
