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

// EventServiceInterface defines the interface for the event log surface
type EventServiceInterface interface {
	Record(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// EventHandler handles security event HTTP requests
type EventHandler struct {
	service  EventServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(service EventServiceInterface, ipConfig *pkghttp.IPConfig) *EventHandler {
	return &EventHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// CreateEventRequest represents the request body for manually recording an event
type CreateEventRequest struct {
	SourceIP      string `json:"source_ip" validate:"required,ip"`
	DestinationIP string `json:"destination_ip" validate:"required"`
	Severity      string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Message       string `json:"message" validate:"required,min=1,max=1024"`
}

// UpdateEventStatusRequest represents the request body for status transitions
type UpdateEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active resolved ignored"`
}

// List returns events matching the query filters, newest first
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.EventFilter{
		Severity: r.URL.Query().Get("severity"),
		Status:   r.URL.Query().Get("status"),
		SourceIP: r.URL.Query().Get("source_ip"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			pkghttp.WriteBadRequest(w, "limit must be an integer between 1 and 1000")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			pkghttp.WriteBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	events, err := h.service.List(r.Context(), filter)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(events)
}

// Create records an operator-submitted security event
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	event, err := h.service.Record(r.Context(), &models.SecurityEvent{
		SourceIP:      req.SourceIP,
		DestinationIP: req.DestinationIP,
		Severity:      req.Severity,
		Message:       req.Message,
		DetectedBy:    "Manual Entry",
	})
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

// UpdateStatus transitions an event between active, resolved and ignored
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "event id is required")
		return
	}

	var req UpdateEventStatusRequest
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
			pkghttp.WriteNotFound(w, "Event not found")
		case errors.Is(err, models.ErrValidation):
			pkghttp.WriteBadRequest(w, "Invalid status")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
