package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mtrenholm/argus/internal/models"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
)

// ReputationServiceInterface defines the interface for the reputation registry
type ReputationServiceInterface interface {
	CheckIP(ctx context.Context, ip string) (*models.ReputationResult, error)
	CheckDomain(ctx context.Context, domain string) (*models.ReputationResult, error)
	Add(ctx context.Context, kind, subject, reason string, riskScore int, source string) (*models.ReputationRecord, error)
	List(ctx context.Context, kind string) ([]*models.ReputationRecord, error)
}

// ThreatIntelHandler handles reputation registry HTTP requests
type ThreatIntelHandler struct {
	service ReputationServiceInterface
}

// NewThreatIntelHandler creates a new ThreatIntelHandler
func NewThreatIntelHandler(service ReputationServiceInterface) *ThreatIntelHandler {
	return &ThreatIntelHandler{service: service}
}

// AddEntryRequest represents the request body for adding a registry entry
type AddEntryRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=ip domain"`
	Subject   string `json:"subject" validate:"required"`
	Reason    string `json:"reason" validate:"required,min=1,max=512"`
	RiskScore int    `json:"risk_score" validate:"gte=0,lte=100"`
}

// CheckIP looks an IP up in the registry
func (h *ThreatIntelHandler) CheckIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	result, err := h.service.CheckIP(r.Context(), ip)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			pkghttp.WriteBadRequest(w, "Invalid IP address")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// CheckDomain looks a domain up in the registry
func (h *ThreatIntelHandler) CheckDomain(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	result, err := h.service.CheckDomain(r.Context(), domain)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			pkghttp.WriteBadRequest(w, "Invalid domain name")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// AddEntry inserts a new registry entry
func (h *ThreatIntelHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	rec, err := h.service.Add(r.Context(), req.Kind, req.Subject, req.Reason, req.RiskScore, "Manual Entry")
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An entry for this subject already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

// ListIPs returns all suspicious IP entries, most recently seen first
func (h *ThreatIntelHandler) ListIPs(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ReputationKindIP)
}

// ListDomains returns all suspicious domain entries, most recently seen first
func (h *ThreatIntelHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ReputationKindDomain)
}

func (h *ThreatIntelHandler) list(w http.ResponseWriter, r *http.Request, kind string) {
	records, err := h.service.List(r.Context(), kind)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(records)
}
