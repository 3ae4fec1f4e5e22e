package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrenholm/argus/internal/models"
)

func threatIntelRouter(handler *ThreatIntelHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/threat-intel/ip/{ip}", handler.CheckIP)
	r.Get("/api/threat-intel/domain/{domain}", handler.CheckDomain)
	r.Post("/api/threat-intel/entries", handler.AddEntry)
	r.Get("/api/threat-intel/ips", handler.ListIPs)
	r.Get("/api/threat-intel/domains", handler.ListDomains)
	return r
}

func TestCheckIPHandlerMatch(t *testing.T) {
	svc := &MockReputationService{
		CheckIPFunc: func(ctx context.Context, ip string) (*models.ReputationResult, error) {
			assert.Equal(t, "192.168.100.50", ip)
			return &models.ReputationResult{
				Subject:   ip,
				Kind:      models.ReputationKindIP,
				Malicious: true,
				RiskScore: 85,
				Reason:    "Known malicious activity",
			}, nil
		},
	}
	router := threatIntelRouter(NewThreatIntelHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/threat-intel/ip/192.168.100.50", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.ReputationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Malicious)
	assert.Equal(t, 85, result.RiskScore)
}

func TestCheckIPHandlerInvalidInput(t *testing.T) {
	svc := &MockReputationService{
		CheckIPFunc: func(ctx context.Context, ip string) (*models.ReputationResult, error) {
			return nil, models.ErrValidation
		},
	}
	router := threatIntelRouter(NewThreatIntelHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/threat-intel/ip/not-an-ip", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckDomainHandlerClean(t *testing.T) {
	svc := &MockReputationService{
		CheckDomainFunc: func(ctx context.Context, domain string) (*models.ReputationResult, error) {
			return &models.ReputationResult{
				Subject:   domain,
				Kind:      models.ReputationKindDomain,
				Malicious: false,
				RiskScore: 12,
				Reason:    "No threats detected",
			}, nil
		},
	}
	router := threatIntelRouter(NewThreatIntelHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/threat-intel/domain/example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.ReputationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Malicious)
	assert.Less(t, result.RiskScore, 30)
}

func TestAddEntryHandler(t *testing.T) {
	svc := &MockReputationService{
		AddFunc: func(ctx context.Context, kind, subject, reason string, riskScore int, source string) (*models.ReputationRecord, error) {
			assert.Equal(t, "Manual Entry", source)
			return &models.ReputationRecord{
				ID: "rec-1", Subject: subject, Kind: kind, Reason: reason, RiskScore: riskScore, Source: source,
			}, nil
		},
	}
	router := threatIntelRouter(NewThreatIntelHandler(svc))

	body := `{"kind":"ip","subject":"198.51.100.77","reason":"Repeated scans","risk_score":65}`
	req := httptest.NewRequest(http.MethodPost, "/api/threat-intel/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddEntryHandlerValidation(t *testing.T) {
	router := threatIntelRouter(NewThreatIntelHandler(&MockReputationService{}))

	for _, body := range []string{
		`{"kind":"url","subject":"x","reason":"y","risk_score":10}`,
		`{"kind":"ip","subject":"1.2.3.4","reason":"y","risk_score":101}`,
		`{"kind":"ip","subject":"1.2.3.4","risk_score":10}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/threat-intel/entries", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestAddEntryHandlerConflict(t *testing.T) {
	svc := &MockReputationService{
		AddFunc: func(ctx context.Context, kind, subject, reason string, riskScore int, source string) (*models.ReputationRecord, error) {
			return nil, models.ErrConflict
		},
	}
	router := threatIntelRouter(NewThreatIntelHandler(svc))

	body := `{"kind":"ip","subject":"192.168.100.50","reason":"dup","risk_score":65}`
	req := httptest.NewRequest(http.MethodPost, "/api/threat-intel/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListEntriesHandler(t *testing.T) {
	svc := &MockReputationService{
		ListFunc: func(ctx context.Context, kind string) ([]*models.ReputationRecord, error) {
			return []*models.ReputationRecord{{ID: "rec-1", Kind: kind}}, nil
		},
	}
	router := threatIntelRouter(NewThreatIntelHandler(svc))

	for _, path := range []string{"/api/threat-intel/ips", "/api/threat-intel/domains"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
