package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"

	"github.com/go-playground/validator/v10"
	"github.com/mtrenholm/argus/internal/models"
)

// cleanRiskCeiling bounds the synthetic risk score returned for subjects
// with no registry entry; anything at or above it means a stored match.
const cleanRiskCeiling = 30

// ReputationRepository defines the interface for reputation registry storage
type ReputationRepository interface {
	GetBySubject(ctx context.Context, kind, subject string) (*models.ReputationRecord, error)
	Insert(ctx context.Context, rec *models.ReputationRecord) (*models.ReputationRecord, error)
	TouchLastSeen(ctx context.Context, kind, subject string) error
	ListByKind(ctx context.Context, kind string) ([]*models.ReputationRecord, error)
	Count(ctx context.Context, kind string) (int, error)
}

// EventRecorder is the slice of the event surface the registry needs:
// every check outcome is logged as a security event, best effort.
type EventRecorder interface {
	RecordBestEffort(ctx context.Context, event *models.SecurityEvent)
}

// AlertRaiser raises an alert for positive matches.
type AlertRaiser interface {
	RaiseAlert(ctx context.Context, alert *models.Alert) error
}

// ReputationService is the threat intelligence registry: a curated list of
// suspicious IPs and domains consulted on demand.
type ReputationService struct {
	repo     ReputationRepository
	events   EventRecorder
	alerts   AlertRaiser
	validate *validator.Validate
	logger   *slog.Logger
}

// NewReputationService creates a new ReputationService
func NewReputationService(repo ReputationRepository, events EventRecorder, alerts AlertRaiser, logger *slog.Logger) *ReputationService {
	return &ReputationService{
		repo:     repo,
		events:   events,
		alerts:   alerts,
		validate: validator.New(),
		logger:   logger,
	}
}

// CheckIP looks up an IP against the registry. A match advances last_seen,
// raises a medium alert and logs a medium event; a miss logs a low "clean"
// event and returns a synthetic low risk score. Input is validated before
// any state is touched.
func (s *ReputationService) CheckIP(ctx context.Context, ip string) (*models.ReputationResult, error) {
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("invalid IP address %q: %w", ip, models.ErrValidation)
	}
	return s.check(ctx, models.ReputationKindIP, ip)
}

// CheckDomain looks up a domain against the registry.
func (s *ReputationService) CheckDomain(ctx context.Context, domain string) (*models.ReputationResult, error) {
	if err := s.validate.Var(domain, "required,fqdn"); err != nil {
		return nil, fmt.Errorf("invalid domain %q: %w", domain, models.ErrValidation)
	}
	return s.check(ctx, models.ReputationKindDomain, domain)
}

func (s *ReputationService) check(ctx context.Context, kind, subject string) (*models.ReputationResult, error) {
	rec, err := s.repo.GetBySubject(ctx, kind, subject)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if rec == nil {
		result := &models.ReputationResult{
			Subject:   subject,
			Kind:      kind,
			Malicious: false,
			RiskScore: rand.IntN(cleanRiskCeiling),
			Reason:    "No threats detected",
		}
		s.events.RecordBestEffort(ctx, s.checkEvent(kind, subject, false))
		return result, nil
	}

	// last_seen advances on every positive match; a failed touch does not
	// invert the verdict.
	if err := s.repo.TouchLastSeen(ctx, kind, subject); err != nil {
		s.logger.Error("failed to advance last_seen",
			slog.String("subject", subject),
			slog.Any("error", err))
	}

	s.events.RecordBestEffort(ctx, s.checkEvent(kind, subject, true))

	alert := s.matchAlert(kind, subject, rec.RiskScore)
	if err := s.alerts.RaiseAlert(ctx, alert); err != nil {
		s.logger.Error("failed to raise reputation alert",
			slog.String("subject", subject),
			slog.Any("error", err))
	}

	return &models.ReputationResult{
		Subject:   subject,
		Kind:      kind,
		Malicious: true,
		RiskScore: rec.RiskScore,
		Reason:    rec.Reason,
	}, nil
}

func (s *ReputationService) checkEvent(kind, subject string, malicious bool) *models.SecurityEvent {
	severity := models.SeverityLow
	verdict := "appears clean"
	if malicious {
		severity = models.SeverityMedium
		verdict = "found suspicious"
	}

	event := &models.SecurityEvent{
		Severity:   severity,
		DetectedBy: "ThreatIntelligence",
	}
	if kind == models.ReputationKindIP {
		event.SourceIP = subject
		event.DestinationIP = "system"
		event.Message = fmt.Sprintf("IP reputation check: %s %s", subject, verdict)
	} else {
		event.SourceIP = "system"
		event.DestinationIP = subject
		event.Message = fmt.Sprintf("Domain reputation check: %s %s", subject, verdict)
	}
	return event
}

func (s *ReputationService) matchAlert(kind, subject string, riskScore int) *models.Alert {
	if kind == models.ReputationKindIP {
		return &models.Alert{
			Title:       "Suspicious IP Detected",
			Description: fmt.Sprintf("IP %s matches patterns associated with suspicious activity (Risk Score: %d)", subject, riskScore),
			Type:        models.AlertTypeIntrusion,
			Severity:    models.SeverityMedium,
			Source:      "ThreatIntelligence",
		}
	}
	return &models.Alert{
		Title:       "Suspicious Domain Detected",
		Description: fmt.Sprintf("Domain %s is identified as potentially malicious (Risk Score: %d)", subject, riskScore),
		Type:        models.AlertTypeMalware,
		Severity:    models.SeverityMedium,
		Source:      "ThreatIntelligence",
	}
}

// Add inserts a new registry entry. A duplicate subject fails with
// ErrConflict; the unique constraint is the source of truth.
func (s *ReputationService) Add(ctx context.Context, kind, subject, reason string, riskScore int, source string) (*models.ReputationRecord, error) {
	switch kind {
	case models.ReputationKindIP:
		if net.ParseIP(subject) == nil {
			return nil, fmt.Errorf("invalid IP address %q: %w", subject, models.ErrValidation)
		}
	case models.ReputationKindDomain:
		if err := s.validate.Var(subject, "required,fqdn"); err != nil {
			return nil, fmt.Errorf("invalid domain %q: %w", subject, models.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("unknown reputation kind %q: %w", kind, models.ErrValidation)
	}

	if riskScore < 0 || riskScore > 100 {
		return nil, fmt.Errorf("risk score must be between 0 and 100: %w", models.ErrValidation)
	}
	if reason == "" {
		return nil, fmt.Errorf("reason is required: %w", models.ErrValidation)
	}

	return s.repo.Insert(ctx, &models.ReputationRecord{
		Subject:   subject,
		Kind:      kind,
		Reason:    reason,
		RiskScore: riskScore,
		Source:    source,
	})
}

// List returns all records of one kind, most recently seen first.
func (s *ReputationService) List(ctx context.Context, kind string) ([]*models.ReputationRecord, error) {
	return s.repo.ListByKind(ctx, kind)
}

// Seed populates an empty registry with a small fixed set of example
// entries. Idempotent: a non-empty registry is left untouched.
func (s *ReputationService) Seed(ctx context.Context) error {
	seedIPs := []*models.ReputationRecord{
		{Subject: "192.168.100.50", Kind: models.ReputationKindIP, Reason: "Known malicious activity", RiskScore: 85, Source: "System Initialization"},
		{Subject: "10.0.0.99", Kind: models.ReputationKindIP, Reason: "Port scanning activity", RiskScore: 75, Source: "System Initialization"},
		{Subject: "172.16.0.200", Kind: models.ReputationKindIP, Reason: "Brute force attempts", RiskScore: 80, Source: "System Initialization"},
	}
	seedDomains := []*models.ReputationRecord{
		{Subject: "evil-domain.com", Kind: models.ReputationKindDomain, Reason: "Known phishing site", RiskScore: 90, Source: "System Initialization"},
		{Subject: "malware-site.org", Kind: models.ReputationKindDomain, Reason: "Malware distribution", RiskScore: 95, Source: "System Initialization"},
		{Subject: "phishing-example.net", Kind: models.ReputationKindDomain, Reason: "Credential harvesting", RiskScore: 85, Source: "System Initialization"},
	}

	if err := s.seedKind(ctx, models.ReputationKindIP, seedIPs); err != nil {
		return err
	}
	return s.seedKind(ctx, models.ReputationKindDomain, seedDomains)
}

func (s *ReputationService) seedKind(ctx context.Context, kind string, records []*models.ReputationRecord) error {
	count, err := s.repo.Count(ctx, kind)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	s.logger.Info("seeding reputation registry", slog.String("kind", kind), slog.Int("entries", len(records)))
	for _, rec := range records {
		if _, err := s.repo.Insert(ctx, rec); err != nil {
			// A concurrent seeder may have won the race for this subject.
			if errors.Is(err, models.ErrConflict) {
				continue
			}
			return err
		}
	}
	return nil
}
