package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mtrenholm/argus/internal/models"
	pkglogger "github.com/mtrenholm/argus/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

// MockLockStore implements security.LockStore in memory for testing
type MockLockStore struct {
	mu       sync.Mutex
	failures map[string]int
	locks    map[string]*time.Time
}

func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		failures: make(map[string]int),
		locks:    make(map[string]*time.Time),
	}
}

func (m *MockLockStore) RecordFailure(ctx context.Context, accountID string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[accountID]++
	if m.failures[accountID] >= threshold {
		until := lockUntil
		m.locks[accountID] = &until
	}
	return m.failures[accountID], m.locks[accountID], nil
}

func (m *MockLockStore) ResetLock(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[accountID] = 0
	m.locks[accountID] = nil
	return nil
}

func (m *MockLockStore) LockState(ctx context.Context, accountID string) (int, *time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[accountID], m.locks[accountID], nil
}

// MockEventRepository implements EventRepository and EventStatsSource for testing
type MockEventRepository struct {
	AppendFunc          func(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	ListFunc            func(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error)
	UpdateStatusFunc    func(ctx context.Context, id, status string) error
	CountBySeverityFunc func(ctx context.Context, since time.Time) ([]models.SeverityCount, error)
}

func (m *MockEventRepository) Append(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, event)
	}
	return event, nil
}

func (m *MockEventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.SecurityEvent{}, nil
}

func (m *MockEventRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockEventRepository) CountBySeverity(ctx context.Context, since time.Time) ([]models.SeverityCount, error) {
	if m.CountBySeverityFunc != nil {
		return m.CountBySeverityFunc(ctx, since)
	}
	return []models.SeverityCount{}, nil
}

// MockAlertRepository implements AlertRepository and AlertStatsSource for testing
type MockAlertRepository struct {
	CreateFunc       func(ctx context.Context, alert *models.Alert) (*models.Alert, error)
	ListFunc         func(ctx context.Context, limit, offset int) ([]*models.Alert, error)
	UpdateStatusFunc func(ctx context.Context, id, status string) error
	CountByTypeFunc  func(ctx context.Context, since time.Time) ([]models.TypeCount, error)
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, alert)
	}
	return alert, nil
}

func (m *MockAlertRepository) List(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Alert{}, nil
}

func (m *MockAlertRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockAlertRepository) CountByType(ctx context.Context, since time.Time) ([]models.TypeCount, error) {
	if m.CountByTypeFunc != nil {
		return m.CountByTypeFunc(ctx, since)
	}
	return []models.TypeCount{}, nil
}

// MockReputationRepository implements ReputationRepository for testing
type MockReputationRepository struct {
	GetBySubjectFunc  func(ctx context.Context, kind, subject string) (*models.ReputationRecord, error)
	InsertFunc        func(ctx context.Context, rec *models.ReputationRecord) (*models.ReputationRecord, error)
	TouchLastSeenFunc func(ctx context.Context, kind, subject string) error
	ListByKindFunc    func(ctx context.Context, kind string) ([]*models.ReputationRecord, error)
	CountFunc         func(ctx context.Context, kind string) (int, error)
}

func (m *MockReputationRepository) GetBySubject(ctx context.Context, kind, subject string) (*models.ReputationRecord, error) {
	if m.GetBySubjectFunc != nil {
		return m.GetBySubjectFunc(ctx, kind, subject)
	}
	return nil, models.ErrNotFound
}

func (m *MockReputationRepository) Insert(ctx context.Context, rec *models.ReputationRecord) (*models.ReputationRecord, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, rec)
	}
	return rec, nil
}

func (m *MockReputationRepository) TouchLastSeen(ctx context.Context, kind, subject string) error {
	if m.TouchLastSeenFunc != nil {
		return m.TouchLastSeenFunc(ctx, kind, subject)
	}
	return nil
}

func (m *MockReputationRepository) ListByKind(ctx context.Context, kind string) ([]*models.ReputationRecord, error) {
	if m.ListByKindFunc != nil {
		return m.ListByKindFunc(ctx, kind)
	}
	return []*models.ReputationRecord{}, nil
}

func (m *MockReputationRepository) Count(ctx context.Context, kind string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, kind)
	}
	return 0, nil
}

// RecordingEventSink captures every event handed to RecordBestEffort
type RecordingEventSink struct {
	mu     sync.Mutex
	Events []*models.SecurityEvent
}

func (r *RecordingEventSink) RecordBestEffort(ctx context.Context, event *models.SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

func (r *RecordingEventSink) Recorded() []*models.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SecurityEvent, len(r.Events))
	copy(out, r.Events)
	return out
}

// RecordingAlertSink captures every alert handed to RaiseAlert
type RecordingAlertSink struct {
	mu       sync.Mutex
	Alerts   []*models.Alert
	RaiseErr error
}

func (r *RecordingAlertSink) RaiseAlert(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RaiseErr != nil {
		return r.RaiseErr
	}
	r.Alerts = append(r.Alerts, alert)
	return nil
}

// RecordingBroadcaster captures broadcast fan-out for events and alerts
type RecordingBroadcaster struct {
	mu     sync.Mutex
	Events []*models.SecurityEvent
	Alerts []*models.Alert
}

func (r *RecordingBroadcaster) BroadcastEvent(event *models.SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

func (r *RecordingBroadcaster) BroadcastAlert(alert *models.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, alert)
}

// MockAlertNotifier implements AlertNotifier for testing
type MockAlertNotifier struct {
	mu         sync.Mutex
	Notified   []*models.Alert
	NotifyFunc func(ctx context.Context, alert *models.Alert) error
}

func (m *MockAlertNotifier) NotifyAlert(ctx context.Context, alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, alert)
	}
	m.Notified = append(m.Notified, alert)
	return nil
}
