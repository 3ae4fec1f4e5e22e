package handlers

import (
	"context"

	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, email, password, sourceIP string) (*services.AuthResponse, error)
	RegisterFunc       func(ctx context.Context, email, password, name, sourceIP string) (*services.AuthResponse, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	ChangePasswordFunc func(ctx context.Context, userID, currentPassword, newPassword, sourceIP string) error
	LogoutFunc         func(ctx context.Context, userID, sourceIP string)
	GetProfileFunc     func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, sourceIP string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, sourceIP)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name, sourceIP string) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, name, sourceIP)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, sourceIP string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword, sourceIP)
	}
	return nil
}

func (m *MockAuthService) Logout(ctx context.Context, userID, sourceIP string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, userID, sourceIP)
	}
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

// MockEventService implements EventServiceInterface for testing
type MockEventService struct {
	RecordFunc       func(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	ListFunc         func(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error)
	UpdateStatusFunc func(ctx context.Context, id, status string) error
}

func (m *MockEventService) Record(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, event)
	}
	return event, nil
}

func (m *MockEventService) List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.SecurityEvent{}, nil
}

func (m *MockEventService) UpdateStatus(ctx context.Context, id, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockAlertService implements AlertServiceInterface for testing
type MockAlertService struct {
	CreateFunc       func(ctx context.Context, alert *models.Alert) (*models.Alert, error)
	ListFunc         func(ctx context.Context, limit, offset int) ([]*models.Alert, error)
	UpdateStatusFunc func(ctx context.Context, id, status string) error
}

func (m *MockAlertService) Create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, alert)
	}
	return alert, nil
}

func (m *MockAlertService) List(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Alert{}, nil
}

func (m *MockAlertService) UpdateStatus(ctx context.Context, id, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockReputationService implements ReputationServiceInterface for testing
type MockReputationService struct {
	CheckIPFunc     func(ctx context.Context, ip string) (*models.ReputationResult, error)
	CheckDomainFunc func(ctx context.Context, domain string) (*models.ReputationResult, error)
	AddFunc         func(ctx context.Context, kind, subject, reason string, riskScore int, source string) (*models.ReputationRecord, error)
	ListFunc        func(ctx context.Context, kind string) ([]*models.ReputationRecord, error)
}

func (m *MockReputationService) CheckIP(ctx context.Context, ip string) (*models.ReputationResult, error) {
	if m.CheckIPFunc != nil {
		return m.CheckIPFunc(ctx, ip)
	}
	return nil, models.ErrInternalServer
}

func (m *MockReputationService) CheckDomain(ctx context.Context, domain string) (*models.ReputationResult, error) {
	if m.CheckDomainFunc != nil {
		return m.CheckDomainFunc(ctx, domain)
	}
	return nil, models.ErrInternalServer
}

func (m *MockReputationService) Add(ctx context.Context, kind, subject, reason string, riskScore int, source string) (*models.ReputationRecord, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, kind, subject, reason, riskScore, source)
	}
	return nil, models.ErrInternalServer
}

func (m *MockReputationService) List(ctx context.Context, kind string) ([]*models.ReputationRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, kind)
	}
	return []*models.ReputationRecord{}, nil
}
