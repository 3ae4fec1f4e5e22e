package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtrenholm/argus/internal/auth"
	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/security"
	pkgauth "github.com/mtrenholm/argus/pkg/auth"
	pkglogger "github.com/mtrenholm/argus/pkg/logger"
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// AuthService handles authentication business logic. Every attempt runs
// through the lockout state machine and lands in the security event log;
// those events are the brute-force detector's evidence stream.
type AuthService struct {
	repo        UserRepository
	lockout     *security.Lockout
	tm          *auth.TokenManager
	events      EventRecorder
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, lockout *security.Lockout, tm *auth.TokenManager, events EventRecorder, auditLogger *pkglogger.AuditLogger, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:        repo,
		lockout:     lockout,
		tm:          tm,
		events:      events,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Login authenticates a user and returns tokens.
//
// Order matters: the lock check runs before the password compare, and a
// locked attempt is rejected without touching the failure counter — a
// locked account is not penalized further — but it is still logged as a
// security event.
func (s *AuthService) Login(ctx context.Context, email, password, sourceIP string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: unknown user", slog.String("email", pkglogger.SanitizedEmail(email)))
			s.events.RecordBestEffort(ctx, &models.SecurityEvent{
				SourceIP:      sourceIP,
				DestinationIP: "system",
				Severity:      models.SeverityMedium,
				Message:       fmt.Sprintf("Failed login attempt: user not found (%s)", email),
				DetectedBy:    "AuthSystem",
			})
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     sourceIP,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.lockout.Check(ctx, user.ID); err != nil {
		var lockedErr *models.LockedError
		if errors.As(err, &lockedErr) {
			s.events.RecordBestEffort(ctx, &models.SecurityEvent{
				SourceIP:      sourceIP,
				DestinationIP: "system",
				Severity:      models.SeverityHigh,
				Message:       fmt.Sprintf("Login attempt on locked account: %s", email),
				DetectedBy:    "AuthSystem",
			})
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				UserID:        user.ID,
				IPAddress:     sourceIP,
				FailureReason: "account_locked",
				Success:       false,
			})
			return nil, lockedErr
		}
		s.logger.Error("failed to check lockout state", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		locked, lockErr := s.lockout.RecordFailure(ctx, user.ID)
		if lockErr != nil {
			s.logger.Error("failed to record auth failure", slog.String("user_id", user.ID), slog.Any("error", lockErr))
		}

		s.events.RecordBestEffort(ctx, &models.SecurityEvent{
			SourceIP:      sourceIP,
			DestinationIP: "system",
			Severity:      models.SeverityMedium,
			Message:       fmt.Sprintf("Failed login attempt: incorrect password (%s)", email),
			DetectedBy:    "AuthSystem",
		})
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     sourceIP,
			FailureReason: "invalid_credentials",
			Success:       false,
		})

		if locked {
			// This attempt tripped the threshold; report the fresh lock.
			if checkErr := s.lockout.Check(ctx, user.ID); checkErr != nil {
				var lockedErr *models.LockedError
				if errors.As(checkErr, &lockedErr) {
					return nil, lockedErr
				}
			}
		}
		return nil, models.ErrUnauthorized
	}

	if err := s.lockout.RecordSuccess(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset lockout state", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.events.RecordBestEffort(ctx, &models.SecurityEvent{
		SourceIP:      sourceIP,
		DestinationIP: "system",
		Severity:      models.SeverityLow,
		Message:       fmt.Sprintf("Successful login: %s (%s)", user.Email, user.ID),
		DetectedBy:    "AuthSystem",
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: sourceIP,
		Success:   true,
	})

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, password, name, sourceIP string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, err.Error())
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	s.events.RecordBestEffort(ctx, &models.SecurityEvent{
		SourceIP:      sourceIP,
		DestinationIP: "system",
		Severity:      models.SeverityLow,
		Message:       fmt.Sprintf("New user registered: %s (%s)", user.Email, user.ID),
		DetectedBy:    "AuthSystem",
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register_success",
		UserID:    user.ID,
		IPAddress: sourceIP,
		Success:   true,
	})

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// RefreshToken generates a new token pair from a refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*AuthResponse, error) {
	if refreshTokenString = strings.TrimSpace(refreshTokenString); refreshTokenString == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshTokenString)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	if claims.Type != "refresh" {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, sourceIP string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.events.RecordBestEffort(ctx, &models.SecurityEvent{
			SourceIP:      sourceIP,
			DestinationIP: "system",
			Severity:      models.SeverityMedium,
			Message:       fmt.Sprintf("Failed password change attempt: incorrect current password (%s)", user.Email),
			DetectedBy:    "AuthSystem",
		})
		s.auditLogger.LogPasswordChange(user.ID, sourceIP, false)
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, err.Error())
	}

	hashedPassword, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return models.ErrInternalServer
	}

	s.events.RecordBestEffort(ctx, &models.SecurityEvent{
		SourceIP:      sourceIP,
		DestinationIP: "system",
		Severity:      models.SeverityMedium,
		Message:       fmt.Sprintf("Password changed successfully for user: %s", user.Email),
		DetectedBy:    "AuthSystem",
	})
	s.auditLogger.LogPasswordChange(user.ID, sourceIP, true)
	return nil
}

// Logout records the logout. Tokens are stateless; the client discards them.
func (s *AuthService) Logout(ctx context.Context, userID, sourceIP string) {
	s.events.RecordBestEffort(ctx, &models.SecurityEvent{
		SourceIP:      sourceIP,
		DestinationIP: "system",
		Severity:      models.SeverityLow,
		Message:       "User logged out",
		DetectedBy:    "AuthSystem",
	})
	s.auditLogger.LogAccountAction("logout", userID, sourceIP, nil)
}

// GetProfile returns the authenticated user's profile.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrInternalServer
	}
	return userModelToResponse(user), nil
}

// AccountStatus reports lockout state for an account, for the dashboard.
func (s *AuthService) AccountStatus(ctx context.Context, userID string) (locked bool, remainingMinutes int, err error) {
	return s.lockout.Status(ctx, userID)
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
