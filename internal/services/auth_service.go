package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/security"
	pkgauth "github.com/sentinelhq/sentinel/pkg/auth"
	pkglogger "github.com/sentinelhq/sentinel/pkg/logger"
)

// UserRepository defines the persistence operations the auth flows need
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, email string, user *models.User) (*models.User, error)
	Delete(ctx context.Context, email string) error
	IncrementLoginAttempts(ctx context.Context, email string) (int, error)
}

// AuthService orchestrates registration, verification, login with
// lockout, and the password reset/change flows.
type AuthService struct {
	repo             UserRepository
	tm               *auth.TokenManager
	email            EmailService
	events           *security.EventLog
	logger           *slog.Logger
	lockoutThreshold int
	verifyExpiry     time.Duration
	resetExpiry      time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, email EmailService, events *security.EventLog, logger *slog.Logger, lockoutThreshold int, verifyExpiry, resetExpiry time.Duration) *AuthService {
	return &AuthService{
		repo:             repo,
		tm:               tm,
		email:            email,
		events:           events,
		logger:           logger,
		lockoutThreshold: lockoutThreshold,
		verifyExpiry:     verifyExpiry,
		resetExpiry:      resetExpiry,
	}
}

// UserResponse is the outward projection of a user. It never carries
// credential material.
type UserResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Verified  bool   `json:"verified"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LoginResponse is the response from a successful login
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	User        *UserResponse `json:"user"`
}

func toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		Email:     user.Email,
		Name:      user.Name,
		Verified:  user.Verified,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and sends a verification link.
// Callers must not surface ErrAlreadyExists to clients in a way that
// confirms the address is taken.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*UserResponse, error) {
	email = normalizeEmail(email)

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.logger.Info("registration for existing email", slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, err
	}

	hashed, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := pkgauth.GenerateSecureToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	expiry := time.Now().Add(s.verifyExpiry)

	user := &models.User{
		Email:                   email,
		HashedPassword:          hashed,
		Name:                    name,
		Role:                    models.RoleUser,
		VerificationToken:       token,
		VerificationTokenExpiry: &expiry,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return nil, models.ErrAlreadyExists
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, err
	}

	if err := s.email.SendVerificationEmail(ctx, email, token, expiry); err != nil {
		// The account exists; the user can request another link.
		s.logger.Error("failed to send verification email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	s.logger.Info("user registered", slog.String("email", pkglogger.SanitizedEmail(email)))
	return toUserResponse(created), nil
}

// VerifyEmail consumes a verification link. A token that was already
// consumed fails: success clears the stored token, so a replay cannot
// match.
func (s *AuthService) VerifyEmail(ctx context.Context, token, email string) error {
	email = normalizeEmail(email)
	if token == "" || email == "" {
		return models.ErrInvalidLink
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidLink
		}
		s.logger.Error("failed to get user for verification", slog.Any("error", err))
		return err
	}

	if user.VerificationToken == "" || user.VerificationToken != token {
		return models.ErrInvalidLink
	}
	if user.VerificationTokenExpiry == nil || time.Now().After(*user.VerificationTokenExpiry) {
		return models.ErrInvalidLink
	}

	user.Verified = true
	user.VerificationToken = ""
	user.VerificationTokenExpiry = nil

	if _, err := s.repo.Update(ctx, email, user); err != nil {
		s.logger.Error("failed to mark user verified", slog.Any("error", err))
		return err
	}

	s.logger.Info("email verified", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// Login authenticates a user and returns a short-lived bearer token.
// Unknown accounts and wrong passwords fail identically so responses
// cannot be used to enumerate addresses.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP, userAgent string) (*LoginResponse, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user for login", slog.Any("error", err))
		return nil, err
	}

	// Lockout applies before the password is ever checked.
	if user.Locked || user.LoginAttempts >= s.lockoutThreshold {
		s.logger.Warn("login attempt on locked account", slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrAccountLocked
	}

	if !user.IsIPAllowed(clientIP) {
		s.events.UnauthorizedAccess(security.RequestInfo{
			IP:        clientIP,
			UserAgent: userAgent,
			UserID:    email,
		}, "login:ip_not_allowed")
		return nil, models.ErrInvalidCredentials
	}

	if err := pkgauth.ComparePassword(user.HashedPassword, password); err != nil {
		attempts, incErr := s.repo.IncrementLoginAttempts(ctx, email)
		if incErr != nil {
			s.logger.Error("failed to increment login attempts", slog.Any("error", incErr))
			return nil, incErr
		}

		if attempts >= s.lockoutThreshold && !user.Locked {
			user.LoginAttempts = attempts
			user.Locked = true
			if _, lockErr := s.repo.Update(ctx, email, user); lockErr != nil {
				s.logger.Error("failed to lock account", slog.Any("error", lockErr))
			}
			s.events.AccountLockout(security.RequestInfo{
				IP:        clientIP,
				UserAgent: userAgent,
				UserID:    email,
			}, attempts)
		}

		return nil, models.ErrInvalidCredentials
	}

	if user.LoginAttempts != 0 {
		user.LoginAttempts = 0
		if _, err := s.repo.Update(ctx, email, user); err != nil {
			s.logger.Error("failed to reset login attempts", slog.Any("error", err))
		}
	}

	accessToken, err := s.tm.GenerateToken(user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("email", pkglogger.SanitizedEmail(email)))
	return &LoginResponse{
		AccessToken: accessToken,
		User:        toUserResponse(user),
	}, nil
}

// ForgotPassword issues a reset token when the account exists. It never
// reports whether it did; callers return one fixed acknowledgement.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to get user for password reset", slog.Any("error", err))
		return err
	}

	token, err := pkgauth.GenerateSecureToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}
	expiry := time.Now().Add(s.resetExpiry)

	// Overwrites any previous token, so at most one reset link is live.
	user.ResetToken = token
	user.ResetTokenExpiry = &expiry

	if _, err := s.repo.Update(ctx, email, user); err != nil {
		s.logger.Error("failed to store reset token", slog.Any("error", err))
		return err
	}

	if err := s.email.SendPasswordResetEmail(ctx, email, token, expiry); err != nil {
		s.logger.Error("failed to send reset email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	return nil
}

// ResetPassword consumes a reset token and stores a new password hash.
// The lockout state is cleared along with the credential. Outstanding
// bearer tokens stay valid until they expire.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return models.ErrInvalidOrExpiredToken
	}
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.ErrBadRequest
	}

	user, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidOrExpiredToken
		}
		s.logger.Error("failed to look up reset token", slog.Any("error", err))
		return err
	}

	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return models.ErrInvalidOrExpiredToken
	}

	hashed, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user.HashedPassword = hashed
	user.ResetToken = ""
	user.ResetTokenExpiry = nil
	user.LoginAttempts = 0
	user.Locked = false

	if _, err := s.repo.Update(ctx, user.Email, user); err != nil {
		s.logger.Error("failed to store new password", slog.Any("error", err))
		return err
	}

	s.logger.Info("password reset", slog.String("email", pkglogger.SanitizedEmail(user.Email)))
	return nil
}

// ChangePassword rotates the credential of an authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	email = normalizeEmail(email)

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.ErrBadRequest
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user for password change", slog.Any("error", err))
		return err
	}

	if err := pkgauth.ComparePassword(user.HashedPassword, currentPassword); err != nil {
		return models.ErrInvalidCredentials
	}

	hashed, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user.HashedPassword = hashed
	if _, err := s.repo.Update(ctx, email, user); err != nil {
		s.logger.Error("failed to store changed password", slog.Any("error", err))
		return err
	}

	s.logger.Info("password changed", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// ResendVerification reissues a verification link for an unverified
// account. Silent for unknown or already-verified addresses.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to get user for verification resend", slog.Any("error", err))
		return err
	}
	if user.Verified {
		return nil
	}

	token, err := pkgauth.GenerateSecureToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return models.ErrInternalServer
	}
	expiry := time.Now().Add(s.verifyExpiry)

	user.VerificationToken = token
	user.VerificationTokenExpiry = &expiry

	if _, err := s.repo.Update(ctx, email, user); err != nil {
		s.logger.Error("failed to store verification token", slog.Any("error", err))
		return err
	}

	if err := s.email.SendVerificationEmail(ctx, email, token, expiry); err != nil {
		s.logger.Error("failed to resend verification email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	return nil
}
