package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/security"
	"github.com/sentinelhq/sentinel/internal/services"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

// registrationAck is returned for every registration and resend attempt,
// successful or not, so responses cannot confirm that an address exists.
const registrationAck = "Registration received. If the email is not already registered, you will receive a confirmation email."

// forgotPasswordAck is the single acknowledgement for password reset
// requests, whether or not the account exists.
const forgotPasswordAck = "If an account exists for that address, a password reset email has been sent."

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password, name string) (*services.UserResponse, error)
	VerifyEmail(ctx context.Context, token, email string) error
	Login(ctx context.Context, email, password, clientIP, userAgent string) (*services.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error
	ResendVerification(ctx context.Context, email string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	ipConfig     *pkghttp.IPConfig
	cookieConfig auth.CookieConfig
	csrfTokenTTL int
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookieConfig auth.CookieConfig, csrfTokenTTLSeconds int) *AuthHandler {
	return &AuthHandler{
		service:      service,
		ipConfig:     ipConfig,
		cookieConfig: cookieConfig,
		csrfTokenTTL: csrfTokenTTLSeconds,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for a reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for consuming a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// CSRFToken issues a fresh double-submit token: one copy in a cookie the
// client sends back automatically, one in the body for the client to echo
// in the X-CSRF-Token header.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GenerateCSRFToken()
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetCSRFTokenCookie(w, token, h.csrfTokenTTL, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	_, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	switch {
	case err == nil:
		security.SetOutcome(r, security.Outcome{
			Event:   models.EventRegistration,
			Level:   models.LevelAudit,
			Risk:    models.RiskLow,
			UserID:  req.Email,
			Success: true,
		})
	case errors.Is(err, models.ErrAlreadyExists), errors.Is(err, models.ErrBadRequest):
		// Duplicate address or rejected password: identical acknowledgement
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteMessage(w, http.StatusAccepted, registrationAck)
}

// VerifyEmail consumes the verification link from the email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	email := r.URL.Query().Get("email")

	err := h.service.VerifyEmail(r.Context(), token, email)
	if err != nil {
		if errors.Is(err, models.ErrInvalidLink) {
			pkghttp.WriteBadRequest(w, "Invalid or expired verification link")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	security.SetOutcome(r, security.Outcome{
		Event:   models.EventEmailVerified,
		Level:   models.LevelAudit,
		Risk:    models.RiskLow,
		UserID:  strings.ToLower(strings.TrimSpace(email)),
		Success: true,
	})
	pkghttp.WriteMessage(w, http.StatusOK, "Email verified successfully")
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	clientIP := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			security.SetOutcome(r, security.Outcome{
				Event:  models.EventLoginFailed,
				Level:  models.LevelWarn,
				Risk:   models.RiskMedium,
				UserID: req.Email,
			})
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		case errors.Is(err, models.ErrAccountLocked):
			security.SetOutcome(r, security.Outcome{
				Event:  models.EventLoginFailed,
				Level:  models.LevelWarn,
				Risk:   models.RiskMedium,
				UserID: req.Email,
			})
			pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	security.SetOutcome(r, security.Outcome{
		Event:   models.EventLoginSuccess,
		Level:   models.LevelInfo,
		Risk:    models.RiskLow,
		UserID:  req.Email,
		Success: true,
	})
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ForgotPassword handles a password reset request
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	security.SetOutcome(r, security.Outcome{
		Event:   models.EventPasswordResetRequested,
		Level:   models.LevelAudit,
		Risk:    models.RiskLow,
		Success: true,
	})
	pkghttp.WriteMessage(w, http.StatusOK, forgotPasswordAck)
}

// ResetPassword consumes a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidOrExpiredToken):
			pkghttp.WriteBadRequest(w, "Invalid or expired reset token")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "New password does not meet requirements")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	security.SetOutcome(r, security.Outcome{
		Event:   models.EventPasswordReset,
		Level:   models.LevelAudit,
		Risk:    models.RiskLow,
		Success: true,
	})
	pkghttp.WriteMessage(w, http.StatusOK, "Password has been reset")
}

// ChangePassword rotates the password of the authenticated user
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), claims.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "New password does not meet requirements")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	security.SetOutcome(r, security.Outcome{
		Event:   models.EventPasswordChanged,
		Level:   models.LevelAudit,
		Risk:    models.RiskLow,
		UserID:  claims.Email,
		Success: true,
	})
	pkghttp.WriteMessage(w, http.StatusOK, "Password changed successfully")
}

// ResendVerification reissues a verification email for the authenticated
// account. The ack never reveals whether the address was still unverified.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.ResendVerification(r.Context(), claims.Email); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteMessage(w, http.StatusAccepted, registrationAck)
}
