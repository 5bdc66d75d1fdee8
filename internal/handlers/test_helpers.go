package handlers

import (
	"context"

	"github.com/sentinelhq/sentinel/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc           func(ctx context.Context, email, password, name string) (*services.UserResponse, error)
	VerifyEmailFunc        func(ctx context.Context, token, email string) error
	LoginFunc              func(ctx context.Context, email, password, clientIP, userAgent string) (*services.LoginResponse, error)
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, token, newPassword string) error
	ChangePasswordFunc     func(ctx context.Context, email, currentPassword, newPassword string) error
	ResendVerificationFunc func(ctx context.Context, email string) error
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string) (*services.UserResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, name)
	}
	return &services.UserResponse{Email: email, Name: name}, nil
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token, email string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token, email)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password, clientIP, userAgent string) (*services.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, clientIP, userAgent)
	}
	return &services.LoginResponse{AccessToken: "token"}, nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, email, currentPassword, newPassword)
	}
	return nil
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}
