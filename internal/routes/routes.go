package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/handlers"
	"github.com/sentinelhq/sentinel/internal/middleware"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/repositories"
	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

// CSRFRoutePolicy returns the double-submit policy for the API. Enforced
// templates cover the cookie-facing state-changing routes; informational
// GETs, bearer-only routes, and the token issuance endpoint stay exempt.
func CSRFRoutePolicy(cookieName, headerName string) *middleware.CSRFPolicy {
	exempt := []string{
		"/api/v1/csrf-token",
		"/api/v1/auth/verify-email",
		"/health",
	}
	enforced := []string{
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/forgot-password",
		"/api/v1/auth/reset-password",
		"/api/v1/users/change-password",
		"/api/v1/users/{id}",
	}
	return middleware.NewCSRFPolicy(cookieName, headerName, exempt, enforced)
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	securityHandler *handlers.SecurityHandler,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
	events *security.EventLog,
	ipConfig *pkghttp.IPConfig,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()
	rateLimited := middleware.RateLimitByIP(rateLimitConfig)
	audited := middleware.AuditInterceptor(events, ipConfig)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/csrf-token", authHandler.CSRFToken)

		r.Route("/auth", func(r chi.Router) {
			r.With(audited).Get("/verify-email", authHandler.VerifyEmail)
			r.With(audited, rateLimited).Post("/register", authHandler.Register)
			r.With(audited, rateLimited).Post("/login", authHandler.Login)
			r.With(audited, rateLimited).Post("/forgot-password", authHandler.ForgotPassword)
			r.With(audited, rateLimited).Post("/reset-password", authHandler.ResetPassword)
			r.With(audited, rateLimited, auth.RequireAuth(tokenManager)).Post("/resend-verification", authHandler.ResendVerification)
		})

		// Bearer-token routes. The interceptor wraps the auth middlewares
		// so their 401/403 rejections are audited too.
		r.Group(func(r chi.Router) {
			r.Use(audited)
			r.Use(auth.RequireAuth(tokenManager))

			r.Post("/users/change-password", authHandler.ChangePassword)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(userRepo, models.RoleAdmin))
				r.Get("/security/events", securityHandler.GetEvents)
				r.Get("/security/stats", securityHandler.GetStats)
			})
		})
	})
}
