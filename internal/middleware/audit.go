package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

// requestInfo builds the event context shared by the security middleware.
func requestInfo(r *http.Request, ipConfig *pkghttp.IPConfig) security.RequestInfo {
	info := security.RequestInfo{
		IP:        pkghttp.ExtractClientIP(r, ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
		SessionID: middleware.GetReqID(r.Context()),
	}
	if claims := auth.GetUserFromContext(r); claims != nil {
		info.UserID = claims.Email
	}
	return info
}

// AuditInterceptor observes the outcome of designated endpoints and emits
// exactly one security event per request. Handlers declare a structured
// outcome; when they don't, the interceptor falls back to classifying the
// response status. It never inspects response bodies.
func AuditInterceptor(events *security.EventLog, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := security.WithOutcomeHolder(r.Context())
			r = r.WithContext(ctx)

			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)

			info := requestInfo(r, ipConfig)

			if outcome := security.OutcomeFromContext(ctx); outcome != nil {
				if outcome.UserID != "" {
					info.UserID = outcome.UserID
				}
				events.Record(outcome.Level, outcome.Event, models.EventDetails{
					models.DetailIP:        info.IP,
					models.DetailUserAgent: info.UserAgent,
					models.DetailUserID:    info.UserID,
					models.DetailSessionID: info.SessionID,
					models.DetailRiskLevel: outcome.Risk,
					"success":              outcome.Success,
					"status":               wrapped.Status(),
					"path":                 r.URL.Path,
				})
				return
			}

			switch wrapped.Status() {
			case http.StatusUnauthorized, http.StatusForbidden:
				events.UnauthorizedAccess(info, r.URL.Path)
			case http.StatusTooManyRequests:
				events.RateLimitExceeded(info, r.URL.Path)
			}
		})
	}
}
