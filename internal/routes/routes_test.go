package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/handlers"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

func newTestRouter(t *testing.T) (chi.Router, *security.EventLog) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := security.NewEventLog(t.TempDir(), logger)
	require.NoError(t, events.Open())
	t.Cleanup(func() { events.Close() })

	ipConfig := &pkghttp.IPConfig{}
	tokenManager := auth.NewTokenManager("test-secret-at-least-32-characters!!", 15*time.Minute)
	cookieConfig := auth.CookieConfig{Name: "csrf_token", SameSite: "strict"}
	authHandler := handlers.NewAuthHandler(&handlers.MockAuthService{}, ipConfig, cookieConfig, 3600)
	securityHandler := handlers.NewSecurityHandler(events)

	router := chi.NewRouter()
	RegisterRoutes(router, authHandler, securityHandler, tokenManager, nil, events, ipConfig)
	return router, events
}

// Bearer and admin routes reject unauthenticated callers before any
// handler runs; each rejection must still surface in the event log.
func TestRegisterRoutes_UnauthenticatedAccessAudited(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"change password", http.MethodPost, "/api/v1/users/change-password"},
		{"resend verification", http.MethodPost, "/api/v1/auth/resend-verification"},
		{"security events", http.MethodGet, "/api/v1/security/events"},
		{"security stats", http.MethodGet, "/api/v1/security/stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, events := newTestRouter(t)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			recorded := events.QueryRecent(1)
			require.Len(t, recorded, 1)
			assert.Equal(t, models.EventUnauthorizedAccess, recorded[0].Event)
			assert.Equal(t, models.RiskHigh, recorded[0].RiskLevel())
		})
	}
}
