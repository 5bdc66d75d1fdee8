package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sentinelhq/sentinel/internal/models"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

func TestRateLimitByIP_ThrottledRequestRecordedOnce(t *testing.T) {
	events := testEventLog(t)

	limited := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})
	audited := AuditInterceptor(events, &pkghttp.IPConfig{})
	handler := audited(limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest("POST", "/api/v1/auth/login", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", first.Code, http.StatusOK)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest("POST", "/api/v1/auth/login", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}

	recorded := events.QueryRecent(1)
	if len(recorded) != 1 {
		t.Fatalf("one throttled request recorded %d events, want exactly 1", len(recorded))
	}
	if recorded[0].Event != models.EventRateLimitExceeded {
		t.Errorf("event = %q, want %q", recorded[0].Event, models.EventRateLimitExceeded)
	}
}
