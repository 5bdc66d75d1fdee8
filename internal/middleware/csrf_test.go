package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

const (
	testCSRFToken  = "a3f1b2c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2"
	otherCSRFToken = "0000000000000000000000000000000000000000000000000000000000000000"
)

func testPolicy() *CSRFPolicy {
	return NewCSRFPolicy("csrf_token", "X-CSRF-Token",
		[]string{"/api/v1/auth/login", "/api/v1/auth/register"},
		[]string{"/api/v1/auth/change-password", "/api/v1/users/{id}"},
	)
}

func testEventLog(t *testing.T) *security.EventLog {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := security.NewEventLog(t.TempDir(), logger)
	if err := events.Open(); err != nil {
		t.Fatalf("open event log: %v", err)
	}
	t.Cleanup(func() { events.Close() })
	return events
}

func TestCSRFPolicy_Protects(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{"GET", "/api/v1/auth/change-password", false},
		{"HEAD", "/api/v1/auth/change-password", false},
		{"OPTIONS", "/api/v1/auth/change-password", false},
		{"POST", "/api/v1/auth/change-password", true},
		{"POST", "/api/v1/auth/login", false},
		{"POST", "/api/v1/auth/register", false},
		{"PUT", "/api/v1/users/42", true},
		{"DELETE", "/api/v1/users/a1b2c3", true},
		{"PUT", "/api/v1/users/42/keys", false},
		{"POST", "/api/v1/unlisted", false},
	}

	for _, tt := range tests {
		if got := policy.Protects(tt.method, tt.path); got != tt.want {
			t.Errorf("Protects(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestCSRFPolicy_Check(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantReason string
		wantOK     bool
	}{
		{"matching pair", testCSRFToken, testCSRFToken, "", true},
		{"no header", "", testCSRFToken, CSRFReasonMissingHeader, false},
		{"no header no cookie", "", "", CSRFReasonMissingHeader, false},
		{"no cookie", testCSRFToken, "", CSRFReasonMissingCookie, false},
		{"mismatched pair", testCSRFToken, otherCSRFToken, CSRFReasonMismatch, false},
		{"malformed header", "not-a-token", testCSRFToken, CSRFReasonInvalid, false},
		{"short cookie", testCSRFToken, "abc123", CSRFReasonInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/auth/change-password", nil)
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "csrf_token", Value: tt.cookie})
			}

			reason, ok := policy.Check(req)
			if ok != tt.wantOK {
				t.Errorf("Check() ok = %v, want %v", ok, tt.wantOK)
			}
			if reason != tt.wantReason {
				t.Errorf("Check() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestCSRFProtection_RejectsAndRecords(t *testing.T) {
	events := testEventLog(t)
	ipConfig := &pkghttp.IPConfig{}

	called := false
	handler := CSRFProtection(testPolicy(), events, ipConfig)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("POST", "/api/v1/auth/change-password", strings.NewReader("{}"))
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: otherCSRFToken})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler should not run on CSRF failure")
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	recorded := events.QueryRecent(1)
	if len(recorded) != 1 {
		t.Fatalf("expected 1 event, got %d", len(recorded))
	}
	if recorded[0].Event != models.EventCSRFTokenInvalid {
		t.Errorf("event = %q, want %q", recorded[0].Event, models.EventCSRFTokenInvalid)
	}
	if reason := recorded[0].Details["reason"]; reason != CSRFReasonMismatch {
		t.Errorf("reason = %v, want %q", reason, CSRFReasonMismatch)
	}
	if recorded[0].RiskLevel() != models.RiskHigh {
		t.Errorf("risk = %q, want %q", recorded[0].RiskLevel(), models.RiskHigh)
	}
}

func TestCSRFProtection_PassesValidRequests(t *testing.T) {
	events := testEventLog(t)

	called := false
	handler := CSRFProtection(testPolicy(), events, &pkghttp.IPConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/v1/auth/change-password", strings.NewReader("{}"))
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("handler should run when tokens match")
	}
	if got := len(events.QueryRecent(1)); got != 0 {
		t.Errorf("expected no events, got %d", got)
	}
}
