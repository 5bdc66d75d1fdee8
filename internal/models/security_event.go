package models

import (
	"encoding/json"
	"time"
)

// Severity levels for security events
const (
	LevelInfo     = "INFO"
	LevelWarn     = "WARN"
	LevelError    = "ERROR"
	LevelSecurity = "SECURITY"
	LevelAudit    = "AUDIT"
)

// Risk levels attached to security events for triage
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Event type tags
const (
	EventRegistration           = "REGISTRATION"
	EventEmailVerified          = "EMAIL_VERIFIED"
	EventLoginSuccess           = "LOGIN_SUCCESS"
	EventLoginFailed            = "LOGIN_FAILED"
	EventAccountLockout         = "ACCOUNT_LOCKOUT"
	EventPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	EventPasswordReset          = "PASSWORD_RESET"
	EventPasswordChanged        = "PASSWORD_CHANGED"
	EventCSRFTokenInvalid       = "CSRF_TOKEN_INVALID"
	EventRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	EventUnauthorizedAccess     = "UNAUTHORIZED_ACCESS"
	EventMaliciousInput         = "MALICIOUS_INPUT_DETECTED"
	EventAdminAction            = "ADMIN_ACTION"
)

// Detail keys every event carries (defaults substituted when absent)
const (
	DetailIP        = "ip"
	DetailUserAgent = "userAgent"
	DetailUserID    = "userId"
	DetailSessionID = "sessionId"
	DetailRiskLevel = "riskLevel"
)

// EventDetails holds the free-form context of a security event.
type EventDetails map[string]any

// SecurityEvent is one immutable entry of the append-only security log.
// Serialized as a single JSON line in a {level}-{date} partition.
type SecurityEvent struct {
	Timestamp time.Time    `json:"timestamp"`
	Level     string       `json:"level"`
	Event     string       `json:"event"`
	Details   EventDetails `json:"details"`
}

// RiskLevel returns the event's risk tag, or the empty string when the
// event family carries none.
func (e *SecurityEvent) RiskLevel() string {
	risk, _ := e.Details[DetailRiskLevel].(string)
	return risk
}

func (e *SecurityEvent) detailString(key string) string {
	v, _ := e.Details[key].(string)
	return v
}

// IP returns the client address recorded with the event.
func (e *SecurityEvent) IP() string { return e.detailString(DetailIP) }

// UserAgent returns the client user agent recorded with the event.
func (e *SecurityEvent) UserAgent() string { return e.detailString(DetailUserAgent) }

// UserID returns the acting user recorded with the event.
func (e *SecurityEvent) UserID() string { return e.detailString(DetailUserID) }

// MarshalLine serializes the event as one log line.
func (e *SecurityEvent) MarshalLine() ([]byte, error) {
	return json.Marshal(e)
}
