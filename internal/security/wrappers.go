package security

import (
	"github.com/sentinelhq/sentinel/internal/models"
)

// RequestInfo carries the per-request context every event records.
type RequestInfo struct {
	IP        string
	UserAgent string
	UserID    string
	SessionID string
}

func (info RequestInfo) details(risk string, extra models.EventDetails) models.EventDetails {
	details := models.EventDetails{
		models.DetailIP:        info.IP,
		models.DetailUserAgent: info.UserAgent,
		models.DetailUserID:    info.UserID,
		models.DetailSessionID: info.SessionID,
		models.DetailRiskLevel: risk,
	}
	for k, v := range extra {
		details[k] = v
	}
	return details
}

// LoginSuccess records a successful authentication.
func (l *EventLog) LoginSuccess(info RequestInfo) {
	l.Record(models.LevelInfo, models.EventLoginSuccess, info.details(models.RiskLow, nil))
}

// LoginFailure records a failed authentication attempt.
func (l *EventLog) LoginFailure(info RequestInfo, reason string) {
	l.Record(models.LevelWarn, models.EventLoginFailed, info.details(models.RiskMedium, models.EventDetails{
		"reason": reason,
	}))
}

// AccountLockout records the moment an account crosses the failed-attempt
// threshold and is locked.
func (l *EventLog) AccountLockout(info RequestInfo, attempts int) {
	l.Record(models.LevelSecurity, models.EventAccountLockout, info.details(models.RiskHigh, models.EventDetails{
		"attempts": attempts,
	}))
}

// CSRFViolation records a double-submit check failure with its
// classification (missing_header, missing_cookie, mismatch, invalid).
func (l *EventLog) CSRFViolation(info RequestInfo, path, reason string) {
	l.Record(models.LevelSecurity, models.EventCSRFTokenInvalid, info.details(models.RiskHigh, models.EventDetails{
		"path":   path,
		"reason": reason,
	}))
}

// RateLimitExceeded records a throttled request.
func (l *EventLog) RateLimitExceeded(info RequestInfo, path string) {
	l.Record(models.LevelWarn, models.EventRateLimitExceeded, info.details(models.RiskMedium, models.EventDetails{
		"path": path,
	}))
}

// UnauthorizedAccess records a rejected attempt to reach a protected
// resource.
func (l *EventLog) UnauthorizedAccess(info RequestInfo, path string) {
	l.Record(models.LevelSecurity, models.EventUnauthorizedAccess, info.details(models.RiskHigh, models.EventDetails{
		"path": path,
	}))
}

// MaliciousInput records a request whose content matched an attack
// pattern. The signature names the detector that fired; the payload
// sample is redacted and truncated before it is stored.
func (l *EventLog) MaliciousInput(info RequestInfo, path, signature, payload string) {
	l.Record(models.LevelSecurity, models.EventMaliciousInput, info.details(models.RiskHigh, models.EventDetails{
		"path":      path,
		"signature": signature,
		"sample":    Sanitize(payload),
	}))
}

// Audit records an admin-scoped action at AUDIT level.
func (l *EventLog) Audit(info RequestInfo, event string, extra models.EventDetails) {
	l.Record(models.LevelAudit, event, info.details(models.RiskLow, extra))
}
