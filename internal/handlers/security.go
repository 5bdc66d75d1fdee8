package handlers

import (
	"net/http"
	"strconv"

	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

const (
	defaultQueryHours = 24
	maxQueryHours     = 24 * 30
)

// SecurityHandler exposes the event log to admin users
type SecurityHandler struct {
	events *security.EventLog
}

// NewSecurityHandler creates a new SecurityHandler
func NewSecurityHandler(events *security.EventLog) *SecurityHandler {
	return &SecurityHandler{events: events}
}

// EventsResponse wraps a window of security events
type EventsResponse struct {
	Hours  int                     `json:"hours"`
	Count  int                     `json:"count"`
	Events []*models.SecurityEvent `json:"events"`
}

// queryHours parses the ?hours window, clamped to a sane range.
func queryHours(r *http.Request) int {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return defaultQueryHours
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 {
		return defaultQueryHours
	}
	if hours > maxQueryHours {
		return maxQueryHours
	}
	return hours
}

// GetEvents returns the security events recorded inside the window
func (h *SecurityHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	hours := queryHours(r)
	events := h.events.QueryRecent(hours)

	h.declareAdminOutcome(r)
	pkghttp.WriteJSON(w, http.StatusOK, &EventsResponse{
		Hours:  hours,
		Count:  len(events),
		Events: events,
	})
}

// GetStats returns aggregate counts over the window
func (h *SecurityHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	hours := queryHours(r)
	stats := h.events.AggregateStats(hours)

	h.declareAdminOutcome(r)
	pkghttp.WriteJSON(w, http.StatusOK, stats)
}

func (h *SecurityHandler) declareAdminOutcome(r *http.Request) {
	outcome := security.Outcome{
		Event:   models.EventAdminAction,
		Level:   models.LevelAudit,
		Risk:    models.RiskLow,
		Success: true,
	}
	if claims := auth.GetUserFromContext(r); claims != nil {
		outcome.UserID = claims.Email
	}
	security.SetOutcome(r, outcome)
}
