package security

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEventLog(t *testing.T) *EventLog {
	t.Helper()
	l := NewEventLog(t.TempDir(), slog.Default())
	require.NoError(t, l.Open())
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecord_WritesValidLineWithDefaults(t *testing.T) {
	l := newTestEventLog(t)

	l.Record(models.LevelWarn, models.EventLoginFailed, nil)

	name := partitionName(models.LevelWarn, time.Now())
	f, err := os.Open(filepath.Join(l.dir, name))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "partition should contain one line")

	var event models.SecurityEvent
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))

	assert.Equal(t, models.LevelWarn, event.Level)
	assert.Equal(t, models.EventLoginFailed, event.Event)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "unknown", event.Details[models.DetailIP])
	assert.Equal(t, "unknown", event.Details[models.DetailUserAgent])
	assert.Equal(t, "anonymous", event.Details[models.DetailUserID])
	assert.Equal(t, "unknown", event.Details[models.DetailSessionID])

	assert.False(t, scanner.Scan(), "exactly one line expected")
}

func TestRecord_PreservesProvidedDetails(t *testing.T) {
	l := newTestEventLog(t)

	l.Record(models.LevelSecurity, models.EventCSRFTokenInvalid, models.EventDetails{
		models.DetailIP:        "203.0.113.7",
		models.DetailRiskLevel: models.RiskHigh,
		"reason":               "mismatch",
	})

	events := l.QueryRecent(1)
	require.Len(t, events, 1)
	assert.Equal(t, "203.0.113.7", events[0].IP())
	assert.Equal(t, models.RiskHigh, events[0].RiskLevel())
	assert.Equal(t, "mismatch", events[0].Details["reason"])
}

func TestRecord_EmptyStringsGetDefaults(t *testing.T) {
	l := newTestEventLog(t)

	l.Record(models.LevelInfo, models.EventLoginSuccess, models.EventDetails{
		models.DetailIP:     "",
		models.DetailUserID: "",
	})

	events := l.QueryRecent(1)
	require.Len(t, events, 1)
	assert.Equal(t, "unknown", events[0].IP())
	assert.Equal(t, "anonymous", events[0].UserID())
}

func TestRecord_NeverPanicsWhenClosed(t *testing.T) {
	l := NewEventLog(t.TempDir(), slog.Default())
	// not opened: recording must be swallowed, not escalate
	l.Record(models.LevelInfo, models.EventLoginSuccess, nil)
}

func TestQueryRecent_FiltersByWindow(t *testing.T) {
	l := newTestEventLog(t)

	base := time.Now().UTC()
	l.clock = func() time.Time { return base.Add(-3 * time.Hour) }
	l.Record(models.LevelInfo, models.EventLoginSuccess, nil)

	l.clock = func() time.Time { return base.Add(-10 * time.Minute) }
	l.Record(models.LevelWarn, models.EventLoginFailed, nil)

	l.clock = func() time.Time { return base }

	recent := l.QueryRecent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, models.EventLoginFailed, recent[0].Event)

	all := l.QueryRecent(4)
	assert.Len(t, all, 2)
}

func TestQueryRecent_OrderedOldestFirst(t *testing.T) {
	l := newTestEventLog(t)

	base := time.Now().UTC()
	for i := 3; i >= 1; i-- {
		offset := time.Duration(i) * time.Minute
		l.clock = func() time.Time { return base.Add(-offset) }
		l.Record(models.LevelInfo, models.EventLoginSuccess, nil)
	}
	l.clock = func() time.Time { return base }

	events := l.QueryRecent(1)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
}

func TestQueryRecent_MissingPartitionDegradesToEmpty(t *testing.T) {
	l := newTestEventLog(t)

	events := l.QueryRecent(24)
	assert.Empty(t, events)
}

func TestQueryRecent_SkipsCorruptLines(t *testing.T) {
	l := newTestEventLog(t)

	l.Record(models.LevelInfo, models.EventLoginSuccess, nil)

	// corrupt the partition with a half-written line
	name := partitionName(models.LevelInfo, time.Now())
	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_APPEND|os.O_WRONLY, 0o640)
	require.NoError(t, err)
	_, err = f.WriteString("{\"timestamp\": garbage\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l.Record(models.LevelInfo, models.EventLoginSuccess, nil)

	events := l.QueryRecent(1)
	assert.Len(t, events, 2)
}

func TestAggregateStats_RiskBucketsSumToQueryLength(t *testing.T) {
	l := newTestEventLog(t)
	info := RequestInfo{IP: "203.0.113.7", UserAgent: "curl/8.0", UserID: "alice@example.com"}

	l.LoginSuccess(info)
	l.LoginFailure(info, "invalid_credentials")
	l.LoginFailure(RequestInfo{IP: "198.51.100.9"}, "invalid_credentials")
	l.CSRFViolation(info, "/login", "missing_cookie")
	l.AccountLockout(info, 5)

	events := l.QueryRecent(1)
	stats := l.AggregateStats(1)

	sum := stats.ByRiskLevel[models.RiskLow] +
		stats.ByRiskLevel[models.RiskMedium] +
		stats.ByRiskLevel[models.RiskHigh]
	assert.Equal(t, len(events), sum)
	assert.Equal(t, len(events), stats.TotalEvents)

	assert.Equal(t, 1, stats.ByRiskLevel[models.RiskLow])
	assert.Equal(t, 2, stats.ByRiskLevel[models.RiskMedium])
	assert.Equal(t, 2, stats.ByRiskLevel[models.RiskHigh])

	assert.Equal(t, 2, stats.ByEventType[models.EventLoginFailed])
	assert.Equal(t, 4, stats.ByIP["203.0.113.7"])
	assert.Equal(t, 1, stats.ByIP["198.51.100.9"])
	assert.Equal(t, 4, stats.ByUserAgent["curl/8.0"])
}

func TestWrappers_FixRiskLevels(t *testing.T) {
	l := newTestEventLog(t)
	info := RequestInfo{IP: "203.0.113.7"}

	l.LoginSuccess(info)
	l.UnauthorizedAccess(info, "/security/events")
	l.MaliciousInput(info, "/login", "script_tag", `<script>alert(1)</script>&password=hunter2`)
	l.RateLimitExceeded(info, "/resend-verification")

	byEvent := make(map[string]string)
	for _, event := range l.QueryRecent(1) {
		byEvent[event.Event] = event.RiskLevel()
	}

	assert.Equal(t, models.RiskLow, byEvent[models.EventLoginSuccess])
	assert.Equal(t, models.RiskHigh, byEvent[models.EventUnauthorizedAccess])
	assert.Equal(t, models.RiskHigh, byEvent[models.EventMaliciousInput])
	assert.Equal(t, models.RiskMedium, byEvent[models.EventRateLimitExceeded])
}
