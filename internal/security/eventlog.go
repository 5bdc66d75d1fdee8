package security

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sentinelhq/sentinel/internal/models"
)

var allLevels = []string{
	models.LevelInfo,
	models.LevelWarn,
	models.LevelError,
	models.LevelSecurity,
	models.LevelAudit,
}

// EventLog is an append-only, day-partitioned store of security events.
// One instance is constructed at startup and injected into everything
// that records or queries events.
//
// Partitions are files named {level}-{date}.log holding one JSON object
// per line. Appends are serialized per partition so concurrent requests
// cannot interleave lines. Recording never fails the caller: persistence
// problems are logged and dropped, because security logging must not
// break the feature it observes.
type EventLog struct {
	dir    string
	logger *slog.Logger
	clock  func() time.Time

	mu         sync.Mutex
	partitions map[string]*partition
	open       bool
}

type partition struct {
	mu   sync.Mutex
	file *os.File
}

// NewEventLog creates an event log rooted at dir. Call Open before use.
func NewEventLog(dir string, logger *slog.Logger) *EventLog {
	return &EventLog{
		dir:        dir,
		logger:     logger,
		clock:      time.Now,
		partitions: make(map[string]*partition),
	}
}

// Open prepares the underlying partition directory.
func (l *EventLog) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create event log directory: %w", err)
	}
	l.open = true
	return nil
}

// Close flushes and closes all open partitions. The log must not be used
// after Close.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for name, p := range l.partitions {
		p.mu.Lock()
		if p.file != nil {
			if err := p.file.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to close partition %s: %w", name, err)
			}
			p.file = nil
		}
		p.mu.Unlock()
	}
	l.partitions = make(map[string]*partition)
	l.open = false
	return firstErr
}

// Record normalizes details, serializes the event as one line and appends
// it to the partition for (level, today). It never returns an error.
func (l *EventLog) Record(level, event string, details models.EventDetails) {
	now := l.clock()

	normalized := models.EventDetails{
		models.DetailIP:        "unknown",
		models.DetailUserAgent: "unknown",
		models.DetailUserID:    "anonymous",
		models.DetailSessionID: "unknown",
		models.DetailRiskLevel: models.RiskLow,
	}
	for k, v := range details {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		normalized[k] = v
	}

	entry := &models.SecurityEvent{
		Timestamp: now.UTC(),
		Level:     level,
		Event:     event,
		Details:   normalized,
	}

	line, err := entry.MarshalLine()
	if err != nil {
		l.logger.Error("failed to serialize security event",
			slog.String("event", event),
			slog.Any("error", err))
		return
	}

	if err := l.append(partitionName(level, now), line); err != nil {
		l.logger.Error("failed to persist security event",
			slog.String("event", event),
			slog.Any("error", err))
	}
}

func (l *EventLog) append(name string, line []byte) error {
	p, err := l.partition(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		path := filepath.Join(l.dir, name)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("failed to open partition %s: %w", name, err)
		}
		p.file = f
	}

	if _, err := p.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to partition %s: %w", name, err)
	}
	return nil
}

func (l *EventLog) partition(name string) (*partition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return nil, fmt.Errorf("event log is not open")
	}

	p, ok := l.partitions[name]
	if !ok {
		p = &partition{}
		l.partitions[name] = p
	}
	return p, nil
}

func partitionName(level string, t time.Time) string {
	return fmt.Sprintf("%s-%s.log", level, t.UTC().Format("2006-01-02"))
}

// QueryRecent scans every partition a time window can touch and returns
// the events with timestamp >= now-hoursBack, oldest first. Missing or
// corrupt partitions degrade to an empty contribution, never an error.
func (l *EventLog) QueryRecent(hoursBack int) []*models.SecurityEvent {
	now := l.clock().UTC()
	cutoff := now.Add(-time.Duration(hoursBack) * time.Hour)

	events := make([]*models.SecurityEvent, 0)
	for day := cutoff.Truncate(24 * time.Hour); !day.After(now); day = day.Add(24 * time.Hour) {
		for _, level := range allLevels {
			events = append(events, l.readPartition(partitionName(level, day), cutoff)...)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

func (l *EventLog) readPartition(name string, cutoff time.Time) []*models.SecurityEvent {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		// a partition that was never written is the common case
		if !os.IsNotExist(err) {
			l.logger.Warn("failed to read event partition",
				slog.String("partition", name),
				slog.Any("error", err))
		}
		return nil
	}
	defer f.Close()

	var events []*models.SecurityEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event models.SecurityEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			// skip corrupt lines; the rest of the partition is still useful
			continue
		}
		if event.Timestamp.Before(cutoff) {
			continue
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		l.logger.Warn("failed to scan event partition",
			slog.String("partition", name),
			slog.Any("error", err))
	}
	return events
}

// Stats aggregates recent events for the admin risk dashboard.
type Stats struct {
	TotalEvents int            `json:"total_events"`
	ByRiskLevel map[string]int `json:"by_risk_level"`
	ByEventType map[string]int `json:"by_event_type"`
	ByIP        map[string]int `json:"by_ip"`
	ByUserAgent map[string]int `json:"by_user_agent"`
	WindowStart time.Time      `json:"window_start"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// AggregateStats derives counts by risk level, event type, IP and user
// agent from QueryRecent over the same window.
func (l *EventLog) AggregateStats(hoursBack int) *Stats {
	now := l.clock().UTC()
	stats := &Stats{
		ByRiskLevel: map[string]int{
			models.RiskLow:    0,
			models.RiskMedium: 0,
			models.RiskHigh:   0,
		},
		ByEventType: make(map[string]int),
		ByIP:        make(map[string]int),
		ByUserAgent: make(map[string]int),
		WindowStart: now.Add(-time.Duration(hoursBack) * time.Hour),
		GeneratedAt: now,
	}

	for _, event := range l.QueryRecent(hoursBack) {
		stats.TotalEvents++
		if risk := event.RiskLevel(); risk != "" {
			stats.ByRiskLevel[risk]++
		}
		stats.ByEventType[event.Event]++
		if ip := event.IP(); ip != "" {
			stats.ByIP[ip]++
		}
		if ua := event.UserAgent(); ua != "" {
			stats.ByUserAgent[ua]++
		}
	}

	return stats
}
