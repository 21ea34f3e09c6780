package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/driftice/gcdserver/idgen"
)

// AuditSchema contains the DDL for the business event log.
const AuditSchema = `
CREATE TABLE IF NOT EXISTS business_event_logs (
    event_id     TEXT PRIMARY KEY,
    event_type   TEXT NOT NULL,
    entity_type  TEXT NOT NULL,
    entity_id    TEXT NOT NULL,
    user_id      TEXT NOT NULL,
    action       TEXT NOT NULL,
    details      TEXT NOT NULL DEFAULT '',
    success      INTEGER NOT NULL,
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_logs_time ON business_event_logs(created_at);
`

// BusinessEvent represents a domain-level event to record.
type BusinessEvent struct {
	EventType  string
	EntityType string
	EntityID   string
	UserID     string
	Action     string
	Details    string // optional JSON
	Success    bool
}

// EventLogger writes business events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger writing to the given database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.NanoID(16)),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Init creates the audit tables.
func (l *EventLogger) Init() error {
	_, err := l.db.Exec(AuditSchema)
	return err
}

// LogEvent records a business event. Non-blocking semantics: errors are
// logged via slog but never propagate, so a failing audit store cannot block
// snapshot generation.
func (l *EventLogger) LogEvent(ctx context.Context, event BusinessEvent) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO business_event_logs (
			event_id, event_type, entity_type, entity_id,
			user_id, action, details, success, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		l.newID(), event.EventType, event.EntityType, event.EntityID,
		event.UserID, event.Action, event.Details, event.Success, time.Now().Unix())
	if err != nil {
		slog.Error("audit event log failed", "error", err, "event_type", event.EventType)
	}
}

// Cleanup deletes events older than retentionDays. Zero disables cleanup.
func (l *EventLogger) Cleanup(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM business_event_logs WHERE created_at < ?`, cutoff)
	return err
}
