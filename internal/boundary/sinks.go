package boundary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gocql/gocql"

	"roomkeeper/pkg/kafka"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/middleware"
	"roomkeeper/pkg/model"
)

const (
	EventTypeAudit        = "booking.audit"
	EventTypeStatusChange = "booking.status_changed"
	SchemaVersion         = "1"
	Source                = "roomkeeper-bookings"

	AuditTable = "audit_events"
)

// LogSink writes events to the structured log. Used when no external
// collaborator is configured.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.Component("audit")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, event model.AuditEvent) error {
	s.log.InfoContext(ctx, "Audit event",
		"event_id", event.EventID,
		"actor_id", event.ActorID,
		"action", event.Action,
		"entity_type", event.EntityType,
		"entity_id", event.EntityID,
		"metadata", event.Metadata,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

func (s *LogSink) Send(ctx context.Context, change model.StatusChange) error {
	s.log.InfoContext(ctx, "Booking status changed",
		"event_id", change.EventID,
		"booking_id", change.BookingID,
		"booking_code", change.BookingCode,
		"guest_id", change.GuestID,
		"from", change.From,
		"to", change.To,
	)
	return nil
}

// KafkaSink publishes events keyed by booking id, so every event of a
// booking lands on the same partition in order.
type KafkaSink struct {
	publisher kafka.Publisher
}

func NewKafkaSink(publisher kafka.Publisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, event model.AuditEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.EntityID).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(EventTypeAudit).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, msg)
}

func (s *KafkaSink) Send(ctx context.Context, change model.StatusChange) error {
	msg, err := kafka.NewMessage().
		WithKey(change.BookingID).
		WithValue(change).
		WithEventID(change.EventID).
		WithEventType(EventTypeStatusChange).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, msg)
}

// CassandraSink appends audit events to a wide-row table partitioned by entity.
type CassandraSink struct {
	session *gocql.Session
}

func NewCassandraSink(ctx context.Context, session *gocql.Session) (*CassandraSink, error) {
	stmt := `CREATE TABLE IF NOT EXISTS ` + AuditTable + ` (
		entity_id text,
		occurred_at timestamp,
		event_id uuid,
		entity_type text,
		actor_id text,
		action text,
		metadata text,
		PRIMARY KEY ((entity_id), occurred_at, event_id)
	) WITH CLUSTERING ORDER BY (occurred_at DESC, event_id ASC)`

	if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", AuditTable, err)
	}
	return &CassandraSink{session: session}, nil
}

func (s *CassandraSink) Name() string { return "cassandra" }

func (s *CassandraSink) Write(ctx context.Context, event model.AuditEvent) error {
	id, err := gocql.ParseUUID(event.EventID)
	if err != nil {
		return fmt.Errorf("invalid audit event id %q: %w", event.EventID, err)
	}
	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}

	stmt := `INSERT INTO ` + AuditTable + ` (entity_id, occurred_at, event_id, entity_type, actor_id, action, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	return s.session.Query(stmt,
		event.EntityID, event.OccurredAt, id, event.EntityType, event.ActorID, event.Action, metadata,
	).WithContext(ctx).Exec()
}

func encodeMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode audit metadata: %w", err)
	}
	return string(data), nil
}
