// Package boundary delivers the engine's side effects to collaborators
// outside the service: the audit store and the guest notification channel.
// Delivery runs on the dispatch pool so a slow or failing collaborator never
// holds up, or rolls back, the mutation that produced the event.
package boundary

import (
	"context"
	"time"

	"github.com/google/uuid"

	"roomkeeper/pkg/dispatch"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

type AuditSink interface {
	Name() string
	Write(ctx context.Context, event model.AuditEvent) error
}

type NotificationSink interface {
	Name() string
	Send(ctx context.Context, change model.StatusChange) error
}

// Submitter is the part of the dispatcher the emitter uses.
type Submitter interface {
	Submit(ctx context.Context, name string, task dispatch.Task) error
}

type Emitter struct {
	dispatcher Submitter
	audit      AuditSink
	notify     NotificationSink
	log        *logger.Logger
	now        func() time.Time
}

func NewEmitter(dispatcher Submitter, audit AuditSink, notify NotificationSink, log *logger.Logger) *Emitter {
	return &Emitter{
		dispatcher: dispatcher,
		audit:      audit,
		notify:     notify,
		log:        log.Component("boundary"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Record hands the event to the audit sink asynchronously.
func (e *Emitter) Record(ctx context.Context, event model.AuditEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.EntityType == "" {
		event.EntityType = model.EntityBooking
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}

	err := e.dispatcher.Submit(ctx, "audit."+event.Action, func(ctx context.Context) error {
		return e.audit.Write(ctx, event)
	})
	if err != nil {
		e.log.Warn("Audit event dropped",
			"event_id", event.EventID,
			"action", event.Action,
			"entity_id", event.EntityID,
			"sink", e.audit.Name(),
			"error", err,
		)
	}
}

// Notify hands the status change to the notification sink asynchronously.
func (e *Emitter) Notify(ctx context.Context, change model.StatusChange) {
	if change.EventID == "" {
		change.EventID = uuid.NewString()
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = e.now()
	}

	err := e.dispatcher.Submit(ctx, "notify."+string(change.To), func(ctx context.Context) error {
		return e.notify.Send(ctx, change)
	})
	if err != nil {
		e.log.Warn("Status notification dropped",
			"event_id", change.EventID,
			"booking_id", change.BookingID,
			"to", change.To,
			"sink", e.notify.Name(),
			"error", err,
		)
	}
}
