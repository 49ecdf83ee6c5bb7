package boundary

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"roomkeeper/pkg/actor"
	"roomkeeper/pkg/dispatch"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/kafka"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

type inlineSubmitter struct {
	err error
}

func (s *inlineSubmitter) Submit(ctx context.Context, name string, task dispatch.Task) error {
	if s.err != nil {
		return s.err
	}
	return task(ctx)
}

type recordingSink struct {
	mu      sync.Mutex
	events  []model.AuditEvent
	changes []model.StatusChange
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(_ context.Context, event model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Send(_ context.Context, change model.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, change)
	return s.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func TestEmitter_RecordFillsDefaults(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(&inlineSubmitter{}, sink, sink, logger.Discard())

	e.Record(context.Background(), model.AuditEvent{ActorID: "g1", Action: model.ActionCreateBooking, EntityID: "b1"})

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	got := sink.events[0]
	if got.EventID == "" {
		t.Errorf("expected generated event id")
	}
	if got.EntityType != model.EntityBooking {
		t.Errorf("expected entity type %s, got %s", model.EntityBooking, got.EntityType)
	}
	if got.OccurredAt.IsZero() {
		t.Errorf("expected occurred_at to be set")
	}
}

func TestEmitter_SubmitFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(&inlineSubmitter{err: dispatch.ErrQueueFull}, sink, sink, logger.Discard())

	e.Record(context.Background(), model.AuditEvent{Action: model.ActionCancelBooking, EntityID: "b1"})
	e.Notify(context.Background(), model.StatusChange{BookingID: "b1", To: model.StatusCancelled})

	if len(sink.events) != 0 || len(sink.changes) != 0 {
		t.Errorf("nothing should reach the sink when submission fails")
	}
}

func TestEmitter_WithDispatcher(t *testing.T) {
	d := dispatch.New(dispatch.Config{Workers: 2, QueueSize: 8, TaskTimeout: time.Second}, logger.Discard())
	sink := &recordingSink{err: errors.New("sink down")}
	e := NewEmitter(d, sink, sink, logger.Discard())

	for range 5 {
		e.Notify(context.Background(), model.StatusChange{BookingID: "b1", To: model.StatusCheckedIn})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if len(sink.changes) != 5 {
		t.Errorf("expected 5 deliveries, got %d", len(sink.changes))
	}
	if got := d.Stats().Failed; got != 5 {
		t.Errorf("expected sink failures to be counted, got %d", got)
	}
}

func TestKafkaSink_KeysByBooking(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaSink(pub)

	event := model.AuditEvent{EventID: "e1", Action: model.ActionCheckIn, EntityID: "b42", EntityType: model.EntityBooking}
	if err := sink.Write(context.Background(), event); err != nil {
		t.Fatalf("Write: %v", err)
	}
	change := model.StatusChange{EventID: "e2", BookingID: "b42", From: model.StatusBooked, To: model.StatusCheckedIn}
	if err := sink.Send(context.Background(), change); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(pub.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.messages))
	}
	for _, msg := range pub.messages {
		if msg.Key != "b42" {
			t.Errorf("expected key b42, got %s", msg.Key)
		}
	}
	if pub.messages[0].GetEventType() != EventTypeAudit || pub.messages[1].GetEventType() != EventTypeStatusChange {
		t.Errorf("unexpected event types: %s, %s", pub.messages[0].GetEventType(), pub.messages[1].GetEventType())
	}
	if pub.messages[0].GetEventID() != "e1" {
		t.Errorf("expected event id to be carried, got %s", pub.messages[0].GetEventID())
	}

	var decoded model.StatusChange
	if err := pub.messages[1].DecodeValue(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.To != model.StatusCheckedIn {
		t.Errorf("expected CHECKED_IN, got %s", decoded.To)
	}
}

func TestEncodeMetadata(t *testing.T) {
	empty, err := encodeMetadata(nil)
	if err != nil || empty != "{}" {
		t.Errorf("expected {}, got %q (err %v)", empty, err)
	}

	out, err := encodeMetadata(map[string]any{"room_released": true})
	if err != nil {
		t.Fatalf("encodeMetadata: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal([]byte(out), &back); err != nil || back["room_released"] != true {
		t.Errorf("unexpected metadata %q", out)
	}
}

type fakeAttacher struct {
	err      error
	calledAs actor.Actor
	id, ref  string
}

func (f *fakeAttacher) AttachPayment(_ context.Context, a actor.Actor, id, ref string) (*model.Booking, error) {
	f.calledAs, f.id, f.ref = a, id, ref
	return &model.Booking{ID: id, PaymentRef: ref}, f.err
}

func (f *fakeAttacher) AttachInvoice(_ context.Context, a actor.Actor, id, ref string) (*model.Booking, error) {
	f.calledAs, f.id, f.ref = a, id, ref
	return &model.Booking{ID: id, InvoiceRef: ref}, f.err
}

func message(t *testing.T, value any) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().WithKey("b1").WithValue(value).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return msg
}

func TestPaymentCompletedHandler(t *testing.T) {
	tests := []struct {
		name          string
		serviceErr    error
		payload       any
		wantErr       bool
		wantPermanent bool
	}{
		{"attached", nil, model.PaymentCompleted{BookingID: "b1", PaymentRef: "pay-1"}, false, false},
		{"unknown booking is permanent", apperrors.NotFoundWithID("Booking", "b1"), model.PaymentCompleted{BookingID: "b1", PaymentRef: "pay-1"}, true, true},
		{"internal failure is transient", apperrors.Internal("db down", errors.New("boom")), model.PaymentCompleted{BookingID: "b1", PaymentRef: "pay-1"}, true, false},
		{"malformed payload is permanent", nil, "not an object", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attacher := &fakeAttacher{err: tt.serviceErr}
			handler := PaymentCompletedHandler(attacher, logger.Discard())

			err := handler(context.Background(), message(t, tt.payload))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if attacher.calledAs.Role != actor.RoleSystem || attacher.ref != "pay-1" {
					t.Errorf("unexpected call: %+v", attacher)
				}
				return
			}

			var kerr *kafka.KafkaError
			if !errors.As(err, &kerr) {
				t.Fatalf("expected KafkaError, got %v", err)
			}
			if kerr.IsPermanent() != tt.wantPermanent {
				t.Errorf("expected permanent=%v, got %v", tt.wantPermanent, kerr.IsPermanent())
			}
		})
	}
}

func TestInvoiceIssuedHandler(t *testing.T) {
	attacher := &fakeAttacher{}
	handler := InvoiceIssuedHandler(attacher, logger.Discard())

	if err := handler(context.Background(), message(t, model.InvoiceIssued{BookingID: "b9", InvoiceRef: "inv-7"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attacher.id != "b9" || attacher.ref != "inv-7" {
		t.Errorf("unexpected call: %+v", attacher)
	}
}
