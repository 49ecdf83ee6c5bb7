package model

import "time"

const (
	ActionCreateBooking = "CREATE_BOOKING"
	ActionCancelBooking = "CANCEL_BOOKING"
	ActionCheckIn       = "CHECK_IN"
	ActionCheckOut      = "CHECK_OUT"
	ActionAutoCheckOut  = "AUTO_CHECK_OUT"
	ActionAddServices   = "ADD_SERVICES"
	ActionAttachPayment = "ATTACH_PAYMENT"
	ActionAttachInvoice = "ATTACH_INVOICE"

	EntityBooking = "Booking"
)

type AuditEvent struct {
	EventID    string         `json:"event_id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// StatusChange is handed to the notification collaborator; message wording is
// its concern.
type StatusChange struct {
	EventID     string        `json:"event_id"`
	BookingID   string        `json:"booking_id"`
	BookingCode string        `json:"booking_code"`
	GuestID     string        `json:"guest_id"`
	RoomID      string        `json:"room_id"`
	From        BookingStatus `json:"from"`
	To          BookingStatus `json:"to"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// PaymentCompleted and InvoiceIssued are consumed from the collaborators.
type PaymentCompleted struct {
	BookingID  string `json:"booking_id"`
	PaymentRef string `json:"payment_ref"`
}

type InvoiceIssued struct {
	BookingID  string `json:"booking_id"`
	InvoiceRef string `json:"invoice_ref"`
}
