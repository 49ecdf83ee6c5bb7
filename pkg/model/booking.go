package model

import (
	"slices"
	"time"
)

type BookingStatus string

const (
	StatusBooked     BookingStatus = "BOOKED"
	StatusCheckedIn  BookingStatus = "CHECKED_IN"
	StatusCheckedOut BookingStatus = "CHECKED_OUT"
	StatusCancelled  BookingStatus = "CANCELLED"
)

// ActiveStatuses are the statuses in which a booking still holds its room.
var ActiveStatuses = []BookingStatus{StatusBooked, StatusCheckedIn}

var transitions = map[BookingStatus][]BookingStatus{
	StatusBooked:    {StatusCheckedIn, StatusCheckedOut, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsActive() bool {
	return s == StatusBooked || s == StatusCheckedIn
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// CanTransition reports whether from -> to is a legal lifecycle move.
// BOOKED -> CHECKED_OUT is listed; callers decide whether to tolerate it.
func CanTransition(from, to BookingStatus) bool {
	return slices.Contains(transitions[from], to)
}

type Booking struct {
	ID             string        `json:"id,omitempty" bson:"_id,omitempty"`
	BookingCode    string        `json:"booking_code" bson:"booking_code"`
	RoomID         string        `json:"room_id" bson:"room_id"`
	GuestID        string        `json:"guest_id" bson:"guest_id"`
	StaffID        string        `json:"staff_id,omitempty" bson:"staff_id,omitempty"`
	CheckInDate    time.Time     `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate   time.Time     `json:"check_out_date" bson:"check_out_date"`
	NumberOfGuests int           `json:"number_of_guests" bson:"number_of_guests"`
	Status         BookingStatus `json:"status" bson:"status"`
	ServiceIDs     []string      `json:"service_ids" bson:"service_ids"`
	PaymentRef     string        `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	InvoiceRef     string        `json:"invoice_ref,omitempty" bson:"invoice_ref,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
	CheckedInAt    *time.Time    `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time    `json:"checked_out_at,omitempty" bson:"checked_out_at,omitempty"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

// Clone returns a deep copy so stored records never share slices with callers.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.ServiceIDs = slices.Clone(b.ServiceIDs)
	c.CheckedInAt = cloneTime(b.CheckedInAt)
	c.CheckedOutAt = cloneTime(b.CheckedOutAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	return &c
}

// BookingRequest is the inbound payload for creating a booking.
type BookingRequest struct {
	GuestID        string   `json:"guest_id" validate:"required,max=64"`
	RoomID         string   `json:"room_id" validate:"required,max=64"`
	CheckInDate    string   `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate   string   `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	NumberOfGuests int      `json:"number_of_guests" validate:"required,min=1,max=20"`
	ServiceIDs     []string `json:"service_ids" validate:"omitempty,max=50,dive,required,max=64"`
}

type ServicesRequest struct {
	ServiceIDs []string `json:"service_ids" validate:"required,min=1,max=50,dive,required,max=64"`
}

type ReferenceRequest struct {
	Reference string `json:"reference" validate:"required,min=1,max=128"`
}

// StatusPatch carries the fields written alongside a status transition.
type StatusPatch struct {
	StaffID      string
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
	CancelledAt  *time.Time
	UpdatedAt    time.Time
}

// BookingFilter narrows admin searches. From/To select bookings whose stay
// overlaps the range.
type BookingFilter struct {
	From   *time.Time
	To     *time.Time
	Status BookingStatus
}

// OverdueCursor is the position of the last booking returned by an overdue
// scan, ordered by check-out date and then id.
type OverdueCursor struct {
	CheckOutDate time.Time
	ID           string
}

// CursorOf returns the scan position just after b.
func CursorOf(b *Booking) *OverdueCursor {
	return &OverdueCursor{CheckOutDate: b.CheckOutDate, ID: b.ID}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
