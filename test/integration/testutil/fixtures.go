package testutil

import (
	"time"

	"roomkeeper/pkg/model"
)

type RoomBuilder struct {
	room model.Room
}

func NewRoomBuilder() *RoomBuilder {
	return &RoomBuilder{
		room: model.Room{
			HotelID:       "hotel-1",
			RoomNumber:    "101",
			RoomType:      "double",
			PricePerNight: 120,
			Capacity:      2,
			Available:     true,
		},
	}
}

func (b *RoomBuilder) WithNumber(number string) *RoomBuilder {
	b.room.RoomNumber = number
	return b
}

func (b *RoomBuilder) WithCapacity(capacity int) *RoomBuilder {
	b.room.Capacity = capacity
	return b
}

func (b *RoomBuilder) WithType(roomType string) *RoomBuilder {
	b.room.RoomType = roomType
	return b
}

func (b *RoomBuilder) Build() model.Room {
	return b.room
}

type BookingRequestBuilder struct {
	req model.BookingRequest
}

// NewBookingRequestBuilder starts from a two-night stay beginning a week
// from today.
func NewBookingRequestBuilder(guestID, roomID string) *BookingRequestBuilder {
	start := Today().AddDate(0, 0, 7)
	return &BookingRequestBuilder{
		req: model.BookingRequest{
			GuestID:        guestID,
			RoomID:         roomID,
			CheckInDate:    start.Format(model.DateLayout),
			CheckOutDate:   start.AddDate(0, 0, 2).Format(model.DateLayout),
			NumberOfGuests: 1,
		},
	}
}

func (b *BookingRequestBuilder) WithStay(checkIn, checkOut time.Time) *BookingRequestBuilder {
	b.req.CheckInDate = checkIn.Format(model.DateLayout)
	b.req.CheckOutDate = checkOut.Format(model.DateLayout)
	return b
}

func (b *BookingRequestBuilder) WithGuests(n int) *BookingRequestBuilder {
	b.req.NumberOfGuests = n
	return b
}

func (b *BookingRequestBuilder) WithServices(ids ...string) *BookingRequestBuilder {
	b.req.ServiceIDs = ids
	return b
}

func (b *BookingRequestBuilder) Build() model.BookingRequest {
	return b.req
}

func Today() time.Time {
	return model.DateOf(time.Now().UTC())
}
