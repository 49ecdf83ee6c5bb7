package model

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

type Room struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	HotelID       string    `json:"hotel_id" bson:"hotel_id" validate:"required,max=64"`
	RoomNumber    string    `json:"room_number" bson:"room_number" validate:"required,min=1,max=16"`
	RoomType      string    `json:"room_type" bson:"room_type" validate:"required,min=2,max=50"`
	PricePerNight float64   `json:"price_per_night" bson:"price_per_night" validate:"gte=0"`
	Capacity      int       `json:"capacity" bson:"capacity" validate:"omitempty,min=1,max=20"`
	Available     bool      `json:"available" bson:"available"`
	Version       int64     `json:"-" bson:"version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// RoomSummary is what availability queries return.
type RoomSummary struct {
	ID            string  `json:"id"`
	RoomNumber    string  `json:"room_number"`
	RoomType      string  `json:"room_type"`
	PricePerNight float64 `json:"price_per_night"`
	Capacity      int     `json:"capacity,omitempty"`
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:            r.ID,
		RoomNumber:    r.RoomNumber,
		RoomType:      r.RoomType,
		PricePerNight: r.PricePerNight,
		Capacity:      r.Capacity,
	}
}

// CompareRoomNumbers orders numeric room numbers numerically ("99" < "101"),
// puts them before non-numeric ones, and orders the rest as strings.
func CompareRoomNumbers(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Or(cmp.Compare(na, nb), cmp.Compare(a, b))
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

func SortRoomsByNumber(rooms []*Room) {
	slices.SortStableFunc(rooms, func(a, b *Room) int {
		return CompareRoomNumbers(a.RoomNumber, b.RoomNumber)
	})
}
