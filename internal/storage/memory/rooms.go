package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	roomserrors "roomkeeper/internal/rooms/errors"
	"roomkeeper/pkg/model"
)

type RoomRepository struct {
	store *Store
}

func cloneRoom(r *model.Room) *model.Room {
	c := *r
	return &c
}

func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	var err error
	r.store.write(ctx, func() {
		for _, existing := range r.store.rooms {
			if existing.HotelID == room.HotelID && existing.RoomNumber == room.RoomNumber {
				err = roomserrors.ErrDuplicateNumber
				return
			}
		}
		room.ID = uuid.NewString()
		r.store.rooms[room.ID] = cloneRoom(room)
	})
	return err
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	var room *model.Room
	r.store.read(ctx, func() {
		if stored, ok := r.store.rooms[id]; ok {
			room = cloneRoom(stored)
		}
	})
	if room == nil {
		return nil, roomserrors.ErrNotFound
	}
	return room, nil
}

func (r *RoomRepository) filtered(hotelID string) []*model.Room {
	var out []*model.Room
	for _, room := range r.store.rooms {
		if hotelID == "" || room.HotelID == hotelID {
			out = append(out, cloneRoom(room))
		}
	}
	slices.SortFunc(out, func(a, b *model.Room) int {
		return cmp.Or(cmp.Compare(a.HotelID, b.HotelID), model.CompareRoomNumbers(a.RoomNumber, b.RoomNumber))
	})
	return out
}

func (r *RoomRepository) FindAll(ctx context.Context, hotelID string, limit int, offset int64) ([]*model.Room, error) {
	var rooms []*model.Room
	r.store.read(ctx, func() {
		rooms = page(r.filtered(hotelID), limit, offset)
	})
	return rooms, nil
}

func (r *RoomRepository) Count(ctx context.Context, hotelID string) (int64, error) {
	var n int64
	r.store.read(ctx, func() {
		n = int64(len(r.filtered(hotelID)))
	})
	return n, nil
}

func (r *RoomRepository) ListAll(ctx context.Context) ([]*model.Room, error) {
	var rooms []*model.Room
	r.store.read(ctx, func() {
		rooms = r.filtered("")
	})
	return rooms, nil
}

func (r *RoomRepository) Claim(ctx context.Context, id string) (*model.Room, error) {
	var room *model.Room
	r.store.write(ctx, func() {
		stored, ok := r.store.rooms[id]
		if !ok {
			return
		}
		stored.Version++
		room = cloneRoom(stored)
	})
	if room == nil {
		return nil, roomserrors.ErrNotFound
	}
	return room, nil
}

func (r *RoomRepository) SetAvailability(ctx context.Context, id string, available bool) (bool, error) {
	var changed, found bool
	r.store.write(ctx, func() {
		stored, ok := r.store.rooms[id]
		if !ok {
			return
		}
		found = true
		if stored.Available != available {
			stored.Available = available
			changed = true
		}
	})
	if !found {
		return false, roomserrors.ErrNotFound
	}
	return changed, nil
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
