// Package memory is a process-local backend for the room and booking
// repositories. A transaction holds the store-wide write lock for its whole
// duration and restores a snapshot when the unit of work fails, which gives
// the same all-or-nothing and serialization guarantees as the Mongo backend.
package memory

import (
	"context"
	"maps"
	"sync"

	bookingsrepository "roomkeeper/internal/bookings/repository"
	"roomkeeper/internal/directory"
	roomsrepository "roomkeeper/internal/rooms/repository"
	mongotx "roomkeeper/pkg/db/mongo"
	"roomkeeper/pkg/model"
)

var (
	_ roomsrepository.RoomRepository       = (*RoomRepository)(nil)
	_ bookingsrepository.BookingRepository = (*BookingRepository)(nil)
	_ directory.Directory                  = (*Directory)(nil)
)

type txKey struct{}

type Store struct {
	mu sync.RWMutex

	rooms    map[string]*model.Room
	bookings map[string]*model.Booking
	codes    map[string]string

	guests   map[string]struct{}
	services map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]*model.Room),
		bookings: make(map[string]*model.Booking),
		codes:    make(map[string]string),
		guests:   make(map[string]struct{}),
		services: make(map[string]struct{}),
	}
}

func (s *Store) Rooms() *RoomRepository {
	return &RoomRepository{store: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

func (s *Store) Directory() *Directory {
	return &Directory{store: s}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) read(ctx context.Context, fn func()) {
	if s.inTx(ctx) {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func()) {
	if s.inTx(ctx) {
		fn()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

type snapshot struct {
	rooms    map[string]*model.Room
	bookings map[string]*model.Booking
	codes    map[string]string
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		rooms:    make(map[string]*model.Room, len(s.rooms)),
		bookings: make(map[string]*model.Booking, len(s.bookings)),
		codes:    maps.Clone(s.codes),
	}
	for id, r := range s.rooms {
		c := *r
		snap.rooms[id] = &c
	}
	for id, b := range s.bookings {
		snap.bookings[id] = b.Clone()
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.rooms = snap.rooms
	s.bookings = snap.bookings
	s.codes = snap.codes
}

// ExecuteTransaction runs fn with exclusive access to the store. Nested calls
// join the outer transaction.
func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}
