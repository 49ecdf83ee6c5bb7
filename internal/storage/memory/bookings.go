package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	bookingserrors "roomkeeper/internal/bookings/errors"
	mongotx "roomkeeper/pkg/db/mongo"
	"roomkeeper/pkg/model"
)

type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	var err error
	r.store.write(ctx, func() {
		if _, taken := r.store.codes[booking.BookingCode]; taken {
			err = bookingserrors.ErrDuplicateCode
			return
		}
		booking.ID = uuid.NewString()
		r.store.bookings[booking.ID] = booking.Clone()
		r.store.codes[booking.BookingCode] = booking.ID
	})
	return err
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking *model.Booking
	r.store.read(ctx, func() {
		booking = r.store.bookings[id].Clone()
	})
	if booking == nil {
		return nil, bookingserrors.ErrNotFound
	}
	return booking, nil
}

func (r *BookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	var booking *model.Booking
	r.store.read(ctx, func() {
		if id, ok := r.store.codes[code]; ok {
			booking = r.store.bookings[id].Clone()
		}
	})
	if booking == nil {
		return nil, bookingserrors.ErrNotFound
	}
	return booking, nil
}

// selectBookings returns clones of the matching bookings, sorted with cmpFn.
func (r *BookingRepository) selectBookings(match func(*model.Booking) bool, cmpFn func(a, b *model.Booking) int) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.store.bookings {
		if match(b) {
			out = append(out, b.Clone())
		}
	}
	if cmpFn != nil {
		slices.SortFunc(out, cmpFn)
	}
	return out
}

func byCheckInDesc(a, b *model.Booking) int {
	return cmp.Or(b.CheckInDate.Compare(a.CheckInDate), b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func byCheckInAsc(a, b *model.Booking) int {
	return cmp.Or(a.CheckInDate.Compare(b.CheckInDate), a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func byCheckOutAsc(a, b *model.Booking) int {
	return cmp.Or(a.CheckOutDate.Compare(b.CheckOutDate), cmp.Compare(a.ID, b.ID))
}

func (r *BookingRepository) FindByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, error) {
	var out []*model.Booking
	r.store.read(ctx, func() {
		out = page(r.selectBookings(func(b *model.Booking) bool { return b.GuestID == guestID }, byCheckInDesc), limit, offset)
	})
	return out, nil
}

func (r *BookingRepository) CountByGuest(ctx context.Context, guestID string) (int64, error) {
	var n int64
	r.store.read(ctx, func() {
		n = int64(len(r.selectBookings(func(b *model.Booking) bool { return b.GuestID == guestID }, nil)))
	})
	return n, nil
}

func matchFilter(filter model.BookingFilter) func(*model.Booking) bool {
	return func(b *model.Booking) bool {
		if filter.Status != "" && b.Status != filter.Status {
			return false
		}
		if filter.To != nil && b.CheckInDate.After(*filter.To) {
			return false
		}
		if filter.From != nil && b.CheckOutDate.Before(*filter.From) {
			return false
		}
		return true
	}
}

func (r *BookingRepository) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	var out []*model.Booking
	r.store.read(ctx, func() {
		out = page(r.selectBookings(matchFilter(filter), byCheckInAsc), limit, offset)
	})
	return out, nil
}

func (r *BookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	var n int64
	r.store.read(ctx, func() {
		n = int64(len(r.selectBookings(matchFilter(filter), nil)))
	})
	return n, nil
}

func activeOverlap(start, end time.Time, rule model.OverlapRule) func(*model.Booking) bool {
	return func(b *model.Booking) bool {
		return b.Status.IsActive() && rule.Overlaps(b.CheckInDate, b.CheckOutDate, start, end)
	}
}

func (r *BookingRepository) FindActiveOverlapping(ctx context.Context, roomID string, start, end time.Time, rule model.OverlapRule) ([]*model.Booking, error) {
	overlaps := activeOverlap(start, end, rule)
	var out []*model.Booking
	r.store.read(ctx, func() {
		out = r.selectBookings(func(b *model.Booking) bool { return b.RoomID == roomID && overlaps(b) }, byCheckInAsc)
	})
	return out, nil
}

func (r *BookingRepository) FindActiveRoomIDsOverlapping(ctx context.Context, start, end time.Time, rule model.OverlapRule) ([]string, error) {
	overlaps := activeOverlap(start, end, rule)
	seen := make(map[string]struct{})
	var ids []string
	r.store.read(ctx, func() {
		for _, b := range r.store.bookings {
			if !overlaps(b) {
				continue
			}
			if _, ok := seen[b.RoomID]; ok {
				continue
			}
			seen[b.RoomID] = struct{}{}
			ids = append(ids, b.RoomID)
		}
	})
	slices.Sort(ids)
	return ids, nil
}

func (r *BookingRepository) CountActiveByRoom(ctx context.Context, roomID string) (int64, error) {
	var n int64
	r.store.read(ctx, func() {
		for _, b := range r.store.bookings {
			if b.RoomID == roomID && b.Status.IsActive() {
				n++
			}
		}
	})
	return n, nil
}

func (r *BookingRepository) FindOverdue(ctx context.Context, today time.Time, after *model.OverdueCursor, limit int) ([]*model.Booking, error) {
	var out []*model.Booking
	r.store.read(ctx, func() {
		overdue := r.selectBookings(func(b *model.Booking) bool {
			return b.Status.IsActive() && !b.CheckOutDate.After(today) && pastCursor(b, after)
		}, byCheckOutAsc)
		out = page(overdue, limit, 0)
	})
	return out, nil
}

func pastCursor(b *model.Booking, after *model.OverdueCursor) bool {
	if after == nil {
		return true
	}
	return byCheckOutAsc(b, &model.Booking{ID: after.ID, CheckOutDate: after.CheckOutDate}) > 0
}

func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, patch model.StatusPatch) (bool, error) {
	var applied bool
	r.store.write(ctx, func() {
		b, ok := r.store.bookings[id]
		if !ok || !slices.Contains(from, b.Status) {
			return
		}
		b.Status = to
		b.UpdatedAt = patch.UpdatedAt
		if patch.StaffID != "" {
			b.StaffID = patch.StaffID
		}
		if patch.CheckedInAt != nil {
			t := *patch.CheckedInAt
			b.CheckedInAt = &t
		}
		if patch.CheckedOutAt != nil {
			t := *patch.CheckedOutAt
			b.CheckedOutAt = &t
		}
		if patch.CancelledAt != nil {
			t := *patch.CancelledAt
			b.CancelledAt = &t
		}
		applied = true
	})
	return applied, nil
}

func (r *BookingRepository) AddServices(ctx context.Context, id string, serviceIDs []string, updatedAt time.Time) (bool, error) {
	var applied bool
	r.store.write(ctx, func() {
		b, ok := r.store.bookings[id]
		if !ok || !b.Status.IsActive() {
			return
		}
		for _, sid := range serviceIDs {
			if !slices.Contains(b.ServiceIDs, sid) {
				b.ServiceIDs = append(b.ServiceIDs, sid)
			}
		}
		b.UpdatedAt = updatedAt
		applied = true
	})
	return applied, nil
}

func (r *BookingRepository) setRef(ctx context.Context, id string, set func(b *model.Booking)) error {
	found := false
	r.store.write(ctx, func() {
		if b, ok := r.store.bookings[id]; ok {
			set(b)
			found = true
		}
	})
	if !found {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) SetPaymentRef(ctx context.Context, id string, ref string, updatedAt time.Time) error {
	return r.setRef(ctx, id, func(b *model.Booking) {
		b.PaymentRef = ref
		b.UpdatedAt = updatedAt
	})
}

func (r *BookingRepository) SetInvoiceRef(ctx context.Context, id string, ref string, updatedAt time.Time) error {
	return r.setRef(ctx, id, func(b *model.Booking) {
		b.InvoiceRef = ref
		b.UpdatedAt = updatedAt
	})
}

func (r *BookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}
