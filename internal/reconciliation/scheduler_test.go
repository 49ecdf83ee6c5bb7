package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roomkeeper/internal/bookings/policy"
	"roomkeeper/internal/bookings/service"
	"roomkeeper/internal/bookings/validator"
	"roomkeeper/internal/storage/memory"
	"roomkeeper/pkg/actor"
	"roomkeeper/pkg/clock"
	"roomkeeper/pkg/config"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

type recorder struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (r *recorder) Record(_ context.Context, event model.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) Notify(context.Context, model.StatusChange) {}

func (r *recorder) count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

type engineHarness struct {
	store  *memory.Store
	svc    service.BookingService
	rec    *recorder
	clock  *clock.Manual
	roomID string
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{Log: log, BookingCodeRetries: 3, AllowCheckoutFromBooked: false}
	pol, err := policy.New(log)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}

	store := memory.NewStore()
	store.Directory().AddGuest("g1")
	room := &model.Room{HotelID: "h1", RoomNumber: "101", RoomType: "double", Capacity: 2, Available: true}
	if err := store.Rooms().Create(context.Background(), room); err != nil {
		t.Fatalf("seed room: %v", err)
	}

	rec := &recorder{}
	clk := clock.NewManual(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	svc := service.NewBookingService(store.Bookings(), store.Rooms(), store.Directory(),
		validator.NewBookingValidator(log), pol, rec, rec, clk, cfg)

	return &engineHarness{store: store, svc: svc, rec: rec, clock: clk, roomID: room.ID}
}

func (h *engineHarness) book(t *testing.T, in, out string) *model.Booking {
	t.Helper()
	b, err := h.svc.Create(context.Background(), actor.Actor{ID: "g1", Role: actor.RoleGuest}, &model.BookingRequest{
		GuestID: "g1", RoomID: h.roomID, CheckInDate: in, CheckOutDate: out, NumberOfGuests: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return b
}

func (h *engineHarness) scheduler(batch int) *Scheduler {
	return NewScheduler(h.store.Bookings(), h.svc, h.clock, Config{Interval: time.Hour, BatchSize: batch}, logger.Discard())
}

func TestSweep_OverdueBookedStayIsClosed(t *testing.T) {
	h := newEngineHarness(t)
	b := h.book(t, "2024-01-01", "2024-01-05")

	h.clock.Set(time.Date(2024, 1, 6, 3, 0, 0, 0, time.UTC))
	report, err := h.scheduler(10).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if report.Scanned != 1 || report.CheckedOut != 1 || report.RoomsReleased != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	stored, _ := h.store.Bookings().FindByID(context.Background(), b.ID)
	if stored.Status != model.StatusCheckedOut || stored.CheckedOutAt == nil {
		t.Errorf("expected CHECKED_OUT with timestamp, got %+v", stored)
	}
	room, _ := h.store.Rooms().FindByID(context.Background(), h.roomID)
	if !room.Available {
		t.Errorf("room should be released")
	}
	if n := h.rec.count(model.ActionAutoCheckOut); n != 1 {
		t.Errorf("expected exactly one AUTO_CHECK_OUT event, got %d", n)
	}
	if last := h.rec.events[len(h.rec.events)-1]; last.ActorID != "system" {
		t.Errorf("expected system actor on audit event, got %q", last.ActorID)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	h := newEngineHarness(t)
	h.book(t, "2024-01-01", "2024-01-05")
	h.clock.Set(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	s := h.scheduler(10)

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	report, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if report.Scanned != 0 || report.CheckedOut != 0 {
		t.Errorf("second sweep should find nothing, got %+v", report)
	}
	if n := h.rec.count(model.ActionAutoCheckOut); n != 1 {
		t.Errorf("expected one AUTO_CHECK_OUT across both sweeps, got %d", n)
	}

	last, ok := s.LastReport()
	if !ok || last.Scanned != 0 {
		t.Errorf("LastReport should hold the second sweep, got %+v ok=%v", last, ok)
	}
}

func TestSweep_SelectionBoundaries(t *testing.T) {
	h := newEngineHarness(t)
	dueToday := h.book(t, "2024-01-01", "2024-01-03")
	future := h.book(t, "2024-01-04", "2024-01-09")
	cancelled := h.book(t, "2024-01-10", "2024-01-11")
	if _, err := h.svc.Cancel(context.Background(), actor.Actor{ID: "g1", Role: actor.RoleGuest}, cancelled.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	h.clock.Set(time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC))
	report, err := h.scheduler(10).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.CheckedOut != 1 {
		t.Fatalf("expected only the stay ending today, got %+v", report)
	}
	if report.RoomsReleased != 0 {
		t.Errorf("room still holds a future booking and must stay unavailable")
	}

	for id, want := range map[string]model.BookingStatus{
		dueToday.ID:  model.StatusCheckedOut,
		future.ID:    model.StatusBooked,
		cancelled.ID: model.StatusCancelled,
	} {
		b, _ := h.store.Bookings().FindByID(context.Background(), id)
		if b.Status != want {
			t.Errorf("booking %s: expected %s, got %s", id, want, b.Status)
		}
	}
}

// fakeStore emulates a repository whose overdue query shrinks as bookings close.
type fakeStore struct {
	mu       sync.Mutex
	bookings []*model.Booking
	closed   map[string]bool
	failing  map[string]bool
	calls    int
	entered  chan struct{}
	release  chan struct{}
}

func newFakeStore(n int, failing ...string) *fakeStore {
	f := &fakeStore{closed: map[string]bool{}, failing: map[string]bool{}}
	for i := range n {
		f.bookings = append(f.bookings, &model.Booking{ID: string(rune('a' + i)), Status: model.StatusCheckedIn})
	}
	for _, id := range failing {
		f.failing[id] = true
	}
	return f
}

func (f *fakeStore) FindOverdue(_ context.Context, _ time.Time, after *model.OverdueCursor, limit int) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []*model.Booking
	for _, b := range f.bookings {
		if f.closed[b.ID] || (after != nil && b.ID <= after.ID) {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ForceCheckOut(_ context.Context, b *model.Booking) (service.CheckOutResult, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[b.ID] {
		return service.CheckOutResult{}, errors.New("storage unavailable")
	}
	f.closed[b.ID] = true
	return service.CheckOutResult{CheckedOut: true, RoomReleased: true}, nil
}

func TestSweep_BatchesAndFailures(t *testing.T) {
	f := newFakeStore(5, "c")
	s := NewScheduler(f, f, clock.NewManual(time.Now()), Config{BatchSize: 2}, logger.Discard())

	report, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Scanned != 5 || report.CheckedOut != 4 || report.Failed != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if f.calls != 3 {
		t.Errorf("expected 3 batch queries, got %d", f.calls)
	}
}

func TestSweep_FailuresFillingABatchDoNotStopTheSweep(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		failing       []string
		batch         int
		wantCheckedIn int
		wantFailed    int
	}{
		{"whole first batch fails", 5, []string{"a", "b"}, 2, 3, 2},
		{"more failures than a batch", 7, []string{"a", "b", "c"}, 2, 4, 3},
		{"every booking fails", 4, []string{"a", "b", "c", "d"}, 2, 0, 4},
		{"failures at the tail", 4, []string{"c", "d"}, 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore(tt.total, tt.failing...)
			s := NewScheduler(f, f, clock.NewManual(time.Now()), Config{BatchSize: tt.batch}, logger.Discard())

			report, err := s.Sweep(context.Background())
			if err != nil {
				t.Fatalf("Sweep: %v", err)
			}
			if report.Scanned != tt.total || report.CheckedOut != tt.wantCheckedIn || report.Failed != tt.wantFailed {
				t.Errorf("unexpected report %+v", report)
			}
			for _, b := range f.bookings {
				if !f.failing[b.ID] && !f.closed[b.ID] {
					t.Errorf("booking %s was never checked out", b.ID)
				}
			}
		})
	}
}

func TestSweep_RacesWithCancel(t *testing.T) {
	guest := actor.Actor{ID: "g1", Role: actor.RoleGuest}

	for i := range 20 {
		h := newEngineHarness(t)
		b := h.book(t, "2024-01-01", "2024-01-02")
		h.clock.Set(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
		stale := b.Clone()

		start := make(chan struct{})
		var wg sync.WaitGroup
		var result service.CheckOutResult
		var forceErr, cancelErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			result, forceErr = h.svc.ForceCheckOut(context.Background(), stale)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, cancelErr = h.svc.Cancel(context.Background(), guest, b.ID)
		}()
		close(start)
		wg.Wait()

		if forceErr != nil {
			t.Fatalf("run %d: ForceCheckOut: %v", i, forceErr)
		}
		cancelled := cancelErr == nil
		if result.CheckedOut == cancelled {
			t.Fatalf("run %d: expected exactly one winner, checked out=%v cancelled=%v (cancel err %v)",
				i, result.CheckedOut, cancelled, cancelErr)
		}

		stored, _ := h.store.Bookings().FindByID(context.Background(), b.ID)
		want := model.StatusCancelled
		if result.CheckedOut {
			want = model.StatusCheckedOut
		}
		if stored.Status != want {
			t.Errorf("run %d: expected %s, got %s", i, want, stored.Status)
		}
		if events := h.rec.count(model.ActionAutoCheckOut) + h.rec.count(model.ActionCancelBooking); events != 1 {
			t.Errorf("run %d: expected one terminal audit event, got %d", i, events)
		}
		room, _ := h.store.Rooms().FindByID(context.Background(), h.roomID)
		if !room.Available {
			t.Errorf("run %d: room must be released once its only booking closes", i)
		}
	}
}

func TestSweep_LostRaceCountsAsSkipped(t *testing.T) {
	h := newEngineHarness(t)
	b := h.book(t, "2024-01-01", "2024-01-02")
	stale := b.Clone()
	if _, err := h.svc.Cancel(context.Background(), actor.Actor{ID: "g1", Role: actor.RoleGuest}, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	finder := &staticFinder{bookings: []*model.Booking{stale}}
	s := NewScheduler(finder, h.svc, h.clock, Config{BatchSize: 10}, logger.Discard())
	report, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Skipped != 1 || report.CheckedOut != 0 {
		t.Errorf("unexpected report %+v", report)
	}
}

type staticFinder struct {
	bookings []*model.Booking
}

func (s *staticFinder) FindOverdue(context.Context, time.Time, *model.OverdueCursor, int) ([]*model.Booking, error) {
	return s.bookings, nil
}

func TestRunOnce_RejectsConcurrentSweep(t *testing.T) {
	f := newFakeStore(1)
	f.entered = make(chan struct{})
	f.release = make(chan struct{})
	s := NewScheduler(f, f, clock.NewManual(time.Now()), Config{BatchSize: 10}, logger.Discard())

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-f.entered

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, ErrSweepInProgress) {
		t.Errorf("expected ErrSweepInProgress, got %v", err)
	}

	close(f.release)
	if err := <-done; err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if _, ok := s.LastReport(); !ok {
		t.Errorf("expected a stored report")
	}
}

func TestStartStop(t *testing.T) {
	f := newFakeStore(2)
	s := NewScheduler(f, f, clock.NewManual(time.Now()), Config{Interval: time.Hour, BatchSize: 10}, logger.Discard())

	s.Start(context.Background())
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := s.LastReport(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial sweep did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.Stop()
	s.Stop()

	if report, _ := s.LastReport(); report.CheckedOut != 2 {
		t.Errorf("unexpected report %+v", report)
	}
}
