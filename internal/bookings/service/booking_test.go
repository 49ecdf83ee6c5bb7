package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"roomkeeper/internal/bookings/policy"
	"roomkeeper/internal/bookings/validator"
	"roomkeeper/internal/storage/memory"
	"roomkeeper/pkg/actor"
	"roomkeeper/pkg/clock"
	"roomkeeper/pkg/config"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

var (
	guest1 = actor.Actor{ID: "g1", Role: actor.RoleGuest}
	guest2 = actor.Actor{ID: "g2", Role: actor.RoleGuest}
	staff  = actor.Actor{ID: "s1", Role: actor.RoleStaff}
	admin  = actor.Actor{ID: "a1", Role: actor.RoleAdmin}

	codePattern = regexp.MustCompile(`^[0-9A-F]{10}$`)
)

type recorder struct {
	mu      sync.Mutex
	events  []model.AuditEvent
	changes []model.StatusChange
}

func (r *recorder) Record(_ context.Context, event model.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) Notify(_ context.Context, change model.StatusChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type harness struct {
	svc   BookingService
	store *memory.Store
	rec   *recorder
	clock *clock.Manual
	cfg   *config.Config
	rooms map[string]string
}

func newHarness(t *testing.T, opts ...func(cfg *config.Config)) *harness {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{
		Log:                     log,
		BookingCodeRetries:      3,
		AllowCheckoutFromBooked: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pol, err := policy.New(log)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}

	store := memory.NewStore()
	store.Directory().AddGuest("g1", "g2")
	store.Directory().AddService("spa", "breakfast")

	rooms := make(map[string]string)
	for _, seed := range []struct {
		number   string
		capacity int
	}{{"101", 2}, {"102", 4}, {"99", 0}} {
		room := &model.Room{HotelID: "h1", RoomNumber: seed.number, RoomType: "double", PricePerNight: 100, Capacity: seed.capacity, Available: true}
		if err := store.Rooms().Create(context.Background(), room); err != nil {
			t.Fatalf("seed room: %v", err)
		}
		rooms[seed.number] = room.ID
	}

	rec := &recorder{}
	clk := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := NewBookingService(
		store.Bookings(),
		store.Rooms(),
		store.Directory(),
		validator.NewBookingValidator(log),
		pol,
		rec,
		rec,
		clk,
		cfg,
	)

	return &harness{svc: svc, store: store, rec: rec, clock: clk, cfg: cfg, rooms: rooms}
}

func (h *harness) request(room, guest, in, out string) *model.BookingRequest {
	return &model.BookingRequest{
		GuestID:        guest,
		RoomID:         h.rooms[room],
		CheckInDate:    in,
		CheckOutDate:   out,
		NumberOfGuests: 1,
	}
}

func (h *harness) mustCreate(t *testing.T, a actor.Actor, req *model.BookingRequest) *model.Booking {
	t.Helper()
	b, err := h.svc.Create(context.Background(), a, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return b
}

func (h *harness) roomAvailable(t *testing.T, number string) bool {
	t.Helper()
	room, err := h.store.Rooms().FindByID(context.Background(), h.rooms[number])
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return room.Available
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreate_Success(t *testing.T) {
	h := newHarness(t)
	req := h.request("101", "g1", "2024-01-01", "2024-01-05")
	req.ServiceIDs = []string{" spa ", "spa", "breakfast"}

	b := h.mustCreate(t, guest1, req)

	if b.Status != model.StatusBooked {
		t.Errorf("expected BOOKED, got %s", b.Status)
	}
	if !codePattern.MatchString(b.BookingCode) {
		t.Errorf("unexpected booking code %q", b.BookingCode)
	}
	if len(b.ServiceIDs) != 2 {
		t.Errorf("expected deduplicated services, got %v", b.ServiceIDs)
	}
	if b.StaffID != "" {
		t.Errorf("guest-created booking should have no staff id, got %q", b.StaffID)
	}
	if h.roomAvailable(t, "101") {
		t.Errorf("room should be unavailable after booking")
	}
	if got := h.rec.actions(); len(got) != 1 || got[0] != model.ActionCreateBooking {
		t.Errorf("expected one CREATE_BOOKING audit event, got %v", got)
	}
	if len(h.rec.changes) != 0 {
		t.Errorf("create should not notify, got %d notifications", len(h.rec.changes))
	}

	stored, err := h.svc.GetByCode(context.Background(), guest1, b.BookingCode)
	if err != nil || stored.ID != b.ID {
		t.Fatalf("GetByCode: %v", err)
	}
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		actor  actor.Actor
		mutate func(h *harness, r *model.BookingRequest)
		code   string
	}{
		{"checkout before checkin", guest1, func(h *harness, r *model.BookingRequest) { r.CheckOutDate = "2023-12-30" }, apperrors.CodeValidation},
		{"zero guests", guest1, func(h *harness, r *model.BookingRequest) { r.NumberOfGuests = 0 }, apperrors.CodeValidation},
		{"unknown guest", staff, func(h *harness, r *model.BookingRequest) { r.GuestID = "ghost" }, apperrors.CodeNotFound},
		{"unknown room", guest1, func(h *harness, r *model.BookingRequest) { r.RoomID = "nope" }, apperrors.CodeNotFound},
		{"guest books for someone else", guest1, func(h *harness, r *model.BookingRequest) { r.GuestID = "g2" }, apperrors.CodeForbidden},
		{"unknown service", guest1, func(h *harness, r *model.BookingRequest) { r.ServiceIDs = []string{"spa", "golf"} }, apperrors.CodeNotFound},
		{"over capacity", guest1, func(h *harness, r *model.BookingRequest) { r.NumberOfGuests = 3 }, apperrors.CodeConflict},
		{"system cannot create", actor.System(), func(h *harness, r *model.BookingRequest) {}, apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := h.request("101", "g1", "2024-01-01", "2024-01-05")
			tt.mutate(h, req)

			_, err := h.svc.Create(context.Background(), tt.actor, req)
			assertCode(t, err, tt.code)

			if !h.roomAvailable(t, "101") {
				t.Errorf("failed create must not touch room availability")
			}
			if len(h.rec.events) != 0 {
				t.Errorf("failed create must not be audited")
			}
		})
	}
}

func TestCreate_UnlimitedCapacity(t *testing.T) {
	h := newHarness(t)
	req := h.request("99", "g1", "2024-01-01", "2024-01-02")
	req.NumberOfGuests = 12
	h.mustCreate(t, guest1, req)
}

func TestCreate_StaffOnBehalfOfGuest(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, staff, h.request("101", "g2", "2024-01-01", "2024-01-02"))
	if b.GuestID != "g2" || b.StaffID != "s1" {
		t.Errorf("unexpected booking %+v", b)
	}
}

func TestScenarioA_OverlappingCreateRejected(t *testing.T) {
	h := newHarness(t)
	h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

	_, err := h.svc.Create(context.Background(), guest2, h.request("101", "g2", "2024-01-03", "2024-01-07"))
	assertCode(t, err, apperrors.CodeConflict)
}

func TestScenarioB_AdjacentCreateSucceeds(t *testing.T) {
	h := newHarness(t)
	h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))
	h.mustCreate(t, guest2, h.request("101", "g2", "2024-01-06", "2024-01-08"))
}

func TestOverlapRules(t *testing.T) {
	tests := []struct {
		name     string
		turnover bool
		in, out  string
		wantCode string
	}{
		{"inclusive rejects same-day turnover", false, "2024-01-05", "2024-01-07", apperrors.CodeConflict},
		{"inclusive rejects contained stay", false, "2024-01-02", "2024-01-03", apperrors.CodeConflict},
		{"inclusive rejects ending on check-in day", false, "2023-12-28", "2024-01-01", apperrors.CodeConflict},
		{"half-open allows same-day turnover", true, "2024-01-05", "2024-01-07", ""},
		{"half-open allows ending on check-in day", true, "2023-12-28", "2024-01-01", ""},
		{"half-open rejects real overlap", true, "2024-01-04", "2024-01-06", apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(cfg *config.Config) { cfg.SameDayTurnover = tt.turnover })
			h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

			_, err := h.svc.Create(context.Background(), guest2, h.request("101", "g2", tt.in, tt.out))
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestScenarioC_GuestCannotCancelOthersBooking(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

	_, err := h.svc.Cancel(context.Background(), guest2, b.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	stored, _ := h.store.Bookings().FindByID(context.Background(), b.ID)
	if stored.Status != model.StatusBooked {
		t.Errorf("booking must stay BOOKED, got %s", stored.Status)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

	cancelled, err := h.svc.Cancel(context.Background(), guest1, b.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("unexpected booking after cancel: %+v", cancelled)
	}
	if !h.roomAvailable(t, "101") {
		t.Errorf("room should be released after cancel")
	}

	again, err := h.svc.Cancel(context.Background(), staff, b.ID)
	if err != nil || again.Status != model.StatusCancelled {
		t.Fatalf("second cancel should be a no-op, got %v", err)
	}
	if got := h.rec.actions(); len(got) != 2 || got[1] != model.ActionCancelBooking {
		t.Errorf("expected exactly one CANCEL_BOOKING event, got %v", got)
	}
	if len(h.rec.changes) != 1 || h.rec.changes[0].To != model.StatusCancelled {
		t.Errorf("expected one cancellation notification, got %+v", h.rec.changes)
	}

	// the freed dates can be booked again
	h.mustCreate(t, guest2, h.request("101", "g2", "2024-01-02", "2024-01-03"))
}

func TestCancel_CheckedOutConflicts(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))
	if _, err := h.svc.CheckOut(context.Background(), staff, b.ID); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	_, err := h.svc.Cancel(context.Background(), guest1, b.ID)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCancel_KeepsRoomBlockedByOtherBookings(t *testing.T) {
	h := newHarness(t)
	first := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))
	h.mustCreate(t, guest2, h.request("101", "g2", "2024-02-01", "2024-02-05"))

	if _, err := h.svc.Cancel(context.Background(), guest1, first.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if h.roomAvailable(t, "101") {
		t.Errorf("room still has an active booking and must stay unavailable")
	}
	if meta := h.rec.events[len(h.rec.events)-1].Metadata; meta["room_released"] != false {
		t.Errorf("expected room_released=false, got %v", meta["room_released"])
	}
}

func TestRoundTrip_CreateCheckInCheckOut(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

	_, err := h.svc.CheckIn(context.Background(), guest1, b.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	in, err := h.svc.CheckIn(context.Background(), staff, b.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if in.Status != model.StatusCheckedIn || in.StaffID != "s1" || in.CheckedInAt == nil {
		t.Errorf("unexpected booking after check-in: %+v", in)
	}
	if h.roomAvailable(t, "101") {
		t.Errorf("checked-in room must stay unavailable")
	}

	_, err = h.svc.CheckIn(context.Background(), staff, b.ID)
	assertCode(t, err, apperrors.CodeConflict)

	h.clock.Advance(4 * 24 * time.Hour)
	out, err := h.svc.CheckOut(context.Background(), staff, b.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if out.Status != model.StatusCheckedOut || out.CheckedOutAt == nil {
		t.Errorf("unexpected booking after check-out: %+v", out)
	}
	if !h.roomAvailable(t, "101") {
		t.Errorf("room should be released after check-out")
	}

	_, err = h.svc.CheckOut(context.Background(), staff, b.ID)
	assertCode(t, err, apperrors.CodeConflict)

	want := []string{model.ActionCreateBooking, model.ActionCheckIn, model.ActionCheckOut}
	got := h.rec.actions()
	if len(got) != len(want) {
		t.Fatalf("expected actions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if len(h.rec.changes) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(h.rec.changes))
	}
}

func TestCheckOutFromBooked(t *testing.T) {
	tests := []struct {
		name    string
		allowed bool
	}{
		{"tolerated by default", true},
		{"rejected when disabled", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(cfg *config.Config) { cfg.AllowCheckoutFromBooked = tt.allowed })
			b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

			_, err := h.svc.CheckOut(context.Background(), staff, b.ID)
			if tt.allowed {
				if err != nil {
					t.Fatalf("expected check-out from BOOKED, got %v", err)
				}
				return
			}
			assertCode(t, err, apperrors.CodeConflict)
		})
	}
}

func TestAddServices(t *testing.T) {
	h := newHarness(t)
	req := h.request("101", "g1", "2024-01-01", "2024-01-05")
	req.ServiceIDs = []string{"spa"}
	b := h.mustCreate(t, guest1, req)

	updated, err := h.svc.AddServices(context.Background(), guest1, b.ID, []string{"spa", "breakfast"})
	if err != nil {
		t.Fatalf("AddServices: %v", err)
	}
	if len(updated.ServiceIDs) != 2 {
		t.Errorf("expected spa and breakfast once each, got %v", updated.ServiceIDs)
	}

	_, err = h.svc.AddServices(context.Background(), guest1, b.ID, []string{"golf"})
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = h.svc.AddServices(context.Background(), guest2, b.ID, []string{"spa"})
	assertCode(t, err, apperrors.CodeForbidden)

	if _, err := h.svc.Cancel(context.Background(), guest1, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	_, err = h.svc.AddServices(context.Background(), guest1, b.ID, []string{"breakfast"})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestAttachReferences(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))
	if _, err := h.svc.Cancel(context.Background(), guest1, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	paid, err := h.svc.AttachPayment(context.Background(), actor.System(), b.ID, " pay-123 ")
	if err != nil {
		t.Fatalf("AttachPayment on terminal booking: %v", err)
	}
	if paid.PaymentRef != "pay-123" || paid.Status != model.StatusCancelled {
		t.Errorf("unexpected booking %+v", paid)
	}

	invoiced, err := h.svc.AttachInvoice(context.Background(), staff, b.ID, "inv-9")
	if err != nil || invoiced.InvoiceRef != "inv-9" {
		t.Fatalf("AttachInvoice: %v", err)
	}

	_, err = h.svc.AttachPayment(context.Background(), staff, "missing", "pay-1")
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = h.svc.AttachPayment(context.Background(), guest1, b.ID, "pay-1")
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = h.svc.AttachInvoice(context.Background(), staff, b.ID, "")
	assertCode(t, err, apperrors.CodeValidation)
}

func TestQueries(t *testing.T) {
	h := newHarness(t)
	b1 := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))
	h.mustCreate(t, guest1, h.request("102", "g1", "2024-03-01", "2024-03-02"))
	h.mustCreate(t, guest2, h.request("99", "g2", "2024-01-03", "2024-01-04"))

	_, err := h.svc.GetByID(context.Background(), guest2, b1.ID)
	assertCode(t, err, apperrors.CodeForbidden)
	if _, err := h.svc.GetByID(context.Background(), staff, b1.ID); err != nil {
		t.Errorf("staff should read any booking: %v", err)
	}
	_, err = h.svc.GetByID(context.Background(), staff, "missing")
	assertCode(t, err, apperrors.CodeNotFound)

	mine, total, err := h.svc.ListForGuest(context.Background(), guest1, "g1", 10, 0)
	if err != nil || total != 2 || len(mine) != 2 {
		t.Fatalf("ListForGuest: total=%d len=%d err=%v", total, len(mine), err)
	}
	if !mine[0].CheckInDate.After(mine[1].CheckInDate) {
		t.Errorf("expected most recent stay first")
	}
	_, _, err = h.svc.ListForGuest(context.Background(), guest1, "g2", 10, 0)
	assertCode(t, err, apperrors.CodeForbidden)

	_, _, err = h.svc.Search(context.Background(), staff, model.BookingFilter{}, 10, 0)
	assertCode(t, err, apperrors.CodeForbidden)

	from, _ := model.ParseDate("2024-01-04")
	to, _ := model.ParseDate("2024-01-10")
	found, total, err := h.svc.Search(context.Background(), admin, model.BookingFilter{From: &from, To: &to}, 10, 0)
	if err != nil || total != 2 || len(found) != 2 {
		t.Fatalf("Search by range: total=%d len=%d err=%v", total, len(found), err)
	}

	page, total, err := h.svc.Search(context.Background(), admin, model.BookingFilter{Status: model.StatusBooked}, 1, 1)
	if err != nil || total != 3 || len(page) != 1 {
		t.Fatalf("Search paginated: total=%d len=%d err=%v", total, len(page), err)
	}

	_, _, err = h.svc.Search(context.Background(), admin, model.BookingFilter{Status: "PENDING"}, 10, 0)
	assertCode(t, err, apperrors.CodeValidation)
	_, _, err = h.svc.Search(context.Background(), admin, model.BookingFilter{From: &to, To: &from}, 10, 0)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestConcurrentCreates_SingleWinner(t *testing.T) {
	h := newHarness(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	wg.Add(attempts)
	for i := range attempts {
		go func() {
			defer wg.Done()
			_, errs[i] = h.svc.Create(context.Background(), staff, h.request("101", "g1", "2024-01-01", "2024-01-05"))
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case !apperrors.HasCode(err, apperrors.CodeConflict):
			t.Errorf("losers must get CONFLICT, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful booking, got %d", wins)
	}

	active, err := h.store.Bookings().CountActiveByRoom(context.Background(), h.rooms["101"])
	if err != nil || active != 1 {
		t.Errorf("expected one active booking, got %d (err %v)", active, err)
	}
}

func TestInvariant_NoOverlappingActiveBookings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stays := [][2]string{
		{"2024-01-01", "2024-01-03"},
		{"2024-01-02", "2024-01-04"},
		{"2024-01-04", "2024-01-06"},
		{"2024-01-05", "2024-01-09"},
		{"2024-01-07", "2024-01-08"},
		{"2024-01-10", "2024-01-12"},
	}
	var created []*model.Booking
	for _, s := range stays {
		if b, err := h.svc.Create(ctx, staff, h.request("101", "g1", s[0], s[1])); err == nil {
			created = append(created, b)
		}
	}
	if len(created) > 0 {
		if _, err := h.svc.Cancel(ctx, staff, created[0].ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
	}
	for _, s := range stays {
		_, _ = h.svc.Create(ctx, staff, h.request("101", "g2", s[0], s[1]))
	}

	all, _, err := h.svc.Search(ctx, admin, model.BookingFilter{}, 100, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var active []*model.Booking
	for _, b := range all {
		if b.Status.IsActive() {
			active = append(active, b)
		}
	}
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if model.InclusiveBounds.Overlaps(a.CheckInDate, a.CheckOutDate, b.CheckInDate, b.CheckOutDate) {
				t.Errorf("active bookings overlap: %s..%s and %s..%s",
					a.CheckInDate.Format(model.DateLayout), a.CheckOutDate.Format(model.DateLayout),
					b.CheckInDate.Format(model.DateLayout), b.CheckOutDate.Format(model.DateLayout))
			}
		}
	}
	if h.roomAvailable(t, "101") != (len(active) == 0) {
		t.Errorf("room availability flag disagrees with %d active bookings", len(active))
	}
}

func TestForceCheckOut_LostRaceIsSkipped(t *testing.T) {
	h := newHarness(t)
	b := h.mustCreate(t, guest1, h.request("101", "g1", "2024-01-01", "2024-01-05"))

	if _, err := h.svc.Cancel(context.Background(), guest1, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	result, err := h.svc.ForceCheckOut(context.Background(), b)
	if err != nil {
		t.Fatalf("ForceCheckOut: %v", err)
	}
	if result.CheckedOut {
		t.Errorf("cancelled booking must not be checked out")
	}
	for _, action := range h.rec.actions() {
		if action == model.ActionAutoCheckOut {
			t.Errorf("no AUTO_CHECK_OUT event expected for a skipped booking")
		}
	}
}

func TestNewBookingCode(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		code := newBookingCode()
		if !codePattern.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 999 {
		t.Errorf("expected codes to be practically unique, got %d distinct of 1000", len(seen))
	}
}
