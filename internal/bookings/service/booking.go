package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bookingserrors "roomkeeper/internal/bookings/errors"
	"roomkeeper/internal/bookings/policy"
	"roomkeeper/internal/bookings/repository"
	"roomkeeper/internal/bookings/validator"
	"roomkeeper/internal/directory"
	roomserrors "roomkeeper/internal/rooms/errors"
	roomsrepository "roomkeeper/internal/rooms/repository"
	"roomkeeper/pkg/actor"
	"roomkeeper/pkg/clock"
	"roomkeeper/pkg/config"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/model"
	"roomkeeper/pkg/sanitizer"
)

const bookingCodeLength = 10

var tracer = otel.Tracer("roomkeeper/bookings")

// AuditRecorder receives one event per successful mutation. Delivery is the
// recorder's concern; failures never reach the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event model.AuditEvent)
}

// StatusNotifier is told about lifecycle changes a guest should hear about.
type StatusNotifier interface {
	Notify(ctx context.Context, change model.StatusChange)
}

// CheckOutResult describes what a forced check-out changed.
type CheckOutResult struct {
	CheckedOut   bool
	RoomReleased bool
}

type transitionResult struct {
	applied      bool
	roomReleased bool
}

type BookingService interface {
	Create(ctx context.Context, a actor.Actor, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, a actor.Actor, id string) (*model.Booking, error)
	GetByCode(ctx context.Context, a actor.Actor, code string) (*model.Booking, error)
	ListForGuest(ctx context.Context, a actor.Actor, guestID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Search(ctx context.Context, a actor.Actor, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, a actor.Actor, id string) (*model.Booking, error)
	CheckIn(ctx context.Context, a actor.Actor, id string) (*model.Booking, error)
	CheckOut(ctx context.Context, a actor.Actor, id string) (*model.Booking, error)
	AddServices(ctx context.Context, a actor.Actor, id string, serviceIDs []string) (*model.Booking, error)
	AttachPayment(ctx context.Context, a actor.Actor, id string, paymentRef string) (*model.Booking, error)
	AttachInvoice(ctx context.Context, a actor.Actor, id string, invoiceRef string) (*model.Booking, error)
	// ForceCheckOut closes an active booking on behalf of the system. A booking
	// whose status changed since it was read is left alone.
	ForceCheckOut(ctx context.Context, booking *model.Booking) (CheckOutResult, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	rooms     roomsrepository.RoomRepository
	directory directory.Directory
	validator *validator.BookingValidator
	policy    policy.Authorizer
	audit     AuditRecorder
	notifier  StatusNotifier
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms roomsrepository.RoomRepository,
	directory directory.Directory,
	validator *validator.BookingValidator,
	policy policy.Authorizer,
	audit AuditRecorder,
	notifier StatusNotifier,
	clock clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		rooms:     rooms,
		directory: directory,
		validator: validator,
		policy:    policy,
		audit:     audit,
		notifier:  notifier,
		clock:     clock,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, a actor.Actor, req *model.BookingRequest) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "bookings.Create", trace.WithAttributes(
		attribute.String("actor.role", string(a.Role)),
		attribute.String("room.id", req.RoomID),
	))
	defer func() { finishSpan(span, err) }()

	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActCreate); err != nil {
		return nil, err
	}

	s.sanitizeRequest(req)
	rule := s.cfg.OverlapRule()
	stay, err := s.validator.ValidateRequest(req, rule)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.ensureGuest(ctx, req.GuestID); err != nil {
		return nil, err
	}
	room, err := s.findRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeOwner(a, policy.ObjBooking, policy.ActCreate, req.GuestID); err != nil {
		return nil, err
	}
	if err := s.ensureServices(ctx, req.ServiceIDs); err != nil {
		return nil, err
	}
	if room.Capacity > 0 && req.NumberOfGuests > room.Capacity {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Room %s holds at most %d guests, requested %d",
			room.RoomNumber, room.Capacity, req.NumberOfGuests,
		))
	}

	now := s.now()
	booking := &model.Booking{
		RoomID:         room.ID,
		GuestID:        req.GuestID,
		CheckInDate:    stay.CheckIn,
		CheckOutDate:   stay.CheckOut,
		NumberOfGuests: req.NumberOfGuests,
		Status:         model.StatusBooked,
		ServiceIDs:     req.ServiceIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if a.IsStaff() {
		booking.StaffID = a.ID
	}

	retries := max(s.cfg.BookingCodeRetries, 1)
	for attempt := 1; ; attempt++ {
		booking.BookingCode = newBookingCode()
		err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			return s.reserve(txCtx, booking, rule)
		})
		if errors.Is(err, bookingserrors.ErrDuplicateCode) && attempt < retries {
			s.cfg.Log.Warn("Booking code collision, regenerating", "attempt", attempt)
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateCode) {
			err = apperrors.Internal("Failed to allocate a unique booking code", err)
		}
		if !apperrors.IsAppError(err) {
			err = apperrors.Internal("Failed to create booking", err)
		}
		s.logFailure("Failed to create booking", err, "room_id", room.ID, "guest_id", req.GuestID)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"booking_code", booking.BookingCode,
		"room_id", booking.RoomID,
		"guest_id", booking.GuestID,
		"check_in_date", booking.CheckInDate.Format(model.DateLayout),
		"check_out_date", booking.CheckOutDate.Format(model.DateLayout),
	)
	s.record(ctx, a, model.ActionCreateBooking, booking, map[string]any{
		"booking_code":   booking.BookingCode,
		"room_id":        booking.RoomID,
		"guest_id":       booking.GuestID,
		"check_in_date":  booking.CheckInDate.Format(model.DateLayout),
		"check_out_date": booking.CheckOutDate.Format(model.DateLayout),
	})
	return booking, nil
}

// reserve runs inside the create transaction. Claiming the room first makes
// concurrent writers on the same room conflict before either inserts.
func (s *bookingService) reserve(ctx context.Context, booking *model.Booking, rule model.OverlapRule) error {
	if _, err := s.rooms.Claim(ctx, booking.RoomID); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Room", booking.RoomID)
		}
		return apperrors.Internal("Failed to lock room", err)
	}

	overlapping, err := s.repo.FindActiveOverlapping(ctx, booking.RoomID, booking.CheckInDate, booking.CheckOutDate, rule)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if len(overlapping) > 0 {
		b := overlapping[0]
		return apperrors.Conflict("Room is already booked for the selected dates").WithDetails(map[string]any{
			"check_in_date":  b.CheckInDate.Format(model.DateLayout),
			"check_out_date": b.CheckOutDate.Format(model.DateLayout),
		})
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateCode) {
			return err
		}
		return apperrors.Internal("Failed to create booking", err)
	}

	if _, err := s.rooms.SetAvailability(ctx, booking.RoomID, false); err != nil {
		return apperrors.Internal("Failed to update room availability", err)
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, a actor.Actor, id string) (*model.Booking, error) {
	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActRead); err != nil {
		return nil, err
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeOwner(a, policy.ObjBooking, policy.ActRead, booking.GuestID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) GetByCode(ctx context.Context, a actor.Actor, code string) (*model.Booking, error) {
	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActRead); err != nil {
		return nil, err
	}

	normalized := sanitizer.SanitizeBookingCode(code)
	if normalized == "" {
		return nil, apperrors.InvalidInput("Booking code must be 10 letters or digits")
	}

	booking, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", normalized)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if err := s.policy.AuthorizeOwner(a, policy.ObjBooking, policy.ActRead, booking.GuestID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListForGuest(ctx context.Context, a actor.Actor, guestID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	guestID = sanitizer.SanitizeID(guestID)
	if guestID == "" {
		return nil, 0, apperrors.InvalidInput("Guest ID cannot be empty")
	}
	if err := s.policy.AuthorizeOwner(a, policy.ObjBooking, policy.ActList, guestID); err != nil {
		return nil, 0, err
	}

	return s.paginate(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByGuest(ctx, guestID) },
		func(ctx context.Context) ([]*model.Booking, error) {
			return s.repo.FindByGuest(ctx, guestID, limit, offset)
		},
		"guest_id", guestID, "limit", limit, "offset", offset,
	)
}

func (s *bookingService) Search(ctx context.Context, a actor.Actor, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActSearch); err != nil {
		return nil, 0, err
	}
	if err := s.validator.ValidateStatus(filter.Status); err != nil {
		return nil, 0, apperrors.Validation("Invalid search filter", map[string]any{"error": err.Error()})
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperrors.InvalidInput("'from' must not be after 'to'")
	}

	bookings, count, err := s.paginate(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx, filter) },
		func(ctx context.Context) ([]*model.Booking, error) {
			return s.repo.Search(ctx, filter, limit, offset)
		},
		"status", filter.Status, "limit", limit, "offset", offset,
	)
	if err != nil {
		return nil, 0, err
	}

	s.cfg.Log.Debug("Booking search completed",
		"status", filter.Status,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

func (s *bookingService) Cancel(ctx context.Context, a actor.Actor, id string) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "bookings.Cancel", trace.WithAttributes(attribute.String("booking.id", id)))
	defer func() { finishSpan(span, err) }()

	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActCancel); err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeOwner(a, policy.ObjBooking, policy.ActCancel, booking.GuestID); err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.StatusCancelled:
		return booking, nil
	case model.StatusCheckedOut:
		return nil, apperrors.Conflict("Booking is already checked out and cannot be cancelled")
	}

	now := s.now()
	from := booking.Status
	patch := model.StatusPatch{CancelledAt: &now, UpdatedAt: now}
	result, err := s.transition(ctx, booking, model.ActiveStatuses, model.StatusCancelled, patch, true)
	if err != nil {
		s.logFailure("Failed to cancel booking", err, "id", booking.ID)
		return nil, err
	}
	if !result.applied {
		latest, err := s.load(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if latest.Status == model.StatusCancelled {
			return latest, nil
		}
		return nil, apperrors.Conflict(fmt.Sprintf("Booking status changed to %s and cannot be cancelled", latest.Status))
	}

	applyPatch(booking, model.StatusCancelled, patch)
	s.cfg.Log.Info("Booking cancelled", "id", booking.ID, "from", from, "room_released", result.roomReleased, "actor", a.String())
	s.record(ctx, a, model.ActionCancelBooking, booking, map[string]any{
		"from":          string(from),
		"room_id":       booking.RoomID,
		"room_released": result.roomReleased,
	})
	s.notify(ctx, booking, from)
	return booking, nil
}

func (s *bookingService) CheckIn(ctx context.Context, a actor.Actor, id string) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "bookings.CheckIn", trace.WithAttributes(attribute.String("booking.id", id)))
	defer func() { finishSpan(span, err) }()

	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActCheckIn); err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.StatusBooked {
		return nil, apperrors.Conflict(fmt.Sprintf("Only BOOKED bookings can be checked in, booking is %s", booking.Status))
	}

	now := s.now()
	patch := model.StatusPatch{StaffID: a.ID, CheckedInAt: &now, UpdatedAt: now}
	result, err := s.transition(ctx, booking, []model.BookingStatus{model.StatusBooked}, model.StatusCheckedIn, patch, false)
	if err != nil {
		s.logFailure("Failed to check in booking", err, "id", booking.ID)
		return nil, err
	}
	if !result.applied {
		return nil, apperrors.Conflict("Booking status changed concurrently, check-in not applied")
	}

	applyPatch(booking, model.StatusCheckedIn, patch)
	s.cfg.Log.Info("Booking checked in", "id", booking.ID, "staff_id", a.ID)
	s.record(ctx, a, model.ActionCheckIn, booking, map[string]any{
		"room_id": booking.RoomID,
	})
	s.notify(ctx, booking, model.StatusBooked)
	return booking, nil
}

func (s *bookingService) CheckOut(ctx context.Context, a actor.Actor, id string) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "bookings.CheckOut", trace.WithAttributes(attribute.String("booking.id", id)))
	defer func() { finishSpan(span, err) }()

	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActCheckOut); err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := s.checkOutSources()
	if !slices.Contains(from, booking.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking in status %s cannot be checked out", booking.Status))
	}

	prior := booking.Status
	now := s.now()
	patch := model.StatusPatch{CheckedOutAt: &now, UpdatedAt: now}
	result, err := s.transition(ctx, booking, from, model.StatusCheckedOut, patch, true)
	if err != nil {
		s.logFailure("Failed to check out booking", err, "id", booking.ID)
		return nil, err
	}
	if !result.applied {
		return nil, apperrors.Conflict("Booking status changed concurrently, check-out not applied")
	}

	applyPatch(booking, model.StatusCheckedOut, patch)
	s.cfg.Log.Info("Booking checked out", "id", booking.ID, "from", prior, "room_released", result.roomReleased, "actor", a.String())
	s.record(ctx, a, model.ActionCheckOut, booking, map[string]any{
		"from":          string(prior),
		"room_id":       booking.RoomID,
		"room_released": result.roomReleased,
	})
	s.notify(ctx, booking, prior)
	return booking, nil
}

func (s *bookingService) ForceCheckOut(ctx context.Context, booking *model.Booking) (_ CheckOutResult, err error) {
	ctx, span := tracer.Start(ctx, "bookings.ForceCheckOut", trace.WithAttributes(attribute.String("booking.id", booking.ID)))
	defer func() { finishSpan(span, err) }()

	system := actor.System()
	if err := s.policy.Authorize(system, policy.ObjBooking, policy.ActCheckOut); err != nil {
		return CheckOutResult{}, err
	}

	prior := booking.Status
	now := s.now()
	patch := model.StatusPatch{CheckedOutAt: &now, UpdatedAt: now}
	result, err := s.transition(ctx, booking, model.ActiveStatuses, model.StatusCheckedOut, patch, true)
	if err != nil || !result.applied {
		return CheckOutResult{}, err
	}

	forced := booking.Clone()
	applyPatch(forced, model.StatusCheckedOut, patch)
	s.record(ctx, system, model.ActionAutoCheckOut, forced, map[string]any{
		"from":           string(prior),
		"room_id":        forced.RoomID,
		"room_released":  result.roomReleased,
		"check_out_date": forced.CheckOutDate.Format(model.DateLayout),
	})
	s.notify(ctx, forced, prior)
	return CheckOutResult{CheckedOut: true, RoomReleased: result.roomReleased}, nil
}

func (s *bookingService) AddServices(ctx context.Context, a actor.Actor, id string, serviceIDs []string) (*model.Booking, error) {
	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActAddServices); err != nil {
		return nil, err
	}

	serviceIDs = sanitizer.SanitizeIDs(serviceIDs)
	if err := s.validator.ValidateServices(&model.ServicesRequest{ServiceIDs: serviceIDs}); err != nil {
		return nil, apperrors.Validation("Invalid services", map[string]any{"error": err.Error()})
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeOwner(a, policy.ObjBooking, policy.ActAddServices, booking.GuestID); err != nil {
		return nil, err
	}
	if !booking.Status.IsActive() {
		return nil, apperrors.Conflict(fmt.Sprintf("Services cannot be added to a %s booking", booking.Status))
	}
	if err := s.ensureServices(ctx, serviceIDs); err != nil {
		return nil, err
	}

	ok, err := s.repo.AddServices(ctx, booking.ID, serviceIDs, s.now())
	if err != nil {
		s.cfg.Log.Error("Failed to add services", "id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to add services", err)
	}
	if !ok {
		return nil, apperrors.Conflict("Booking is no longer active")
	}

	updated, err := s.load(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, a, model.ActionAddServices, updated, map[string]any{
		"service_ids": serviceIDs,
	})
	return updated, nil
}

func (s *bookingService) AttachPayment(ctx context.Context, a actor.Actor, id string, paymentRef string) (*model.Booking, error) {
	return s.attach(ctx, a, id, paymentRef, model.ActionAttachPayment, "payment_ref", s.repo.SetPaymentRef)
}

func (s *bookingService) AttachInvoice(ctx context.Context, a actor.Actor, id string, invoiceRef string) (*model.Booking, error) {
	return s.attach(ctx, a, id, invoiceRef, model.ActionAttachInvoice, "invoice_ref", s.repo.SetInvoiceRef)
}

type refSetter func(ctx context.Context, id string, ref string, updatedAt time.Time) error

// attach records an external reference. Terminal bookings accept it too.
func (s *bookingService) attach(ctx context.Context, a actor.Actor, id, ref, action, field string, set refSetter) (*model.Booking, error) {
	if err := s.policy.Authorize(a, policy.ObjBooking, policy.ActAttach); err != nil {
		return nil, err
	}

	ref = sanitizer.SanitizeReference(ref)
	if err := s.validator.ValidateReference(&model.ReferenceRequest{Reference: ref}); err != nil {
		return nil, apperrors.Validation("Invalid reference", map[string]any{"error": err.Error()})
	}
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := set(ctx, id, ref, s.now()); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to attach reference", "id", id, "field", field, "error", err)
		return nil, apperrors.Internal("Failed to update booking", err)
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cfg.Log.Info("Reference attached to booking", "id", id, "field", field, "actor", a.String())
	s.record(ctx, a, action, booking, map[string]any{field: ref})
	return booking, nil
}

// --- Helpers ---

func (s *bookingService) transition(
	ctx context.Context,
	booking *model.Booking,
	from []model.BookingStatus,
	to model.BookingStatus,
	patch model.StatusPatch,
	release bool,
) (transitionResult, error) {
	var result transitionResult
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		result = transitionResult{}
		if release {
			if _, err := s.rooms.Claim(txCtx, booking.RoomID); err != nil {
				return apperrors.Internal("Failed to lock room", err)
			}
		}

		ok, err := s.repo.TransitionStatus(txCtx, booking.ID, from, to, patch)
		if err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}
		if !ok {
			return nil
		}
		result.applied = true

		if release {
			released, err := s.releaseRoom(txCtx, booking.RoomID)
			if err != nil {
				return err
			}
			result.roomReleased = released
		}
		return nil
	})
	return result, err
}

// releaseRoom recomputes the cached availability flag from the remaining
// active bookings and reports whether the room is now free.
func (s *bookingService) releaseRoom(ctx context.Context, roomID string) (bool, error) {
	active, err := s.repo.CountActiveByRoom(ctx, roomID)
	if err != nil {
		return false, apperrors.Internal("Failed to count active bookings", err)
	}
	available := active == 0
	if _, err := s.rooms.SetAvailability(ctx, roomID, available); err != nil {
		return false, apperrors.Internal("Failed to update room availability", err)
	}
	return available, nil
}

func (s *bookingService) checkOutSources() []model.BookingStatus {
	if s.cfg.AllowCheckoutFromBooked {
		return model.ActiveStatuses
	}
	return []model.BookingStatus{model.StatusCheckedIn}
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) findRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		s.cfg.Log.Error("Failed to retrieve room", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func (s *bookingService) ensureGuest(ctx context.Context, guestID string) error {
	exists, err := s.directory.GuestExists(ctx, guestID)
	if err != nil {
		s.cfg.Log.Error("Failed to look up guest", "guest_id", guestID, "error", err)
		return apperrors.Internal("Failed to look up guest", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("Guest", guestID)
	}
	return nil
}

func (s *bookingService) ensureServices(ctx context.Context, serviceIDs []string) error {
	if len(serviceIDs) == 0 {
		return nil
	}
	missing, err := s.directory.MissingServices(ctx, serviceIDs)
	if err != nil {
		s.cfg.Log.Error("Failed to look up services", "service_ids", serviceIDs, "error", err)
		return apperrors.Internal("Failed to look up services", err)
	}
	if len(missing) > 0 {
		return apperrors.NotFound("Service").WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func (s *bookingService) paginate(
	ctx context.Context,
	count func(context.Context) (int64, error),
	find func(context.Context) ([]*model.Booking, error),
	logArgs ...any,
) ([]*model.Booking, int64, error) {
	var total int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		total, err = count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", append(logArgs, "error", err)...)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = find(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", append(logArgs, "error", err)...)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, total, nil
}

func (s *bookingService) sanitizeRequest(req *model.BookingRequest) {
	req.GuestID = sanitizer.SanitizeID(req.GuestID)
	req.RoomID = sanitizer.SanitizeID(req.RoomID)
	req.CheckInDate = sanitizer.SanitizeID(req.CheckInDate)
	req.CheckOutDate = sanitizer.SanitizeID(req.CheckOutDate)
	req.ServiceIDs = sanitizer.SanitizeIDs(req.ServiceIDs)
}

func (s *bookingService) record(ctx context.Context, a actor.Actor, action string, booking *model.Booking, metadata map[string]any) {
	s.audit.Record(ctx, model.AuditEvent{
		ActorID:    a.ID,
		Action:     action,
		EntityType: model.EntityBooking,
		EntityID:   booking.ID,
		Metadata:   metadata,
		OccurredAt: booking.UpdatedAt,
	})
}

func (s *bookingService) notify(ctx context.Context, booking *model.Booking, from model.BookingStatus) {
	s.notifier.Notify(ctx, model.StatusChange{
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		GuestID:     booking.GuestID,
		RoomID:      booking.RoomID,
		From:        from,
		To:          booking.Status,
		OccurredAt:  booking.UpdatedAt,
	})
}

// logFailure keeps expected outcomes (conflicts, not found) out of the error log.
func (s *bookingService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.HasCode(err, apperrors.CodeInternal) {
		s.cfg.Log.Error(msg, args...)
		return
	}
	s.cfg.Log.Info(msg, args...)
}

func (s *bookingService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func applyPatch(b *model.Booking, to model.BookingStatus, patch model.StatusPatch) {
	b.Status = to
	b.UpdatedAt = patch.UpdatedAt
	if patch.StaffID != "" {
		b.StaffID = patch.StaffID
	}
	if patch.CheckedInAt != nil {
		b.CheckedInAt = patch.CheckedInAt
	}
	if patch.CheckedOutAt != nil {
		b.CheckedOutAt = patch.CheckedOutAt
	}
	if patch.CancelledAt != nil {
		b.CancelledAt = patch.CancelledAt
	}
}

// newBookingCode takes the leading characters of a dashless uppercase UUIDv4.
func newBookingCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:bookingCodeLength]
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
