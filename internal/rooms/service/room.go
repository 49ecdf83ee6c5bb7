package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"roomkeeper/internal/bookings/policy"
	roomserrors "roomkeeper/internal/rooms/errors"
	"roomkeeper/internal/rooms/repository"
	"roomkeeper/internal/rooms/validator"
	"roomkeeper/pkg/actor"
	"roomkeeper/pkg/config"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/model"
	"roomkeeper/pkg/sanitizer"
)

var tracer = otel.Tracer("roomkeeper/rooms")

// OccupancyReader reports which rooms hold an active booking overlapping a
// date range.
type OccupancyReader interface {
	FindActiveRoomIDsOverlapping(ctx context.Context, start, end time.Time, rule model.OverlapRule) ([]string, error)
}

type RoomService interface {
	FindAvailable(ctx context.Context, a actor.Actor, start, end time.Time) ([]model.RoomSummary, error)
	GetByID(ctx context.Context, a actor.Actor, id string) (*model.Room, error)
	GetAll(ctx context.Context, a actor.Actor, hotelID string, limit int, offset int64) ([]*model.Room, int64, error)
	Create(ctx context.Context, a actor.Actor, room *model.Room) error
}

type roomService struct {
	repo      repository.RoomRepository
	occupancy OccupancyReader
	validator *validator.RoomValidator
	policy    policy.Authorizer
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	occupancy OccupancyReader,
	validator *validator.RoomValidator,
	policy policy.Authorizer,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		occupancy: occupancy,
		validator: validator,
		policy:    policy,
		cfg:       cfg,
	}
}

func (s *roomService) FindAvailable(ctx context.Context, a actor.Actor, start, end time.Time) ([]model.RoomSummary, error) {
	ctx, span := tracer.Start(ctx, "rooms.FindAvailable")
	defer span.End()

	if err := s.policy.Authorize(a, policy.ObjRoom, policy.ActRead); err != nil {
		return nil, err
	}

	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, apperrors.InvalidInput("start date must not be after end date")
	}

	rooms, err := s.repo.ListAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}

	occupied, err := s.occupancy.FindActiveRoomIDsOverlapping(ctx, start, end, s.cfg.OverlapRule())
	if err != nil {
		s.cfg.Log.Error("Failed to load room occupancy", "start", start, "end", end, "error", err)
		return nil, apperrors.Internal("Failed to retrieve room occupancy", err)
	}

	busy := make(map[string]struct{}, len(occupied))
	for _, id := range occupied {
		busy[id] = struct{}{}
	}

	var free []*model.Room
	for _, room := range rooms {
		if _, taken := busy[room.ID]; taken {
			continue
		}
		free = append(free, room)
	}
	model.SortRoomsByNumber(free)

	summaries := make([]model.RoomSummary, 0, len(free))
	for _, room := range free {
		summaries = append(summaries, room.Summary())
	}

	s.cfg.Log.Debug("Availability query completed",
		"start", start.Format(model.DateLayout),
		"end", end.Format(model.DateLayout),
		"rooms", len(rooms),
		"available", len(summaries),
	)
	return summaries, nil
}

func (s *roomService) GetByID(ctx context.Context, a actor.Actor, id string) (*model.Room, error) {
	if err := s.policy.Authorize(a, policy.ObjRoom, policy.ActRead); err != nil {
		return nil, err
	}
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, a actor.Actor, hotelID string, limit int, offset int64) ([]*model.Room, int64, error) {
	if err := s.policy.Authorize(a, policy.ObjRoom, policy.ActRead); err != nil {
		return nil, 0, err
	}
	hotelID = sanitizer.SanitizeID(hotelID)

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, hotelID)
		if err != nil {
			s.cfg.Log.Error("Failed to count rooms", "hotel_id", hotelID, "error", err)
			errCount = apperrors.Internal("Failed to count rooms", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		rooms, err = s.repo.FindAll(ctx, hotelID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list rooms", "hotel_id", hotelID, "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve rooms", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

func (s *roomService) Create(ctx context.Context, a actor.Actor, room *model.Room) error {
	if err := s.policy.Authorize(a, policy.ObjRoom, policy.ActCreate); err != nil {
		return err
	}

	s.sanitize(room)
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	room.Available = true
	room.Version = 0
	room.CreatedAt = now
	room.UpdatedAt = now

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateNumber) {
			return apperrors.Conflict("Room number already exists in this hotel")
		}
		s.cfg.Log.Error("Failed to create room", "hotel_id", room.HotelID, "room_number", room.RoomNumber, "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully",
		"id", room.ID,
		"hotel_id", room.HotelID,
		"room_number", room.RoomNumber,
		"actor", a.String(),
	)
	return nil
}

func (s *roomService) sanitize(room *model.Room) {
	room.HotelID = sanitizer.SanitizeID(room.HotelID)
	room.RoomNumber = sanitizer.SanitizeRoomNumber(room.RoomNumber)
	room.RoomType = sanitizer.SanitizeRoomType(room.RoomType)
}
