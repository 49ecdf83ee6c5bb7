package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "roomkeeper/internal/bookings/errors"
	"roomkeeper/pkg/config"
	mongotx "roomkeeper/pkg/db/mongo"
	"roomkeeper/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	FindByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, error)
	CountByGuest(ctx context.Context, guestID string) (int64, error)
	Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)

	FindActiveOverlapping(ctx context.Context, roomID string, start, end time.Time, rule model.OverlapRule) ([]*model.Booking, error)
	FindActiveRoomIDsOverlapping(ctx context.Context, start, end time.Time, rule model.OverlapRule) ([]string, error)
	CountActiveByRoom(ctx context.Context, roomID string) (int64, error)
	// FindOverdue returns active bookings whose check-out date is on or before
	// today, ordered by check-out date and id, starting after the cursor.
	FindOverdue(ctx context.Context, today time.Time, after *model.OverdueCursor, limit int) ([]*model.Booking, error)

	// TransitionStatus moves the booking to `to` only if its current status is
	// one of `from`. false means nothing matched.
	TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, patch model.StatusPatch) (bool, error)
	// AddServices appends ids not already present while the booking is active.
	AddServices(ctx context.Context, id string, serviceIDs []string, updatedAt time.Time) (bool, error)
	SetPaymentRef(ctx context.Context, id string, ref string, updatedAt time.Time) error
	SetInvoiceRef(ctx context.Context, id string, ref string, updatedAt time.Time) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout leaves session contexts untouched so calls stay inside their transaction.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func activeFilter() bson.M {
	return bson.M{"$in": model.ActiveStatuses}
}

// overlapFilter selects stays colliding with [start, end] under rule.
func overlapFilter(start, end time.Time, rule model.OverlapRule) bson.M {
	if rule == model.SameDayTurnover {
		return bson.M{
			"check_in_date":  bson.M{"$lt": end},
			"check_out_date": bson.M{"$gt": start},
		}
	}
	return bson.M{
		"check_in_date":  bson.M{"$lte": end},
		"check_out_date": bson.M{"$gte": start},
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.ID = ""
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return bookingserrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoBookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"booking_code": code})
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) FindByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "check_in_date", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"guest_id": guestID}, opts)
}

func (r *mongoBookingRepository) CountByGuest(ctx context.Context, guestID string) (int64, error) {
	return r.count(ctx, bson.M{"guest_id": guestID})
}

func buildSearchFilter(filter model.BookingFilter) bson.M {
	f := bson.M{}
	if filter.Status != "" {
		f["status"] = filter.Status
	}
	if filter.To != nil {
		f["check_in_date"] = bson.M{"$lte": *filter.To}
	}
	if filter.From != nil {
		f["check_out_date"] = bson.M{"$gte": *filter.From}
	}
	return f
}

func (r *mongoBookingRepository) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "check_in_date", Value: 1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, buildSearchFilter(filter), opts)
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	return r.count(ctx, buildSearchFilter(filter))
}

func (r *mongoBookingRepository) FindActiveOverlapping(ctx context.Context, roomID string, start, end time.Time, rule model.OverlapRule) ([]*model.Booking, error) {
	filter := overlapFilter(start, end, rule)
	filter["room_id"] = roomID
	filter["status"] = activeFilter()
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "check_in_date", Value: 1}}))
}

func (r *mongoBookingRepository) FindActiveRoomIDsOverlapping(ctx context.Context, start, end time.Time, rule model.OverlapRule) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := overlapFilter(start, end, rule)
	filter["status"] = activeFilter()

	values, err := r.collection.Distinct(ctx, "room_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied rooms: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *mongoBookingRepository) CountActiveByRoom(ctx context.Context, roomID string) (int64, error) {
	return r.count(ctx, bson.M{"room_id": roomID, "status": activeFilter()})
}

func (r *mongoBookingRepository) FindOverdue(ctx context.Context, today time.Time, after *model.OverdueCursor, limit int) ([]*model.Booking, error) {
	filter := bson.M{
		"status":         activeFilter(),
		"check_out_date": bson.M{"$lte": today},
	}
	if after != nil {
		oid, err := objectID(after.ID)
		if err != nil {
			return nil, err
		}
		filter["$or"] = bson.A{
			bson.M{"check_out_date": bson.M{"$gt": after.CheckOutDate}},
			bson.M{"check_out_date": after.CheckOutDate, "_id": bson.M{"$gt": oid}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "check_out_date", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, patch model.StatusPatch) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	set := bson.M{
		"status":     to,
		"updated_at": patch.UpdatedAt,
	}
	if patch.StaffID != "" {
		set["staff_id"] = patch.StaffID
	}
	if patch.CheckedInAt != nil {
		set["checked_in_at"] = *patch.CheckedInAt
	}
	if patch.CheckedOutAt != nil {
		set["checked_out_at"] = *patch.CheckedOutAt
	}
	if patch.CancelledAt != nil {
		set["cancelled_at"] = *patch.CancelledAt
	}

	filter := bson.M{"_id": oid, "status": bson.M{"$in": from}}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition booking: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) AddServices(ctx context.Context, id string, serviceIDs []string, updatedAt time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	filter := bson.M{"_id": oid, "status": activeFilter()}
	update := bson.M{
		"$addToSet": bson.M{"service_ids": bson.M{"$each": serviceIDs}},
		"$set":      bson.M{"updated_at": updatedAt},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add services to booking: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) setField(ctx context.Context, id, field, value string, updatedAt time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{field: value, "updated_at": updatedAt}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) SetPaymentRef(ctx context.Context, id string, ref string, updatedAt time.Time) error {
	return r.setField(ctx, id, "payment_ref", ref, updatedAt)
}

func (r *mongoBookingRepository) SetInvoiceRef(ctx context.Context, id string, ref string, updatedAt time.Time) error {
	return r.setField(ctx, id, "invoice_ref", ref, updatedAt)
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
