// Package directory answers existence questions about reference data owned
// by other services: guests and the hotel's bookable services.
package directory

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roomkeeper/pkg/config"
	mongotx "roomkeeper/pkg/db/mongo"
)

const (
	GuestsCollection   = "Guests"
	ServicesCollection = "Hotel_services"
)

type Directory interface {
	GuestExists(ctx context.Context, guestID string) (bool, error)
	// MissingServices returns the ids in serviceIDs that do not exist.
	MissingServices(ctx context.Context, serviceIDs []string) ([]string, error)
}

type mongoDirectory struct {
	cfg      *config.Config
	guests   *mongo.Collection
	services *mongo.Collection
}

func NewMongoDirectory(cfg *config.Config) Directory {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDirectory{
		cfg:      cfg,
		guests:   db.Collection(GuestsCollection),
		services: db.Collection(ServicesCollection),
	}
}

func (d *mongoDirectory) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if mongotx.InTransaction(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.cfg.ReadTimeout)
}

// idCandidates matches documents keyed either by ObjectID or by plain string.
func idCandidates(ids ...string) bson.A {
	out := make(bson.A, 0, len(ids)*2)
	for _, id := range ids {
		out = append(out, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

func (d *mongoDirectory) GuestExists(ctx context.Context, guestID string) (bool, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	count, err := d.guests.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": idCandidates(guestID)}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up guest: %w", err)
	}
	return count > 0, nil
}

func (d *mongoDirectory) MissingServices(ctx context.Context, serviceIDs []string) ([]string, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	found, err := d.services.Distinct(ctx, "_id", bson.M{"_id": bson.M{"$in": idCandidates(serviceIDs...)}})
	if err != nil {
		return nil, fmt.Errorf("failed to look up services: %w", err)
	}

	have := make([]string, 0, len(found))
	for _, v := range found {
		have = append(have, idString(v))
	}
	return Missing(serviceIDs, have), nil
}

// Missing returns the wanted ids absent from have, in wanted order.
func Missing(wanted, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}

	var missing []string
	for _, id := range wanted {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
