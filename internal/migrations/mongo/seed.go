package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roomkeeper/internal/directory"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/sanitizer"
)

// SeedDirectory upserts guest and hotel-service ids into the directory
// collections. Existing documents are left untouched, so the job can run on
// every deploy.
func SeedDirectory(ctx context.Context, client *mongo.Client, dbName string, guestIDs, serviceIDs []string, log *logger.Logger) error {
	db := client.Database(dbName)
	now := time.Now().UTC()

	for collection, ids := range map[string][]string{
		directory.GuestsCollection:   guestIDs,
		directory.ServicesCollection: serviceIDs,
	} {
		models := seedModels(ids, now)
		if len(models) == 0 {
			continue
		}
		res, err := db.Collection(collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", collection, err)
		}
		log.Info("Seeded directory", "collection", collection, "requested", len(models), "inserted", res.UpsertedCount)
	}
	return nil
}

func seedModels(ids []string, now time.Time) []mongo.WriteModel {
	ids = sanitizer.SanitizeIDs(ids)
	models := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{"created_at": now}}).
			SetUpsert(true))
	}
	return models
}
