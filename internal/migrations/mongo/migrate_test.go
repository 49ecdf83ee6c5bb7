package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCollectionsDeclareUniqueKeys(t *testing.T) {
	defs := collections()

	tests := []struct {
		collection string
		firstKey   string
	}{
		{"Rooms", "hotel_id"},
		{"Bookings", "booking_code"},
	}
	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			def, ok := defs[tt.collection]
			if !ok {
				t.Fatalf("collection %s is not migrated", tt.collection)
			}
			found := false
			for _, idx := range def.Indexes {
				keys, ok := idx.Keys.(bson.D)
				if !ok || len(keys) == 0 || keys[0].Key != tt.firstKey || idx.Options == nil {
					continue
				}
				if idx.Options.Unique != nil && *idx.Options.Unique {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a unique index starting with %s", tt.firstKey)
			}
		})
	}
}

func TestCollectionsHaveValidators(t *testing.T) {
	for name, def := range collections() {
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("collection %s has no $jsonSchema validator", name)
		}
	}
}

func TestSeedModels(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	models := seedModels([]string{" g1 ", "g2", "", "g1"}, now)
	if len(models) != 2 {
		t.Fatalf("expected 2 upserts after dedupe, got %d", len(models))
	}

	want := []string{"g1", "g2"}
	for i, m := range models {
		upd, ok := m.(*mongo.UpdateOneModel)
		if !ok {
			t.Fatalf("model %d: expected *mongo.UpdateOneModel, got %T", i, m)
		}
		if upd.Upsert == nil || !*upd.Upsert {
			t.Errorf("model %d: expected upsert", i)
		}
		filter, ok := upd.Filter.(bson.M)
		if !ok || filter["_id"] != want[i] {
			t.Errorf("model %d: expected filter on %q, got %v", i, want[i], upd.Filter)
		}
	}

	if got := seedModels(nil, now); len(got) != 0 {
		t.Errorf("expected no models for empty input, got %d", len(got))
	}
}
