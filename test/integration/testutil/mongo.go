package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepository "roomkeeper/internal/bookings/repository"
	"roomkeeper/internal/directory"
	roomsrepository "roomkeeper/internal/rooms/repository"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "roomkeeper"
	ConnectionTimeout   = 10 * time.Second
)

// MongoHelper seeds and clears the service database behind the API.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanDatabase deletes documents rather than dropping collections so the
// migrated validators and unique indexes stay in place.
func (m *MongoHelper) CleanDatabase(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, name := range []string{
		bookingsrepository.CollectionName,
		roomsrepository.CollectionName,
		directory.GuestsCollection,
		directory.ServicesCollection,
	} {
		if _, err := m.Database.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			t.Fatalf("failed to clean collection %s: %v", name, err)
		}
	}
}

func (m *MongoHelper) SeedGuests(t *testing.T, ids ...string) {
	t.Helper()
	m.seed(t, directory.GuestsCollection, ids)
}

func (m *MongoHelper) SeedServices(t *testing.T, ids ...string) {
	t.Helper()
	m.seed(t, directory.ServicesCollection, ids)
}

func (m *MongoHelper) seed(t *testing.T, collection string, ids []string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs := make([]any, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, bson.M{"_id": id, "created_at": time.Now().UTC()})
	}
	if _, err := m.Database.Collection(collection).InsertMany(ctx, docs); err != nil {
		t.Fatalf("failed to seed %s: %v", collection, err)
	}
}

// SetBookingDates rewrites a stored booking's stay so tests can place it in
// the past without waiting for the calendar.
func (m *MongoHelper) SetBookingDates(t *testing.T, code string, checkIn, checkOut time.Time) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.Database.Collection(bookingsrepository.CollectionName).UpdateOne(ctx,
		bson.M{"booking_code": code},
		bson.M{"$set": bson.M{"check_in_date": checkIn, "check_out_date": checkOut}},
	)
	if err != nil {
		t.Fatalf("failed to move booking %s: %v", code, err)
	}
}
