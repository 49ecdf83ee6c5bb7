package testutil

import (
	"os"
	"testing"
)

const (
	EnvServerURL = "TEST_SERVER_URL"
	EnvMongoURI  = "TEST_MONGO_URI"
	EnvDBName    = "TEST_DB_NAME"
)

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     getEnv(EnvMongoURI, DefaultMongoURI),
		DatabaseName: getEnv(EnvDBName, DefaultDatabaseName),
		ServerURL:    os.Getenv(EnvServerURL),
	}
}

// Setup connects to the running service and its database and empties every
// collection. Tests are skipped when no server URL is configured.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *Client) {
	t.Helper()

	if e.ServerURL == "" {
		t.Skipf("%s not set; skipping integration test", EnvServerURL)
	}

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)

	client := NewClient(e.ServerURL)
	client.WaitForReady(t, DefaultReadyTimeout)

	return mongo, client
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const DefaultReadyTimeout = 3 * ConnectionTimeout
