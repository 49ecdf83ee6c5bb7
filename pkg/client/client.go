package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roomkeeper/pkg/logger"
)

type Client struct {
	Mongo     *mongo.Client
	Cassandra *gocql.Session
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

// SetCassandra connects to the given keyspace, creating it first when missing.
func (c *Client) SetCassandra(log *logger.Logger, hosts []string, keyspace string, timeout time.Duration) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Timeout = timeout
	cluster.ConnectTimeout = timeout

	session, err := cluster.CreateSession()
	if err != nil {
		log.Fatal("Failed to connect to Cassandra", "error", err, "hosts", hosts)
	}
	err = session.Query(fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class' : 'SimpleStrategy', 'replication_factor' : 1}`, keyspace)).Exec()
	session.Close()
	if err != nil {
		log.Fatal("Failed to create Cassandra keyspace", "error", err, "keyspace", keyspace)
	}

	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		log.Fatal("Failed to open Cassandra keyspace", "error", err, "keyspace", keyspace)
	}

	log.Info("Successfully connected to Cassandra", "keyspace", keyspace)
	c.Cassandra = session
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		} else {
			log.Info("Disconnected from MongoDB")
		}
	}
	if c.Cassandra != nil {
		c.Cassandra.Close()
		log.Info("Closed Cassandra session")
	}
}
