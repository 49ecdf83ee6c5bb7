package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roomkeeper"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultStorageBackend = StorageMongo

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultCorsAllowedOrigins = "*"

	DefaultSameDayTurnover         = false
	DefaultAllowCheckoutFromBooked = true
	DefaultBookingCodeRetries      = 3

	DefaultReconcileEnabled   = true
	DefaultReconcileInterval  = 1 * time.Hour
	DefaultReconcileBatchSize = 500

	DefaultDispatchWorkers     = 4
	DefaultDispatchQueueSize   = 256
	DefaultDispatchOverflow    = OverflowCallerRuns
	DefaultDispatchTaskTimeout = 10 * time.Second

	DefaultAuditSink        = SinkLog
	DefaultNotificationSink = SinkLog
	DefaultConsumersEnabled = false

	DefaultCassandraHosts    = "localhost:9042"
	DefaultCassandraKeyspace = "roomkeeper"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	OverflowCallerRuns = "caller_runs"
	OverflowReject     = "reject"

	SinkLog       = "log"
	SinkKafka     = "kafka"
	SinkCassandra = "cassandra"
)
