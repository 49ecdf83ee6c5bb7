package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvStorageBackend   = "STORAGE_BACKEND"
	EnvSeedGuestIDs     = "SEED_GUEST_IDS"
	EnvSeedServiceIDs   = "SEED_SERVICE_IDS"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCorsAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvSameDayTurnover         = "SAME_DAY_TURNOVER"
	EnvAllowCheckoutFromBooked = "ALLOW_CHECKOUT_FROM_BOOKED"
	EnvBookingCodeRetries      = "BOOKING_CODE_RETRIES"

	EnvReconcileEnabled   = "RECONCILE_ENABLED"
	EnvReconcileInterval  = "RECONCILE_INTERVAL"
	EnvReconcileBatchSize = "RECONCILE_BATCH_SIZE"

	EnvDispatchWorkers     = "DISPATCH_WORKERS"
	EnvDispatchQueueSize   = "DISPATCH_QUEUE_SIZE"
	EnvDispatchOverflow    = "DISPATCH_OVERFLOW"
	EnvDispatchTaskTimeout = "DISPATCH_TASK_TIMEOUT"

	EnvAuditSink        = "AUDIT_SINK"
	EnvNotificationSink = "NOTIFICATION_SINK"
	EnvConsumersEnabled = "PAYMENT_CONSUMERS_ENABLED"

	EnvCassandraHosts    = "CASSANDRA_HOSTS"
	EnvCassandraKeyspace = "CASSANDRA_KEYSPACE"

	EnvOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)
