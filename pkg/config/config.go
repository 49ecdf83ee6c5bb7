package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"roomkeeper/pkg/client"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	StorageBackend string
	SeedGuestIDs   []string
	SeedServiceIDs []string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CorsAllowedOrigins []string

	SameDayTurnover         bool
	AllowCheckoutFromBooked bool
	BookingCodeRetries      int

	ReconcileEnabled   bool
	ReconcileInterval  time.Duration
	ReconcileBatchSize int

	DispatchWorkers     int
	DispatchQueueSize   int
	DispatchOverflow    string
	DispatchTaskTimeout time.Duration

	AuditSink        string
	NotificationSink string
	ConsumersEnabled bool

	CassandraHosts    []string
	CassandraKeyspace string

	OtelEndpoint string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		StorageBackend: getEnvStr(EnvStorageBackend, DefaultStorageBackend),
		SeedGuestIDs:   getEnvList(EnvSeedGuestIDs, ""),
		SeedServiceIDs: getEnvList(EnvSeedServiceIDs, ""),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CorsAllowedOrigins: getEnvList(EnvCorsAllowedOrigins, DefaultCorsAllowedOrigins),

		SameDayTurnover:         getEnvBool(EnvSameDayTurnover, DefaultSameDayTurnover),
		AllowCheckoutFromBooked: getEnvBool(EnvAllowCheckoutFromBooked, DefaultAllowCheckoutFromBooked),
		BookingCodeRetries:      getEnvNum(EnvBookingCodeRetries, DefaultBookingCodeRetries),

		ReconcileEnabled:   getEnvBool(EnvReconcileEnabled, DefaultReconcileEnabled),
		ReconcileInterval:  getEnvDuration(EnvReconcileInterval, DefaultReconcileInterval),
		ReconcileBatchSize: getEnvNum(EnvReconcileBatchSize, DefaultReconcileBatchSize),

		DispatchWorkers:     getEnvNum(EnvDispatchWorkers, DefaultDispatchWorkers),
		DispatchQueueSize:   getEnvNum(EnvDispatchQueueSize, DefaultDispatchQueueSize),
		DispatchOverflow:    getEnvStr(EnvDispatchOverflow, DefaultDispatchOverflow),
		DispatchTaskTimeout: getEnvDuration(EnvDispatchTaskTimeout, DefaultDispatchTaskTimeout),

		AuditSink:        getEnvStr(EnvAuditSink, DefaultAuditSink),
		NotificationSink: getEnvStr(EnvNotificationSink, DefaultNotificationSink),
		ConsumersEnabled: getEnvBool(EnvConsumersEnabled, DefaultConsumersEnabled),

		CassandraHosts:    getEnvList(EnvCassandraHosts, DefaultCassandraHosts),
		CassandraKeyspace: getEnvStr(EnvCassandraKeyspace, DefaultCassandraKeyspace),

		OtelEndpoint: getEnvStr(EnvOtelEndpoint, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetCassandra() {
	cfg.Client.SetCassandra(cfg.Log, cfg.CassandraHosts, cfg.CassandraKeyspace, cfg.MongoConnTimeout)
}

// OverlapRule maps the turnover switch onto the date-collision rule.
func (cfg *Config) OverlapRule() model.OverlapRule {
	if cfg.SameDayTurnover {
		return model.SameDayTurnover
	}
	return model.InclusiveBounds
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.StorageBackend != StorageMongo && cfg.StorageBackend != StorageMemory {
		errors = append(errors, fmt.Sprintf("StorageBackend must be one of [%s, %s], got: %s", StorageMongo, StorageMemory, cfg.StorageBackend))
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.BookingCodeRetries <= 0 {
		errors = append(errors, fmt.Sprintf("BookingCodeRetries must be positive, got: %d", cfg.BookingCodeRetries))
	}

	if cfg.ReconcileInterval <= 0 {
		errors = append(errors, fmt.Sprintf("ReconcileInterval must be positive, got: %s", cfg.ReconcileInterval))
	}
	if cfg.ReconcileBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("ReconcileBatchSize must be positive, got: %d", cfg.ReconcileBatchSize))
	}

	if cfg.DispatchWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("DispatchWorkers must be positive, got: %d", cfg.DispatchWorkers))
	}
	if cfg.DispatchQueueSize <= 0 {
		errors = append(errors, fmt.Sprintf("DispatchQueueSize must be positive, got: %d", cfg.DispatchQueueSize))
	}
	if cfg.DispatchOverflow != OverflowCallerRuns && cfg.DispatchOverflow != OverflowReject {
		errors = append(errors, fmt.Sprintf("DispatchOverflow must be one of [%s, %s], got: %s", OverflowCallerRuns, OverflowReject, cfg.DispatchOverflow))
	}
	if cfg.DispatchTaskTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("DispatchTaskTimeout must be positive, got: %s", cfg.DispatchTaskTimeout))
	}

	if !slices.Contains([]string{SinkLog, SinkKafka, SinkCassandra}, cfg.AuditSink) {
		errors = append(errors, fmt.Sprintf("AuditSink must be one of [log, kafka, cassandra], got: %s", cfg.AuditSink))
	}
	if !slices.Contains([]string{SinkLog, SinkKafka}, cfg.NotificationSink) {
		errors = append(errors, fmt.Sprintf("NotificationSink must be one of [log, kafka], got: %s", cfg.NotificationSink))
	}
	if cfg.AuditSink == SinkCassandra {
		if len(cfg.CassandraHosts) == 0 {
			errors = append(errors, "CassandraHosts cannot be empty when AuditSink is cassandra")
		}
		if cfg.CassandraKeyspace == "" {
			errors = append(errors, "CassandraKeyspace cannot be empty when AuditSink is cassandra")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"storage_backend", cfg.StorageBackend,
		"seed_guest_ids", len(cfg.SeedGuestIDs),
		"seed_service_ids", len(cfg.SeedServiceIDs),
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"cors_allowed_origins", cfg.CorsAllowedOrigins,
		"overlap_rule", cfg.OverlapRule().String(),
		"allow_checkout_from_booked", cfg.AllowCheckoutFromBooked,
		"booking_code_retries", cfg.BookingCodeRetries,
		"reconcile_enabled", cfg.ReconcileEnabled,
		"reconcile_interval", cfg.ReconcileInterval,
		"reconcile_batch_size", cfg.ReconcileBatchSize,
		"dispatch_workers", cfg.DispatchWorkers,
		"dispatch_queue_size", cfg.DispatchQueueSize,
		"dispatch_overflow", cfg.DispatchOverflow,
		"dispatch_task_timeout", cfg.DispatchTaskTimeout,
		"audit_sink", cfg.AuditSink,
		"notification_sink", cfg.NotificationSink,
		"payment_consumers_enabled", cfg.ConsumersEnabled,
		"cassandra_hosts", cfg.CassandraHosts,
		"cassandra_keyspace", cfg.CassandraKeyspace,
		"otel_endpoint_set", cfg.OtelEndpoint != "",
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
