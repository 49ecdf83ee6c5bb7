package main

import (
	"context"
	"errors"
	"time"

	"roomkeeper/internal/bookings/handler"
	"roomkeeper/internal/bookings/policy"
	bookingsrepository "roomkeeper/internal/bookings/repository"
	"roomkeeper/internal/bookings/service"
	"roomkeeper/internal/bookings/validator"
	"roomkeeper/internal/boundary"
	"roomkeeper/internal/directory"
	"roomkeeper/internal/health"
	"roomkeeper/internal/reconciliation"
	roomshandler "roomkeeper/internal/rooms/handler"
	roomsrepository "roomkeeper/internal/rooms/repository"
	roomsservice "roomkeeper/internal/rooms/service"
	roomsvalidator "roomkeeper/internal/rooms/validator"
	"roomkeeper/internal/storage/memory"
	"roomkeeper/pkg/app"
	"roomkeeper/pkg/clock"
	"roomkeeper/pkg/config"
	"roomkeeper/pkg/dispatch"
	"roomkeeper/pkg/kafka"
	kafka_config "roomkeeper/pkg/kafka/config"
	kafka_middleware "roomkeeper/pkg/kafka/middleware"
	"roomkeeper/pkg/observability"
)

const ServiceName = "bookings"

const tracingBatchTimeout = 5 * time.Second

type stores struct {
	rooms     roomsrepository.RoomRepository
	bookings  bookingsrepository.BookingRepository
	directory directory.Directory
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName:  ServiceName,
		Endpoint:     cfg.OtelEndpoint,
		BatchTimeout: tracingBatchTimeout,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to set up tracing", "error", err)
	}

	healthHandler := health.NewHandler(cfg.Log)
	st := initStorage(cfg, healthHandler)

	var kafkaCfg *kafka_config.Config
	if needsKafka(cfg) {
		kafkaCfg, err = kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)
	}

	dispatcher := dispatch.New(dispatch.Config{
		Workers:     cfg.DispatchWorkers,
		QueueSize:   cfg.DispatchQueueSize,
		Overflow:    dispatch.Overflow(cfg.DispatchOverflow),
		TaskTimeout: cfg.DispatchTaskTimeout,
	}, cfg.Log)

	audit, notify, producers := initSinks(ctx, cfg, kafkaCfg, healthHandler)
	emitter := boundary.NewEmitter(dispatcher, audit, notify, cfg.Log)

	authz, err := policy.New(cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to load authorization policy", "error", err)
	}

	systemClock := clock.NewSystem()
	bookingService := service.NewBookingService(
		st.bookings,
		st.rooms,
		st.directory,
		validator.NewBookingValidator(cfg.Log),
		authz,
		emitter,
		emitter,
		systemClock,
		cfg,
	)
	roomService := roomsservice.NewRoomService(
		st.rooms,
		st.bookings,
		roomsvalidator.NewRoomValidator(cfg.Log),
		authz,
		cfg,
	)

	scheduler := reconciliation.NewScheduler(st.bookings, bookingService, systemClock, reconciliation.Config{
		Interval:  cfg.ReconcileInterval,
		BatchSize: cfg.ReconcileBatchSize,
	}, cfg.Log)

	serverApp := app.NewApplication(cfg, ServiceName)
	serverApp.SetApp(
		healthHandler,
		handler.NewBookingHandler(bookingService, cfg.Log),
		roomshandler.NewRoomHandler(roomService, cfg.Log),
		reconciliation.NewHandler(scheduler, authz, cfg.Log),
	)

	// Hooks run in reverse registration order.
	serverApp.OnShutdown(func(ctx context.Context) {
		if err := shutdownTracing(ctx); err != nil {
			cfg.Log.Warn("Tracing shutdown failed", "error", err)
		}
	})
	serverApp.OnShutdown(func(context.Context) {
		cfg.GracefulShutdown()
	})
	serverApp.OnShutdown(func(context.Context) {
		for _, p := range producers {
			if err := p.Close(); err != nil {
				cfg.Log.Warn("Kafka producer close failed", "topic", p.Topic(), "error", err)
			}
		}
	})
	serverApp.OnShutdown(func(ctx context.Context) {
		if err := dispatcher.Stop(ctx); err != nil {
			cfg.Log.Warn("Dispatcher did not drain before shutdown", "error", err)
		}
	})

	if cfg.ConsumersEnabled {
		stopConsumers := startConsumers(ctx, cfg, kafkaCfg, bookingService)
		serverApp.OnShutdown(func(context.Context) {
			stopConsumers()
		})
	}

	if cfg.ReconcileEnabled {
		scheduler.Start(ctx)
		serverApp.OnShutdown(func(context.Context) {
			scheduler.Stop()
		})
	}

	serverApp.Run()
}

func initStorage(cfg *config.Config, healthHandler *health.Handler) stores {
	if cfg.StorageBackend == config.StorageMemory {
		store := memory.NewStore()
		store.Directory().AddGuest(cfg.SeedGuestIDs...)
		store.Directory().AddService(cfg.SeedServiceIDs...)
		cfg.Log.Warn("Using in-memory storage; data is lost on restart",
			"guests", len(cfg.SeedGuestIDs),
			"services", len(cfg.SeedServiceIDs),
		)
		return stores{
			rooms:     store.Rooms(),
			bookings:  store.Bookings(),
			directory: store.Directory(),
		}
	}

	cfg.SetMongo()
	healthHandler.Register("mongo", health.MongoCheck(cfg.Client.Mongo))
	cfg.Log.Info("Storage initialized", "backend", cfg.StorageBackend, "database", cfg.MongoDatabaseName)
	return stores{
		rooms:     roomsrepository.NewMongoRoomRepository(cfg),
		bookings:  bookingsrepository.NewMongoBookingRepository(cfg),
		directory: directory.NewMongoDirectory(cfg),
	}
}

func needsKafka(cfg *config.Config) bool {
	return cfg.AuditSink == config.SinkKafka ||
		cfg.NotificationSink == config.SinkKafka ||
		cfg.ConsumersEnabled
}

func initSinks(
	ctx context.Context,
	cfg *config.Config,
	kafkaCfg *kafka_config.Config,
	healthHandler *health.Handler,
) (boundary.AuditSink, boundary.NotificationSink, []*kafka.Producer) {
	var producers []*kafka.Producer
	newProducer := func(topic string) *kafka.Producer {
		p, err := kafka.NewProducer(kafkaCfg, topic, kafkaCfg.DLQTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			p.Use(kafka_middleware.TracingProducerMiddleware())
			p.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		}
		producers = append(producers, p)
		return p
	}

	logSink := boundary.NewLogSink(cfg.Log)

	var audit boundary.AuditSink = logSink
	switch cfg.AuditSink {
	case config.SinkKafka:
		audit = boundary.NewKafkaSink(newProducer(kafkaCfg.AuditTopic))
	case config.SinkCassandra:
		cfg.SetCassandra()
		sink, err := boundary.NewCassandraSink(ctx, cfg.Client.Cassandra)
		if err != nil {
			cfg.Log.Fatal("Failed to prepare Cassandra audit sink", "error", err)
		}
		healthHandler.Register("cassandra", health.CassandraCheck(cfg.Client.Cassandra))
		audit = sink
	}

	var notify boundary.NotificationSink = logSink
	if cfg.NotificationSink == config.SinkKafka {
		notify = boundary.NewKafkaSink(newProducer(kafkaCfg.StatusChangedTopic))
	}

	cfg.Log.Info("Boundary sinks initialized", "audit", cfg.AuditSink, "notification", cfg.NotificationSink)
	return audit, notify, producers
}

// startConsumers runs the payment and invoice consumers until the returned
// stop function is called.
func startConsumers(
	ctx context.Context,
	cfg *config.Config,
	kafkaCfg *kafka_config.Config,
	attacher boundary.ReferenceAttacher,
) func() {
	consumerCtx, cancel := context.WithCancel(ctx)

	subscriptions := []struct {
		topic   string
		handler kafka.MessageHandler
	}{
		{kafkaCfg.PaymentCompletedTopic, boundary.PaymentCompletedHandler(attacher, cfg.Log)},
		{kafkaCfg.InvoiceIssuedTopic, boundary.InvoiceIssuedHandler(attacher, cfg.Log)},
	}

	consumers := make([]*kafka.Consumer, 0, len(subscriptions))
	done := make(chan struct{}, len(subscriptions))
	for _, sub := range subscriptions {
		c, err := kafka.NewConsumer(kafkaCfg, sub.topic, kafkaCfg.ConsumerGroupID, kafkaCfg.DLQTopic, sub.handler, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "topic", sub.topic, "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			c.Use(kafka_middleware.TracingConsumerMiddleware())
			c.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		}
		consumers = append(consumers, c)

		go func(topic string, c *kafka.Consumer) {
			defer func() { done <- struct{}{} }()
			if err := c.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				cfg.Log.Error("Kafka consumer stopped", "topic", topic, "error", err)
			}
		}(sub.topic, c)
	}
	cfg.Log.Info("Kafka consumers started", "count", len(consumers))

	return func() {
		cancel()
		for range consumers {
			<-done
		}
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				cfg.Log.Warn("Kafka consumer close failed", "error", err)
			}
		}
	}
}
