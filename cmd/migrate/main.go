package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongoMigration "roomkeeper/internal/migrations/mongo"
	"roomkeeper/pkg/config"
)

const (
	JobName    = "roomkeeper-migrate"
	jobTimeout = 2 * time.Minute
)

// Creates collections, validators and indexes, then upserts any guest and
// service ids listed in SEED_GUEST_IDS / SEED_SERVICE_IDS.
func main() {
	cfg := config.Load(JobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	started := time.Now()
	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		cfg.GracefulShutdown()
		os.Exit(1)
	}

	if len(cfg.SeedGuestIDs) > 0 || len(cfg.SeedServiceIDs) > 0 {
		err := mongoMigration.SeedDirectory(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.SeedGuestIDs, cfg.SeedServiceIDs, cfg.Log)
		if err != nil {
			cfg.Log.Error("Directory seed failed", "error", err)
			cfg.GracefulShutdown()
			os.Exit(1)
		}
	}

	cfg.Log.Info("Migration completed successfully", "duration", time.Since(started))
}
