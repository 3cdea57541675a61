package main

// Run database migrations:
//   go run ./cmd/migrate          apply pending migrations
//   go run ./cmd/migrate -down    revert the latest migration

import (
	"context"
	"flag"
	"os"

	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/storage/db"
	"resume-ingest/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "revert the most recent migration")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		telemetry.Error("migrate.failed", map[string]any{"error": "DATABASE_URL is required"})
		os.Exit(1)
	}

	opts := db.OptionsFromEnv(db.ProfileMigrate.Options())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	run, action := db.RunMigrations, "up"
	if *down {
		run, action = db.RollbackMigration, "down"
	}
	if err := run(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"action": action, "error": err.Error()})
		os.Exit(1)
	}

	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		telemetry.Warn("migrate.version_unknown", map[string]any{"error": err.Error()})
		return
	}
	telemetry.Info("migrate.done", map[string]any{"action": action, "version": version})
}
