package main

import (
	"flag"
	"log"
	"log/slog"

	"github.com/Skotchmaster/shops_api/internal/config"
	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/migrations"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to roll back with -down (0 = all)")
	down := flag.Bool("down", false, "roll migrations back instead of applying them")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "migrate")
	slog.SetDefault(logger)

	mg, err := migrations.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer mg.Close()

	if *down {
		err = mg.Down(*steps)
	} else {
		err = mg.Up()
	}
	if err != nil {
		logger.Error("migration_failed", "down", *down, "error", err)
		mg.Close()
		log.Fatal(err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		log.Fatalf("version: %v", err)
	}
	logger.Info("migration_complete", "version", version, "dirty", dirty)
}
