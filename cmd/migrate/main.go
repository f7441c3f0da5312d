package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/migrations"
	"github.com/getmentor/mentorship-api/pkg/db"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", "up", "up, down or version")
	steps := flag.Int("steps", 1, "migrations to roll back with -direction down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: "mentorship-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.WorkOffline {
		logger.Info("Offline mode: no migrations to run")
		return
	}

	logger.Info("Connecting for migrations",
		zap.String("database", maskDatabaseURL(cfg.Database.URL)),
		zap.String("direction", *direction))

	migrator, err := db.NewMigrator(cfg.Database.URL, cfg.Database.CACertPath, migrations.Files)
	if err != nil {
		logger.Error("Failed to prepare migrations", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	switch *direction {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down(*steps)
	case "version":
	default:
		logger.Error("Unknown direction", zap.String("direction", *direction))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}

	version, dirty, ok, err := migrator.Version()
	if err != nil {
		logger.Error("Failed to read schema version", zap.Error(err))
		os.Exit(1)
	}
	if !ok {
		logger.Info("Schema is empty")
		return
	}
	logger.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

// maskDatabaseURL hides credentials in the connection string
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
