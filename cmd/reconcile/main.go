// Command reconcile runs a single reconciliation pass over every mentor and
// exits. It is meant for cron jobs and manual repair after an incident.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/internal/database/postgres"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/db"
	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/retry"
	"go.uber.org/zap"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the pass after this long")
	mentorID := flag.String("mentor", "", "only reconcile this mentor's capacity counter")
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
		ServiceName: "mentorship-reconcile",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.WorkOffline {
		logger.Error("Reconciliation needs a database; DB_WORK_OFFLINE is set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:        cfg.Database.URL,
		MaxConns:   cfg.Database.MaxConns,
		MinConns:   cfg.Database.MinConns,
		CACertPath: cfg.Database.CACertPath,
	})
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	client := postgres.NewClient(pool)
	defer client.Close()

	agg := services.NewAggregates(services.AggregatesConfig{
		Mentors:     client.NewMentorStore(),
		Students:    client.NewStudentStore(),
		RepairRetry: retry.ReconcileConfig(cfg.Reconciliation.MaxRetries, cfg.Reconciliation.InitialDelay),
		Notifier:    services.NewTriggerNotifier(cfg, httpclient.NewStandardClient()),
	})
	relationships := services.NewRelationshipService(agg)

	if *mentorID != "" {
		corrected, err := relationships.ReconcileCapacity(ctx, *mentorID)
		if err != nil {
			logger.Error("Capacity reconciliation failed", zap.String("mentor_id", *mentorID), zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Capacity reconciliation finished",
			zap.String("mentor_id", *mentorID),
			zap.Bool("corrected", corrected))
		return
	}

	summary, err := relationships.RunReconciliationPass(ctx)
	if err != nil {
		logger.Error("Reconciliation pass failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Reconciliation pass finished",
		zap.Int("pairs", summary.Pairs),
		zap.Int("repaired", summary.Repaired),
		zap.Int("conflicts", summary.Conflicts),
		zap.Int("counters_corrected", summary.CountersCorrected),
		zap.Int("errors", summary.Errors))

	if summary.Errors > 0 {
		os.Exit(2)
	}
}
