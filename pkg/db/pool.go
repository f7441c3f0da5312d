package db

import (
	"context"
	"fmt"
	"time"

	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig contains database pool configuration parameters
type PoolConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string
}

// NewPool opens a pgx pool for the document store and verifies it with a
// ping. TLS is enabled when the URL carries sslmode=require, verify-ca or
// verify-full, using the CA certificate at CACertPath.
func NewPool(ctx context.Context, poolCfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(poolCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	tlsConfig, err := tlsConfigFor(poolCfg.URL, poolCfg.CACertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	if tlsConfig != nil {
		config.ConnConfig.TLSConfig = tlsConfig
	}

	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns >= 0 && poolCfg.MinConns <= config.MaxConns {
		config.MinConns = poolCfg.MinConns
	}
	config.HealthCheckPeriod = 30 * time.Second
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RecordPoolStats publishes pool occupancy every interval until ctx is done
func RecordPoolStats(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	if pool == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat := pool.Stat()
				metrics.DBPoolConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
				metrics.DBPoolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
				metrics.DBPoolConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
			}
		}
	}()
}

// Close closes pool; a nil pool is ignored
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
