// Package infrastructure provides database and connection pool setup.
//
// One pgxpool is shared by the repositories and River so that a row write
// and the job it enqueues commit in the same pgx.Tx.
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/config"
	"rollworks.io/erp/internal/pkg/logger"
)

// DatabaseClients contains all database-related clients.
// All clients share a single pgxpool connection pool.
type DatabaseClients struct {
	// Pool is the shared connection pool (repositories + River).
	Pool *pgxpool.Pool

	// RiverClient is the River job queue client backed by the shared pool.
	RiverClient *river.Client[pgx.Tx]

	dsn string
}

// NewDatabaseClients opens the shared pool and verifies the connection.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	dsn := cfg.DSN()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = time.Minute

	// Timestamps are stored and compared in UTC.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database connection pool created",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)

	return &DatabaseClients{Pool: pool, dsn: dsn}, nil
}

// Migrate applies the schema migrations and the River queue tables.
func (c *DatabaseClients) Migrate(ctx context.Context) error {
	if err := MigrateSchema(c.dsn); err != nil {
		return err
	}
	return MigrateRiver(ctx, c.Pool)
}

// InitRiverClient creates a River client with registered workers and periodic jobs.
// A nil workers bundle yields an insert-only client.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, periodic []*river.PeriodicJob, cfg config.RiverConfig) error {
	riverCfg := &river.Config{
		Workers:                     workers,
		PeriodicJobs:                periodic,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	}
	if workers != nil {
		maxWorkers := cfg.MaxWorkers
		if maxWorkers <= 0 {
			maxWorkers = 10
		}
		riverCfg.Queues = map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		}
	}

	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), riverCfg)
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("River client initialized",
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("periodic_jobs", len(periodic)),
	)
	return nil
}

// Close closes the connection pool.
func (c *DatabaseClients) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
