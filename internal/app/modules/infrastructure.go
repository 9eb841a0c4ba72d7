package modules

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/config"
	"rollworks.io/erp/internal/domain"
	"rollworks.io/erp/internal/infrastructure"
	"rollworks.io/erp/internal/pkg/logger"
	"rollworks.io/erp/internal/pkg/worker"
	"rollworks.io/erp/internal/repository"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config *config.Config
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
	Store  *repository.Store
	Events *domain.EventDispatcher
}

// NewInfrastructure opens the pool, optionally migrates, and starts the worker pools.
// Committed domain events are dispatched on the general pool.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize:     cfg.Worker.GeneralPoolSize,
		DiagnosticsPoolSize: cfg.Worker.DiagnosticsPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	events := domain.NewEventDispatcher()
	events.UseDetached(func(task func(context.Context)) error {
		return pools.SubmitDetached("general", task)
	})
	logEvents(events)

	return &Infrastructure{
		Config: cfg,
		DB:     db,
		Pools:  pools,
		Store:  repository.New(db.Pool),
		Events: events,
	}, nil
}

// logEvents records every committed domain event at debug level.
func logEvents(d *domain.EventDispatcher) {
	handler := func(_ context.Context, e *domain.DomainEvent) error {
		logger.Debug("Domain event",
			zap.String("event_type", string(e.EventType)),
			zap.String("aggregate_type", e.AggregateType),
			zap.String("aggregate_id", e.AggregateID),
			zap.ByteString("payload", e.Payload),
		)
		return nil
	}
	for _, t := range []domain.EventType{
		domain.EventOrderDeleted,
		domain.EventMixMaterialDeleted,
		domain.EventMixItemChanged,
		domain.EventSMSSent,
		domain.EventSMSFailed,
	} {
		d.Register(t, handler)
	}
}

// InitRiver creates the River client over the shared pool.
func (i *Infrastructure) InitRiver(workers *river.Workers, periodic []*river.PeriodicJob) error {
	if i == nil || i.DB == nil || i.Config == nil {
		return fmt.Errorf("infrastructure is not initialized")
	}
	if err := i.DB.InitRiverClient(workers, periodic, i.Config.River); err != nil {
		return fmt.Errorf("init river: %w", err)
	}
	return nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	}
}
