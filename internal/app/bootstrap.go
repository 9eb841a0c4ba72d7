// Package app is the composition root; bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"rollworks.io/erp/internal/api/handlers"
	"rollworks.io/erp/internal/app/modules"
	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/config"
	"rollworks.io/erp/internal/diagnostics"
	"rollworks.io/erp/internal/infrastructure"
	"rollworks.io/erp/internal/mixing"
	"rollworks.io/erp/internal/pkg/worker"
	"rollworks.io/erp/internal/repository"
	"rollworks.io/erp/internal/sms"
)

// Application holds composed application dependencies.
type Application struct {
	Config      *config.Config
	Router      *gin.Engine
	DB          *infrastructure.DatabaseClients
	Pools       *worker.Pools
	Store       *repository.Store
	Cascade     *cascade.Orchestrator
	Mixing      *mixing.Service
	SMS         *sms.Service
	Diagnostics *diagnostics.Checker
	Modules     []modules.Module
}

// Option customizes Bootstrap.
type Option func(*options)

type options struct {
	gateway sms.Gateway
}

// WithGateway sets the SMS provider. Without it sms.dry_run must be on.
func WithGateway(g sms.Gateway) Option {
	return func(o *options) { o.gateway = g }
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	production := modules.NewProductionModule(infra)
	smsModule, err := modules.NewSMSModule(infra, o.gateway)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init sms module: %w", err)
	}
	allModules := []modules.Module{production, smsModule}

	workers := river.NewWorkers()
	var periodic []*river.PeriodicJob
	for _, mod := range allModules {
		mod.RegisterWorkers(workers)
		periodic = append(periodic, mod.PeriodicJobs()...)
	}
	if err := infra.InitRiver(workers, periodic); err != nil {
		infra.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}
	smsModule.BindQueue(infra.DB.RiverClient)

	checker := diagnostics.New(infra.DB.Pool, infra.Store, infra.Pools.Diagnostics, repository.AllTables).
		WithWorkerMetrics(infra.Pools.Metrics)

	return &Application{
		Config:      cfg,
		Router:      newRouter(cfg, handlers.NewServer(checker)),
		DB:          infra.DB,
		Pools:       infra.Pools,
		Store:       infra.Store,
		Cascade:     production.Cascade,
		Mixing:      production.Mixing,
		SMS:         smsModule.Service,
		Diagnostics: checker,
		Modules:     allModules,
	}, nil
}
