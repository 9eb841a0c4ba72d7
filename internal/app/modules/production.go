package modules

import (
	"context"

	"github.com/riverqueue/river"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/mixing"
)

// ProductionModule owns the Order cascade and MixItem maintenance.
type ProductionModule struct {
	Cascade *cascade.Orchestrator
	Mixing  *mixing.Service
}

// NewProductionModule wires both services to the Postgres store.
func NewProductionModule(infra *Infrastructure) *ProductionModule {
	return &ProductionModule{
		Cascade: cascade.New(infra.Store, cascade.Options{
			Mode:    infra.Config.Cascade.Mode,
			Timeout: infra.Config.Cascade.Timeout,
			Events:  infra.Events,
		}),
		Mixing: mixing.NewService(infra.Store.Ledger(), infra.Events),
	}
}

func (m *ProductionModule) Name() string { return "production" }

func (m *ProductionModule) RegisterWorkers(*river.Workers) {}

func (m *ProductionModule) PeriodicJobs() []*river.PeriodicJob { return nil }

func (m *ProductionModule) Shutdown(context.Context) error { return nil }
