// Package modules groups the composition root into domain-oriented units.
package modules

import (
	"context"

	"github.com/riverqueue/river"
)

// Module is a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging.
	Name() string

	// RegisterWorkers registers module workers into the shared River registry.
	RegisterWorkers(*river.Workers)

	// PeriodicJobs returns the module's scheduled jobs.
	PeriodicJobs() []*river.PeriodicJob

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}
