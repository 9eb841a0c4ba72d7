// Package worker provides goroutine pool management.
//
// Naked goroutines are avoided: background and fan-out work goes through
// a pool with context propagation and unified panic recovery.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the worker pool collection.
type Pools struct {
	General     *Pool
	Diagnostics *Pool

	// serviceCtx is the service lifecycle context for detached tasks
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	GeneralPoolSize     int
	DiagnosticsPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		GeneralPoolSize:     50,
		DiagnosticsPoolSize: 8,
	}
}

// NewPools creates the worker pool collection.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	panicHandler := func(p interface{}) {
		logger.Error("Worker panic recovered",
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	generalAnts, err := ants.NewPool(cfg.GeneralPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	// Diagnostics queries are short and bounded by the pool size so a
	// report never opens more connections than the pool allows.
	diagAnts, err := ants.NewPool(cfg.DiagnosticsPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(30*time.Second),
	)
	if err != nil {
		generalAnts.Release()
		serviceCancel()
		return nil, err
	}

	return &Pools{
		General:       &Pool{pool: generalAnts, name: "general"},
		Diagnostics:   &Pool{pool: diagAnts, name: "diagnostics"},
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit submits a context-aware task.
// If ctx is already cancelled, returns ctx.Err() without submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		// may have been cancelled while queued
		select {
		case <-ctx.Done():
			logger.Debug("Task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Run submits every fn and waits for all of them. Errors are combined.
// A task skipped because ctx was cancelled contributes ctx.Err().
func (p *Pool) Run(ctx context.Context, fns ...func(ctx context.Context) error) error {
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
	}

	for _, fn := range fns {
		fn := fn
		if err := ctx.Err(); err != nil {
			record(err)
			continue
		}
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(err)
				return
			}
			record(fn(ctx))
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrPoolClosed
			}
			record(err)
		}
	}
	wg.Wait()
	return errs
}

// SubmitDetached submits a detached background task.
// Detached tasks use the service lifecycle context instead of a request
// context, so they survive request cancellation but still stop on shutdown.
func (p *Pools) SubmitDetached(poolName string, task Task) error {
	pool := p.General
	if poolName == p.Diagnostics.name {
		pool = p.Diagnostics
	}
	return pool.Submit(p.serviceCtx, task)
}

// Shutdown cancels the service context, then waits for running tasks (max 30s).
func (p *Pools) Shutdown() {
	p.serviceCancel()

	const shutdownTimeout = 30 * time.Second
	if err := p.General.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("General pool shutdown timeout", zap.Error(err))
	}
	if err := p.Diagnostics.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("Diagnostics pool shutdown timeout", zap.Error(err))
	}
}

// Metrics returns running, free and capacity counts per pool.
func (p *Pools) Metrics() map[string]any {
	return map[string]any{
		"general": map[string]int{
			"running": p.General.pool.Running(),
			"free":    p.General.pool.Free(),
			"cap":     p.General.pool.Cap(),
		},
		"diagnostics": map[string]int{
			"running": p.Diagnostics.pool.Running(),
			"free":    p.Diagnostics.pool.Free(),
			"cap":     p.Diagnostics.pool.Cap(),
		},
	}
}
