// Package diagnostics reports database reachability, row counts and
// dangling references in the cascade subtree.
package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/domain"
	"rollworks.io/erp/internal/pkg/logger"
	"rollworks.io/erp/internal/pkg/worker"
)

// Report statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Edge is a reference from Child.Column to Parent.id.
type Edge struct {
	Child  string `json:"child"`
	Column string `json:"column"`
	Parent string `json:"parent"`
}

func (e Edge) String() string { return e.Child + "." + e.Column + " -> " + e.Parent }

// Edges lists every reference the Order and MixMaterial cascades walk.
var Edges = []Edge{
	{domain.TableJobOrders, domain.ColOrderID, domain.TableOrders},
	{domain.TableRolls, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableQualityChecks, domain.ColRollID, domain.TableRolls},
	{domain.TableQualityChecks, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableCorrectiveActions, domain.ColQualityCheckID, domain.TableQualityChecks},
	{domain.TableFinalProducts, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableSMSMessages, domain.ColOrderID, domain.TableOrders},
	{domain.TableSMSMessages, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableMixItems, domain.ColMixID, domain.TableMixMaterials},
	{domain.TableMixItems, domain.ColRawMaterialID, domain.TableRawMaterials},
	{domain.TableMixMachines, domain.ColMixID, domain.TableMixMaterials},
	{domain.TableMixMachines, "machine_id", domain.TableMachines},
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Source runs the counting queries. *repository.Store satisfies it.
type Source interface {
	CountRows(ctx context.Context, table string) (int64, error)
	CountOrphans(ctx context.Context, child, column, parent string) (int64, error)
}

// Orphans is the dangling-reference count of one edge.
type Orphans struct {
	Edge
	Count int64 `json:"count"`
}

// Report is the outcome of one diagnostics run.
type Report struct {
	Status    string           `json:"status"`
	Database  string           `json:"database"`
	Latency   time.Duration    `json:"latency_ns"`
	Tables    map[string]int64 `json:"tables"`
	Orphans   []Orphans        `json:"orphans"`
	Errors    []string         `json:"errors,omitempty"`
	Workers   map[string]any   `json:"workers,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}

// Checker runs diagnostics.
type Checker struct {
	db      Pinger
	src     Source
	pool    *worker.Pool
	tables  []string
	workers func() map[string]any
}

// New creates a Checker that counts tables and fans queries out on pool.
func New(db Pinger, src Source, pool *worker.Pool, tables []string) *Checker {
	return &Checker{db: db, src: src, pool: pool, tables: tables}
}

// WithWorkerMetrics adds the result of metrics, e.g. (*worker.Pools).Metrics,
// to every report.
func (c *Checker) WithWorkerMetrics(metrics func() map[string]any) *Checker {
	c.workers = metrics
	return c
}

// Ready pings the database.
func (c *Checker) Ready(ctx context.Context) error {
	if err := c.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Run pings the database and, when reachable, counts rows and orphans.
// Individual query failures degrade the report instead of failing it.
func (c *Checker) Run(ctx context.Context) Report {
	r := Report{
		Tables:    make(map[string]int64, len(c.tables)),
		Orphans:   []Orphans{},
		CheckedAt: time.Now().UTC(),
	}
	if c.workers != nil {
		r.Workers = c.workers()
	}

	start := time.Now()
	if err := c.Ready(ctx); err != nil {
		r.Status = StatusDown
		r.Database = "unreachable"
		r.Errors = []string{err.Error()}
		logger.Warn("Diagnostics: database unreachable", zap.Error(err))
		return r
	}
	r.Latency = time.Since(start)
	r.Database = "reachable"

	var mu sync.Mutex
	fns := make([]func(context.Context) error, 0, len(c.tables)+len(Edges))
	for _, table := range c.tables {
		fns = append(fns, func(ctx context.Context) error {
			n, err := c.src.CountRows(ctx, table)
			if err != nil {
				return err
			}
			mu.Lock()
			r.Tables[table] = n
			mu.Unlock()
			return nil
		})
	}
	for _, e := range Edges {
		fns = append(fns, func(ctx context.Context) error {
			n, err := c.src.CountOrphans(ctx, e.Child, e.Column, e.Parent)
			if err != nil {
				return err
			}
			mu.Lock()
			r.Orphans = append(r.Orphans, Orphans{Edge: e, Count: n})
			mu.Unlock()
			return nil
		})
	}

	err := c.pool.Run(ctx, fns...)
	r.Errors = errorStrings(err)

	sort.Slice(r.Orphans, func(i, j int) bool {
		return r.Orphans[i].String() < r.Orphans[j].String()
	})

	r.Status = StatusOK
	if len(r.Errors) > 0 {
		r.Status = StatusDegraded
	}
	for _, o := range r.Orphans {
		if o.Count > 0 {
			r.Status = StatusDegraded
			logger.Warn("Diagnostics: orphaned rows",
				zap.String("table", o.Child),
				zap.String("column", o.Column),
				zap.Int64("rows", o.Count),
			)
		}
	}
	logger.Info("Diagnostics completed",
		zap.String("status", r.Status),
		zap.Duration("latency", r.Latency),
		zap.Int("errors", len(r.Errors)),
	)
	return r
}

func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	sort.Strings(out)
	return out
}
