package cascade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
	"rollworks.io/erp/internal/pkg/logger"
)

// Execution modes.
const (
	ModeTransactional = "transactional"
	ModeBestEffort    = "best_effort"
)

var errPreviewRollback = errors.New("cascade: preview rollback")

// Options configures an Orchestrator.
type Options struct {
	// Mode is ModeTransactional (default) or ModeBestEffort.
	Mode string
	// Timeout bounds one cascade; zero means only the caller's deadline applies.
	Timeout time.Duration
	// Events receives ORDER_DELETED / MIX_MATERIAL_DELETED after a cascade succeeds. Optional.
	Events *domain.EventDispatcher
}

// Orchestrator runs Order and MixMaterial cascades against a Backend.
type Orchestrator struct {
	backend Backend
	mode    string
	timeout time.Duration
	events  *domain.EventDispatcher
	log     *zap.Logger
}

// New creates an Orchestrator.
func New(backend Backend, opts Options) *Orchestrator {
	mode := opts.Mode
	if mode != ModeBestEffort {
		mode = ModeTransactional
	}
	return &Orchestrator{
		backend: backend,
		mode:    mode,
		timeout: opts.Timeout,
		events:  opts.Events,
		log:     logger.Named("cascade"),
	}
}

// Mode returns the configured execution mode.
func (o *Orchestrator) Mode() string { return o.mode }

// DeleteOrder removes the Order and every row that depends on it.
//
// In transactional mode either everything is removed or nothing is. In
// best-effort mode (or when the backend cannot open a transaction) each step
// runs on its own; failed steps are logged and returned together, and a row
// is kept whenever one of its descendants could not be removed.
//
// Deleting an Order that does not exist succeeds with an empty report.
func (o *Orchestrator) DeleteOrder(ctx context.Context, orderID int64) (Report, error) {
	report, err := o.run(ctx, domain.TableOrders, orderID, func(w *walker) error {
		return w.order(orderID)
	})
	if err != nil {
		return report, wrapFailure(err, report.Mode, "order", orderID)
	}
	o.publish(ctx, domain.EventOrderDeleted, report)
	return report, nil
}

// DeleteMixMaterial removes the MixMaterial with its MixItems and MixMachine rows.
// It is a hard removal: raw material stock is not restored. Callers that
// must give consumed stock back use mixing.Service.DeleteMixMaterial.
func (o *Orchestrator) DeleteMixMaterial(ctx context.Context, mixID int64) (Report, error) {
	report, err := o.run(ctx, domain.TableMixMaterials, mixID, func(w *walker) error {
		return w.mixMaterial(mixID)
	})
	if err != nil {
		return report, wrapFailure(err, report.Mode, "mix material", mixID)
	}
	o.publish(ctx, domain.EventMixMaterialDeleted, report)
	return report, nil
}

// Preview runs the Order cascade inside a transaction that is always rolled
// back and returns the counts that DeleteOrder would remove.
func (o *Orchestrator) Preview(ctx context.Context, orderID int64) (Report, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	report := newReport(domain.TableOrders, orderID)
	err := o.backend.WithinTx(ctx, func(tx Executor) error {
		w := newWalker(ctx, o.log, tx, false, domain.TableOrders, orderID)
		if err := w.order(orderID); err != nil {
			return err
		}
		report = w.report
		return errPreviewRollback
	})
	if err != nil && !errors.Is(err, errPreviewRollback) {
		return newReport(domain.TableOrders, orderID), fmt.Errorf("preview delete order %d: %w", orderID, err)
	}
	report.Mode = o.mode
	report.DryRun = true
	return report, nil
}

// RemoveMixMaterial runs the MixMaterial cascade on ex, which is expected to be
// bound to a transaction owned by the caller. The first failing step aborts.
func RemoveMixMaterial(ctx context.Context, ex Executor, mixID int64) (Report, error) {
	w := newWalker(ctx, logger.Named("cascade"), ex, false, domain.TableMixMaterials, mixID)
	if err := w.mixMaterial(mixID); err != nil {
		return w.report, err
	}
	return w.report, nil
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) run(ctx context.Context, root string, id int64, steps func(w *walker) error) (Report, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	if o.mode == ModeTransactional {
		var report Report
		err := o.backend.WithinTx(ctx, func(tx Executor) error {
			w := newWalker(ctx, o.log, tx, false, root, id)
			if err := steps(w); err != nil {
				return err
			}
			report = w.report
			return nil
		})
		if err == nil {
			report.Mode = ModeTransactional
			o.log.Info("Cascade delete committed",
				zap.String("table", root),
				zap.Int64("id", id),
				zap.Int64("rows", report.Total()),
			)
			return report, nil
		}
		if !errors.Is(err, ErrTxUnsupported) {
			o.log.Error("Cascade delete rolled back",
				zap.String("table", root),
				zap.Int64("id", id),
				zap.Error(err),
			)
			empty := newReport(root, id)
			empty.Mode = ModeTransactional
			return empty, err
		}
		o.log.Warn("Backend has no transactions, cascade falls back to best effort",
			zap.String("table", root),
			zap.Int64("id", id),
		)
	}

	w := newWalker(ctx, o.log, o.backend, true, root, id)
	err := multierr.Append(steps(w), w.errs)
	w.report.Mode = ModeBestEffort
	if err != nil {
		o.log.Error("Cascade delete incomplete",
			zap.String("table", root),
			zap.Int64("id", id),
			zap.Int64("rows", w.report.Total()),
			zap.Error(err),
		)
		return w.report, err
	}
	return w.report, nil
}

func (o *Orchestrator) publish(ctx context.Context, eventType domain.EventType, r Report) {
	if o.events == nil || !r.Found() {
		return
	}
	id := fmt.Sprint(r.ID)
	o.events.Publish(ctx, eventType, r.Root, id, domain.CascadePayload{
		RootTable: r.Root,
		RootID:    id,
		Rows:      r.Rows,
		Mode:      r.Mode,
	})
}

// wrapFailure tags a rolled-back cascade CASCADE_DELETE_FAILED and a
// best-effort one that left rows behind CASCADE_DELETE_INCOMPLETE.
func wrapFailure(err error, mode, what string, id int64) error {
	code := apperrors.CodeCascadeFailed
	if mode == ModeBestEffort {
		code = apperrors.CodeCascadeIncomplete
	}
	return apperrors.Wrap(err, code, "delete "+what+" "+strconv.FormatInt(id, 10), http.StatusInternalServerError)
}
