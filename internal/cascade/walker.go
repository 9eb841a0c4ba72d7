package cascade

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/domain"
)

// walker executes cascade steps leaves first.
//
// Every method returns (complete, err). err aborts the whole cascade: any
// failure when transactional, cancellation in both modes. In best-effort
// mode a failed step is recorded in errs and reported as complete=false so
// that the parent row is kept.
type walker struct {
	ctx        context.Context
	log        *zap.Logger
	ex         Executor
	bestEffort bool
	report     Report
	errs       error
}

func newWalker(ctx context.Context, log *zap.Logger, ex Executor, bestEffort bool, root string, id any) *walker {
	return &walker{
		ctx:        ctx,
		log:        log,
		ex:         ex,
		bestEffort: bestEffort,
		report:     newReport(root, id),
	}
}

func (w *walker) fail(err error, table string) error {
	if !w.bestEffort || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	w.log.Warn("Cascade step failed, continuing with unrelated rows",
		zap.String("table", table),
		zap.Error(err),
	)
	w.errs = multierr.Append(w.errs, err)
	return nil
}

func (w *walker) keys(table, column string, value any) ([]any, bool, error) {
	if err := w.ctx.Err(); err != nil {
		return nil, false, err
	}
	keys, err := w.ex.SelectKeys(w.ctx, table, domain.ColID, column, []any{value})
	if err != nil {
		return nil, false, w.fail(fmt.Errorf("select %s by %s=%v: %w", table, column, value, err), table)
	}
	return keys, true, nil
}

func (w *walker) delete(table, column string, values ...any) (bool, error) {
	if len(values) == 0 {
		return true, nil
	}
	if err := w.ctx.Err(); err != nil {
		return false, err
	}
	n, err := w.ex.DeleteWhere(w.ctx, table, column, values)
	if err != nil {
		return false, w.fail(fmt.Errorf("delete %s by %s: %w", table, column, err), table)
	}
	w.report.add(table, n)
	w.log.Debug("Cascade step",
		zap.String("table", table),
		zap.String("column", column),
		zap.Int64("rows", n),
	)
	return true, nil
}

// order: job orders (with their subtrees), then order-level SMS, then the order.
func (w *walker) order(orderID any) error {
	jobIDs, complete, err := w.keys(domain.TableJobOrders, domain.ColOrderID, orderID)
	if err != nil {
		return err
	}

	var cleared []any
	for _, jo := range jobIDs {
		done, err := w.jobOrder(jo)
		if err != nil {
			return err
		}
		if done {
			cleared = append(cleared, jo)
		} else {
			complete = false
		}
	}

	var ok bool
	if complete {
		ok, err = w.delete(domain.TableJobOrders, domain.ColOrderID, orderID)
	} else {
		// keep job orders whose descendants remain
		_, err = w.delete(domain.TableJobOrders, domain.ColID, cleared...)
	}
	if err != nil {
		return err
	}
	complete = complete && ok

	ok, err = w.delete(domain.TableSMSMessages, domain.ColOrderID, orderID)
	if err != nil {
		return err
	}
	complete = complete && ok

	if !complete {
		w.log.Warn("Order kept: some descendants could not be deleted",
			zap.Any("order_id", orderID),
		)
		return nil
	}
	_, err = w.delete(domain.TableOrders, domain.ColID, orderID)
	return err
}

// jobOrder removes everything below one job order, but not the job order itself.
func (w *walker) jobOrder(jobOrderID any) (bool, error) {
	rollIDs, complete, err := w.keys(domain.TableRolls, domain.ColJobOrderID, jobOrderID)
	if err != nil {
		return false, err
	}

	var cleared []any
	for _, roll := range rollIDs {
		checks, ok, err := w.keys(domain.TableQualityChecks, domain.ColRollID, roll)
		if err != nil {
			return false, err
		}
		if ok {
			ok, err = w.qualityChecks(checks)
			if err != nil {
				return false, err
			}
		}
		if ok {
			cleared = append(cleared, roll)
		} else {
			complete = false
		}
	}

	var ok bool
	if complete {
		ok, err = w.delete(domain.TableRolls, domain.ColJobOrderID, jobOrderID)
	} else {
		_, err = w.delete(domain.TableRolls, domain.ColID, cleared...)
	}
	if err != nil {
		return false, err
	}
	complete = complete && ok

	// checks attached to the job order directly, not through a roll
	checks, ok, err := w.keys(domain.TableQualityChecks, domain.ColJobOrderID, jobOrderID)
	if err != nil {
		return false, err
	}
	if ok {
		ok, err = w.qualityChecks(checks)
		if err != nil {
			return false, err
		}
	}
	complete = complete && ok

	for _, table := range []string{domain.TableSMSMessages, domain.TableFinalProducts} {
		ok, err = w.delete(table, domain.ColJobOrderID, jobOrderID)
		if err != nil {
			return false, err
		}
		complete = complete && ok
	}

	if !complete {
		w.log.Warn("Job order kept: some descendants could not be deleted",
			zap.Any("job_order_id", jobOrderID),
		)
	}
	return complete, nil
}

// qualityChecks deletes corrective actions, then the checks themselves.
func (w *walker) qualityChecks(ids []any) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	ok, err := w.delete(domain.TableCorrectiveActions, domain.ColQualityCheckID, ids...)
	if err != nil || !ok {
		return false, err
	}
	return w.delete(domain.TableQualityChecks, domain.ColID, ids...)
}

func (w *walker) mixMaterial(mixID any) error {
	itemsOK, err := w.delete(domain.TableMixItems, domain.ColMixID, mixID)
	if err != nil {
		return err
	}
	machinesOK, err := w.delete(domain.TableMixMachines, domain.ColMixID, mixID)
	if err != nil {
		return err
	}
	if !itemsOK || !machinesOK {
		w.log.Warn("Mix material kept: some children could not be deleted",
			zap.Any("mix_id", mixID),
		)
		return nil
	}
	_, err = w.delete(domain.TableMixMaterials, domain.ColID, mixID)
	return err
}
