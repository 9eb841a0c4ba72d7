package mixing

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"go.uber.org/zap"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
	"rollworks.io/erp/internal/pkg/logger"
)

// Service mutates MixItems.
//
// Every operation runs in one ledger transaction. The MixMaterial row is
// locked first, then the item, then the raw material, so concurrent
// mutations of one mix serialize and cannot deadlock each other.
type Service struct {
	ledger Ledger
	events *domain.EventDispatcher
	log    *zap.Logger
}

// NewService creates a Service. events is optional.
func NewService(ledger Ledger, events *domain.EventDispatcher) *Service {
	return &Service{ledger: ledger, events: events, log: logger.Named("mixing")}
}

// NewItem is the input of CreateItem.
type NewItem struct {
	MixID         int64   `json:"mixId"`
	RawMaterialID int64   `json:"rawMaterialId"`
	Quantity      float64 `json:"quantity"`
}

// CreateItem consumes quantity from the raw material and adds the item to the mix.
// Fails with INSUFFICIENT_RAW_MATERIAL, changing nothing, when stock is short.
func (s *Service) CreateItem(ctx context.Context, in NewItem) (*domain.MixItem, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidQuantity, "mix item quantity must be positive")
	}

	var (
		created *domain.MixItem
		total   float64
	)
	err := s.ledger.WithinTx(ctx, func(tx LedgerTx) error {
		mix, err := lockMix(ctx, tx, in.MixID)
		if err != nil {
			return err
		}
		if err := consume(ctx, tx, in.RawMaterialID, in.Quantity); err != nil {
			return err
		}

		created, err = tx.InsertMixItem(ctx, in.MixID, in.RawMaterialID, in.Quantity)
		if err != nil {
			return fmt.Errorf("insert mix item: %w", err)
		}

		total = mix.TotalQuantity + in.Quantity
		if err := tx.SetMixTotal(ctx, mix.ID, total); err != nil {
			return fmt.Errorf("set mix %d total: %w", mix.ID, err)
		}
		pct, err := rebalance(ctx, tx, mix.ID, total)
		if err != nil {
			return err
		}
		created.Percentage = pct[created.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "create", created, in.Quantity, total)
	return created, nil
}

// UpdateItem changes an item's quantity, consuming or returning the delta.
// Returns (nil, nil) when the item does not exist.
func (s *Service) UpdateItem(ctx context.Context, id int64, quantity float64) (*domain.MixItem, error) {
	if quantity <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidQuantity, "mix item quantity must be positive")
	}

	var (
		updated *domain.MixItem
		delta   float64
		total   float64
	)
	err := s.ledger.WithinTx(ctx, func(tx LedgerTx) error {
		item, mix, err := lockItem(ctx, tx, id)
		if err != nil || item == nil {
			return err
		}

		delta = quantity - item.Quantity
		switch {
		case delta > 0:
			if err := consume(ctx, tx, item.RawMaterialID, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := restore(ctx, tx, item.RawMaterialID, -delta); err != nil {
				return err
			}
		}

		if err := tx.SetMixItemQuantity(ctx, id, quantity); err != nil {
			return fmt.Errorf("set mix item %d quantity: %w", id, err)
		}
		total = settle(mix.TotalQuantity + delta)
		if err := tx.SetMixTotal(ctx, mix.ID, total); err != nil {
			return fmt.Errorf("set mix %d total: %w", mix.ID, err)
		}
		pct, err := rebalance(ctx, tx, mix.ID, total)
		if err != nil {
			return err
		}

		item.Quantity = quantity
		item.Percentage = pct[id]
		updated = item
		return nil
	})
	if err != nil || updated == nil {
		return nil, err
	}

	s.publish(ctx, "update", updated, delta, total)
	return updated, nil
}

// DeleteItem removes an item and returns its quantity to the raw material.
// Returns false when the item does not exist.
func (s *Service) DeleteItem(ctx context.Context, id int64) (bool, error) {
	var (
		deleted *domain.MixItem
		total   float64
	)
	err := s.ledger.WithinTx(ctx, func(tx LedgerTx) error {
		item, mix, err := lockItem(ctx, tx, id)
		if err != nil || item == nil {
			return err
		}

		if err := restore(ctx, tx, item.RawMaterialID, item.Quantity); err != nil {
			return err
		}
		if _, err := tx.DeleteWhere(ctx, domain.TableMixItems, domain.ColID, []any{id}); err != nil {
			return fmt.Errorf("delete mix item %d: %w", id, err)
		}

		total = settle(mix.TotalQuantity - item.Quantity)
		if err := tx.SetMixTotal(ctx, mix.ID, total); err != nil {
			return fmt.Errorf("set mix %d total: %w", mix.ID, err)
		}
		if _, err := rebalance(ctx, tx, mix.ID, total); err != nil {
			return err
		}
		deleted = item
		return nil
	})
	if err != nil || deleted == nil {
		return false, err
	}

	s.publish(ctx, "delete", deleted, -deleted.Quantity, total)
	return true, nil
}

// DeleteMixMaterial returns every item's quantity to its raw material, then
// removes the items, the machine associations and the mix in the same
// transaction. Deleting a missing mix is a no-op.
func (s *Service) DeleteMixMaterial(ctx context.Context, mixID int64) (cascade.Report, error) {
	var report cascade.Report
	err := s.ledger.WithinTx(ctx, func(tx LedgerTx) error {
		mix, err := tx.MixMaterialForUpdate(ctx, mixID)
		if err != nil {
			return fmt.Errorf("lock mix %d: %w", mixID, err)
		}
		if mix == nil {
			report, err = cascade.RemoveMixMaterial(ctx, tx, mixID)
			return err
		}

		items, err := tx.MixItems(ctx, mixID)
		if err != nil {
			return fmt.Errorf("list mix %d items: %w", mixID, err)
		}
		for _, item := range items {
			if err := restore(ctx, tx, item.RawMaterialID, item.Quantity); err != nil {
				return err
			}
		}

		report, err = cascade.RemoveMixMaterial(ctx, tx, mixID)
		return err
	})
	if err != nil {
		return cascade.Report{}, apperrors.Wrap(err, apperrors.CodeCascadeFailed,
			fmt.Sprintf("delete mix material %d", mixID), http.StatusInternalServerError)
	}

	report.Mode = cascade.ModeTransactional
	if report.Found() {
		s.log.Info("Mix material deleted with stock restored",
			zap.Int64("mix_id", mixID),
			zap.Int64("items", report.Rows[domain.TableMixItems]),
		)
		s.events.Publish(ctx, domain.EventMixMaterialDeleted, domain.TableMixMaterials, fmt.Sprint(mixID),
			domain.CascadePayload{
				RootTable: domain.TableMixMaterials,
				RootID:    fmt.Sprint(mixID),
				Rows:      report.Rows,
				Mode:      report.Mode,
			})
	}
	return report, nil
}

func (s *Service) publish(ctx context.Context, op string, item *domain.MixItem, delta, total float64) {
	s.log.Debug("Mix item changed",
		zap.String("operation", op),
		zap.Int64("mix_id", item.MixID),
		zap.Int64("mix_item_id", item.ID),
		zap.Float64("delta", delta),
		zap.Float64("total_quantity", total),
	)
	s.events.Publish(ctx, domain.EventMixItemChanged, domain.TableMixItems, fmt.Sprint(item.ID), domain.MixItemPayload{
		Operation:     op,
		MixID:         item.MixID,
		MixItemID:     item.ID,
		RawMaterialID: item.RawMaterialID,
		Delta:         delta,
		TotalQuantity: total,
	})
}

func lockMix(ctx context.Context, tx LedgerTx, mixID int64) (*domain.MixMaterial, error) {
	mix, err := tx.MixMaterialForUpdate(ctx, mixID)
	if err != nil {
		return nil, fmt.Errorf("lock mix %d: %w", mixID, err)
	}
	if mix == nil {
		return nil, apperrors.NotFound(apperrors.CodeMixMaterialNotFound,
			fmt.Sprintf("mix material %d not found", mixID))
	}
	return mix, nil
}

// lockItem reads the item to find its mix, locks the mix, then re-reads the
// item under that lock. Returns (nil, nil, nil) when the item is gone.
func lockItem(ctx context.Context, tx LedgerTx, id int64) (*domain.MixItem, *domain.MixMaterial, error) {
	item, err := tx.MixItem(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get mix item %d: %w", id, err)
	}
	if item == nil {
		return nil, nil, nil
	}
	mix, err := lockMix(ctx, tx, item.MixID)
	if err != nil {
		return nil, nil, err
	}
	item, err = tx.MixItem(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get mix item %d: %w", id, err)
	}
	if item == nil || item.MixID != mix.ID {
		return nil, nil, nil
	}
	return item, mix, nil
}

func consume(ctx context.Context, tx LedgerTx, rawMaterialID int64, qty float64) error {
	rm, err := lockRawMaterial(ctx, tx, rawMaterialID)
	if err != nil {
		return err
	}
	if rm.Quantity < qty {
		return apperrors.ErrInsufficientStockf(rawMaterialID, rm.Quantity, qty)
	}
	if err := tx.SetRawMaterialQuantity(ctx, rawMaterialID, rm.Quantity-qty); err != nil {
		return fmt.Errorf("consume raw material %d: %w", rawMaterialID, err)
	}
	return nil
}

func restore(ctx context.Context, tx LedgerTx, rawMaterialID int64, qty float64) error {
	rm, err := lockRawMaterial(ctx, tx, rawMaterialID)
	if err != nil {
		return err
	}
	if err := tx.SetRawMaterialQuantity(ctx, rawMaterialID, rm.Quantity+qty); err != nil {
		return fmt.Errorf("restore raw material %d: %w", rawMaterialID, err)
	}
	return nil
}

func lockRawMaterial(ctx context.Context, tx LedgerTx, id int64) (*domain.RawMaterial, error) {
	rm, err := tx.RawMaterialForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock raw material %d: %w", id, err)
	}
	if rm == nil {
		return nil, apperrors.NotFound(apperrors.CodeRawMaterialNotFound,
			fmt.Sprintf("raw material %d not found", id))
	}
	return rm, nil
}

// ZeroTolerance is the largest mix total treated as empty. Float sums of
// item quantities leave residue such as 0.1+0.2-0.1-0.2 = 5.55e-17.
const ZeroTolerance = 1e-9

// settle clamps residue and negative totals to 0.
func settle(total float64) float64 {
	if total < 0 || math.Abs(total) <= ZeroTolerance {
		return 0
	}
	return total
}

// rebalance sets every item's percentage of total; all zero for an empty mix.
func rebalance(ctx context.Context, tx LedgerTx, mixID int64, total float64) (map[int64]float64, error) {
	items, err := tx.MixItems(ctx, mixID)
	if err != nil {
		return nil, fmt.Errorf("list mix %d items: %w", mixID, err)
	}
	out := make(map[int64]float64, len(items))
	for _, item := range items {
		out[item.ID] = Percentage(item.Quantity, total)
		if err := tx.SetMixItemPercentage(ctx, item.ID, out[item.ID]); err != nil {
			return nil, fmt.Errorf("set mix item %d percentage: %w", item.ID, err)
		}
	}
	return out, nil
}

// Percentage is quantity's share of total in percent, or 0 when total is
// within ZeroTolerance of empty.
func Percentage(quantity, total float64) float64 {
	if total <= ZeroTolerance {
		return 0
	}
	return quantity / total * 100
}
