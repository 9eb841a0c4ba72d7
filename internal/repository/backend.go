package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/domain"
	"rollworks.io/erp/internal/mixing"
)

// SelectKeys implements cascade.Executor.
func (s *Store) SelectKeys(ctx context.Context, table, keyColumn, column string, values []any) ([]any, error) {
	return selectKeys(ctx, s.db, table, keyColumn, column, values)
}

// DeleteWhere implements cascade.Executor.
func (s *Store) DeleteWhere(ctx context.Context, table, column string, values []any) (int64, error) {
	return deleteWhere(ctx, s.db, table, column, values)
}

// WithinTx implements cascade.Backend. On a transactional Store the
// cascade runs in a savepoint.
func (s *Store) WithinTx(ctx context.Context, fn func(tx cascade.Executor) error) error {
	return s.begin(ctx, func(tx *Store) error { return fn(tx) })
}

// Ledger returns the Store as a mixing.Ledger whose reads take row locks.
func (s *Store) Ledger() mixing.Ledger {
	return ledger{s}
}

func (s *Store) begin(ctx context.Context, fn func(tx *Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(s.WithTx(tx))
	})
}

type ledger struct{ s *Store }

func (l ledger) WithinTx(ctx context.Context, fn func(tx mixing.LedgerTx) error) error {
	return l.s.begin(ctx, func(tx *Store) error { return fn(ledgerTx{tx}) })
}

// ledgerTx is bound to one transaction.
type ledgerTx struct{ *Store }

func (tx ledgerTx) RawMaterialForUpdate(ctx context.Context, id int64) (*domain.RawMaterial, error) {
	return rawMaterialsTable.getForUpdate(ctx, tx.db, id)
}

func (tx ledgerTx) SetRawMaterialQuantity(ctx context.Context, id int64, quantity float64) error {
	return tx.set(ctx, domain.TableRawMaterials, id, domain.ColQuantity, quantity)
}

func (tx ledgerTx) MixMaterialForUpdate(ctx context.Context, id int64) (*domain.MixMaterial, error) {
	return mixMaterialsTable.getForUpdate(ctx, tx.db, id)
}

func (tx ledgerTx) SetMixTotal(ctx context.Context, id int64, total float64) error {
	return tx.set(ctx, domain.TableMixMaterials, id, domain.ColTotalQuantity, total)
}

func (tx ledgerTx) MixItem(ctx context.Context, id int64) (*domain.MixItem, error) {
	return mixItemsTable.get(ctx, tx.db, id)
}

func (tx ledgerTx) MixItems(ctx context.Context, mixID int64) ([]*domain.MixItem, error) {
	return mixItemsTable.listBy(ctx, tx.db, domain.ColMixID, mixID)
}

func (tx ledgerTx) InsertMixItem(ctx context.Context, mixID, rawMaterialID int64, quantity float64) (*domain.MixItem, error) {
	return mixItemsTable.create(ctx, tx.db, domain.Fields{
		domain.ColMixID:         mixID,
		domain.ColRawMaterialID: rawMaterialID,
		domain.ColQuantity:      quantity,
	})
}

func (tx ledgerTx) SetMixItemQuantity(ctx context.Context, id int64, quantity float64) error {
	return tx.set(ctx, domain.TableMixItems, id, domain.ColQuantity, quantity)
}

func (tx ledgerTx) SetMixItemPercentage(ctx context.Context, id int64, percentage float64) error {
	return tx.set(ctx, domain.TableMixItems, id, domain.ColPercentage, percentage)
}

func (tx ledgerTx) set(ctx context.Context, table string, id int64, column string, value any) error {
	query, args := build().Update(table).Set(column, value).Where(eqID(id)).Query()
	tag, err := tx.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", table, column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set %s.%s: row %d not found", table, column, id)
	}
	return nil
}
