// Package mixing keeps MixMaterial totals, MixItem percentages and raw
// material stock consistent whenever a MixItem changes.
package mixing

import (
	"context"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/domain"
)

// Ledger opens transactions over the mix and raw material tables.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is bound to one transaction. The *ForUpdate reads lock the row
// until the transaction ends and return (nil, nil) when it does not exist.
type LedgerTx interface {
	cascade.Executor

	RawMaterialForUpdate(ctx context.Context, id int64) (*domain.RawMaterial, error)
	SetRawMaterialQuantity(ctx context.Context, id int64, quantity float64) error

	MixMaterialForUpdate(ctx context.Context, id int64) (*domain.MixMaterial, error)
	SetMixTotal(ctx context.Context, id int64, total float64) error

	MixItem(ctx context.Context, id int64) (*domain.MixItem, error)
	MixItems(ctx context.Context, mixID int64) ([]*domain.MixItem, error)
	InsertMixItem(ctx context.Context, mixID, rawMaterialID int64, quantity float64) (*domain.MixItem, error)
	SetMixItemQuantity(ctx context.Context, id int64, quantity float64) error
	SetMixItemPercentage(ctx context.Context, id int64, percentage float64) error
}
