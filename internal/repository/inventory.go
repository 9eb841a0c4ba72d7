package repository

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
)

// RawMaterialRepo manages stock items. Quantity changes caused by mix items
// go through mixing.Service.
type RawMaterialRepo struct{ *Repo[domain.RawMaterial] }

// ListLow returns raw materials whose quantity is below threshold.
func (r *RawMaterialRepo) ListLow(ctx context.Context, threshold float64) ([]*domain.RawMaterial, error) {
	return r.find(ctx, entsql.LT(domain.ColQuantity, threshold), domain.ColQuantity)
}

// MixRepo reads mixes. Item writes belong to mixing.Service and deletes of
// a whole mix to mixing.Service or cascade.Orchestrator, which keep totals,
// percentages and stock consistent.
type MixRepo struct {
	db DBTX
}

func (r *MixRepo) ListMaterials(ctx context.Context) ([]*domain.MixMaterial, error) {
	return mixMaterialsTable.list(ctx, r.db)
}

// GetMaterial returns the mix, or nil.
func (r *MixRepo) GetMaterial(ctx context.Context, id int64) (*domain.MixMaterial, error) {
	return mixMaterialsTable.get(ctx, r.db, id)
}

// CreateMaterial starts an empty mix. total_quantity is derived from items
// and cannot be set.
func (r *MixRepo) CreateMaterial(ctx context.Context, f domain.Fields) (*domain.MixMaterial, error) {
	if _, ok := f[domain.ColTotalQuantity]; ok {
		return nil, apperrors.ErrInvalidUpdateFieldf(domain.TableMixMaterials, domain.ColTotalQuantity)
	}
	return mixMaterialsTable.create(ctx, r.db, f)
}

// UpdateMaterial changes mix metadata such as mix_date or mix_person.
func (r *MixRepo) UpdateMaterial(ctx context.Context, id int64, f domain.Fields) (*domain.MixMaterial, error) {
	if _, ok := f[domain.ColTotalQuantity]; ok {
		return nil, apperrors.ErrInvalidUpdateFieldf(domain.TableMixMaterials, domain.ColTotalQuantity)
	}
	return mixMaterialsTable.update(ctx, r.db, id, f)
}

func (r *MixRepo) ListItems(ctx context.Context, mixID int64) ([]*domain.MixItem, error) {
	return mixItemsTable.listBy(ctx, r.db, domain.ColMixID, mixID)
}

// GetItem returns the item, or nil.
func (r *MixRepo) GetItem(ctx context.Context, id int64) (*domain.MixItem, error) {
	return mixItemsTable.get(ctx, r.db, id)
}

func (r *MixRepo) ListMachines(ctx context.Context, mixID int64) ([]*domain.MixMachine, error) {
	return mixMachinesTable.listBy(ctx, r.db, domain.ColMixID, mixID)
}

// AddMachine associates a machine with the mix.
func (r *MixRepo) AddMachine(ctx context.Context, mixID int64, machineID string) (*domain.MixMachine, error) {
	return mixMachinesTable.create(ctx, r.db, domain.Fields{domain.ColMixID: mixID, "machine_id": machineID})
}

func (r *MixRepo) RemoveMachine(ctx context.Context, id int64) (bool, error) {
	return mixMachinesTable.delete(ctx, r.db, id)
}
