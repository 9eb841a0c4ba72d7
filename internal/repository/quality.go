package repository

import (
	"context"
	"fmt"

	"rollworks.io/erp/internal/domain"
)

type QualityCheckTypeRepo struct{ *Repo[domain.QualityCheckType] }

// QualityCheckRepo speaks the application shape and stores the row shape.
type QualityCheckRepo struct {
	db DBTX
}

func fromRows(rows []*domain.QualityCheckRow) []domain.QualityCheck {
	out := make([]domain.QualityCheck, len(rows))
	for i, row := range rows {
		out[i] = domain.QualityCheckFromRow(*row)
	}
	return out
}

func fromRow(row *domain.QualityCheckRow) *domain.QualityCheck {
	if row == nil {
		return nil
	}
	q := domain.QualityCheckFromRow(*row)
	return &q
}

func (r *QualityCheckRepo) List(ctx context.Context) ([]domain.QualityCheck, error) {
	rows, err := qualityChecksTable.list(ctx, r.db)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *QualityCheckRepo) ListByRoll(ctx context.Context, rollID string) ([]domain.QualityCheck, error) {
	rows, err := qualityChecksTable.listBy(ctx, r.db, domain.ColRollID, rollID)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *QualityCheckRepo) ListByJobOrder(ctx context.Context, jobOrderID int64) ([]domain.QualityCheck, error) {
	rows, err := qualityChecksTable.listBy(ctx, r.db, domain.ColJobOrderID, jobOrderID)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// Get returns the check, or nil.
func (r *QualityCheckRepo) Get(ctx context.Context, id int64) (*domain.QualityCheck, error) {
	row, err := qualityChecksTable.get(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

// Create stores q. A zero Timestamp leaves checked_at unset so that it
// reads back as created_at; an empty Status takes the column default.
func (r *QualityCheckRepo) Create(ctx context.Context, q domain.QualityCheck) (*domain.QualityCheck, error) {
	f := q.Patch().ToRowFields()
	if q.Timestamp.IsZero() {
		delete(f, "checked_at")
	}
	if q.Status == "" {
		delete(f, "status")
	}
	row, err := qualityChecksTable.create(ctx, r.db, f)
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

// Update applies the defined fields of p. Returns nil when the check does not exist.
func (r *QualityCheckRepo) Update(ctx context.Context, id int64, p domain.QualityCheckPatch) (*domain.QualityCheck, error) {
	row, err := qualityChecksTable.update(ctx, r.db, id, p.ToRowFields())
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

// Delete removes the check together with its corrective actions.
func (r *QualityCheckRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin delete quality check %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := deleteWhere(ctx, tx, domain.TableCorrectiveActions, domain.ColQualityCheckID, []any{id}); err != nil {
		return false, err
	}
	ok, err := qualityChecksTable.delete(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit delete quality check %d: %w", id, err)
	}
	return ok, nil
}

func (r *QualityCheckRepo) Count(ctx context.Context) (int64, error) {
	return qualityChecksTable.count(ctx, r.db)
}

type CorrectiveActionRepo struct{ *Repo[domain.CorrectiveAction] }

func (r *CorrectiveActionRepo) ListByQualityCheck(ctx context.Context, checkID int64) ([]*domain.CorrectiveAction, error) {
	return r.listBy(ctx, domain.ColQualityCheckID, checkID)
}
