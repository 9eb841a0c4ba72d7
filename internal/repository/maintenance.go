package repository

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"rollworks.io/erp/internal/domain"
)

const colRequestID = "request_id"

type MaintenanceRequestRepo struct{ *Repo[domain.MaintenanceRequest] }

func (r *MaintenanceRequestRepo) ListByMachine(ctx context.Context, machineID string) ([]*domain.MaintenanceRequest, error) {
	return r.listBy(ctx, "machine_id", machineID)
}

func (r *MaintenanceRequestRepo) ListByStatus(ctx context.Context, status string) ([]*domain.MaintenanceRequest, error) {
	return r.listBy(ctx, "status", status)
}

// Complete marks the request completed at the given time.
func (r *MaintenanceRequestRepo) Complete(ctx context.Context, id int64, at time.Time) (*domain.MaintenanceRequest, error) {
	return r.Update(ctx, id, domain.Fields{"status": "completed", "completed_at": at})
}

// Delete removes the request together with its actions.
func (r *MaintenanceRequestRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin delete maintenance request %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := deleteWhere(ctx, tx, domain.TableMaintenanceActions, colRequestID, []any{id}); err != nil {
		return false, err
	}
	ok, err := r.t.delete(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit delete maintenance request %d: %w", id, err)
	}
	return ok, nil
}

type MaintenanceActionRepo struct{ *Repo[domain.MaintenanceAction] }

func (r *MaintenanceActionRepo) ListByRequest(ctx context.Context, requestID int64) ([]*domain.MaintenanceAction, error) {
	return r.find(ctx, entsql.EQ(colRequestID, requestID), "action_date", domain.ColID)
}
