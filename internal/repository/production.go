package repository

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"rollworks.io/erp/internal/domain"
)

// OrderRepo reads and writes orders. Delete only succeeds for an order
// without dependents; cascade.Orchestrator removes the whole subtree.
type OrderRepo struct{ *Repo[domain.Order] }

// GetByNumber returns the order, or nil.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query, args := r.t.selector().Where(entsql.EQ("order_number", number)).Query()
	return r.t.one(ctx, r.db, query, args)
}

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return r.listBy(ctx, "customer_id", customerID)
}

func (r *OrderRepo) ListByStatus(ctx context.Context, status string) ([]*domain.Order, error) {
	return r.listBy(ctx, "status", status)
}

type JobOrderRepo struct{ *Repo[domain.JobOrder] }

func (r *JobOrderRepo) ListByOrder(ctx context.Context, orderID int64) ([]*domain.JobOrder, error) {
	return r.listBy(ctx, domain.ColOrderID, orderID)
}

// RollRepo assigns a UUID when Create is called without an id.
type RollRepo struct{ *Repo[domain.Roll] }

func (r *RollRepo) Create(ctx context.Context, f domain.Fields) (*domain.Roll, error) {
	if id, _ := f[domain.ColID].(string); strings.TrimSpace(id) == "" {
		f = f.Clone()
		f[domain.ColID] = uuid.NewString()
	}
	roll, err := r.Repo.Create(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("create roll: %w", err)
	}
	return roll, nil
}

func (r *RollRepo) ListByJobOrder(ctx context.Context, jobOrderID int64) ([]*domain.Roll, error) {
	return r.find(ctx, entsql.EQ(domain.ColJobOrderID, jobOrderID), domain.ColCreatedAt, domain.ColID)
}

func (r *RollRepo) ListByStatus(ctx context.Context, status string) ([]*domain.Roll, error) {
	return r.find(ctx, entsql.EQ("status", status), domain.ColCreatedAt, domain.ColID)
}

type FinalProductRepo struct{ *Repo[domain.FinalProduct] }

func (r *FinalProductRepo) ListByJobOrder(ctx context.Context, jobOrderID int64) ([]*domain.FinalProduct, error) {
	return r.listBy(ctx, domain.ColJobOrderID, jobOrderID)
}
