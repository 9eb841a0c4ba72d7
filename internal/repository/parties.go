package repository

import (
	"context"

	"rollworks.io/erp/internal/domain"
)

// CustomerRepo is keyed by the customer code supplied on Create.
type CustomerRepo struct{ *Repo[domain.Customer] }

type CustomerProductRepo struct{ *Repo[domain.CustomerProduct] }

func (r *CustomerProductRepo) ListByCustomer(ctx context.Context, customerID string) ([]*domain.CustomerProduct, error) {
	return r.listBy(ctx, "customer_id", customerID)
}

// MachineRepo is keyed by the machine code supplied on Create.
type MachineRepo struct{ *Repo[domain.Machine] }

func (r *MachineRepo) ListBySection(ctx context.Context, section string) ([]*domain.Machine, error) {
	return r.listBy(ctx, "section", section)
}
