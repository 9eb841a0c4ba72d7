package repository

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"rollworks.io/erp/internal/domain"
)

// SMSRepo stores outgoing SMS records. Messages linked to an order or job
// order are removed by the order cascade.
type SMSRepo struct{ *Repo[domain.SMSMessage] }

func (r *SMSRepo) ListByOrder(ctx context.Context, orderID int64) ([]*domain.SMSMessage, error) {
	return r.listBy(ctx, domain.ColOrderID, orderID)
}

func (r *SMSRepo) ListByJobOrder(ctx context.Context, jobOrderID int64) ([]*domain.SMSMessage, error) {
	return r.listBy(ctx, domain.ColJobOrderID, jobOrderID)
}

func (r *SMSRepo) ListByStatus(ctx context.Context, status domain.SMSStatus) ([]*domain.SMSMessage, error) {
	return r.listBy(ctx, "status", string(status))
}

// MarkSent records a successful hand-off to the gateway.
func (r *SMSRepo) MarkSent(ctx context.Context, id int64, providerMessageID string, at time.Time) (*domain.SMSMessage, error) {
	return r.Update(ctx, id, domain.Fields{
		"status":              string(domain.SMSStatusSent),
		"provider_message_id": providerMessageID,
		"sent_at":             at,
		"error_message":       nil,
	})
}

// MarkFailed records a gateway failure.
func (r *SMSRepo) MarkFailed(ctx context.Context, id int64, reason string) (*domain.SMSMessage, error) {
	return r.Update(ctx, id, domain.Fields{
		"status":        string(domain.SMSStatusFailed),
		"error_message": reason,
	})
}

// DeleteExpired removes sent or failed messages created before cutoff that
// are not linked to an order or job order.
func (r *SMSRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := build().Delete(domain.TableSMSMessages).
		Where(entsql.And(
			entsql.In("status", string(domain.SMSStatusSent), string(domain.SMSStatusFailed)),
			entsql.LT(domain.ColCreatedAt, cutoff),
			entsql.IsNull(domain.ColOrderID),
			entsql.IsNull(domain.ColJobOrderID),
		)).
		Query()
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
