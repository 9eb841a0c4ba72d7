package repository

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"rollworks.io/erp/internal/domain"
)

type TimeAttendanceRepo struct{ *Repo[domain.TimeAttendance] }

func (r *TimeAttendanceRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.TimeAttendance, error) {
	return r.find(ctx, entsql.EQ("user_id", userID), "work_date", domain.ColID)
}

// ListBetween returns attendance with from <= work_date < to.
func (r *TimeAttendanceRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.TimeAttendance, error) {
	return r.find(ctx, entsql.And(entsql.GTE("work_date", from), entsql.LT("work_date", to)), "work_date", domain.ColID)
}

type LeaveRequestRepo struct{ *Repo[domain.LeaveRequest] }

func (r *LeaveRequestRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.LeaveRequest, error) {
	return r.listBy(ctx, "user_id", userID)
}

func (r *LeaveRequestRepo) ListByStatus(ctx context.Context, status string) ([]*domain.LeaveRequest, error) {
	return r.listBy(ctx, "status", status)
}

// Decide sets the request status and approver. Returns nil when it does not exist.
func (r *LeaveRequestRepo) Decide(ctx context.Context, id int64, status string, approverID int64) (*domain.LeaveRequest, error) {
	return r.Update(ctx, id, domain.Fields{"status": status, "approved_by": approverID})
}
