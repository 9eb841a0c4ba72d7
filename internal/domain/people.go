package domain

import "time"

type Role struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Permission grants one role access to one module.
type Permission struct {
	ID        int64     `db:"id" json:"id"`
	RoleID    int64     `db:"role_id" json:"roleId"`
	Module    string    `db:"module" json:"module"`
	CanView   bool      `db:"can_view" json:"canView"`
	CanCreate bool      `db:"can_create" json:"canCreate"`
	CanEdit   bool      `db:"can_edit" json:"canEdit"`
	CanDelete bool      `db:"can_delete" json:"canDelete"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  *string   `db:"display_name" json:"displayName"`
	Email        *string   `db:"email" json:"email"`
	Phone        *string   `db:"phone" json:"phone"`
	RoleID       *int64    `db:"role_id" json:"roleId"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type TimeAttendance struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"userId"`
	WorkDate     time.Time  `db:"work_date" json:"date"`
	CheckInTime  *time.Time `db:"check_in_time" json:"checkInTime"`
	CheckOutTime *time.Time `db:"check_out_time" json:"checkOutTime"`
	Status       string     `db:"status" json:"status"`
	Notes        *string    `db:"notes" json:"notes"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

type LeaveRequest struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"userId"`
	LeaveType  string    `db:"leave_type" json:"leaveType"`
	StartDate  time.Time `db:"start_date" json:"startDate"`
	EndDate    time.Time `db:"end_date" json:"endDate"`
	Reason     *string   `db:"reason" json:"reason"`
	Status     string    `db:"status" json:"status"`
	ApprovedBy *int64    `db:"approved_by" json:"approvedBy"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
