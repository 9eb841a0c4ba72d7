// Package repository provides one repository per bounded context over a
// shared pgx pool. Statements are built with ent's SQL builder and rows are
// scanned by db tag.
//
// Read policy: Get returns (nil, nil) for a missing row; every store error
// propagates, reads included.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
// Begin on a pgx.Tx opens a savepoint.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store aggregates the repositories bound to one DBTX.
type Store struct {
	db DBTX

	Roles       *RoleRepo
	Permissions *PermissionRepo
	Users       *UserRepo

	Customers        *CustomerRepo
	CustomerProducts *CustomerProductRepo
	Machines         *MachineRepo

	Orders        *OrderRepo
	JobOrders     *JobOrderRepo
	Rolls         *RollRepo
	FinalProducts *FinalProductRepo

	QualityCheckTypes *QualityCheckTypeRepo
	QualityChecks     *QualityCheckRepo
	CorrectiveActions *CorrectiveActionRepo

	RawMaterials *RawMaterialRepo
	Mixes        *MixRepo

	Attendance    *TimeAttendanceRepo
	LeaveRequests *LeaveRequestRepo

	MaintenanceRequests *MaintenanceRequestRepo
	MaintenanceActions  *MaintenanceActionRepo

	SMS *SMSRepo

	Sensors  *IoTSensorRepo
	Readings *SensorReadingRepo
	Alerts   *IoTAlertRepo
}

// New creates a Store over db.
func New(db DBTX) *Store {
	return &Store{
		db: db,

		Roles:       &RoleRepo{newRepo(db, rolesTable)},
		Permissions: &PermissionRepo{newRepo(db, permissionsTable)},
		Users:       &UserRepo{newRepo(db, usersTable)},

		Customers:        &CustomerRepo{newRepo(db, customersTable)},
		CustomerProducts: &CustomerProductRepo{newRepo(db, customerProductsTable)},
		Machines:         &MachineRepo{newRepo(db, machinesTable)},

		Orders:        &OrderRepo{newRepo(db, ordersTable)},
		JobOrders:     &JobOrderRepo{newRepo(db, jobOrdersTable)},
		Rolls:         &RollRepo{newRepo(db, rollsTable)},
		FinalProducts: &FinalProductRepo{newRepo(db, finalProductsTable)},

		QualityCheckTypes: &QualityCheckTypeRepo{newRepo(db, qualityCheckTypesTable)},
		QualityChecks:     &QualityCheckRepo{db: db},
		CorrectiveActions: &CorrectiveActionRepo{newRepo(db, correctiveActionsTable)},

		RawMaterials: &RawMaterialRepo{newRepo(db, rawMaterialsTable)},
		Mixes:        &MixRepo{db: db},

		Attendance:    &TimeAttendanceRepo{newRepo(db, timeAttendanceTable)},
		LeaveRequests: &LeaveRequestRepo{newRepo(db, leaveRequestsTable)},

		MaintenanceRequests: &MaintenanceRequestRepo{newRepo(db, maintenanceRequestsTable)},
		MaintenanceActions:  &MaintenanceActionRepo{newRepo(db, maintenanceActionsTable)},

		SMS: &SMSRepo{newRepo(db, smsMessagesTable)},

		Sensors:  &IoTSensorRepo{newRepo(db, iotSensorsTable)},
		Readings: &SensorReadingRepo{newRepo(db, sensorReadingsTable)},
		Alerts:   &IoTAlertRepo{newRepo(db, iotAlertsTable)},
	}
}

// WithTx returns a Store whose repositories run on tx.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return New(tx)
}

// DB returns the underlying handle.
func (s *Store) DB() DBTX {
	return s.db
}

// InTx runs fn on a Store bound to a new transaction (a savepoint when s is
// already transactional). fn's error rolls back; otherwise the transaction commits.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(s.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// TableCounts returns the row count of every table, keyed by table name.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(AllTables))
	for _, name := range AllTables {
		n, err := countRows(ctx, s.db, name)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

// CountRows returns the number of rows of one table.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	return countRows(ctx, s.db, table)
}

// CountOrphans counts rows of child whose column references a missing parent.
func (s *Store) CountOrphans(ctx context.Context, child, column, parent string) (int64, error) {
	return countOrphans(ctx, s.db, child, column, parent)
}
