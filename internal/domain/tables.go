// Package domain provides the rollworks entity model.
//
// Entities carry `db` tags matching their table columns and camelCase `json`
// tags for the application-facing shape. Identifiers are bigserial int64
// except rolls, customers, machines and IoT sensors, which use text keys.
package domain

// Table names.
const (
	TableRoles               = "roles"
	TablePermissions         = "permissions"
	TableUsers               = "users"
	TableCustomers           = "customers"
	TableCustomerProducts    = "customer_products"
	TableMachines            = "machines"
	TableOrders              = "orders"
	TableJobOrders           = "job_orders"
	TableRolls               = "rolls"
	TableQualityCheckTypes   = "quality_check_types"
	TableQualityChecks       = "quality_checks"
	TableCorrectiveActions   = "corrective_actions"
	TableFinalProducts       = "final_products"
	TableSMSMessages         = "sms_messages"
	TableRawMaterials        = "raw_materials"
	TableMixMaterials        = "mix_materials"
	TableMixItems            = "mix_items"
	TableMixMachines         = "mix_machines"
	TableTimeAttendance      = "time_attendance"
	TableLeaveRequests       = "leave_requests"
	TableMaintenanceRequests = "maintenance_requests"
	TableMaintenanceActions  = "maintenance_actions"
	TableIoTSensors          = "iot_sensors"
	TableSensorReadings      = "sensor_readings"
	TableIoTAlerts           = "iot_alerts"
)

// Column names shared by the cascade and the mixing ledger.
const (
	ColID             = "id"
	ColCreatedAt      = "created_at"
	ColOrderID        = "order_id"
	ColJobOrderID     = "job_order_id"
	ColRollID         = "roll_id"
	ColQualityCheckID = "quality_check_id"
	ColMixID          = "mix_id"
	ColRawMaterialID  = "raw_material_id"
	ColQuantity       = "quantity"
	ColPercentage     = "percentage"
	ColTotalQuantity  = "total_quantity"
)

// Fields is a sparse column -> value map used for inserts and partial updates.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
