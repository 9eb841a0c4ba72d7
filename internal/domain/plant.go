package domain

import "time"

type Machine struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      *string   `db:"type" json:"type"`
	Section   *string   `db:"section" json:"section"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type MaintenanceRequest struct {
	ID          int64      `db:"id" json:"id"`
	MachineID   string     `db:"machine_id" json:"machineId"`
	ReportedBy  *int64     `db:"reported_by" json:"reportedBy"`
	Description string     `db:"description" json:"description"`
	Priority    string     `db:"priority" json:"priority"`
	Status      string     `db:"status" json:"status"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

type MaintenanceAction struct {
	ID          int64     `db:"id" json:"id"`
	RequestID   int64     `db:"request_id" json:"requestId"`
	ActionType  string    `db:"action_type" json:"actionType"`
	Description *string   `db:"description" json:"description"`
	PerformedBy *int64    `db:"performed_by" json:"performedBy"`
	ActionDate  time.Time `db:"action_date" json:"actionDate"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type IoTSensor struct {
	ID         string    `db:"id" json:"id"`
	MachineID  *string   `db:"machine_id" json:"machineId"`
	Name       string    `db:"name" json:"name"`
	SensorType string    `db:"sensor_type" json:"sensorType"`
	Unit       *string   `db:"unit" json:"unit"`
	MinValue   *float64  `db:"min_value" json:"minValue"`
	MaxValue   *float64  `db:"max_value" json:"maxValue"`
	IsActive   bool      `db:"is_active" json:"isActive"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type SensorReading struct {
	ID        int64     `db:"id" json:"id"`
	SensorID  string    `db:"sensor_id" json:"sensorId"`
	Value     float64   `db:"value" json:"value"`
	ReadAt    time.Time `db:"read_at" json:"readAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type IoTAlert struct {
	ID             int64      `db:"id" json:"id"`
	SensorID       string     `db:"sensor_id" json:"sensorId"`
	AlertType      string     `db:"alert_type" json:"alertType"`
	Message        string     `db:"message" json:"message"`
	Severity       string     `db:"severity" json:"severity"`
	IsAcknowledged bool       `db:"is_acknowledged" json:"isAcknowledged"`
	AcknowledgedBy *int64     `db:"acknowledged_by" json:"acknowledgedBy"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledgedAt"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}
