package repository

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"rollworks.io/erp/internal/domain"
)

const colSensorID = "sensor_id"

// IoTSensorRepo is keyed by the sensor code supplied on Create.
type IoTSensorRepo struct{ *Repo[domain.IoTSensor] }

func (r *IoTSensorRepo) ListByMachine(ctx context.Context, machineID string) ([]*domain.IoTSensor, error) {
	return r.listBy(ctx, "machine_id", machineID)
}

func (r *IoTSensorRepo) ListActive(ctx context.Context) ([]*domain.IoTSensor, error) {
	return r.listBy(ctx, "is_active", true)
}

type SensorReadingRepo struct{ *Repo[domain.SensorReading] }

// Record stores one reading.
func (r *SensorReadingRepo) Record(ctx context.Context, sensorID string, value float64, at time.Time) (*domain.SensorReading, error) {
	return r.Create(ctx, domain.Fields{colSensorID: sensorID, "value": value, "read_at": at})
}

// Latest returns up to limit readings of the sensor, newest first.
func (r *SensorReadingRepo) Latest(ctx context.Context, sensorID string, limit int) ([]*domain.SensorReading, error) {
	s := r.t.selector().
		Where(entsql.EQ(colSensorID, sensorID)).
		OrderBy(entsql.Desc("read_at"), entsql.Desc(domain.ColID)).
		Limit(limit)
	return r.t.all(ctx, r.db, s)
}

type IoTAlertRepo struct{ *Repo[domain.IoTAlert] }

func (r *IoTAlertRepo) ListBySensor(ctx context.Context, sensorID string) ([]*domain.IoTAlert, error) {
	return r.listBy(ctx, colSensorID, sensorID)
}

func (r *IoTAlertRepo) ListUnacknowledged(ctx context.Context) ([]*domain.IoTAlert, error) {
	return r.listBy(ctx, "is_acknowledged", false)
}

// Acknowledge marks the alert handled by userID. Returns nil when it does not exist.
func (r *IoTAlertRepo) Acknowledge(ctx context.Context, id, userID int64, at time.Time) (*domain.IoTAlert, error) {
	return r.Update(ctx, id, domain.Fields{
		"is_acknowledged": true,
		"acknowledged_by": userID,
		"acknowledged_at": at,
	})
}
