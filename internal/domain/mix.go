package domain

import "time"

// RawMaterial is a stock item consumed by MixItems.
type RawMaterial struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      *string   `db:"type" json:"type"`
	Unit      string    `db:"unit" json:"unit"`
	Quantity  float64   `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// MixMaterial is a raw-material blend batch.
// TotalQuantity is the sum of its MixItem quantities.
type MixMaterial struct {
	ID            int64     `db:"id" json:"id"`
	MixDate       time.Time `db:"mix_date" json:"mixDate"`
	MixPerson     *int64    `db:"mix_person" json:"mixPerson"`
	TotalQuantity float64   `db:"total_quantity" json:"totalQuantity"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// MixItem is one ingredient line of a MixMaterial.
type MixItem struct {
	ID            int64     `db:"id" json:"id"`
	MixID         int64     `db:"mix_id" json:"mixId"`
	RawMaterialID int64     `db:"raw_material_id" json:"rawMaterialId"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	Percentage    float64   `db:"percentage" json:"percentage"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// MixMachine associates a MixMaterial with a machine.
type MixMachine struct {
	ID        int64     `db:"id" json:"id"`
	MixID     int64     `db:"mix_id" json:"mixId"`
	MachineID string    `db:"machine_id" json:"machineId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
