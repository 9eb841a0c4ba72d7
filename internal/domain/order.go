package domain

import "time"

// Order is a top-level customer request and the root of the order cascade.
type Order struct {
	ID           int64      `db:"id" json:"id"`
	OrderNumber  string     `db:"order_number" json:"orderNumber"`
	CustomerID   *string    `db:"customer_id" json:"customerId"`
	Status       string     `db:"status" json:"status"`
	DeliveryDate *time.Time `db:"delivery_date" json:"deliveryDate"`
	Notes        *string    `db:"notes" json:"notes"`
	CreatedBy    *int64     `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// JobOrder is a production sub-unit of an Order for one customer product.
type JobOrder struct {
	ID                int64     `db:"id" json:"id"`
	OrderID           int64     `db:"order_id" json:"orderId"`
	CustomerProductID *int64    `db:"customer_product_id" json:"customerProductId"`
	Quantity          float64   `db:"quantity" json:"quantity"`
	ProducedQuantity  float64   `db:"produced_quantity" json:"producedQuantity"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

// Roll is a physical production unit of a JobOrder.
type Roll struct {
	ID         string    `db:"id" json:"id"`
	JobOrderID int64     `db:"job_order_id" json:"jobOrderId"`
	RollNumber *string   `db:"roll_number" json:"rollNumber"`
	Weight     float64   `db:"weight" json:"weight"`
	MachineID  *string   `db:"machine_id" json:"machineId"`
	Status     string    `db:"status" json:"status"`
	CreatedBy  *int64    `db:"created_by" json:"createdBy"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FinalProduct is a completed-goods record of a JobOrder.
type FinalProduct struct {
	ID            int64      `db:"id" json:"id"`
	JobOrderID    int64      `db:"job_order_id" json:"jobOrderId"`
	Quantity      float64    `db:"quantity" json:"quantity"`
	CompletedDate *time.Time `db:"completed_date" json:"completedDate"`
	Status        string     `db:"status" json:"status"`
	Location      *string    `db:"location" json:"location"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// Customer is keyed by an externally assigned code.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	NameAr    *string   `db:"name_ar" json:"nameAr"`
	Phone     *string   `db:"phone" json:"phone"`
	Email     *string   `db:"email" json:"email"`
	Address   *string   `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CustomerProduct struct {
	ID          int64     `db:"id" json:"id"`
	CustomerID  string    `db:"customer_id" json:"customerId"`
	ItemName    string    `db:"item_name" json:"itemName"`
	SizeCaption *string   `db:"size_caption" json:"sizeCaption"`
	Thickness   *float64  `db:"thickness" json:"thickness"`
	Width       *float64  `db:"width" json:"width"`
	Notes       *string   `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
