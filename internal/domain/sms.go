package domain

import "time"

// SMSStatus is the delivery state of an SmsMessage.
type SMSStatus string

const (
	SMSStatusPending SMSStatus = "pending"
	SMSStatusSent    SMSStatus = "sent"
	SMSStatusFailed  SMSStatus = "failed"
)

// SMSMessage is a notification record linked to an Order and/or a JobOrder.
type SMSMessage struct {
	ID                int64      `db:"id" json:"id"`
	OrderID           *int64     `db:"order_id" json:"orderId"`
	JobOrderID        *int64     `db:"job_order_id" json:"jobOrderId"`
	Recipient         string     `db:"recipient" json:"recipient"`
	Message           string     `db:"message" json:"message"`
	Status            SMSStatus  `db:"status" json:"status"`
	MessageType       *string    `db:"message_type" json:"messageType"`
	Priority          string     `db:"priority" json:"priority"`
	ProviderMessageID *string    `db:"provider_message_id" json:"providerMessageId"`
	ErrorMessage      *string    `db:"error_message" json:"errorMessage"`
	SentBy            *int64     `db:"sent_by" json:"sentBy"`
	SentAt            *time.Time `db:"sent_at" json:"sentAt"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}
