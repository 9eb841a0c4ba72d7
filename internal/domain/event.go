package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of domain event.
type EventType string

const (
	EventOrderDeleted       EventType = "ORDER_DELETED"
	EventMixMaterialDeleted EventType = "MIX_MATERIAL_DELETED"
	EventMixItemChanged     EventType = "MIX_ITEM_CHANGED"
	EventSMSSent            EventType = "SMS_SENT"
	EventSMSFailed          EventType = "SMS_FAILED"
)

// DomainEvent is an immutable record of something that already happened.
// Events are dispatched in process after the owning transaction commits.
type DomainEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	Payload       []byte    `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEvent builds a DomainEvent with a fresh id and a JSON payload.
func NewEvent(eventType EventType, aggregateType, aggregateID string, payload any) (*DomainEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// CascadePayload is the payload of ORDER_DELETED and MIX_MATERIAL_DELETED.
type CascadePayload struct {
	RootTable string           `json:"root_table"`
	RootID    string           `json:"root_id"`
	Rows      map[string]int64 `json:"rows"`
	Mode      string           `json:"mode"`
}

// MixItemPayload is the payload of MIX_ITEM_CHANGED.
type MixItemPayload struct {
	Operation     string  `json:"operation"` // create, update, delete
	MixID         int64   `json:"mix_id"`
	MixItemID     int64   `json:"mix_item_id"`
	RawMaterialID int64   `json:"raw_material_id"`
	Delta         float64 `json:"delta"`
	TotalQuantity float64 `json:"total_quantity"`
}

// SMSPayload is the payload of SMS_SENT and SMS_FAILED.
type SMSPayload struct {
	MessageID         int64  `json:"message_id"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}
