package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types published through the outbox
const (
	EventOrderStatusChanged = "order_status_changed"
	EventOrderCheckedIn     = "order_checked_in"
	EventQuoteRequested     = "quote_requested"
)

// OutboxMessage represents a message to be published from the outbox table
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent represents the event data in the outbox message
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newOutboxMessage(aggregateType, aggregateID, eventType string, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		OccurredAt:  GetCurrentTime(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     GetCurrentTime(),
		Status:        OutboxStatusPending,
	}, nil
}

// NewOrderStatusChangedEvent creates an event for an order status change
func NewOrderStatusChangedEvent(order *Order, oldStatus string) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderStatusChanged, map[string]interface{}{
		"order_id":     order.ID,
		"facility_id":  order.FacilityID,
		"order_number": order.OrderNumber,
		"old_status":   oldStatus,
		"new_status":   order.Status,
	})
}

// NewOrderCheckedInEvent creates an event for a completed check-in
func NewOrderCheckedInEvent(order *Order, issueCount int) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderCheckedIn, map[string]interface{}{
		"order_id":     order.ID,
		"facility_id":  order.FacilityID,
		"order_number": order.OrderNumber,
		"item_count":   len(order.Items),
		"issue_count":  issueCount,
	})
}

// NewQuoteRequestedEvent creates an event for a new custom price quote
func NewQuoteRequestedEvent(quote *CustomQuote) (*OutboxMessage, error) {
	return newOutboxMessage("quote", quote.ID, EventQuoteRequested, quote)
}
