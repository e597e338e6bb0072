// Package handlers holds Kafka consumer handlers for facility events.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// OrderEventsHandler handles facility order events from Kafka
type OrderEventsHandler struct {
	logger logger.Logger
}

// NewOrderEventsHandler creates a new OrderEventsHandler
func NewOrderEventsHandler(logger logger.Logger) *OrderEventsHandler {
	return &OrderEventsHandler{
		logger: logger,
	}
}

// HandleMessage handles an incoming order event
func (h *OrderEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("Failed to unmarshal message", "error", err)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	h.logger.Info("Handling order event",
		"eventType", event.EventType,
		"eventID", event.EventID,
		"aggregateID", event.AggregateID,
		"occurredAt", event.OccurredAt)

	switch event.EventType {
	case models.EventOrderStatusChanged:
		return h.handleStatusChanged(event)
	case models.EventOrderCheckedIn:
		return h.handleCheckedIn(event)
	case models.EventQuoteRequested:
		return h.handleQuoteRequested(event)
	default:
		h.logger.Warn("Unknown event type", "eventType", event.EventType)
		return nil
	}
}

func (h *OrderEventsHandler) handleStatusChanged(event models.OutboxMessageEvent) error {
	data, ok := event.Data.(map[string]interface{})

	if !ok {
		h.logger.Error("Invalid event data format", "eventID", event.EventID)
		return fmt.Errorf("invalid event data format")
	}

	oldStatus, _ := data["old_status"].(string)
	newStatus, _ := data["new_status"].(string)

	h.logger.Info("Order status changed",
		"orderID", event.AggregateID,
		"oldStatus", oldStatus,
		"newStatus", newStatus)

	// Downstream customer notifications hang off this event.
	return nil
}

func (h *OrderEventsHandler) handleCheckedIn(event models.OutboxMessageEvent) error {
	data, ok := event.Data.(map[string]interface{})

	if !ok {
		h.logger.Error("Invalid event data format", "eventID", event.EventID)
		return fmt.Errorf("invalid event data format")
	}

	itemCount, _ := data["item_count"].(float64)
	issueCount, _ := data["issue_count"].(float64)

	h.logger.Info("Order checked in",
		"orderID", event.AggregateID,
		"itemCount", int(itemCount),
		"issueCount", int(issueCount))

	return nil
}

func (h *OrderEventsHandler) handleQuoteRequested(event models.OutboxMessageEvent) error {
	h.logger.Info("Quote requested",
		"quoteID", event.AggregateID,
		"eventID", event.EventID)

	return nil
}
