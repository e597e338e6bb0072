package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/freshfold/facility-api/internal/lifecycle"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/internal/repository"
)

func TestUpdateOrderStatus(t *testing.T) {
	order := pendingOrder("fac-1")

	orderStore := newMockOrderStore(order)
	outboxStore := &mockOutboxStore{}
	logStore := &mockStatusLogStore{}

	svc := NewOrderService(orderStore, outboxStore, logStore, testLogger())

	updated, err := svc.UpdateOrderStatus(context.Background(), "fac-1", order.ID, models.OrderStatusProcessing, "Intake complete")

	if err != nil {
		t.Fatalf("UpdateOrderStatus returned error: %v", err)
	}

	if updated.Status != string(models.OrderStatusProcessing) {
		t.Errorf("Expected status processing, got %s", updated.Status)
	}

	if len(orderStore.updated) != 1 {
		t.Fatalf("Expected 1 persisted update, got %d", len(orderStore.updated))
	}

	if len(logStore.logs) != 1 {
		t.Fatalf("Expected 1 status log entry, got %d", len(logStore.logs))
	}

	if logStore.logs[0].Status != string(models.OrderStatusProcessing) {
		t.Errorf("Expected log status processing, got %s", logStore.logs[0].Status)
	}

	if len(outboxStore.messages) != 1 {
		t.Fatalf("Expected 1 outbox message, got %d", len(outboxStore.messages))
	}

	msg := outboxStore.messages[0]

	if msg.EventType != models.EventOrderStatusChanged {
		t.Errorf("Expected event type %s, got %s", models.EventOrderStatusChanged, msg.EventType)
	}

	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatalf("Failed to unmarshal outbox payload: %v", err)
	}

	data := event.Data.(map[string]interface{})

	if data["old_status"] != string(models.OrderStatusPending) {
		t.Errorf("Expected old_status pending, got %v", data["old_status"])
	}

	if data["new_status"] != string(models.OrderStatusProcessing) {
		t.Errorf("Expected new_status processing, got %v", data["new_status"])
	}
}

func TestUpdateOrderStatusInvalidTransition(t *testing.T) {
	order := pendingOrder("fac-1")

	orderStore := newMockOrderStore(order)
	outboxStore := &mockOutboxStore{}
	logStore := &mockStatusLogStore{}

	svc := NewOrderService(orderStore, outboxStore, logStore, testLogger())

	_, err := svc.UpdateOrderStatus(context.Background(), "fac-1", order.ID, models.OrderStatusDelivered, "")

	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}

	if len(orderStore.updated) != 0 || len(logStore.logs) != 0 || len(outboxStore.messages) != 0 {
		t.Error("Expected no writes after a rejected transition")
	}
}

func TestUpdateOrderStatusUnknownStatus(t *testing.T) {
	order := pendingOrder("fac-1")

	svc := NewOrderService(newMockOrderStore(order), &mockOutboxStore{}, &mockStatusLogStore{}, testLogger())

	_, err := svc.UpdateOrderStatus(context.Background(), "fac-1", order.ID, models.OrderStatus("misplaced"), "")

	if !errors.Is(err, lifecycle.ErrUnknownStatus) {
		t.Fatalf("Expected ErrUnknownStatus, got %v", err)
	}
}

func TestUpdateOrderStatusSameStatusIsNoOp(t *testing.T) {
	order := pendingOrder("fac-1")

	orderStore := newMockOrderStore(order)
	outboxStore := &mockOutboxStore{}
	logStore := &mockStatusLogStore{}

	svc := NewOrderService(orderStore, outboxStore, logStore, testLogger())

	updated, err := svc.UpdateOrderStatus(context.Background(), "fac-1", order.ID, models.OrderStatusPending, "")

	if err != nil {
		t.Fatalf("UpdateOrderStatus returned error: %v", err)
	}

	if updated.Status != string(models.OrderStatusPending) {
		t.Errorf("Expected status pending, got %s", updated.Status)
	}

	if len(orderStore.updated) != 0 || len(logStore.logs) != 0 || len(outboxStore.messages) != 0 {
		t.Error("Expected no writes when the status is unchanged")
	}
}

func TestUpdateOrderStatusTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status models.OrderStatus
	}{
		{"delivered", models.OrderStatusDelivered},
		{"cancelled", models.OrderStatusCancelled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order := pendingOrder("fac-1")
			order.Status = string(tc.status)

			svc := NewOrderService(newMockOrderStore(order), &mockOutboxStore{}, &mockStatusLogStore{}, testLogger())

			_, err := svc.UpdateOrderStatus(context.Background(), "fac-1", order.ID, models.OrderStatusProcessing, "")

			if !errors.Is(err, lifecycle.ErrInvalidTransition) {
				t.Fatalf("Expected ErrInvalidTransition out of %s, got %v", tc.status, err)
			}
		})
	}
}

func TestGetOrderScopedToFacility(t *testing.T) {
	order := pendingOrder("fac-1")

	svc := NewOrderService(newMockOrderStore(order), &mockOutboxStore{}, &mockStatusLogStore{}, testLogger())

	if _, err := svc.GetOrder(context.Background(), "fac-1", order.ID); err != nil {
		t.Fatalf("Expected owner lookup to succeed, got %v", err)
	}

	_, err := svc.GetOrder(context.Background(), "fac-2", order.ID)

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for foreign facility, got %v", err)
	}
}

func TestGetStatusHistoryScopedToFacility(t *testing.T) {
	order := pendingOrder("fac-1")

	orderStore := newMockOrderStore(order)
	logStore := &mockStatusLogStore{
		logs: []*models.OrderStatusLog{
			models.NewOrderStatusLog(order.ID, string(models.OrderStatusPending), "Order received"),
		},
	}

	svc := NewOrderService(orderStore, &mockOutboxStore{}, logStore, testLogger())

	history, err := svc.GetStatusHistory(context.Background(), "fac-1", order.ID)

	if err != nil {
		t.Fatalf("GetStatusHistory returned error: %v", err)
	}

	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}

	_, err = svc.GetStatusHistory(context.Background(), "fac-2", order.ID)

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for foreign facility, got %v", err)
	}
}

func TestLookupOrderByNumber(t *testing.T) {
	order := pendingOrder("fac-1")

	svc := NewOrderService(newMockOrderStore(order), &mockOutboxStore{}, &mockStatusLogStore{}, testLogger())

	found, err := svc.LookupOrder(context.Background(), "fac-1", order.OrderNumber)

	if err != nil {
		t.Fatalf("LookupOrder returned error: %v", err)
	}

	if found.ID != order.ID {
		t.Errorf("Expected order %s, got %s", order.ID, found.ID)
	}

	_, err = svc.LookupOrder(context.Background(), "fac-1", "ORD-9999")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown number, got %v", err)
	}
}
