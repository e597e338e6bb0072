// Package lifecycle enforces legal order status transitions. It performs no
// I/O: callers persist the returned order and discard it if persistence fails.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/freshfold/facility-api/internal/models"
)

var (
	// ErrInvalidTransition is returned when the target status is not reachable from the current one
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus is returned when the target status is not part of the enumeration
	ErrUnknownStatus = errors.New("unknown order status")
)

// legalTransitions is the authoritative transition table. pending is the only
// initial state; delivered and cancelled are terminal.
var legalTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// IsKnown reports whether the status is part of the enumeration
func IsKnown(status models.OrderStatus) bool {
	_, ok := legalTransitions[status]
	return ok
}

// NextStatuses returns the statuses reachable from the current one. The
// result is a copy and safe for callers to modify.
func NextStatuses(current models.OrderStatus) []models.OrderStatus {
	allowed := legalTransitions[current]
	out := make([]models.OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition reports whether target is reachable from current
func CanTransition(current, target models.OrderStatus) bool {
	for _, allowed := range legalTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition returns a copy of the order with the target status applied. The
// input order is never mutated. It fails with ErrUnknownStatus when the
// target is outside the enumeration and ErrInvalidTransition when the move
// is not in the legal table.
func Transition(order models.Order, target models.OrderStatus) (models.Order, error) {
	if !IsKnown(target) {
		return order, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	current := models.OrderStatus(order.Status)

	if !CanTransition(current, target) {
		return order, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}

	updated := order
	updated.Status = string(target)
	return updated, nil
}
