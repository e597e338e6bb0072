package models

import (
	"time"
)

// OrderIssue records a problem found with an item during check-in
type OrderIssue struct {
	ID          string    `db:"id" json:"id"`
	OrderID     string    `db:"order_id" json:"order_id"`
	IssueType   string    `db:"issue_type" json:"issue_type"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NewOrderIssue creates an issue record for an order
func NewOrderIssue(orderID, issueType, description string) *OrderIssue {
	return &OrderIssue{
		ID:          GenerateID("iss"),
		OrderID:     orderID,
		IssueType:   issueType,
		Description: description,
		CreatedAt:   GetCurrentTime(),
	}
}

// OrderStatusLog is one entry in an order's status history
type OrderStatusLog struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	Status    string    `db:"status" json:"status"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewOrderStatusLog creates a status history entry
func NewOrderStatusLog(orderID, status, notes string) *OrderStatusLog {
	return &OrderStatusLog{
		ID:        GenerateID("log"),
		OrderID:   orderID,
		Status:    status,
		Notes:     notes,
		CreatedAt: GetCurrentTime(),
	}
}
