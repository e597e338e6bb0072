package models

import (
	"time"
)

// PackageStatus defines the possible statuses for a delivery package
type PackageStatus string

const (
	PackageStatusPending   PackageStatus = "pending"
	PackageStatusInTransit PackageStatus = "in_transit"
	PackageStatusDelivered PackageStatus = "delivered"
	PackageStatusFailed    PackageStatus = "failed"
)

// PackageAssignment links an order to a delivery package created by the
// dispatch service, with an optional driver once one is assigned.
type PackageAssignment struct {
	ID             string    `db:"id" json:"id"`
	OrderID        string    `db:"order_id" json:"order_id"`
	PackageID      string    `db:"package_id" json:"package_id"`
	TrackingNumber string    `db:"tracking_number" json:"tracking_number"`
	Status         string    `db:"status" json:"status"`
	DriverID       *string   `db:"driver_id" json:"driver_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// NewPackageAssignment creates a package assignment for an order
func NewPackageAssignment(orderID, packageID, trackingNumber, status string) *PackageAssignment {
	now := GetCurrentTime()

	return &PackageAssignment{
		ID:             GenerateID("pkg"),
		OrderID:        orderID,
		PackageID:      packageID,
		TrackingNumber: trackingNumber,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
