package models

import (
	"time"
)

// Facility represents the operator account owning orders, a single
// laundry/dry-cleaning business location.
type Facility struct {
	ID           string    `db:"id" json:"id"`
	FacilityCode int       `db:"facility_code" json:"facility_code"`
	FacilityName string    `db:"facility_name" json:"facility_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	AddressLine1 *string   `db:"address_line_1" json:"address_line_1,omitempty"`
	OpeningHour  *string   `db:"opening_hour" json:"opening_hour,omitempty"`
	CloseHour    *string   `db:"close_hour" json:"close_hour,omitempty"`
	RadiusKM     *int      `db:"radius_km" json:"radius_km,omitempty"`
	OwnerName    *string   `db:"owner_name" json:"owner_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
