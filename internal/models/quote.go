package models

import (
	"time"
)

// QuoteStatus represents the status of a custom price quote
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusQuoted   QuoteStatus = "quoted"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
)

// QuoteUrgency represents how quickly a quote needs a response
type QuoteUrgency string

const (
	QuoteUrgencyStandard QuoteUrgency = "standard"
	QuoteUrgencyExpress  QuoteUrgency = "express"
)

// CustomQuote represents a price-quote request raised for an item that
// needs special handling, reviewed out of band by an administrator.
type CustomQuote struct {
	ID             string   `db:"id" json:"id"`
	FacilityID     string   `db:"facility_id" json:"facility_id"`
	OrderID        *string  `db:"order_id" json:"order_id,omitempty"`
	ItemName       string   `db:"item_name" json:"item_name"`
	Description    string   `db:"description" json:"description"`
	Status         string   `db:"status" json:"status"`
	Urgency        string   `db:"urgency" json:"urgency"`
	SuggestedPrice *float64 `db:"suggested_price" json:"suggested_price,omitempty"`
	FacilityNote   *string  `db:"facility_note" json:"facility_note,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// NewCustomQuote creates a quote request in the pending state with standard urgency
func NewCustomQuote(facilityID, itemName, description string) *CustomQuote {
	return &CustomQuote{
		ID:          GenerateID("qte"),
		FacilityID:  facilityID,
		ItemName:    itemName,
		Description: description,
		Status:      string(QuoteStatusPending),
		Urgency:     string(QuoteUrgencyStandard),
		CreatedAt:   GetCurrentTime(),
	}
}
