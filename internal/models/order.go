package models

import (
	"errors"
	"math"
	"time"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ErrTotalsMismatch is returned when an order's monetary breakdown does not add up
var ErrTotalsMismatch = errors.New("order totals mismatch")

// Monetary amounts are compared to the cent
const amountTolerance = 0.005

// Order represents one customer order belonging to a facility
type Order struct {
	ID                  string  `db:"id" json:"id"`
	FacilityID          string  `db:"facility_id" json:"facility_id"`
	OrderNumber         string  `db:"order_number" json:"order_number"`
	CustomerName        string  `db:"customer_name" json:"customer_name"`
	Email               string  `db:"email" json:"email"`
	Phone               *string `db:"phone" json:"phone,omitempty"`
	ShippingAddress     string  `db:"shipping_address" json:"shipping_address"`
	PaymentMethod       *string `db:"payment_method" json:"payment_method,omitempty"`
	SpecialInstructions *string `db:"special_instructions" json:"special_instructions,omitempty"`
	Subtotal            float64 `db:"subtotal" json:"subtotal"`
	Tax                 float64 `db:"tax" json:"tax"`
	ShippingFee         float64 `db:"shipping_fee" json:"shipping_fee"`
	TotalAmount         float64 `db:"total_amount" json:"total_amount"`
	Status              string  `db:"status" json:"status"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`

	Items   []OrderItem        `db:"-" json:"items"`
	Package *PackageAssignment `db:"-" json:"package,omitempty"`
}

// ItemProcessingStatus tracks where a line item is in the facility workflow
type ItemProcessingStatus string

const (
	ItemProcessingPending ItemProcessingStatus = "pending"
	ItemProcessingTagged  ItemProcessingStatus = "tagged"
)

// OrderItem represents one line item of an order
type OrderItem struct {
	ID               string  `db:"id" json:"id"`
	OrderID          string  `db:"order_id" json:"order_id"`
	ProductName      string  `db:"product_name" json:"product_name"`
	Quantity         int     `db:"quantity" json:"quantity"`
	UnitPrice        float64 `db:"unit_price" json:"unit_price"`
	Subtotal         float64 `db:"subtotal" json:"subtotal"`
	ProcessingStatus string  `db:"processing_status" json:"processing_status"`
}

// NewOrder creates a new order in the pending state
func NewOrder(facilityID, orderNumber, customerName, email, shippingAddress string) *Order {
	now := GetCurrentTime()

	return &Order{
		ID:              GenerateID("ord"),
		FacilityID:      facilityID,
		OrderNumber:     orderNumber,
		CustomerName:    customerName,
		Email:           email,
		ShippingAddress: shippingAddress,
		Status:          string(OrderStatusPending),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewOrderItem creates a line item with its subtotal derived from quantity and unit price
func NewOrderItem(orderID, productName string, quantity int, unitPrice float64) *OrderItem {
	return &OrderItem{
		ID:               GenerateID("itm"),
		OrderID:          orderID,
		ProductName:      productName,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		Subtotal:         float64(quantity) * unitPrice,
		ProcessingStatus: string(ItemProcessingPending),
	}
}

// RecomputeTotals recalculates line subtotals, the order subtotal and the
// grand total from the items, keeping the monetary invariant intact.
func (o *Order) RecomputeTotals() {
	var subtotal float64

	for i := range o.Items {
		o.Items[i].Subtotal = float64(o.Items[i].Quantity) * o.Items[i].UnitPrice
		subtotal += o.Items[i].Subtotal
	}

	o.Subtotal = subtotal
	o.TotalAmount = o.Subtotal + o.Tax + o.ShippingFee
}

// ValidateTotals checks that every line subtotal equals quantity times unit
// price and that total = subtotal + tax + shipping fee.
func (o *Order) ValidateTotals() error {
	var subtotal float64

	for _, item := range o.Items {
		expected := float64(item.Quantity) * item.UnitPrice

		if math.Abs(item.Subtotal-expected) > amountTolerance {
			return ErrTotalsMismatch
		}
		subtotal += item.Subtotal
	}

	if len(o.Items) > 0 && math.Abs(o.Subtotal-subtotal) > amountTolerance {
		return ErrTotalsMismatch
	}

	if math.Abs(o.TotalAmount-(o.Subtotal+o.Tax+o.ShippingFee)) > amountTolerance {
		return ErrTotalsMismatch
	}

	return nil
}
