// Package checkin manages the item verification session that gates a pending
// order's advance into processing. A session is an in-memory projection of an
// order's line items; it is committed into a proposed order state or
// abandoned, and the caller owns all persistence.
package checkin

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshfold/facility-api/internal/lifecycle"
	"github.com/freshfold/facility-api/internal/models"
)

var (
	// ErrOrderNotPending is returned when a session is started on an order past intake
	ErrOrderNotPending = errors.New("order is not pending check-in")
	// ErrItemNotFound is returned when an operation references an absent line item
	ErrItemNotFound = errors.New("check-in item not found")
	// ErrIncompleteCheckIn is returned when commit is attempted before every item is inspected
	ErrIncompleteCheckIn = errors.New("not all items inspected")
	// ErrNoIssueFlagged is returned when a quote is requested for an item without an issue
	ErrNoIssueFlagged = errors.New("item has no issue flagged")
)

// fallbackQuoteDescription is used when an item has no issue note
const fallbackQuoteDescription = "Special handling required"

// Item is the check-in-time view of an order line item
type Item struct {
	models.OrderItem
	Inspected bool   `json:"inspected"`
	HasIssue  bool   `json:"has_issue"`
	IssueNote string `json:"issue_note,omitempty"`
}

// Session tracks per-item inspection state for a single pending order
type Session struct {
	Order models.Order
	Items []Item
}

// QuoteSink is the external store that receives custom quote requests. It is
// the one fallible external effect of a session; everything else is pure.
type QuoteSink interface {
	CreateQuote(ctx context.Context, quote *models.CustomQuote) error
}

// CommitResult is the proposed state produced by a successful commit. The
// caller persists the order and issue records; nothing has been written yet.
type CommitResult struct {
	Order  models.Order
	Issues []models.OrderIssue
}

// StartSession begins a check-in session for a pending order, producing one
// check-in item per order item with all flags cleared.
func StartSession(order models.Order) (*Session, error) {
	if order.Status != string(models.OrderStatusPending) {
		return nil, fmt.Errorf("%w: status is %q", ErrOrderNotPending, order.Status)
	}

	items := make([]Item, len(order.Items))
	for i, item := range order.Items {
		items[i] = Item{OrderItem: item}
	}

	return &Session{Order: order, Items: items}, nil
}

// ToggleInspected flips the inspected flag on the given item
func (s *Session) ToggleInspected(itemID string) error {
	item := s.find(itemID)
	if item == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item.Inspected = !item.Inspected
	return nil
}

// ToggleIssue flips the issue flag on the given item
func (s *Session) ToggleIssue(itemID string) error {
	item := s.find(itemID)
	if item == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item.HasIssue = !item.HasIssue
	return nil
}

// SetIssueNote attaches free text to an item. The note may be set before the
// issue flag; it only survives a commit while the flag is raised.
func (s *Session) SetIssueNote(itemID, note string) error {
	item := s.find(itemID)
	if item == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item.IssueNote = note
	return nil
}

// RequestQuote builds a custom price quote for a flagged item and emits it to
// the sink. Callers must treat this as fallible and non-idempotent; retry
// deduplication belongs to the caller via a request key.
func (s *Session) RequestQuote(ctx context.Context, sink QuoteSink, itemID string) (string, error) {
	item := s.find(itemID)
	if item == nil {
		return "", fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	if !item.HasIssue {
		return "", fmt.Errorf("%w: %s", ErrNoIssueFlagged, itemID)
	}

	description := item.IssueNote
	if description == "" {
		description = fallbackQuoteDescription
	}

	quote := models.NewCustomQuote(s.Order.FacilityID, item.ProductName, description)
	quote.OrderID = &s.Order.ID

	if err := sink.CreateQuote(ctx, quote); err != nil {
		return "", fmt.Errorf("failed to create quote: %w", err)
	}

	return quote.ID, nil
}

// Commit requires every item to be inspected and returns the proposed order
// state: status advanced to processing, inspected items tagged, issue records
// collected for items flagged with a note, and the notes attached as special
// instructions when non-empty. The order held by the session is unchanged.
func (s *Session) Commit(notes string) (*CommitResult, error) {
	for _, item := range s.Items {
		if !item.Inspected {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteCheckIn, item.ID)
		}
	}

	order, err := lifecycle.Transition(s.Order, models.OrderStatusProcessing)
	if err != nil {
		return nil, err
	}

	order.Items = make([]models.OrderItem, len(s.Items))
	var issues []models.OrderIssue

	for i, item := range s.Items {
		order.Items[i] = item.OrderItem
		order.Items[i].ProcessingStatus = string(models.ItemProcessingTagged)

		if item.HasIssue && item.IssueNote != "" {
			issues = append(issues, *models.NewOrderIssue(order.ID, "other", item.IssueNote))
		}
	}

	if notes != "" {
		order.SpecialInstructions = &notes
	}

	return &CommitResult{Order: order, Issues: issues}, nil
}

func (s *Session) find(itemID string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}
