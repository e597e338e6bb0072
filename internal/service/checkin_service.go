package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/checkin"
	"github.com/freshfold/facility-api/internal/models"
	apperrors "github.com/freshfold/facility-api/pkg/errors"
	"github.com/freshfold/facility-api/pkg/logger"
)

// IssueStore writes and reads order issue records
type IssueStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, issue *models.OrderIssue) error
	GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderIssue, error)
}

// IdempotencyStore deduplicates retried requests by request key
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, requestKey, value string) (bool, error)
	Get(ctx context.Context, scope, requestKey string) (string, bool, error)
	Store(ctx context.Context, scope, requestKey, value string) error
	Release(ctx context.Context, scope, requestKey string) error
}

// quoteIdemScope namespaces quote request keys in the idempotency store
const quoteIdemScope = "quote"

// ItemInspection is the operator's verdict on one line item at check-in
type ItemInspection struct {
	ItemID    string `json:"item_id"`
	Inspected bool   `json:"inspected"`
	HasIssue  bool   `json:"has_issue"`
	IssueNote string `json:"issue_note,omitempty"`
}

// CheckInService reconciles physically received orders against their
// recorded line items and advances them into processing.
type CheckInService struct {
	orderRepo     OrderStore
	issueRepo     IssueStore
	statusLogRepo StatusLogStore
	outboxRepo    OutboxStore
	quotes        checkin.QuoteSink
	idempotency   IdempotencyStore
	logger        logger.Logger
}

// NewCheckInService creates a new CheckInService
func NewCheckInService(
	orderRepo OrderStore,
	issueRepo IssueStore,
	statusLogRepo StatusLogStore,
	outboxRepo OutboxStore,
	quotes checkin.QuoteSink,
	idempotency IdempotencyStore,
	logger logger.Logger,
) *CheckInService {
	return &CheckInService{
		orderRepo:     orderRepo,
		issueRepo:     issueRepo,
		statusLogRepo: statusLogRepo,
		outboxRepo:    outboxRepo,
		quotes:        quotes,
		idempotency:   idempotency,
		logger:        logger,
	}
}

// buildSession loads the order and replays the operator's inspection state
// onto a fresh check-in session.
func (s *CheckInService) buildSession(ctx context.Context, facilityID, orderID string, items []ItemInspection) (*checkin.Session, error) {
	order, err := s.orderRepo.GetByID(ctx, facilityID, orderID)

	if err != nil {
		return nil, err
	}

	session, err := checkin.StartSession(*order)

	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Inspected {
			if err := session.ToggleInspected(item.ItemID); err != nil {
				return nil, err
			}
		}

		if item.HasIssue {
			if err := session.ToggleIssue(item.ItemID); err != nil {
				return nil, err
			}
		}

		if item.IssueNote != "" {
			if err := session.SetIssueNote(item.ItemID, item.IssueNote); err != nil {
				return nil, err
			}
		}
	}

	return session, nil
}

// CompleteCheckIn commits a check-in: every item must be inspected, the
// order advances to processing with items tagged, issue records are written
// for flagged items with notes, and the status log plus outbox events land
// in the same transaction as the order update.
func (s *CheckInService) CompleteCheckIn(ctx context.Context, facilityID, orderID string, items []ItemInspection, notes string) (*models.Order, error) {
	session, err := s.buildSession(ctx, facilityID, orderID, items)

	if err != nil {
		return nil, err
	}

	result, err := session.Commit(combineNotes(notes, session))

	if err != nil {
		return nil, err
	}

	order := result.Order

	statusMsg, err := models.NewOrderStatusChangedEvent(&order, string(models.OrderStatusPending))

	if err != nil {
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	checkedInMsg, err := models.NewOrderCheckedInEvent(&order, len(result.Issues))

	if err != nil {
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.orderRepo.UpdateInTx(ctx, tx, &order); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if err = s.orderRepo.UpdateItemStatusInTx(ctx, tx, item.ID, item.ProcessingStatus); err != nil {
			return nil, err
		}
	}

	for i := range result.Issues {
		if err = s.issueRepo.CreateInTx(ctx, tx, &result.Issues[i]); err != nil {
			return nil, err
		}
	}

	statusLog := models.NewOrderStatusLog(order.ID, order.Status, "Checked in at facility")

	if err = s.statusLogRepo.CreateInTx(ctx, tx, statusLog); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(ctx, tx, statusMsg); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(ctx, tx, checkedInMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order checked in",
		"orderID", order.ID,
		"facilityID", facilityID,
		"itemCount", len(order.Items),
		"issueCount", len(result.Issues))

	return &order, nil
}

// RequestQuote raises a custom price quote for a flagged item. When a
// request key is supplied, retries of the same request return the quote
// created the first time instead of a duplicate.
func (s *CheckInService) RequestQuote(ctx context.Context, facilityID, orderID string, item ItemInspection, requestKey string) (string, error) {
	if requestKey != "" {
		claimed, err := s.idempotency.Claim(ctx, quoteIdemScope, requestKey, "")

		if err != nil {
			return "", err
		}

		if !claimed {
			quoteID, found, err := s.idempotency.Get(ctx, quoteIdemScope, requestKey)

			if err != nil {
				return "", err
			}

			if found && quoteID != "" {
				s.logger.Info("Duplicate quote request, returning original",
					"requestKey", requestKey,
					"quoteID", quoteID)
				return quoteID, nil
			}

			return "", apperrors.NewConflictError("quote request already in progress")
		}
	}

	quoteID, err := s.createQuote(ctx, facilityID, orderID, item)

	if err != nil {
		if requestKey != "" {
			if relErr := s.idempotency.Release(ctx, quoteIdemScope, requestKey); relErr != nil {
				s.logger.Error("Failed to release idempotency key", "error", relErr, "requestKey", requestKey)
			}
		}
		return "", err
	}

	if requestKey != "" {
		if err := s.idempotency.Store(ctx, quoteIdemScope, requestKey, quoteID); err != nil {
			s.logger.Error("Failed to store idempotency value", "error", err, "requestKey", requestKey)
		}
	}

	return quoteID, nil
}

func (s *CheckInService) createQuote(ctx context.Context, facilityID, orderID string, item ItemInspection) (string, error) {
	item.HasIssue = true

	session, err := s.buildSession(ctx, facilityID, orderID, []ItemInspection{item})

	if err != nil {
		return "", err
	}

	return session.RequestQuote(ctx, s.quotes, item.ItemID)
}

// combineNotes merges the operator's order-level notes with the per-item
// issue notes so they travel on the order as special instructions.
func combineNotes(notes string, session *checkin.Session) string {
	parts := make([]string, 0, len(session.Items)+1)

	if notes != "" {
		parts = append(parts, notes)
	}

	for _, item := range session.Items {
		if item.HasIssue && item.IssueNote != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", item.ProductName, item.IssueNote))
		}
	}

	return strings.Join(parts, "; ")
}
