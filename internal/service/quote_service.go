package service

import (
	"context"
	"fmt"

	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// QuoteStore is the quote persistence surface used by the services
type QuoteStore interface {
	Create(ctx context.Context, quote *models.CustomQuote) error
	GetByID(ctx context.Context, facilityID, id string) (*models.CustomQuote, error)
	GetAll(ctx context.Context, facilityID string, status models.QuoteStatus, limit, offset int) ([]*models.CustomQuote, error)
	UpdatePricing(ctx context.Context, quote *models.CustomQuote) error
}

// QuoteService handles custom price quote requests and responses
type QuoteService struct {
	quoteRepo  QuoteStore
	outboxRepo OutboxStore
	logger     logger.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(quoteRepo QuoteStore, outboxRepo OutboxStore, logger logger.Logger) *QuoteService {
	return &QuoteService{
		quoteRepo:  quoteRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateQuote persists a quote request and publishes a quote_requested
// event. It satisfies the check-in session's quote sink.
func (s *QuoteService) CreateQuote(ctx context.Context, quote *models.CustomQuote) error {
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return err
	}

	outboxMsg, err := models.NewQuoteRequestedEvent(quote)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err, "quoteID", quote.ID)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	if err := s.outboxRepo.Create(ctx, outboxMsg); err != nil {
		return err
	}

	s.logger.Info("Quote request created", "quoteID", quote.ID, "facilityID", quote.FacilityID)
	return nil
}

// DeclineQuote marks a quote as declined, optionally recording why
func (s *QuoteService) DeclineQuote(ctx context.Context, facilityID, quoteID string, note string) (*models.CustomQuote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, facilityID, quoteID)

	if err != nil {
		return nil, err
	}

	quote.Status = string(models.QuoteStatusDeclined)

	if note != "" {
		quote.FacilityNote = &note
	}

	if err := s.quoteRepo.UpdatePricing(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("Quote declined", "quoteID", quote.ID, "facilityID", facilityID)
	return quote, nil
}

// GetQuote retrieves a facility's quote by ID
func (s *QuoteService) GetQuote(ctx context.Context, facilityID, quoteID string) (*models.CustomQuote, error) {
	return s.quoteRepo.GetByID(ctx, facilityID, quoteID)
}

// GetQuotes retrieves a facility's quotes, optionally filtered by status
func (s *QuoteService) GetQuotes(ctx context.Context, facilityID string, status models.QuoteStatus, limit, offset int) ([]*models.CustomQuote, error) {
	return s.quoteRepo.GetAll(ctx, facilityID, status, limit, offset)
}

// RespondToQuote records the facility's suggested price and note, moving the
// quote to the quoted state.
func (s *QuoteService) RespondToQuote(ctx context.Context, facilityID, quoteID string, suggestedPrice float64, note string) (*models.CustomQuote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, facilityID, quoteID)

	if err != nil {
		return nil, err
	}

	quote.Status = string(models.QuoteStatusQuoted)
	quote.SuggestedPrice = &suggestedPrice

	if note != "" {
		quote.FacilityNote = &note
	}

	if err := s.quoteRepo.UpdatePricing(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("Quote priced", "quoteID", quote.ID, "suggestedPrice", suggestedPrice)
	return quote, nil
}
