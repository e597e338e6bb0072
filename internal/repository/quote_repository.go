package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freshfold/facility-api/internal/database"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// QuoteRepository handles database operations for custom price quotes
type QuoteRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(db *database.Database, logger logger.Logger) *QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

const quoteColumns = `
	id, facility_id, order_id, item_name, description, status, urgency,
	suggested_price, facility_note, created_at
`

// Create inserts a new custom price quote
func (r *QuoteRepository) Create(ctx context.Context, quote *models.CustomQuote) error {
	query := `
		INSERT INTO custom_price_quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		quote.ID,
		quote.FacilityID,
		quote.OrderID,
		quote.ItemName,
		quote.Description,
		quote.Status,
		quote.Urgency,
		quote.SuggestedPrice,
		quote.FacilityNote,
		quote.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create quote", "error", err, "quoteID", quote.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a facility's quote by its ID
func (r *QuoteRepository) GetByID(ctx context.Context, facilityID, id string) (*models.CustomQuote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM custom_price_quotes
		WHERE id = $1 AND facility_id = $2
	`

	var quote models.CustomQuote
	err := r.db.DB.GetContext(ctx, &quote, query, id, facilityID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get quote", "error", err, "quoteID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &quote, nil
}

// GetAll retrieves a facility's quotes newest first, optionally filtered by status
func (r *QuoteRepository) GetAll(ctx context.Context, facilityID string, status models.QuoteStatus, limit, offset int) ([]*models.CustomQuote, error) {
	var quotes []*models.CustomQuote
	var err error

	if status == "" {
		query := `
			SELECT ` + quoteColumns + `
			FROM custom_price_quotes
			WHERE facility_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		err = r.db.DB.SelectContext(ctx, &quotes, query, facilityID, limit, offset)
	} else {
		query := `
			SELECT ` + quoteColumns + `
			FROM custom_price_quotes
			WHERE facility_id = $1 AND status = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4
		`
		err = r.db.DB.SelectContext(ctx, &quotes, query, facilityID, status, limit, offset)
	}

	if err != nil {
		r.logger.Error("Failed to get quotes", "error", err, "facilityID", facilityID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return quotes, nil
}

// UpdatePricing records the facility's response to a quote request
func (r *QuoteRepository) UpdatePricing(ctx context.Context, quote *models.CustomQuote) error {
	query := `
		UPDATE custom_price_quotes
		SET status = $1, suggested_price = $2, facility_note = $3
		WHERE id = $4 AND facility_id = $5
	`

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		quote.Status,
		quote.SuggestedPrice,
		quote.FacilityNote,
		quote.ID,
		quote.FacilityID,
	)

	if err != nil {
		r.logger.Error("Failed to update quote", "error", err, "quoteID", quote.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
