package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/database"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// IssueRepository handles database operations for order issues recorded
// during check-in
type IssueRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewIssueRepository creates a new IssueRepository
func NewIssueRepository(db *database.Database, logger logger.Logger) *IssueRepository {
	return &IssueRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts an order issue within a transaction
func (r *IssueRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, issue *models.OrderIssue) error {
	query := `
		INSERT INTO order_issues (id, order_id, issue_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		issue.ID,
		issue.OrderID,
		issue.IssueType,
		issue.Description,
		issue.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order issue", "error", err, "orderID", issue.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByOrderID retrieves all issues recorded against an order
func (r *IssueRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderIssue, error) {
	query := `
		SELECT id, order_id, issue_type, description, created_at
		FROM order_issues
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	var issues []*models.OrderIssue
	err := r.db.DB.SelectContext(ctx, &issues, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get order issues", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return issues, nil
}
