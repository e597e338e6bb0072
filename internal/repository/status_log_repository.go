package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/database"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// StatusLogRepository handles database operations for the order status
// audit trail
type StatusLogRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewStatusLogRepository creates a new StatusLogRepository
func NewStatusLogRepository(db *database.Database, logger logger.Logger) *StatusLogRepository {
	return &StatusLogRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a status log entry within a transaction
func (r *StatusLogRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, log *models.OrderStatusLog) error {
	query := `
		INSERT INTO order_status_logs (id, order_id, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		log.ID,
		log.OrderID,
		log.Status,
		log.Notes,
		log.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create status log", "error", err, "orderID", log.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByOrderID retrieves the status history of an order, oldest first
func (r *StatusLogRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderStatusLog, error) {
	query := `
		SELECT id, order_id, status, notes, created_at
		FROM order_status_logs
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	var logs []*models.OrderStatusLog
	err := r.db.DB.SelectContext(ctx, &logs, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get status logs", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return logs, nil
}
