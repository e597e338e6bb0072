package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/database"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// PackageRepository handles database operations for delivery package
// assignments
type PackageRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewPackageRepository creates a new PackageRepository
func NewPackageRepository(db *database.Database, logger logger.Logger) *PackageRepository {
	return &PackageRepository{
		db:     db,
		logger: logger,
	}
}

const packageColumns = `
	id, order_id, package_id, tracking_number, status, driver_id, created_at, updated_at
`

// Create inserts a new package assignment
func (r *PackageRepository) Create(ctx context.Context, assignment *models.PackageAssignment) error {
	query := `
		INSERT INTO package_assignments (` + packageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		assignment.ID,
		assignment.OrderID,
		assignment.PackageID,
		assignment.TrackingNumber,
		assignment.Status,
		assignment.DriverID,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create package assignment", "error", err, "orderID", assignment.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// CreateInTx inserts a new package assignment within a transaction
func (r *PackageRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, assignment *models.PackageAssignment) error {
	query := `
		INSERT INTO package_assignments (` + packageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		assignment.ID,
		assignment.OrderID,
		assignment.PackageID,
		assignment.TrackingNumber,
		assignment.Status,
		assignment.DriverID,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create package assignment in transaction: %w", err)
	}

	return nil
}

// GetByOrderID retrieves the package assignment for an order
func (r *PackageRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PackageAssignment, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM package_assignments
		WHERE order_id = $1
	`

	var assignment models.PackageAssignment
	err := r.db.DB.GetContext(ctx, &assignment, query, orderID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get package assignment", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &assignment, nil
}

// UpdateStatus updates the delivery status reported by the dispatch service
func (r *PackageRepository) UpdateStatus(ctx context.Context, id string, status models.PackageStatus, driverID *string) error {
	query := `
		UPDATE package_assignments
		SET status = $1, driver_id = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		status,
		driverID,
		models.GetCurrentTime(),
		id,
	)

	if err != nil {
		r.logger.Error("Failed to update package assignment", "error", err, "assignmentID", id)
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
