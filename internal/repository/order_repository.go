package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/database"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

// OrderRepository handles database operations for orders and their items
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// BeginTx starts a transaction for multi-write operations
func (r *OrderRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.DB.BeginTxx(ctx, nil)

	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return tx, nil
}

const orderColumns = `
	id, facility_id, order_number, customer_name, email, phone,
	shipping_address, payment_method, special_instructions,
	subtotal, tax, shipping_fee, total_amount, status, created_at, updated_at
`

// Create inserts a new order together with its line items
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.FacilityID,
		order.OrderNumber,
		order.CustomerName,
		order.Email,
		order.Phone,
		order.ShippingAddress,
		order.PaymentMethod,
		order.SpecialInstructions,
		order.Subtotal,
		order.Tax,
		order.ShippingFee,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	for i := range order.Items {
		if err = r.insertItemInTx(ctx, tx, &order.Items[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

func (r *OrderRepository) insertItemInTx(ctx context.Context, tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_name, quantity, unit_price, subtotal, processing_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.OrderID,
		item.ProductName,
		item.Quantity,
		item.UnitPrice,
		item.Subtotal,
		item.ProcessingStatus,
	)

	if err != nil {
		r.logger.Error("Failed to create order item", "error", err, "itemID", item.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a facility's order by its ID, items included
func (r *OrderRepository) GetByID(ctx context.Context, facilityID, id string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND facility_id = $2
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id, facilityID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetByNumber retrieves a facility's order by its human-readable order
// number, the lookup used by the QR scan flow.
func (r *OrderRepository) GetByNumber(ctx context.Context, facilityID, orderNumber string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_number = $1 AND facility_id = $2
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, orderNumber, facilityID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by number", "error", err, "orderNumber", orderNumber)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetAll retrieves a facility's orders newest first, items included
func (r *OrderRepository) GetAll(ctx context.Context, facilityID string, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE facility_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var orders []*models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, facilityID, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get orders", "error", err, "facilityID", facilityID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// GetCreatedSince retrieves a facility's orders created at or after the
// given instant, items included. Used by the stats aggregation, which needs
// full windows rather than pages.
func (r *OrderRepository) GetCreatedSince(ctx context.Context, facilityID string, since time.Time) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE facility_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`

	var orders []models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, facilityID, since)

	if err != nil {
		r.logger.Error("Failed to get orders since", "error", err, "facilityID", facilityID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// Count counts a facility's orders
func (r *OrderRepository) Count(ctx context.Context, facilityID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE facility_id = $1`

	err := r.db.DB.GetContext(ctx, &count, query, facilityID)

	if err != nil {
		r.logger.Error("Failed to count orders", "error", err, "facilityID", facilityID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}

// UpdateInTx updates an order's mutable fields within a transaction
func (r *OrderRepository) UpdateInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		UPDATE orders
		SET status = $1, special_instructions = $2, subtotal = $3, tax = $4,
		    shipping_fee = $5, total_amount = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		order.Status,
		order.SpecialInstructions,
		order.Subtotal,
		order.Tax,
		order.ShippingFee,
		order.TotalAmount,
		models.GetCurrentTime(),
		order.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update order", "error", err, "orderID", order.ID)
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

// UpdateItemStatusInTx sets the processing status of one line item
func (r *OrderRepository) UpdateItemStatusInTx(ctx context.Context, tx *sqlx.Tx, itemID, processingStatus string) error {
	query := `UPDATE order_items SET processing_status = $1 WHERE id = $2`

	result, err := tx.ExecContext(ctx, query, processingStatus, itemID)

	if err != nil {
		r.logger.Error("Failed to update item status", "error", err, "itemID", itemID)
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

func (r *OrderRepository) loadItems(ctx context.Context, order *models.Order) error {
	query := `
		SELECT id, order_id, product_name, quantity, unit_price, subtotal, processing_status
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	var items []models.OrderItem
	err := r.db.DB.SelectContext(ctx, &items, query, order.ID)

	if err != nil {
		r.logger.Error("Failed to load order items", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	order.Items = items
	return nil
}
