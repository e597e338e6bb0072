package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/lifecycle"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// OrderStore is the order persistence surface used by the services
type OrderStore interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	GetByID(ctx context.Context, facilityID, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, facilityID, orderNumber string) (*models.Order, error)
	GetAll(ctx context.Context, facilityID string, limit, offset int) ([]*models.Order, error)
	Count(ctx context.Context, facilityID string) (int, error)
	UpdateInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error
	UpdateItemStatusInTx(ctx context.Context, tx *sqlx.Tx, itemID, processingStatus string) error
}

// OutboxStore writes outbox messages, transactionally when needed
type OutboxStore interface {
	Create(ctx context.Context, message *models.OutboxMessage) error
	CreateInTx(ctx context.Context, tx *sqlx.Tx, message *models.OutboxMessage) error
}

// StatusLogStore appends to the order status audit trail
type StatusLogStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, log *models.OrderStatusLog) error
	GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderStatusLog, error)
}

// OrderService handles order reads and status updates for a facility
type OrderService struct {
	orderRepo     OrderStore
	outboxRepo    OutboxStore
	statusLogRepo StatusLogStore
	logger        logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo OrderStore,
	outboxRepo OutboxStore,
	statusLogRepo StatusLogStore,
	logger logger.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		outboxRepo:    outboxRepo,
		statusLogRepo: statusLogRepo,
		logger:        logger,
	}
}

// GetOrder retrieves a facility's order by ID
func (s *OrderService) GetOrder(ctx context.Context, facilityID, orderID string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, facilityID, orderID)
}

// LookupOrder retrieves a facility's order by its order number, used by the
// intake QR scan flow.
func (s *OrderService) LookupOrder(ctx context.Context, facilityID, orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetByNumber(ctx, facilityID, orderNumber)
}

// GetAllOrders retrieves a facility's orders with pagination
func (s *OrderService) GetAllOrders(ctx context.Context, facilityID string, limit, offset int) ([]*models.Order, error) {
	return s.orderRepo.GetAll(ctx, facilityID, limit, offset)
}

// CountOrders counts a facility's orders
func (s *OrderService) CountOrders(ctx context.Context, facilityID string) (int, error) {
	return s.orderRepo.Count(ctx, facilityID)
}

// GetStatusHistory retrieves the status audit trail of an order
func (s *OrderService) GetStatusHistory(ctx context.Context, facilityID, orderID string) ([]*models.OrderStatusLog, error) {
	if _, err := s.orderRepo.GetByID(ctx, facilityID, orderID); err != nil {
		return nil, err
	}

	return s.statusLogRepo.GetByOrderID(ctx, orderID)
}

// NextStatuses returns the statuses an order can legally move to
func (s *OrderService) NextStatuses(status models.OrderStatus) []models.OrderStatus {
	return lifecycle.NextStatuses(status)
}

// UpdateOrderStatus moves an order along its lifecycle, appending a status
// log entry and an outbox message in the same transaction. Setting the
// status an order already has is a no-op.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, facilityID, orderID string, target models.OrderStatus, notes string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, facilityID, orderID)

	if err != nil {
		return nil, err
	}

	if order.Status == string(target) {
		return order, nil
	}

	oldStatus := order.Status
	updated, err := lifecycle.Transition(*order, target)

	if err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewOrderStatusChangedEvent(&updated, oldStatus)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
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

	if err = s.orderRepo.UpdateInTx(ctx, tx, &updated); err != nil {
		return nil, err
	}

	statusLog := models.NewOrderStatusLog(updated.ID, updated.Status, notes)

	if err = s.statusLogRepo.CreateInTx(ctx, tx, statusLog); err != nil {
		return nil, err
	}

	if err = s.outboxRepo.CreateInTx(ctx, tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order status updated",
		"orderID", updated.ID,
		"oldStatus", oldStatus,
		"newStatus", updated.Status,
		"messageID", outboxMsg.ID)

	return &updated, nil
}
