package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/clients"
	"github.com/freshfold/facility-api/internal/lifecycle"
	"github.com/freshfold/facility-api/internal/models"
	apperrors "github.com/freshfold/facility-api/pkg/errors"
	"github.com/freshfold/facility-api/pkg/logger"
)

// PackageStore is the package assignment persistence surface
type PackageStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, assignment *models.PackageAssignment) error
	GetByOrderID(ctx context.Context, orderID string) (*models.PackageAssignment, error)
	UpdateStatus(ctx context.Context, id string, status models.PackageStatus, driverID *string) error
}

// PackageDispatcher is the dispatch service client surface
type PackageDispatcher interface {
	RegisterPackage(ctx context.Context, request *clients.PackageRequest) (*clients.PackageResponse, error)
	GetPackageStatus(ctx context.Context, packageID string) (*clients.PackageResponse, error)
}

// DispatchService hands processed orders to the delivery dispatch service
// and tracks their packages.
type DispatchService struct {
	orderRepo     OrderStore
	packageRepo   PackageStore
	statusLogRepo StatusLogStore
	outboxRepo    OutboxStore
	dispatcher    PackageDispatcher
	orderService  *OrderService
	logger        logger.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	orderRepo OrderStore,
	packageRepo PackageStore,
	statusLogRepo StatusLogStore,
	outboxRepo OutboxStore,
	dispatcher PackageDispatcher,
	orderService *OrderService,
	logger logger.Logger,
) *DispatchService {
	return &DispatchService{
		orderRepo:     orderRepo,
		packageRepo:   packageRepo,
		statusLogRepo: statusLogRepo,
		outboxRepo:    outboxRepo,
		dispatcher:    dispatcher,
		orderService:  orderService,
		logger:        logger,
	}
}

// ShipOrder registers a processed order with the dispatch service, records
// the assigned package and moves the order to shipped in one transaction.
func (s *DispatchService) ShipOrder(ctx context.Context, facilityID, orderID string) (*models.PackageAssignment, error) {
	order, err := s.orderRepo.GetByID(ctx, facilityID, orderID)

	if err != nil {
		return nil, err
	}

	if !lifecycle.CanTransition(models.OrderStatus(order.Status), models.OrderStatusShipped) {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("order in status %q cannot be shipped", order.Status))
	}

	resp, err := s.dispatcher.RegisterPackage(ctx, &clients.PackageRequest{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Address:      order.ShippingAddress,
		ItemCount:    len(order.Items),
	})

	if err != nil {
		s.logger.Error("Failed to register package with dispatch", "error", err, "orderID", order.ID)
		return nil, fmt.Errorf("failed to register package: %w", err)
	}

	assignment := models.NewPackageAssignment(
		order.ID,
		resp.PackageID,
		resp.TrackingNumber,
		string(models.PackageStatusPending),
	)

	oldStatus := order.Status
	updated, err := lifecycle.Transition(*order, models.OrderStatusShipped)

	if err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewOrderStatusChangedEvent(&updated, oldStatus)

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

	if err = s.orderRepo.UpdateInTx(ctx, tx, &updated); err != nil {
		return nil, err
	}

	if err = s.packageRepo.CreateInTx(ctx, tx, assignment); err != nil {
		return nil, err
	}

	statusLog := models.NewOrderStatusLog(updated.ID, updated.Status,
		fmt.Sprintf("Dispatched as package %s", assignment.PackageID))

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

	s.logger.Info("Order shipped",
		"orderID", updated.ID,
		"packageID", assignment.PackageID,
		"trackingNumber", assignment.TrackingNumber)

	return assignment, nil
}

// GetPackage retrieves the package assignment of a facility's order
func (s *DispatchService) GetPackage(ctx context.Context, facilityID, orderID string) (*models.PackageAssignment, error) {
	if _, err := s.orderRepo.GetByID(ctx, facilityID, orderID); err != nil {
		return nil, err
	}

	return s.packageRepo.GetByOrderID(ctx, orderID)
}

// RefreshPackageStatus pulls the package's delivery status from the
// dispatch service. A delivered package completes the order.
func (s *DispatchService) RefreshPackageStatus(ctx context.Context, facilityID, orderID string) (*models.PackageAssignment, error) {
	order, err := s.orderRepo.GetByID(ctx, facilityID, orderID)

	if err != nil {
		return nil, err
	}

	assignment, err := s.packageRepo.GetByOrderID(ctx, orderID)

	if err != nil {
		return nil, err
	}

	resp, err := s.dispatcher.GetPackageStatus(ctx, assignment.PackageID)

	if err != nil {
		s.logger.Error("Failed to get package status from dispatch", "error", err, "packageID", assignment.PackageID)
		return nil, fmt.Errorf("failed to get package status: %w", err)
	}

	newStatus := mapDispatchStatus(resp.Status)

	var driverID *string
	if resp.DriverID != "" {
		driverID = &resp.DriverID
	}

	if err := s.packageRepo.UpdateStatus(ctx, assignment.ID, newStatus, driverID); err != nil {
		return nil, err
	}

	assignment.Status = string(newStatus)
	assignment.DriverID = driverID

	if newStatus == models.PackageStatusDelivered && order.Status == string(models.OrderStatusShipped) {
		if _, err := s.orderService.UpdateOrderStatus(ctx, facilityID, orderID, models.OrderStatusDelivered, "Package delivered"); err != nil {
			return nil, err
		}
	}

	return assignment, nil
}

// mapDispatchStatus maps the dispatch service's status vocabulary to ours
func mapDispatchStatus(status string) models.PackageStatus {
	switch status {
	case "ASSIGNED", "IN_TRANSIT":
		return models.PackageStatusInTransit
	case "DELIVERED":
		return models.PackageStatusDelivered
	case "FAILED":
		return models.PackageStatusFailed
	default:
		return models.PackageStatusPending
	}
}
