package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freshfold/facility-api/internal/clients"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/internal/repository"
	"github.com/freshfold/facility-api/pkg/logger"
)

// nopDriver backs the *sqlx.Tx handles the mocks hand out. The services only
// ever Commit or Rollback these; all statements go through the mocked stores.
type nopDriver struct{}

func (nopDriver) Open(string) (driver.Conn, error) { return nopConn{}, nil }

type nopConn struct{}

func (nopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (nopConn) Close() error                        { return nil }
func (nopConn) Begin() (driver.Tx, error)           { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

func init() {
	sql.Register("noptx", nopDriver{})
}

func newFakeTx() (*sqlx.Tx, error) {
	db, err := sql.Open("noptx", "")

	if err != nil {
		return nil, err
	}

	return sqlx.NewDb(db, "noptx").Beginx()
}

func testLogger() logger.Logger {
	return logger.NewLogger("error")
}

// mockOrderStore is an in-memory OrderStore
type mockOrderStore struct {
	orders       map[string]*models.Order
	updated      []*models.Order
	itemStatuses map[string]string
	updateErr    error
}

func newMockOrderStore(orders ...*models.Order) *mockOrderStore {
	m := &mockOrderStore{
		orders:       make(map[string]*models.Order),
		itemStatuses: make(map[string]string),
	}

	for _, o := range orders {
		m.orders[o.ID] = o
	}

	return m
}

func (m *mockOrderStore) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return newFakeTx()
}

func (m *mockOrderStore) GetByID(ctx context.Context, facilityID, id string) (*models.Order, error) {
	order, ok := m.orders[id]

	if !ok || order.FacilityID != facilityID {
		return nil, repository.ErrNotFound
	}

	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	return &copied, nil
}

func (m *mockOrderStore) GetByNumber(ctx context.Context, facilityID, orderNumber string) (*models.Order, error) {
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber && order.FacilityID == facilityID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderStore) GetAll(ctx context.Context, facilityID string, limit, offset int) ([]*models.Order, error) {
	var out []*models.Order

	for _, order := range m.orders {
		if order.FacilityID == facilityID {
			out = append(out, order)
		}
	}

	return out, nil
}

func (m *mockOrderStore) Count(ctx context.Context, facilityID string) (int, error) {
	n := 0

	for _, order := range m.orders {
		if order.FacilityID == facilityID {
			n++
		}
	}

	return n, nil
}

func (m *mockOrderStore) UpdateInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}

	copied := *order
	m.updated = append(m.updated, &copied)
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderStore) UpdateItemStatusInTx(ctx context.Context, tx *sqlx.Tx, itemID, processingStatus string) error {
	m.itemStatuses[itemID] = processingStatus
	return nil
}

// mockOutboxStore records outbox messages
type mockOutboxStore struct {
	messages []*models.OutboxMessage
}

func (m *mockOutboxStore) Create(ctx context.Context, message *models.OutboxMessage) error {
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockOutboxStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, message *models.OutboxMessage) error {
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockOutboxStore) eventTypes() []string {
	var types []string

	for _, msg := range m.messages {
		types = append(types, msg.EventType)
	}

	return types
}

// mockStatusLogStore records status log entries
type mockStatusLogStore struct {
	logs []*models.OrderStatusLog
}

func (m *mockStatusLogStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, log *models.OrderStatusLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockStatusLogStore) GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderStatusLog, error) {
	var out []*models.OrderStatusLog

	for _, log := range m.logs {
		if log.OrderID == orderID {
			out = append(out, log)
		}
	}

	return out, nil
}

// mockIssueStore records order issues
type mockIssueStore struct {
	issues []*models.OrderIssue
}

func (m *mockIssueStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, issue *models.OrderIssue) error {
	copied := *issue
	m.issues = append(m.issues, &copied)
	return nil
}

func (m *mockIssueStore) GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderIssue, error) {
	return m.issues, nil
}

// mockIdemStore is an in-memory IdempotencyStore
type mockIdemStore struct {
	values map[string]string
}

func newMockIdemStore() *mockIdemStore {
	return &mockIdemStore{values: make(map[string]string)}
}

func (m *mockIdemStore) key(scope, requestKey string) string {
	return scope + ":" + requestKey
}

func (m *mockIdemStore) Claim(ctx context.Context, scope, requestKey, value string) (bool, error) {
	k := m.key(scope, requestKey)

	if _, exists := m.values[k]; exists {
		return false, nil
	}

	m.values[k] = value
	return true, nil
}

func (m *mockIdemStore) Get(ctx context.Context, scope, requestKey string) (string, bool, error) {
	value, exists := m.values[m.key(scope, requestKey)]
	return value, exists, nil
}

func (m *mockIdemStore) Store(ctx context.Context, scope, requestKey, value string) error {
	m.values[m.key(scope, requestKey)] = value
	return nil
}

func (m *mockIdemStore) Release(ctx context.Context, scope, requestKey string) error {
	delete(m.values, m.key(scope, requestKey))
	return nil
}

// mockQuoteSink records quote requests
type mockQuoteSink struct {
	quotes  []*models.CustomQuote
	failErr error
}

func (m *mockQuoteSink) CreateQuote(ctx context.Context, quote *models.CustomQuote) error {
	if m.failErr != nil {
		return m.failErr
	}

	m.quotes = append(m.quotes, quote)
	return nil
}

// mockQuoteStore is an in-memory QuoteStore
type mockQuoteStore struct {
	quotes map[string]*models.CustomQuote
}

func newMockQuoteStore() *mockQuoteStore {
	return &mockQuoteStore{quotes: make(map[string]*models.CustomQuote)}
}

func (m *mockQuoteStore) Create(ctx context.Context, quote *models.CustomQuote) error {
	copied := *quote
	m.quotes[quote.ID] = &copied
	return nil
}

func (m *mockQuoteStore) GetByID(ctx context.Context, facilityID, id string) (*models.CustomQuote, error) {
	quote, ok := m.quotes[id]

	if !ok || quote.FacilityID != facilityID {
		return nil, repository.ErrNotFound
	}

	copied := *quote
	return &copied, nil
}

func (m *mockQuoteStore) GetAll(ctx context.Context, facilityID string, status models.QuoteStatus, limit, offset int) ([]*models.CustomQuote, error) {
	var out []*models.CustomQuote

	for _, quote := range m.quotes {
		if quote.FacilityID != facilityID {
			continue
		}
		if status != "" && quote.Status != string(status) {
			continue
		}
		out = append(out, quote)
	}

	return out, nil
}

func (m *mockQuoteStore) UpdatePricing(ctx context.Context, quote *models.CustomQuote) error {
	if _, ok := m.quotes[quote.ID]; !ok {
		return repository.ErrNotFound
	}

	copied := *quote
	m.quotes[quote.ID] = &copied
	return nil
}

// mockFacilityStore is an in-memory FacilityStore
type mockFacilityStore struct {
	facilities map[string]*models.Facility
}

func newMockFacilityStore(facilities ...*models.Facility) *mockFacilityStore {
	m := &mockFacilityStore{facilities: make(map[string]*models.Facility)}

	for _, f := range facilities {
		m.facilities[f.ID] = f
	}

	return m
}

func (m *mockFacilityStore) GetByID(ctx context.Context, id string) (*models.Facility, error) {
	facility, ok := m.facilities[id]

	if !ok {
		return nil, repository.ErrNotFound
	}

	return facility, nil
}

func (m *mockFacilityStore) GetByEmail(ctx context.Context, email string) (*models.Facility, error) {
	for _, facility := range m.facilities {
		if facility.Email == email {
			return facility, nil
		}
	}

	return nil, repository.ErrNotFound
}

// mockPackageStore is an in-memory PackageStore
type mockPackageStore struct {
	assignments map[string]*models.PackageAssignment
	statuses    map[string]models.PackageStatus
}

func newMockPackageStore() *mockPackageStore {
	return &mockPackageStore{
		assignments: make(map[string]*models.PackageAssignment),
		statuses:    make(map[string]models.PackageStatus),
	}
}

func (m *mockPackageStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, assignment *models.PackageAssignment) error {
	copied := *assignment
	m.assignments[assignment.OrderID] = &copied
	return nil
}

func (m *mockPackageStore) GetByOrderID(ctx context.Context, orderID string) (*models.PackageAssignment, error) {
	assignment, ok := m.assignments[orderID]

	if !ok {
		return nil, repository.ErrNotFound
	}

	copied := *assignment
	return &copied, nil
}

func (m *mockPackageStore) UpdateStatus(ctx context.Context, id string, status models.PackageStatus, driverID *string) error {
	m.statuses[id] = status
	return nil
}

// mockDispatcher fakes the dispatch service client
type mockDispatcher struct {
	registered []*clients.PackageRequest
	status     string
	driverID   string
	failErr    error
}

func (m *mockDispatcher) RegisterPackage(ctx context.Context, request *clients.PackageRequest) (*clients.PackageResponse, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.registered = append(m.registered, request)

	return &clients.PackageResponse{
		PackageID:      fmt.Sprintf("disp-%d", len(m.registered)),
		OrderID:        request.OrderID,
		TrackingNumber: "TRK-0001",
		Status:         "PENDING",
	}, nil
}

func (m *mockDispatcher) GetPackageStatus(ctx context.Context, packageID string) (*clients.PackageResponse, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}

	return &clients.PackageResponse{
		PackageID: packageID,
		Status:    m.status,
		DriverID:  m.driverID,
	}, nil
}

// pendingOrder builds an order in the pending state with two items
func pendingOrder(facilityID string) *models.Order {
	order := models.NewOrder(facilityID, "ORD-1001", "Dana Cruz", "dana@example.com", "12 Pine St")
	item1 := models.NewOrderItem(order.ID, "Silk Blouse", 2, 12.50)
	item2 := models.NewOrderItem(order.ID, "Wool Coat", 1, 24.00)
	order.Items = []models.OrderItem{*item1, *item2}
	order.RecomputeTotals()
	return order
}

func orderWithStatus(facilityID string, status models.OrderStatus, createdAt time.Time) *models.Order {
	order := models.NewOrder(facilityID, models.GenerateID("num"), "Test Customer", "t@example.com", "1 Elm St")
	order.Status = string(status)
	order.CreatedAt = createdAt
	return order
}
