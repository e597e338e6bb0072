package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/freshfold/facility-api/internal/config"
	"github.com/freshfold/facility-api/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations bootstraps the schema. A real deployment would use a
// migration tool; tables are created directly for now.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS facilities (
		id VARCHAR(50) PRIMARY KEY,
		facility_code INT NOT NULL UNIQUE,
		facility_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(128) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		address_line_1 TEXT,
		opening_hour VARCHAR(10),
		close_hour VARCHAR(10),
		radius_km INT,
		owner_name VARCHAR(255),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(50) PRIMARY KEY,
		facility_id VARCHAR(50) NOT NULL REFERENCES facilities(id),
		order_number VARCHAR(50) NOT NULL UNIQUE,
		customer_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(50),
		shipping_address TEXT NOT NULL,
		payment_method VARCHAR(50),
		special_instructions TEXT,
		subtotal DECIMAL(10, 2) NOT NULL DEFAULT 0,
		tax DECIMAL(10, 2) NOT NULL DEFAULT 0,
		shipping_fee DECIMAL(10, 2) NOT NULL DEFAULT 0,
		total_amount DECIMAL(10, 2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_orders_facility_id ON orders(facility_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

	CREATE TABLE IF NOT EXISTS order_items (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		product_name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		unit_price DECIMAL(10, 2) NOT NULL CHECK (unit_price >= 0),
		subtotal DECIMAL(10, 2) NOT NULL,
		processing_status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS custom_price_quotes (
		id VARCHAR(50) PRIMARY KEY,
		facility_id VARCHAR(50) NOT NULL REFERENCES facilities(id),
		order_id VARCHAR(50) REFERENCES orders(id),
		item_name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		urgency VARCHAR(20) NOT NULL DEFAULT 'standard',
		suggested_price DECIMAL(10, 2),
		facility_note TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_facility_id ON custom_price_quotes(facility_id);
	CREATE INDEX IF NOT EXISTS idx_quotes_status ON custom_price_quotes(status);

	CREATE TABLE IF NOT EXISTS order_issues (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		issue_type VARCHAR(50) NOT NULL,
		description TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_order_issues_order_id ON order_issues(order_id);

	CREATE TABLE IF NOT EXISTS order_status_logs (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		status VARCHAR(20) NOT NULL,
		notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_order_status_logs_order_id ON order_status_logs(order_id);

	CREATE TABLE IF NOT EXISTS package_assignments (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		package_id VARCHAR(50) NOT NULL,
		tracking_number VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		driver_id VARCHAR(50),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_package_assignments_order_id ON package_assignments(order_id);

	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);

	CREATE TABLE IF NOT EXISTS dead_letter_messages (
		id SERIAL PRIMARY KEY,
		original_message_id BIGINT NOT NULL,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		error_message TEXT NOT NULL,
		failure_reason VARCHAR(100) NOT NULL,
		retry_count INT NOT NULL DEFAULT 0,
		last_retry_at TIMESTAMP,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dead_letter_status ON dead_letter_messages(status);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
