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

// FacilityRepository handles database operations for facility accounts
type FacilityRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewFacilityRepository creates a new FacilityRepository
func NewFacilityRepository(db *database.Database, logger logger.Logger) *FacilityRepository {
	return &FacilityRepository{
		db:     db,
		logger: logger,
	}
}

const facilityColumns = `
	id, facility_code, facility_name, email, password_hash, active,
	address_line_1, opening_hour, close_hour, radius_km, owner_name, created_at
`

// Create inserts a new facility account
func (r *FacilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	query := `
		INSERT INTO facilities (` + facilityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		facility.ID,
		facility.FacilityCode,
		facility.FacilityName,
		facility.Email,
		facility.PasswordHash,
		facility.Active,
		facility.AddressLine1,
		facility.OpeningHour,
		facility.CloseHour,
		facility.RadiusKM,
		facility.OwnerName,
		facility.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create facility", "error", err, "facilityID", facility.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a facility by its ID
func (r *FacilityRepository) GetByID(ctx context.Context, id string) (*models.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE id = $1`

	var facility models.Facility
	err := r.db.DB.GetContext(ctx, &facility, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get facility", "error", err, "facilityID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &facility, nil
}

// GetByEmail retrieves a facility by its login email
func (r *FacilityRepository) GetByEmail(ctx context.Context, email string) (*models.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE email = $1`

	var facility models.Facility
	err := r.db.DB.GetContext(ctx, &facility, query, email)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get facility by email", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &facility, nil
}

// UpdateProfile updates the operational profile fields of a facility
func (r *FacilityRepository) UpdateProfile(ctx context.Context, facility *models.Facility) error {
	query := `
		UPDATE facilities
		SET facility_name = $1, address_line_1 = $2, opening_hour = $3,
		    close_hour = $4, radius_km = $5, owner_name = $6
		WHERE id = $7
	`

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		facility.FacilityName,
		facility.AddressLine1,
		facility.OpeningHour,
		facility.CloseHour,
		facility.RadiusKM,
		facility.OwnerName,
		facility.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update facility", "error", err, "facilityID", facility.ID)
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
