package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/internal/repository"
	apperrors "github.com/freshfold/facility-api/pkg/errors"
	"github.com/freshfold/facility-api/pkg/logger"
)

// FacilityStore is the facility persistence surface used by the auth service
type FacilityStore interface {
	GetByID(ctx context.Context, id string) (*models.Facility, error)
	GetByEmail(ctx context.Context, email string) (*models.Facility, error)
}

// SessionClaims are the JWT claims carried by a facility session token
type SessionClaims struct {
	FacilityID string `json:"facility_id"`
	jwt.RegisteredClaims
}

// AuthService authenticates facility operators and issues session tokens
type AuthService struct {
	facilityRepo FacilityStore
	jwtSecret    []byte
	tokenTTL     time.Duration
	logger       logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(facilityRepo FacilityStore, jwtSecret string, tokenTTL time.Duration, logger logger.Logger) *AuthService {
	return &AuthService{
		facilityRepo: facilityRepo,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

// HashPassword returns the stored form of a password
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login verifies the facility's credentials and returns a signed session
// token. Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.Facility, error) {
	facility, err := s.facilityRepo.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperrors.NewUnauthorizedError("invalid credentials")
		}
		return "", nil, err
	}

	if !facility.Active {
		s.logger.Warn("Login attempt on inactive facility", "facilityID", facility.ID)
		return "", nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	hashed := HashPassword(password)

	if subtle.ConstantTimeCompare([]byte(hashed), []byte(facility.PasswordHash)) != 1 {
		return "", nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	token, err := s.issueToken(facility.ID)

	if err != nil {
		s.logger.Error("Failed to sign session token", "error", err, "facilityID", facility.ID)
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info("Facility logged in", "facilityID", facility.ID)
	return token, facility, nil
}

func (s *AuthService) issueToken(facilityID string) (string, error) {
	now := time.Now()

	claims := SessionClaims{
		FacilityID: facilityID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Subject:   facilityID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken parses and validates a session token, returning the facility
// ID it was issued to.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return "", apperrors.NewUnauthorizedError("invalid session token")
	}

	if claims.FacilityID == "" {
		return "", apperrors.NewUnauthorizedError("invalid session token")
	}

	return claims.FacilityID, nil
}

// GetFacility retrieves a facility profile by ID
func (s *AuthService) GetFacility(ctx context.Context, facilityID string) (*models.Facility, error) {
	return s.facilityRepo.GetByID(ctx, facilityID)
}
