package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freshfold/facility-api/internal/models"
	apperrors "github.com/freshfold/facility-api/pkg/errors"
)

func testFacility(active bool) *models.Facility {
	return &models.Facility{
		ID:           models.GenerateID("fac"),
		FacilityCode: 1042,
		FacilityName: "Downtown Cleaners",
		Email:        "ops@downtown.example.com",
		PasswordHash: HashPassword("sudsy-water"),
		Active:       active,
		CreatedAt:    models.GetCurrentTime(),
	}
}

func TestLoginAndVerifyToken(t *testing.T) {
	facility := testFacility(true)
	svc := NewAuthService(newMockFacilityStore(facility), "test-secret", time.Hour, testLogger())

	token, got, err := svc.Login(context.Background(), facility.Email, "sudsy-water")

	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if token == "" {
		t.Fatal("Expected a session token")
	}

	if got.ID != facility.ID {
		t.Errorf("Expected facility %s, got %s", facility.ID, got.ID)
	}

	facilityID, err := svc.VerifyToken(token)

	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}

	if facilityID != facility.ID {
		t.Errorf("Expected token issued to %s, got %s", facility.ID, facilityID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	facility := testFacility(true)
	svc := NewAuthService(newMockFacilityStore(facility), "test-secret", time.Hour, testLogger())

	_, _, err := svc.Login(context.Background(), facility.Email, "wrong")

	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized error, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockFacilityStore(), "test-secret", time.Hour, testLogger())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")

	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized error, got %v", err)
	}
}

func TestLoginInactiveFacility(t *testing.T) {
	facility := testFacility(false)
	svc := NewAuthService(newMockFacilityStore(facility), "test-secret", time.Hour, testLogger())

	_, _, err := svc.Login(context.Background(), facility.Email, "sudsy-water")

	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized error, got %v", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	facility := testFacility(true)

	issuer := NewAuthService(newMockFacilityStore(facility), "secret-a", time.Hour, testLogger())
	verifier := NewAuthService(newMockFacilityStore(facility), "secret-b", time.Hour, testLogger())

	token, _, err := issuer.Login(context.Background(), facility.Email, "sudsy-water")

	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := verifier.VerifyToken(token); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized error for foreign signature, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	facility := testFacility(true)
	svc := NewAuthService(newMockFacilityStore(facility), "test-secret", -time.Minute, testLogger())

	token, _, err := svc.Login(context.Background(), facility.Email, "sudsy-water")

	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := svc.VerifyToken(token); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized error for expired token, got %v", err)
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	svc := NewAuthService(newMockFacilityStore(), "test-secret", time.Hour, testLogger())

	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized error, got %v", err)
	}
}
