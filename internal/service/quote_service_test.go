package service

import (
	"context"
	"errors"
	"testing"

	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/internal/repository"
)

func TestCreateQuotePublishesEvent(t *testing.T) {
	quoteStore := newMockQuoteStore()
	outboxStore := &mockOutboxStore{}

	svc := NewQuoteService(quoteStore, outboxStore, testLogger())

	quote := models.NewCustomQuote("fac-1", "Leather Jacket", "Deep stain on collar")

	if err := svc.CreateQuote(context.Background(), quote); err != nil {
		t.Fatalf("CreateQuote returned error: %v", err)
	}

	stored, err := quoteStore.GetByID(context.Background(), "fac-1", quote.ID)

	if err != nil {
		t.Fatalf("Expected quote persisted, got %v", err)
	}

	if stored.Status != string(models.QuoteStatusPending) {
		t.Errorf("Expected pending quote, got %s", stored.Status)
	}

	types := outboxStore.eventTypes()

	if len(types) != 1 || types[0] != models.EventQuoteRequested {
		t.Errorf("Expected a quote_requested event, got %v", types)
	}
}

func TestRespondToQuote(t *testing.T) {
	quoteStore := newMockQuoteStore()
	svc := NewQuoteService(quoteStore, &mockOutboxStore{}, testLogger())

	quote := models.NewCustomQuote("fac-1", "Leather Jacket", "Deep stain on collar")

	if err := quoteStore.Create(context.Background(), quote); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	responded, err := svc.RespondToQuote(context.Background(), "fac-1", quote.ID, 45.50, "Requires leather specialist")

	if err != nil {
		t.Fatalf("RespondToQuote returned error: %v", err)
	}

	if responded.Status != string(models.QuoteStatusQuoted) {
		t.Errorf("Expected quoted status, got %s", responded.Status)
	}

	if responded.SuggestedPrice == nil || *responded.SuggestedPrice != 45.50 {
		t.Errorf("Expected suggested price 45.50, got %v", responded.SuggestedPrice)
	}

	if responded.FacilityNote == nil || *responded.FacilityNote != "Requires leather specialist" {
		t.Errorf("Expected facility note set, got %v", responded.FacilityNote)
	}

	stored, _ := quoteStore.GetByID(context.Background(), "fac-1", quote.ID)

	if stored.Status != string(models.QuoteStatusQuoted) {
		t.Errorf("Expected persisted quoted status, got %s", stored.Status)
	}
}

func TestDeclineQuote(t *testing.T) {
	quoteStore := newMockQuoteStore()
	svc := NewQuoteService(quoteStore, &mockOutboxStore{}, testLogger())

	quote := models.NewCustomQuote("fac-1", "Leather Jacket", "Deep stain on collar")

	if err := quoteStore.Create(context.Background(), quote); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	declined, err := svc.DeclineQuote(context.Background(), "fac-1", quote.ID, "Beyond repair")

	if err != nil {
		t.Fatalf("DeclineQuote returned error: %v", err)
	}

	if declined.Status != string(models.QuoteStatusDeclined) {
		t.Errorf("Expected declined status, got %s", declined.Status)
	}

	if declined.FacilityNote == nil || *declined.FacilityNote != "Beyond repair" {
		t.Errorf("Expected facility note set, got %v", declined.FacilityNote)
	}

	if declined.SuggestedPrice != nil {
		t.Errorf("Expected no suggested price on a declined quote, got %v", declined.SuggestedPrice)
	}
}

func TestRespondToQuoteScopedToFacility(t *testing.T) {
	quoteStore := newMockQuoteStore()
	svc := NewQuoteService(quoteStore, &mockOutboxStore{}, testLogger())

	quote := models.NewCustomQuote("fac-1", "Leather Jacket", "Deep stain on collar")

	if err := quoteStore.Create(context.Background(), quote); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err := svc.RespondToQuote(context.Background(), "fac-2", quote.ID, 45.50, "")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for foreign facility, got %v", err)
	}
}

func TestGetQuotesFilteredByStatus(t *testing.T) {
	quoteStore := newMockQuoteStore()
	svc := NewQuoteService(quoteStore, &mockOutboxStore{}, testLogger())

	pending := models.NewCustomQuote("fac-1", "Coat", "Missing button")
	quoted := models.NewCustomQuote("fac-1", "Dress", "Hem repair")
	quoted.Status = string(models.QuoteStatusQuoted)

	for _, q := range []*models.CustomQuote{pending, quoted} {
		if err := quoteStore.Create(context.Background(), q); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	all, err := svc.GetQuotes(context.Background(), "fac-1", "", 20, 0)

	if err != nil {
		t.Fatalf("GetQuotes returned error: %v", err)
	}

	if len(all) != 2 {
		t.Errorf("Expected 2 quotes unfiltered, got %d", len(all))
	}

	onlyQuoted, err := svc.GetQuotes(context.Background(), "fac-1", models.QuoteStatusQuoted, 20, 0)

	if err != nil {
		t.Fatalf("GetQuotes returned error: %v", err)
	}

	if len(onlyQuoted) != 1 || onlyQuoted[0].ID != quoted.ID {
		t.Errorf("Expected only the quoted quote, got %+v", onlyQuoted)
	}
}
