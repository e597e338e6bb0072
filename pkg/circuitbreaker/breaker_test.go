package circuitbreaker

import (
	"testing"
	"time"
)

func newTestBreaker() *CircuitBreaker {
	return New(Config{
		FailureThreshold: 3,
		ResetTimeout:     20 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	})
}

func TestStartsClosed(t *testing.T) {
	cb := newTestBreaker()

	if cb.GetState() != StateClosed {
		t.Fatalf("Expected closed state, got %v", cb.GetState())
	}

	if !cb.Allow() {
		t.Error("Expected requests allowed while closed")
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker()

	cb.Failure()
	cb.Failure()

	if cb.GetState() != StateClosed {
		t.Fatalf("Expected closed below the threshold, got %v", cb.GetState())
	}

	cb.Failure()

	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open after 3 failures, got %v", cb.GetState())
	}

	if cb.Allow() {
		t.Error("Expected requests rejected while open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker()

	cb.Failure()
	cb.Failure()
	cb.Success()
	cb.Failure()
	cb.Failure()

	if cb.GetState() != StateClosed {
		t.Fatalf("Expected closed after the count reset, got %v", cb.GetState())
	}
}

func TestHalfOpenAfterResetTimeout(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.Failure()
	}

	time.Sleep(25 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("Expected a probe request allowed after the reset timeout")
	}

	if cb.GetState() != StateHalfOpen {
		t.Fatalf("Expected half-open state, got %v", cb.GetState())
	}

	// Only halfOpenMaxCalls probes pass
	if !cb.Allow() {
		t.Error("Expected the second probe allowed")
	}

	if cb.Allow() {
		t.Error("Expected the third probe rejected")
	}
}

func TestHalfOpenSuccessCloses(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.Failure()
	}

	time.Sleep(25 * time.Millisecond)
	cb.Allow()
	cb.Success()

	if cb.GetState() != StateClosed {
		t.Fatalf("Expected closed after a half-open success, got %v", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.Failure()
	}

	time.Sleep(25 * time.Millisecond)
	cb.Allow()
	cb.Failure()

	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open after a half-open failure, got %v", cb.GetState())
	}
}

func TestGetMetrics(t *testing.T) {
	cb := newTestBreaker()
	cb.Failure()

	metrics := cb.GetMetrics()

	if metrics["state"] != "closed" {
		t.Errorf("Expected state closed, got %v", metrics["state"])
	}

	if metrics["failure_count"] != int64(1) {
		t.Errorf("Expected failure count 1, got %v", metrics["failure_count"])
	}
}
