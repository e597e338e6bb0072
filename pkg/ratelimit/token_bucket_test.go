package ratelimit

import (
	"testing"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(3, 0)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("Expected request %d allowed", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected request rejected once the bucket is drained")
	}
}

func TestTokenBucketAllowN(t *testing.T) {
	tb := NewTokenBucket(5, 0)

	if !tb.AllowN(5) {
		t.Fatal("Expected a burst of 5 allowed at capacity")
	}

	if tb.AllowN(1) {
		t.Error("Expected rejection after the burst")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(2, 0)

	tb.Allow()
	tb.Allow()

	if tb.Allow() {
		t.Fatal("Expected bucket drained")
	}

	tb.Reset()

	if !tb.Allow() {
		t.Error("Expected request allowed after reset")
	}
}

func TestIPRateLimiterIsolatesAddresses(t *testing.T) {
	limiter := NewIPRateLimiter(1, 0)
	defer limiter.Stop()

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("Expected first request from 10.0.0.1 allowed")
	}

	if limiter.Allow("10.0.0.1") {
		t.Error("Expected second request from 10.0.0.1 rejected")
	}

	if !limiter.Allow("10.0.0.2") {
		t.Error("Expected request from a different address allowed")
	}
}
