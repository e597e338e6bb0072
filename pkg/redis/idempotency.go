// Package redis holds the Redis-backed idempotency key store used to
// deduplicate retried quote requests.
package redis

import (
	"context"
	"fmt"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// IdempotencyStore claims request keys with SETNX so a retried request can
// be recognized and its original result returned instead of repeated.
type IdempotencyStore struct {
	client *rd.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store over the given client. Keys expire
// after ttl so abandoned requests do not pin memory forever.
func NewIdempotencyStore(client *rd.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) key(scope, requestKey string) string {
	return fmt.Sprintf("facility:idem:%s:%s", scope, requestKey)
}

// Claim attempts to claim the request key, storing value against it. It
// returns true when this caller owns the key, false when it was already
// claimed.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, requestKey, value string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(scope, requestKey), value, s.ttl).Result()

	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}

	return ok, nil
}

// Get returns the value stored for a claimed key. found=false means the key
// does not exist or has expired.
func (s *IdempotencyStore) Get(ctx context.Context, scope, requestKey string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(scope, requestKey)).Result()

	if err == rd.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	return value, true, nil
}

// Store overwrites the value for a claimed key, refreshing its TTL. Used to
// record the outcome once the guarded operation completes.
func (s *IdempotencyStore) Store(ctx context.Context, scope, requestKey, value string) error {
	if err := s.client.Set(ctx, s.key(scope, requestKey), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency value: %w", err)
	}
	return nil
}

// Release drops a claimed key so the request can be retried from scratch,
// used when the guarded operation fails after the claim.
func (s *IdempotencyStore) Release(ctx context.Context, scope, requestKey string) error {
	if err := s.client.Del(ctx, s.key(scope, requestKey)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
