// Package cache keeps reserve idempotency keys in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "\x00pending"

// ErrInProgress is returned while another request holding the same key is still running.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// IdempotencyStore remembers the response of a reserve call per Idempotency-Key.
// Key format: idem:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Begin claims key for the caller. It returns the stored response when the key
// already completed, nil when the caller now owns the key, or ErrInProgress.
func (s *IdempotencyStore) Begin(ctx context.Context, scope, key string) ([]byte, error) {
	k := s.key(scope, key)

	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("idempotency begin: %w", err)
	}
	if ok {
		return nil, nil
	}

	val, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get; treat as in flight and let the client retry.
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if string(val) == pendingMarker {
		return nil, ErrInProgress
	}
	return val, nil
}

// Finish stores the response body for later replays.
func (s *IdempotencyStore) Finish(ctx context.Context, scope, key string, body []byte) error {
	return s.client.Set(ctx, s.key(scope, key), body, s.ttl).Err()
}

// Abort releases the key so a failed request may be retried.
func (s *IdempotencyStore) Abort(ctx context.Context, scope, key string) error {
	return s.client.Del(ctx, s.key(scope, key)).Err()
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
