package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// InFlightGuardStore implements ports.InFlightGuard using Redis SET NX. One
// key per seller serialises withdrawal attempts at the edge; the TTL bounds
// how long a crashed request can block the seller.
type InFlightGuardStore struct {
	client *goredis.Client
	prefix string
}

// NewInFlightGuardStore creates a new Redis-backed in-flight guard.
func NewInFlightGuardStore(client *goredis.Client) *InFlightGuardStore {
	return &InFlightGuardStore{
		client: client,
		prefix: "withdrawal:inflight:",
	}
}

// Acquire atomically claims the seller's in-flight slot. Returns false when
// another withdrawal already holds it.
func (s *InFlightGuardStore) Acquire(ctx context.Context, sellerID string, ttl time.Duration) (bool, error) {
	key := s.prefix + sellerID
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — a withdrawal is in flight
			return false, nil
		}
		return false, fmt.Errorf("redis in-flight acquire: %w", err)
	}
	return result == "OK", nil
}

// Release frees the seller's slot. Missing keys (expired TTL) are fine.
func (s *InFlightGuardStore) Release(ctx context.Context, sellerID string) error {
	if err := s.client.Del(ctx, s.prefix+sellerID).Err(); err != nil {
		return fmt.Errorf("redis in-flight release: %w", err)
	}
	return nil
}
