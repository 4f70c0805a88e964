package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const gateKeyPrefix = "gate_session:"

// GateRepository implements repository.GateRepository using Redis. Gate
// sessions are opaque tokens issued after a successful beta gate unlock.
type GateRepository struct {
	client *redis.Client
}

// NewGateRepository creates a new Redis-backed gate session repository.
func NewGateRepository(client *redis.Client) *GateRepository {
	return &GateRepository{client: client}
}

// Create registers a gate session token with the given TTL.
func (r *GateRepository) Create(ctx context.Context, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, gateKeyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set gate session: %w", err)
	}
	return nil
}

// Exists reports whether the gate session token is valid.
func (r *GateRepository) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, gateKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redis gate session exists: %w", err)
	}
	return n > 0, nil
}
