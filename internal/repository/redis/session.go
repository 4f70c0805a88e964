package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"
)

// SessionRepository implements repository.SessionRepository using Redis. A
// session is a key per token ID plus a per-user set for bulk revocation; the
// set carries the same TTL as the longest-lived member.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Create registers an active session token ID for the user.
func (r *SessionRepository) Create(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+tokenID, userID, ttl)
	pipe.SAdd(ctx, userSessionsKeyPrefix+userID, tokenID)
	pipe.Expire(ctx, userSessionsKeyPrefix+userID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}
	return nil
}

// Exists reports whether the session token ID is still active.
func (r *SessionRepository) Exists(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis session exists: %w", err)
	}
	return n > 0, nil
}

// Revoke removes a single session.
func (r *SessionRepository) Revoke(ctx context.Context, tokenID string) error {
	userID, err := r.client.Get(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("redis get session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+tokenID)
	pipe.SRem(ctx, userSessionsKeyPrefix+userID, tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}
	return nil
}

// RevokeByUserID removes every active session for the user.
func (r *SessionRepository) RevokeByUserID(ctx context.Context, userID string) error {
	setKey := userSessionsKeyPrefix + userID
	tokenIDs, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("redis list user sessions: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, tokenID := range tokenIDs {
		pipe.Del(ctx, sessionKeyPrefix+tokenID)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis revoke user sessions: %w", err)
	}
	return nil
}
