package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	apperrors "github.com/aoinoikaz/TruthCapture/pkg/errors"
)

const actionCodeKeyPrefix = "actioncode:"

// ActionCodeRepository implements repository.ActionCodeRepository using
// Redis. Expiry is delegated to key TTLs and single use to GETDEL, so a code
// can never be consumed twice even under concurrent confirmation attempts.
type ActionCodeRepository struct {
	client *redis.Client
}

// NewActionCodeRepository creates a new Redis-backed action code repository.
func NewActionCodeRepository(client *redis.Client) *ActionCodeRepository {
	return &ActionCodeRepository{client: client}
}

// Create stores an action code with the given TTL.
func (r *ActionCodeRepository) Create(ctx context.Context, code *domain.ActionCode, ttl time.Duration) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal action code: %w", err)
	}

	key := actionCodeKeyPrefix + code.Code
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set action code: %w", err)
	}

	return nil
}

// Peek retrieves an action code without consuming it.
func (r *ActionCodeRepository) Peek(ctx context.Context, code string) (*domain.ActionCode, error) {
	data, err := r.client.Get(ctx, actionCodeKeyPrefix+code).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get action code: %w", err)
	}

	return unmarshalCode(data)
}

// Consume atomically retrieves and deletes an action code. A second consume
// of the same code returns ErrNotFound.
func (r *ActionCodeRepository) Consume(ctx context.Context, code string) (*domain.ActionCode, error) {
	data, err := r.client.GetDel(ctx, actionCodeKeyPrefix+code).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis getdel action code: %w", err)
	}

	return unmarshalCode(data)
}

func unmarshalCode(data []byte) (*domain.ActionCode, error) {
	var code domain.ActionCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("unmarshal action code: %w", err)
	}
	return &code, nil
}
