package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

const (
	sessionKeyPrefix      = "session:"
	idempotencyKeyPrefix  = "idem:"
	defaultSessionTTL     = 24 * time.Hour
	defaultIdempotencyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client         *redis.Client
	sessionTTL     time.Duration
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, sessionTTL, idempotencyTTL time.Duration) *RedisAdapter {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyTTL
	}
	return &RedisAdapter{
		client:         client,
		sessionTTL:     sessionTTL,
		idempotencyTTL: idempotencyTTL,
	}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) CreateSession(ctx context.Context, who domain.Identity) (string, error) {
	if !who.Valid() {
		return "", fmt.Errorf("invalid identity %d/%q", who.UserID, who.Role)
	}

	data, err := json.Marshal(who)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session data: %w", err)
	}

	token := uuid.NewString()
	if err := r.client.Set(ctx, sessionKeyPrefix+token, data, r.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (r *RedisAdapter) ResolveSession(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, port.ErrSessionNotFound
	}

	val, err := r.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Identity{}, port.ErrSessionNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to get session: %w", err)
	}

	var who domain.Identity
	if err := json.Unmarshal(val, &who); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if !who.Valid() {
		return domain.Identity{}, port.ErrSessionNotFound
	}
	return who, nil
}

func (r *RedisAdapter) RevokeSession(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKeyPrefix+token).Err()
}
