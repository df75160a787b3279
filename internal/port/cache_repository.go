package port

import (
	"context"
	"errors"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
)

var ErrSessionNotFound = errors.New("session not found")

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so a failed request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}

type SessionStore interface {
	// CreateSession issues a new opaque token bound to the identity
	CreateSession(ctx context.Context, who domain.Identity) (string, error)

	// ResolveSession returns ErrSessionNotFound for unknown or expired tokens
	ResolveSession(ctx context.Context, token string) (domain.Identity, error)

	RevokeSession(ctx context.Context, token string) error
}
