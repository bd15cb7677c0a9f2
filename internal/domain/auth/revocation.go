package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"melodix-server-go/internal/domain/auth/model"
)

const blacklistPrefix = "blacklist:"

// RevocationRegistry blacklists individual tokens until their natural expiry.
// Entries are never removed early: the stored TTL is always at least the
// configured retention, which must cover the longest token lifetime.
type RevocationRegistry struct {
	client    *redis.Client
	retention time.Duration
	logger    model.Logger
}

// NewRevocationRegistry wires the registry onto the shared cache.
func NewRevocationRegistry(client *redis.Client, retention time.Duration, logger model.Logger) *RevocationRegistry {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RevocationRegistry{
		client:    client,
		retention: retention,
		logger:    logger,
	}
}

// Revoke marks the token revoked for at least ttl. The effective TTL never
// drops below the configured retention so a revoked token cannot be evicted
// and trusted again before it expires on its own.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < r.retention {
		ttl = r.retention
	}
	if err := r.client.Set(ctx, blacklistPrefix+token, "revoked", ttl).Err(); err != nil {
		return err
	}
	r.logger.Debug("token revoked for %s", ttl)
	return nil
}

// IsRevoked reports whether the token is on the blacklist. No side effects.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
