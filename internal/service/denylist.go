package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/game-social-network/internal/middleware"
)

// RedisDenylist marks access-token jtis as revoked until their natural
// expiry. The JWT middleware checks the same keys on every request.
type RedisDenylist struct {
	RDB *redis.Client
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist { return &RedisDenylist{RDB: rdb} }

// Revoke records the jti with the remaining token lifetime as TTL so
// the key disappears once the token would have expired anyway.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return d.RDB.SetEx(ctx, middleware.DenylistPrefix+jti, "1", ttl).Err()
}
