package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "jti"

var ErrRedisUnavailable = errors.New("replay redis unavailable")

// Redis is a Checker shared between processes. An id is recorded with
// SET NX and a TTL matching the token's remaining lifetime.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ Checker = &Redis{}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{redis: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(id string) string {
	return r.prefix + ":" + id
}

func (r *Redis) Seen(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(r.now())
	if ttl < time.Second {
		// already (almost) expired; keep it long enough to reject a burst of replays
		ttl = time.Second
	}
	ok, err := r.redis.SetNX(ctx, r.key(id), expiresAt.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return !ok, nil
}
