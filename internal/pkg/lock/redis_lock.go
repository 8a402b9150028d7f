package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis extends the local lock across instances. The exclusive side is a
// SET NX PX key holding a random token; only the holder of the token can
// release it, and the TTL frees the lock if the holder dies.
type Redis struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	local *Local
}

func NewRedis(rdb *redis.Client, key string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, key: key, ttl: ttl, local: NewLocal()}
}

func (r *Redis) TryLock(ctx context.Context) (func(), bool, error) {
	releaseLocal, ok, err := r.local.TryLock(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	token := uuid.NewString()
	acquired, err := r.rdb.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		releaseLocal()
		return nil, false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		releaseLocal()
		return nil, false, nil
	}

	return onceFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(ctx, r.rdb, []string{r.key}, token)
		releaseLocal()
	}), true, nil
}

func (r *Redis) TryRLock(ctx context.Context) (func(), bool, error) {
	releaseLocal, ok, err := r.local.TryRLock(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	n, err := r.rdb.Exists(ctx, r.key).Result()
	if err != nil {
		releaseLocal()
		return nil, false, fmt.Errorf("check run lock: %w", err)
	}
	if n > 0 {
		releaseLocal()
		return nil, false, nil
	}
	return releaseLocal, true, nil
}
