package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "marketplace:lock:"

// releaseScript deletes the key only while it still carries our token, so an
// expired lock re-acquired by another replica is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every replica pointing at the same server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

// NewRedis connects to url (redis://...). ttl bounds how long a crashed holder
// can keep a key.
func NewRedis(ctx context.Context, url string, ttl time.Duration, log *logrus.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl, log: log.WithField("component", "lock")}, nil
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		if err := releaseScript.Run(context.Background(), r.client, []string{keyPrefix + key}, token).Err(); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("failed to release lock")
		}
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
