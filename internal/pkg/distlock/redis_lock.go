package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker takes locks with SET NX and a TTL. The TTL bounds how long a
// crashed holder can block others.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	opts   options
}

// NewRedisLocker creates a RedisLocker whose locks expire after ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration, opts ...Option) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, opts: buildOptions(opts)}
}

// Lock blocks until name is free or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, name string) (func(context.Context) error, error) {
	key := "lock:" + name
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	err = poll(ctx, name, l.opts.retry, func(ctx context.Context) (bool, error) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
