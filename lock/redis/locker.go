// Package redis provides a masonry.Locker backed by Redis, for keeping
// concurrent migration runners off the same database.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"masonry"
)

// Compile-time check to ensure Locker implements the masonry.Locker interface.
var _ masonry.Locker = (*Locker)(nil)

// Options holds configuration for the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Locker takes named locks with SET NX. Every Locker carries its own random
// token as the lock value, so Release only removes locks this instance holds.
type Locker struct {
	client *redis.Client
	token  string
}

// New connects to Redis and returns a locker plus a cleanup that closes the
// connection.
func New(opts Options) (*Locker, func(), error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Ping Redis to check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	cleanup := func() {
		_ = rdb.Close()
	}
	return NewWithClient(rdb), cleanup, nil
}

// NewWithClient wraps an existing client. Closing the client stays with the
// caller.
func NewWithClient(client *redis.Client) *Locker {
	return &Locker{client: client, token: uuid.NewString()}
}

// releaseScript deletes the key only while this locker's token still owns it,
// as one atomic step.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Acquire takes the lock when nobody holds it. The key expires after ttl, so
// a crashed holder cannot block later runs forever.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, key, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX error for lock key '%s': %w", key, err)
	}
	return acquired, nil
}

// Release drops the lock if this locker still holds it. An expired or foreign
// lock is left alone without error.
func (l *Locker) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release error for lock key '%s': %w", key, err)
	}
	return nil
}
