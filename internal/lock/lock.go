// Package lock provides the mutual exclusion used to keep replicas from
// running the same background job at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNotAcquired means another holder owns the lock.
var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// Acquire returns a release func, or ErrNotAcquired when the lock is
	// held elsewhere. The lock expires after ttl even if never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "lock:"}
}

// NewRedisFromURL parses a redis:// URL and checks the server is reachable.
func NewRedisFromURL(ctx context.Context, url string) (*Redis, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client), client, nil
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	full := r.prefix + key

	ok, err := r.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{full}, token).Err()
	}, nil
}

// Local is an in-process Locker for single-replica deployments and tests.
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocal() *Local {
	return &Local{held: map[string]time.Time{}, now: time.Now}
}

func (l *Local) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.held[key]; ok && l.now().Before(until) {
		return nil, ErrNotAcquired
	}
	l.held[key] = l.now().Add(ttl)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
