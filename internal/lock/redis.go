package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotAcquired is returned when the wait budget runs out before the key frees up
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the distributed lock
type RedisConfig struct {
	// Prefix namespaces lock keys
	Prefix string

	// TTL bounds how long a crashed holder can block others
	TTL time.Duration

	// RetryInterval is the pause between acquisition attempts
	RetryInterval time.Duration

	// MaxWait caps the total time spent acquiring
	MaxWait time.Duration
}

// DefaultRedisConfig returns settings suited to short critical sections
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:        "mentorship:lock:",
		TTL:           10 * time.Second,
		RetryInterval: 25 * time.Millisecond,
		MaxWait:       5 * time.Second,
	}
}

// RedisLocker is a distributed lock (SET NX PX with a token-checked release)
// used when several API instances share one store.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisConfig
}

// NewRedisLocker creates a lock backed by client
func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig) *RedisLocker {
	return &RedisLocker{client: client, cfg: cfg}
}

// Lock polls SET NX until the key is free, ctx is done, or MaxWait elapses
func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	start := time.Now()
	fullKey := l.cfg.Prefix + key

	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.MaxWait)
	defer cancel()

	for {
		ok, err := l.client.SetNX(waitCtx, fullKey, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			metrics.LockAcquireDuration.WithLabelValues("redis", "error").Observe(metrics.MeasureDuration(start))
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-waitCtx.Done():
			metrics.LockAcquireDuration.WithLabelValues("redis", "timeout").Observe(metrics.MeasureDuration(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("lock %s after %s: %w", key, l.cfg.MaxWait, ErrNotAcquired)
		case <-time.After(l.cfg.RetryInterval):
		}
	}
	metrics.LockAcquireDuration.WithLabelValues("redis", "acquired").Observe(metrics.MeasureDuration(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			// release must run even if the caller's ctx was cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
				logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

var _ Locker = (*RedisLocker)(nil)
