package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter keyed by caller and action.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// minPruneSize is the bucket count below which expired windows are left alone.
const minPruneSize = 1024

type rateBucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps its windows in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	limit   int
	window  time.Duration
	now     func() time.Time
	// pruneAt is the map size that triggers the next sweep of expired windows.
	pruneAt int
}

// NewMemoryLimiter allows limit requests per key in each window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*rateBucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
		pruneAt: minPruneSize,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		if !ok && len(l.buckets) >= l.pruneAt {
			l.prune(now)
		}
		b = &rateBucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	if b.count >= l.limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// prune drops expired windows and moves the next sweep to twice the live
// size, so sweeps stay amortised O(1) per new key.
func (l *MemoryLimiter) prune(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
		}
	}
	l.pruneAt = max(minPruneSize, 2*len(l.buckets))
}

// RedisLimiter shares its windows between instances through Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter counts windows in rdb under the taskly:ratelimit: prefix.
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: "taskly:ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to start rate window: %w", err)
		}
	}
	return n <= int64(l.limit), nil
}

// NewRedisClient connects to the Redis instance at url and checks it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
