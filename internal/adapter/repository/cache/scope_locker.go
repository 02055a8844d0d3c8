package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockTTL       = 10 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// releaseScript deletes the lock key only if it still holds our token, so an
// expired-and-reacquired lock is never released by the previous holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// extendScript refreshes the lease only while our token still holds the key.
const extendScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`

// redisCmdable is the slice of *redis.Client the locker uses.
type redisCmdable interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Close() error
}

// ScopeLocker serializes quota-sensitive operations per session or listing.
// Count-then-insert and association for the same scope must not interleave;
// different scopes proceed in parallel.
type ScopeLocker struct {
	client    redisCmdable
	ttl       time.Duration
	retryWait time.Duration
	logger    *logger.Logger
}

func NewScopeLocker(addr string, log *logger.Logger) (*ScopeLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &ScopeLocker{
		client:    client,
		ttl:       lockTTL,
		retryWait: lockRetryWait,
		logger:    log.Named("ScopeLocker"),
	}, nil
}

// Lock blocks until the scope lock is acquired or ctx expires. The lease is
// extended in the background while held, so a critical section that outlives
// a single TTL (a slow multi-megabyte object store write) does not silently
// lose the lock to a second holder. The returned function releases the lock
// and is safe to call exactly once.
func (l *ScopeLocker) Lock(ctx context.Context, scope string) (func(), error) {
	key := "media:lock:" + scope
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryWait):
		}
	}

	stop := make(chan struct{})
	go l.keepAlive(key, token, stop)

	release := func() {
		close(stop)
		if err := l.client.Eval(context.Background(), releaseScript, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release scope lock, relying on TTL expiry",
				zap.String("key", key), zap.Error(err))
		}
	}
	return release, nil
}

// keepAlive refreshes the lease on a fraction of the TTL until released or
// until the key is observed under another holder's token.
func (l *ScopeLocker) keepAlive(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			extended, err := l.client.Eval(context.Background(), extendScript, []string{key}, token, l.ttl.Milliseconds()).Int()
			if err != nil {
				l.logger.Warn("failed to extend scope lock lease", zap.String("key", key), zap.Error(err))
				continue
			}
			if extended == 0 {
				l.logger.Warn("scope lock lease lost before release", zap.String("key", key))
				return
			}
		}
	}
}

func (l *ScopeLocker) Close() error {
	return l.client.Close()
}
