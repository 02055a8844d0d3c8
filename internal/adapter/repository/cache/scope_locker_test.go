package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu         sync.Mutex
	denyNext   int
	setNXCalls int
	extends    int
	releases   int
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setNXCalls++
	if f.denyNext > 0 {
		f.denyNext--
		return redis.NewBoolResult(false, nil)
	}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if script == extendScript {
		f.extends++
	} else {
		f.releases++
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) counts() (setNX, extends, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setNXCalls, f.extends, f.releases
}

func newTestLocker(client *fakeRedis, ttl time.Duration) *ScopeLocker {
	return &ScopeLocker{
		client:    client,
		ttl:       ttl,
		retryWait: time.Millisecond,
		logger:    logger.NewLogger().Named("ScopeLockerTest"),
	}
}

func TestLock_RetriesUntilAcquired(t *testing.T) {
	fake := &fakeRedis{denyNext: 2}
	locker := newTestLocker(fake, time.Second)

	release, err := locker.Lock(context.Background(), "session:s1")
	require.NoError(t, err)
	release()

	setNX, _, releases := fake.counts()
	assert.Equal(t, 3, setNX)
	assert.Equal(t, 1, releases)
}

func TestLock_ContextCancelledWhileWaiting(t *testing.T) {
	fake := &fakeRedis{denyNext: 1 << 30}
	locker := newTestLocker(fake, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := locker.Lock(ctx, "session:s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLock_ExtendsLeaseWhileHeld(t *testing.T) {
	fake := &fakeRedis{}
	locker := newTestLocker(fake, 30*time.Millisecond)

	release, err := locker.Lock(context.Background(), "listing:L1")
	require.NoError(t, err)

	// Hold the lock across several heartbeat intervals, like a slow Put would.
	time.Sleep(70 * time.Millisecond)
	_, extendsWhileHeld, _ := fake.counts()
	assert.GreaterOrEqual(t, extendsWhileHeld, 1)

	release()
	time.Sleep(20 * time.Millisecond)
	_, extendsAfterRelease, releases := fake.counts()
	time.Sleep(50 * time.Millisecond)
	_, extendsLater, _ := fake.counts()
	assert.Equal(t, extendsAfterRelease, extendsLater)
	assert.Equal(t, 1, releases)
}
