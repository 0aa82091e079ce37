package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, normalizeKeys([]string{"c", "a", "b", "a"}))
}

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	l := NewMemoryLocker()
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "practitioner:y", "patient:x")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, l.entries)
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), "practitioner:y")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "patient:x", "practitioner:y")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The partially acquired patient key was released.
	other, err := l.Lock(context.Background(), "patient:x")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	assert.Empty(t, l.entries)
}

func TestMemoryLocker_DisjointKeysDoNotBlock(t *testing.T) {
	l := NewMemoryLocker()
	a, err := l.Lock(context.Background(), "practitioner:a")
	require.NoError(t, err)
	defer a()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	b, err := l.Lock(ctx, "practitioner:b")
	require.NoError(t, err)
	b()
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, time.Second)

	unlock, err := l.Lock(context.Background(), "practitioner:y", "patient:x")
	require.NoError(t, err)
	assert.True(t, mr.Exists(redisLockPrefix+"practitioner:y"))
	assert.True(t, mr.Exists(redisLockPrefix+"patient:x"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "practitioner:y")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists(redisLockPrefix+"practitioner:y"))
	assert.False(t, mr.Exists(redisLockPrefix+"patient:x"))

	again, err := l.Lock(context.Background(), "practitioner:y")
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, time.Second)

	unlock, err := l.Lock(context.Background(), "practitioner:y")
	require.NoError(t, err)

	// The lock expired and another replica took it over.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(redisLockPrefix+"practitioner:y", "someone-else"))

	unlock()
	got, err := mr.Get(redisLockPrefix + "practitioner:y")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, time.Second)

	unlock, err := l.Lock(context.Background(), "practitioner:y")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := l.Lock(context.Background(), "practitioner:y")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestScheduleSession_WithRedisLocker(t *testing.T) {
	_, rdb := newTestRedis(t)
	f := newFixture(t, WithLocker(NewRedisLocker(rdb, time.Second)))

	base := at(t, "2024-01-01T09:00:00Z")
	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := base.Add(time.Duration(i) * time.Minute)
			if _, err := f.scheduler.ScheduleSession(context.Background(), fmt.Sprintf("patient-%d", i), "practitioner-y", f.therapy.ID, start); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), successes)
}
