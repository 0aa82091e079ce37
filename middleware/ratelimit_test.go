package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariebrainware/ayursutra-api/config"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	config.SetRedisClientForTest(rdb)
	t.Cleanup(func() {
		config.SetRedisClientForTest(nil)
		_ = rdb.Close()
	})
	return mr
}

func newRateLimitedRouter(cfg RateLimitConfig) *gin.Engine {
	setGinTestMode()
	util.SetLogger(zap.NewNop())
	r := gin.New()
	r.Use(RateLimiter(cfg))
	r.POST("/api/sessions/schedule", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r
}

func schedule(r *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/schedule", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	config.SetRedisClientForTest(nil)
	r := newRateLimitedRouter(RateLimitConfig{Limit: 2, Window: time.Minute})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"), "request %d", i+1)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	mr := setupMiniredis(t)
	r := newRateLimitedRouter(RateLimitConfig{Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, schedule(r, "192.168.1.1:1234"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.2:1234"))

	ttl := mr.TTL("ratelimit:/api/sessions/schedule:192.168.1.1")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)

	// The window expires and the client may book again.
	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"))
}

func TestRateLimiter_CounterWithoutTTLExpires(t *testing.T) {
	mr := setupMiniredis(t)
	key := "ratelimit:/api/sessions/schedule:192.168.1.1"
	require.NoError(t, mr.Set(key, "10"))
	r := newRateLimitedRouter(RateLimitConfig{Limit: 3, Window: time.Minute})

	assert.Equal(t, http.StatusTooManyRequests, schedule(r, "192.168.1.1:1234"))
	assert.True(t, mr.TTL(key) > 0, "counter must carry a TTL")

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"))
}

func TestRateLimiter_LaterHitsKeepWindow(t *testing.T) {
	mr := setupMiniredis(t)
	key := "ratelimit:/api/sessions/schedule:192.168.1.1"
	r := newRateLimitedRouter(RateLimitConfig{Limit: 10, Window: time.Minute})

	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"))
	mr.FastForward(30 * time.Second)
	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"))
	assert.True(t, mr.TTL(key) <= 30*time.Second, "ttl %v", mr.TTL(key))
}

func TestRateLimiter_DefaultConfig(t *testing.T) {
	setupMiniredis(t)
	r := newRateLimitedRouter(RateLimitConfig{})

	for i := 0; i < defaultRateLimit; i++ {
		require.Equal(t, http.StatusCreated, schedule(r, "10.0.0.1:1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, schedule(r, "10.0.0.1:1"))
}

func TestRateLimiter_RedisFailureAllowsRequest(t *testing.T) {
	mr := setupMiniredis(t)
	r := newRateLimitedRouter(RateLimitConfig{Limit: 1})
	mr.Close()

	assert.Equal(t, http.StatusCreated, schedule(r, "10.0.0.1:1"))
	assert.Equal(t, http.StatusCreated, schedule(r, "10.0.0.1:1"))
}

func TestResetRateLimit(t *testing.T) {
	config.SetRedisClientForTest(nil)
	assert.Error(t, ResetRateLimit(context.Background(), "192.168.1.1", "/test"))

	setupMiniredis(t)
	r := newRateLimitedRouter(RateLimitConfig{Limit: 1})
	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, schedule(r, "192.168.1.1:1234"))

	require.NoError(t, ResetRateLimit(context.Background(), "192.168.1.1", "/api/sessions/schedule"))
	assert.Equal(t, http.StatusCreated, schedule(r, "192.168.1.1:1234"))
}
