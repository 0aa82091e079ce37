package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APPPORT", "APPENV", "DBDRIVER", "LOCK_TTL", "REMINDER_LEAD", "RATE_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg := loadFromEnv()
	assert.Equal(t, uint16(4000), cfg.AppPort)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 24*time.Hour, cfg.ReminderLead)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.False(t, cfg.UseSQLite())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("APPPORT", "8081")
	t.Setenv("DBDRIVER", "sqlite")
	t.Setenv("LOCK_WAIT", "750ms")
	t.Setenv("NOTIFICATION_QUEUE_SIZE", "8")
	t.Setenv("RATE_WINDOW", "not-a-duration")

	cfg := loadFromEnv()
	assert.Equal(t, uint16(8081), cfg.AppPort)
	assert.True(t, cfg.UseSQLite())
	assert.Equal(t, 750*time.Millisecond, cfg.LockWait)
	assert.Equal(t, 8, cfg.NotificationQueueSize)
	assert.Equal(t, time.Minute, cfg.RateWindow)
}

// Test that LoadConfig returns a non-nil config and respects APPENV=test
func TestLoadConfigAndConnectDatabase_TestEnv(t *testing.T) {
	t.Setenv("APPENV", "test")
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.True(t, cfg.UseSQLite())

	db, err := ConnectDatabase()
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, "sqlite", db.Dialector.Name())
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	_, ok := RedisOptions()
	assert.False(t, ok)

	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	opts, ok := RedisOptions()
	require.True(t, ok)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

func TestConnectRedis_TestEnvSkips(t *testing.T) {
	t.Setenv("APPENV", "test")
	t.Setenv("REDIS_ADDR", "localhost:1")
	ResetConfigForTest()
	ResetRedisClientForTest()
	t.Cleanup(func() {
		ResetConfigForTest()
		ResetRedisClientForTest()
	})

	rdb, err := ConnectRedis()
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}
