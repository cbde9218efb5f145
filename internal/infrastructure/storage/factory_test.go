package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trendstep/storefront/internal/infrastructure/config"
)

func testConfig(driver string) *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Driver = driver
	cfg.Storage.Timeout = 100 * time.Millisecond
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1
	cfg.Log.Level = "error"
	return cfg
}

func TestFactory_Memory(t *testing.T) {
	b, err := NewFactory(testConfig(config.DriverMemory)).Open(context.Background())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.DriverMemory, b.Driver)
	assert.IsType(t, &MemoryStore{}, b.Storage)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestFactory_SQLite(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "storefront.db")

	b, err := NewFactory(cfg).Open(context.Background())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.DriverSQLite, b.Driver)
	require.NoError(t, b.Set(context.Background(), "k", "[]"))
	v, ok, err := b.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestFactory_RedisUnreachable(t *testing.T) {
	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewFactory(testConfig(config.DriverRedis), WithMemoryFallback(false)).Open(context.Background())
		require.Error(t, err)
	})

	t.Run("falls back to memory with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		b, err := NewFactory(testConfig(config.DriverRedis),
			WithMemoryFallback(true),
			WithLogger(zap.New(core)),
		).Open(context.Background())
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, config.DriverMemory, b.Driver)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "redis", logs.All()[0].ContextMap()["driver"])
	})
}

func TestFactory_UnknownDriver(t *testing.T) {
	_, err := NewFactory(testConfig("etcd"), WithMemoryFallback(false)).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage driver")
}
