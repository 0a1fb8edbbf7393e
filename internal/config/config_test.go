package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "com.healthcore.sleep", cfg.Sleep.BundleID)
	assert.True(t, cfg.Sleep.Persist)
	assert.Equal(t, time.Duration(0), cfg.Sleep.PollInterval)
	assert.Equal(t, SinkNone, cfg.Events.Sink)
	assert.False(t, cfg.NeedsRedis())
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("STORE_SQLITE_PATH", "/tmp/night.db")
	t.Setenv("SLEEP_POLL_INTERVAL", "15m")
	t.Setenv("SLEEP_PERSIST", "false")
	t.Setenv("SLEEP_BUNDLE_PREFIX", "com.watch")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("EVENT_SINK", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/night.db", cfg.Store.SQLitePath)
	assert.Equal(t, 15*time.Minute, cfg.Sleep.PollInterval)
	assert.False(t, cfg.Sleep.Persist)
	assert.Equal(t, "com.watch", cfg.Sleep.BundlePrefix)
	assert.True(t, cfg.NeedsRedis())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "couchdb")
	_, err := Load()
	assert.ErrorContains(t, err, "unsupported store backend")
}

func TestLoad_RemoteRequiresURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "remote")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("HEALTH_STORE_URL", "http://store.local")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://store.local", cfg.Remote.BaseURL)
}

func TestLoad_InvalidSink(t *testing.T) {
	t.Setenv("EVENT_SINK", "sns")
	_, err := Load()
	assert.Error(t, err)
}
