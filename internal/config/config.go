// Package config loads the healthcore service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"healthcore/common/config"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRemote   = "remote"
)

// Event sinks
const (
	SinkNone  = "none"
	SinkRedis = "redis"
	SinkKafka = "kafka"
)

// Config healthcore service configuration
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	Kafka    config.KafkaConfig
	Remote   config.RemoteStoreConfig

	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}

	Store struct {
		Backend    string // memory | sqlite | postgres | remote
		SQLitePath string
		// SeedFile optional YAML fixture loaded into the memory store
		SeedFile string
	}

	Sleep struct {
		// BundleID identifier written on reconciled samples
		BundleID string
		// BundlePrefix default bundle-author filter for reconstruction
		BundlePrefix string
		// PollInterval 0 disables periodic reconstruction
		PollInterval time.Duration
		// Persist write accepted episodes back to the store
		Persist bool
	}

	Cache struct {
		Enabled bool
		TTL     time.Duration
	}

	Events struct {
		Sink   string // none | redis | kafka
		Stream string
	}

	Trigger struct {
		Enabled bool
		Topic   string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "healthcore"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "healthcore-sleep"
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "sleep-sessions"
	cfg.Kafka.LoadFromEnv("KAFKA")

	cfg.Remote.Timeout = 10 * time.Second
	cfg.Remote.LoadFromEnv("HEALTH_STORE")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.ShutdownTimeout = getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Store.Backend = getEnv("STORE_BACKEND", StoreMemory)
	cfg.Store.SQLitePath = getEnv("STORE_SQLITE_PATH", "healthcore.db")
	cfg.Store.SeedFile = getEnv("STORE_SEED_FILE", "")

	cfg.Sleep.BundleID = getEnv("SLEEP_BUNDLE_ID", "com.healthcore.sleep")
	cfg.Sleep.BundlePrefix = getEnv("SLEEP_BUNDLE_PREFIX", "")
	cfg.Sleep.PollInterval = getDuration("SLEEP_POLL_INTERVAL", 0)
	cfg.Sleep.Persist = getBool("SLEEP_PERSIST", true)

	cfg.Cache.Enabled = getBool("CACHE_ENABLED", false)
	cfg.Cache.TTL = getDuration("CACHE_TTL", 12*time.Hour)

	cfg.Events.Sink = getEnv("EVENT_SINK", SinkNone)
	cfg.Events.Stream = getEnv("EVENT_STREAM", "sleep:sessions")

	cfg.Trigger.Enabled = getBool("TRIGGER_ENABLED", false)
	cfg.Trigger.Topic = getEnv("TRIGGER_TOPIC", "healthcore/sleep/reconstruct")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and sinks.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StorePostgres:
	case StoreRemote:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("store backend %q requires HEALTH_STORE_URL", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}

	switch c.Events.Sink {
	case SinkNone, SinkRedis, SinkKafka:
	default:
		return fmt.Errorf("unsupported event sink: %s", c.Events.Sink)
	}

	if c.Sleep.BundleID == "" {
		return fmt.Errorf("SLEEP_BUNDLE_ID must not be empty")
	}
	return nil
}

// NeedsRedis reports whether any enabled component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Enabled || c.Events.Sink == SinkRedis
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
