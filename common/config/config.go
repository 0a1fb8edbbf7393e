package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig postgres connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// DialTimeout also bounds a single Ping
	DialTimeout time.Duration
}

// MQTTConfig broker settings
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// KafkaConfig event bus settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RemoteStoreConfig settings for the HTTP health-data store
type RemoteStoreConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// GetDSN returns the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LoadFromEnv overrides fields from <prefix>_HOST, <prefix>_PORT, ...
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	if host := os.Getenv(prefix + "_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			c.Port = v
		}
	}
	if user := os.Getenv(prefix + "_USER"); user != "" {
		c.User = user
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if database := os.Getenv(prefix + "_NAME"); database != "" {
		c.Database = database
	}
	if sslMode := os.Getenv(prefix + "_SSLMODE"); sslMode != "" {
		c.SSLMode = sslMode
	}
	if maxConns := os.Getenv(prefix + "_MAX_CONNS"); maxConns != "" {
		if v, err := strconv.Atoi(maxConns); err == nil {
			c.MaxConns = v
		}
	}
}

// LoadFromEnv overrides redis fields from the environment.
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv(prefix + "_DB"); db != "" {
		if v, err := strconv.Atoi(db); err == nil {
			c.DB = v
		}
	}
	if size := os.Getenv(prefix + "_POOL_SIZE"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 {
			c.PoolSize = v
		}
	}
	if timeout := os.Getenv(prefix + "_DIAL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.DialTimeout = d
		}
	}
}

// LoadFromEnv overrides MQTT fields from the environment.
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	if broker := os.Getenv(prefix + "_BROKER"); broker != "" {
		c.Broker = broker
	}
	if clientID := os.Getenv(prefix + "_CLIENT_ID"); clientID != "" {
		c.ClientID = clientID
	}
	if username := os.Getenv(prefix + "_USERNAME"); username != "" {
		c.Username = username
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if qos := os.Getenv(prefix + "_QOS"); qos != "" {
		if v, err := strconv.Atoi(qos); err == nil && v >= 0 && v <= 2 {
			c.QoS = byte(v)
		}
	}
}

// LoadFromEnv reads a comma separated broker list and topic.
func (c *KafkaConfig) LoadFromEnv(prefix string) {
	if brokers := os.Getenv(prefix + "_BROKERS"); brokers != "" {
		c.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Brokers = append(c.Brokers, b)
			}
		}
	}
	if topic := os.Getenv(prefix + "_TOPIC"); topic != "" {
		c.Topic = topic
	}
}

// LoadFromEnv overrides remote store fields from the environment.
func (c *RemoteStoreConfig) LoadFromEnv(prefix string) {
	if baseURL := os.Getenv(prefix + "_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if token := os.Getenv(prefix + "_TOKEN"); token != "" {
		c.Token = token
	}
	if timeout := os.Getenv(prefix + "_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Timeout = d
		}
	}
}
