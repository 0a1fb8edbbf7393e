package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("HC_DB_HOST", "db.internal")
	t.Setenv("HC_DB_PORT", "6543")
	t.Setenv("HC_DB_NAME", "health")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", SSLMode: "disable"}
	cfg.LoadFromEnv("HC_DB")

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "health", cfg.Database)
	assert.Equal(t, "postgres", cfg.User)
	assert.Equal(t, "host=db.internal port=6543 user=postgres password= dbname=health sslmode=disable", cfg.GetDSN())
}

func TestKafkaConfig_LoadFromEnv_SplitsBrokers(t *testing.T) {
	t.Setenv("HC_KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("HC_KAFKA_TOPIC", "sleep.sessions")

	var cfg KafkaConfig
	cfg.LoadFromEnv("HC_KAFKA")

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, "sleep.sessions", cfg.Topic)
}

func TestMQTTAndRemoteConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("HC_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("HC_MQTT_QOS", "7")
	t.Setenv("HC_REMOTE_URL", "http://store:8080")
	t.Setenv("HC_REMOTE_TIMEOUT", "3s")

	mq := MQTTConfig{QoS: 1}
	mq.LoadFromEnv("HC_MQTT")
	assert.Equal(t, "tcp://broker:1883", mq.Broker)
	assert.Equal(t, byte(1), mq.QoS, "out of range qos is ignored")

	var rs RemoteStoreConfig
	rs.LoadFromEnv("HC_REMOTE")
	assert.Equal(t, "http://store:8080", rs.BaseURL)
	assert.Equal(t, 3*time.Second, rs.Timeout)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("HC_REDIS_ADDR", "cache:6379")
	t.Setenv("HC_REDIS_POOL_SIZE", "8")
	t.Setenv("HC_REDIS_DIAL_TIMEOUT", "750ms")

	var cfg RedisConfig
	cfg.LoadFromEnv("HC_REDIS")

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, 750*time.Millisecond, cfg.DialTimeout)
}
