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

	assert.Equal(t, "8099", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Redis.IntentTTL)
	assert.Equal(t, "inventory.shortfall", cfg.Kafka.EscalationTopic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PINVAULT_SERVER_PORT", "9000")
	t.Setenv("PINVAULT_DATABASE_DRIVER", "postgres")
	t.Setenv("PINVAULT_REDIS_INTENT_TTL", "30m")
	t.Setenv("PINVAULT_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PINVAULT_GATEWAY_SECRET_KEY", "sk_test_abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Redis.IntentTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "sk_test_abc", cfg.Gateway.SecretKey)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("PINVAULT_DATABASE_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}
