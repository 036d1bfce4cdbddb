package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LIFECYCLE_JWT_SECRET", "s3cret")

	cfg, err := load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 14*24*time.Hour, cfg.WarrantyWindow)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, "lifecycle.audit", cfg.KafkaConfig.AuditTopic)
	assert.Equal(t, 5*time.Minute, cfg.RedisConfig.TTL)
	assert.Equal(t, 2, cfg.OutboxConfig.Workers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LIFECYCLE_JWT_SECRET", "s3cret")
	t.Setenv("LIFECYCLE_SERVICE_PORT", ":9000")
	t.Setenv("LIFECYCLE_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LIFECYCLE_WARRANTY_WINDOW", "48h")

	cfg, err := load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 48*time.Hour, cfg.WarrantyWindow)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("LIFECYCLE_JWT_SECRET", "")

	_, err := load(newViper())
	assert.Error(t, err)
}
