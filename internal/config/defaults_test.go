package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/ListSense/internal/config"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
)

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	assert.Equal(t, config.DefaultHTTPPort, cfg.Server.HTTP.Port)
	assert.Equal(t, config.DefaultHTTPReadTimeout, cfg.Server.HTTP.ReadTimeout)
	assert.Equal(t, config.DefaultGRPCPort, cfg.Server.GRPC.Port)
	assert.Equal(t, logging.LevelInfo, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 100000, cfg.Extraction.MaxTextLength)
	assert.Equal(t, 4, cfg.Extraction.BatchConcurrency)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "listsense.extract.requests", cfg.Kafka.RequestTopic)
	assert.Equal(t, "listsense.extract.dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, "listsense:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Redis.DefaultTTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Server.HTTP.Port = 18080
	cfg.Log.Format = "console"
	cfg.Kafka.Brokers = []string{"kafka-1:9092", "kafka-2:9092"}
	cfg.Extraction.MaxTextLength = 42

	config.ApplyDefaults(cfg)

	assert.Equal(t, 18080, cfg.Server.HTTP.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 42, cfg.Extraction.MaxTextLength)
}

func TestApplyDefaults_Nil(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { config.ApplyDefaults(nil) })
}

//Personal.AI order the ending
