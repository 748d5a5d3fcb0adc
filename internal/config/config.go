// Package config defines the configuration structures of ListSense together
// with their defaults, validation and loading through viper.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sections
// ─────────────────────────────────────────────────────────────────────────────

// HTTPServerConfig holds REST server tunables.
type HTTPServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// Addr returns host:port.
func (c HTTPServerConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// GRPCServerConfig holds gRPC server tunables.
type GRPCServerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	MaxRecvMsgSize int    `mapstructure:"max_recv_msg_size"`
}

// Addr returns host:port.
func (c GRPCServerConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// ServerConfig groups the network listeners.
type ServerConfig struct {
	HTTP HTTPServerConfig `mapstructure:"http"`
	GRPC GRPCServerConfig `mapstructure:"grpc"`
}

// ExtractionConfig tunes the extractor service.
type ExtractionConfig struct {
	MaxTextLength    int  `mapstructure:"max_text_length"`
	MaxTokens        int  `mapstructure:"max_tokens"`
	BatchConcurrency int  `mapstructure:"batch_concurrency"`
	MaxBatchSize     int  `mapstructure:"max_batch_size"`
	NormalizeText    bool `mapstructure:"normalize_text"`
}

// CatalogConfig locates the entity catalog file.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// RedisConfig configures the result cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig configures the asynchronous extraction worker.
type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	GroupID       string        `mapstructure:"group_id"`
	RequestTopic  string        `mapstructure:"request_topic"`
	ResultTopic   string        `mapstructure:"result_topic"`
	DLQTopic      string        `mapstructure:"dlq_topic"`
	BatchJobTopic string        `mapstructure:"batch_job_topic"`
	MinBytes      int           `mapstructure:"min_bytes"`
	MaxBytes      int           `mapstructure:"max_bytes"`
	MaxWait       time.Duration `mapstructure:"max_wait"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// MinIOConfig configures object storage for batch jobs.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// WorkerConfig tunes the message consumer.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration of every ListSense binary.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Log        logging.LogConfig `mapstructure:"log"`
	Extraction ExtractionConfig  `mapstructure:"extraction"`
	Catalog    CatalogConfig     `mapstructure:"catalog"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Worker     WorkerConfig      `mapstructure:"worker"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks the populated Config and returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}
	if c.Server.GRPC.Enabled {
		if c.Server.GRPC.Port < 1 || c.Server.GRPC.Port > 65535 {
			return fmt.Errorf("server.grpc.port %d is out of range [1, 65535]", c.Server.GRPC.Port)
		}
		if c.Server.GRPC.Port == c.Server.HTTP.Port && c.Server.GRPC.Host == c.Server.HTTP.Host {
			return fmt.Errorf("server.grpc and server.http share address %s", c.Server.HTTP.Addr())
		}
	}

	if _, err := logging.ParseLevel(string(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Extraction.MaxTextLength < 1 {
		return fmt.Errorf("extraction.max_text_length must be >= 1, got %d", c.Extraction.MaxTextLength)
	}
	if c.Extraction.BatchConcurrency < 1 {
		return fmt.Errorf("extraction.batch_concurrency must be >= 1, got %d", c.Extraction.BatchConcurrency)
	}
	if c.Extraction.MaxBatchSize < 1 {
		return fmt.Errorf("extraction.max_batch_size must be >= 1, got %d", c.Extraction.MaxBatchSize)
	}

	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.watch requires catalog.path")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when redis is enabled")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}
	return nil
}

// ValidateWorker checks the settings only the worker binary needs.
func (c *Config) ValidateWorker() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required")
	}
	if c.Kafka.RequestTopic == "" || c.Kafka.ResultTopic == "" {
		return fmt.Errorf("kafka.request_topic and kafka.result_topic are required")
	}
	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("minio.endpoint is required")
	}
	return nil
}

//Personal.AI order the ending
