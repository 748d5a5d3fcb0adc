package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default values
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost            = "0.0.0.0"
	DefaultHTTPPort            = 8080
	DefaultHTTPReadTimeout     = 15 * time.Second
	DefaultHTTPWriteTimeout    = 30 * time.Second
	DefaultHTTPShutdownTimeout = 10 * time.Second
	DefaultHTTPMaxBodySize     = 4 << 20

	DefaultGRPCHost           = "0.0.0.0"
	DefaultGRPCPort           = 9090
	DefaultGRPCMaxRecvMsgSize = 4 << 20

	DefaultLogLevel  = logging.LevelInfo
	DefaultLogFormat = "json"

	DefaultMaxTextLength    = 100000
	DefaultMaxTokens        = 20000
	DefaultBatchConcurrency = 4
	DefaultMaxBatchSize     = 256

	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisPoolSize   = 10
	DefaultRedisTimeout    = 3 * time.Second
	DefaultRedisTTL        = 10 * time.Minute
	DefaultRedisKeyPrefix  = "listsense:"
	DefaultRedisDialTimeout = 5 * time.Second

	DefaultKafkaBroker        = "localhost:9092"
	DefaultKafkaGroupID       = "listsense-worker"
	DefaultKafkaRequestTopic  = "listsense.extract.requests"
	DefaultKafkaResultTopic   = "listsense.extract.results"
	DefaultKafkaDLQTopic      = "listsense.extract.dlq"
	DefaultKafkaBatchJobTopic = "listsense.batch.jobs"
	DefaultKafkaMinBytes      = 1
	DefaultKafkaMaxBytes      = 10 << 20
	DefaultKafkaMaxWait       = 500 * time.Millisecond
	DefaultKafkaWriteTimeout  = 10 * time.Second

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "listsense"

	DefaultMetricsNamespace = "listsense"
	DefaultMetricsPath      = "/metrics"

	DefaultWorkerConcurrency     = 4
	DefaultWorkerMaxRetries      = 3
	DefaultWorkerRetryBackoff    = time.Second
	DefaultWorkerShutdownTimeout = 30 * time.Second
)

// ApplyDefaults fills zero-value fields of cfg. Explicit values win.
// Boolean switches cannot be told apart from an explicit false here; their
// defaults are registered on the viper instance instead (see registerDefaults).
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ───────────────────────────────────────────────────────────────
	setString(&cfg.Server.HTTP.Host, DefaultHTTPHost)
	setInt(&cfg.Server.HTTP.Port, DefaultHTTPPort)
	setDuration(&cfg.Server.HTTP.ReadTimeout, DefaultHTTPReadTimeout)
	setDuration(&cfg.Server.HTTP.WriteTimeout, DefaultHTTPWriteTimeout)
	setDuration(&cfg.Server.HTTP.ShutdownTimeout, DefaultHTTPShutdownTimeout)
	if cfg.Server.HTTP.MaxBodySize == 0 {
		cfg.Server.HTTP.MaxBodySize = DefaultHTTPMaxBodySize
	}
	setString(&cfg.Server.GRPC.Host, DefaultGRPCHost)
	setInt(&cfg.Server.GRPC.Port, DefaultGRPCPort)
	setInt(&cfg.Server.GRPC.MaxRecvMsgSize, DefaultGRPCMaxRecvMsgSize)

	// ── Log ──────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	setString(&cfg.Log.Format, DefaultLogFormat)

	// ── Extraction ───────────────────────────────────────────────────────────
	setInt(&cfg.Extraction.MaxTextLength, DefaultMaxTextLength)
	setInt(&cfg.Extraction.MaxTokens, DefaultMaxTokens)
	setInt(&cfg.Extraction.BatchConcurrency, DefaultBatchConcurrency)
	setInt(&cfg.Extraction.MaxBatchSize, DefaultMaxBatchSize)

	// ── Redis ────────────────────────────────────────────────────────────────
	setString(&cfg.Redis.Addr, DefaultRedisAddr)
	setInt(&cfg.Redis.PoolSize, DefaultRedisPoolSize)
	setDuration(&cfg.Redis.DialTimeout, DefaultRedisDialTimeout)
	setDuration(&cfg.Redis.ReadTimeout, DefaultRedisTimeout)
	setDuration(&cfg.Redis.WriteTimeout, DefaultRedisTimeout)
	setDuration(&cfg.Redis.DefaultTTL, DefaultRedisTTL)
	setString(&cfg.Redis.KeyPrefix, DefaultRedisKeyPrefix)

	// ── Kafka ────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&cfg.Kafka.GroupID, DefaultKafkaGroupID)
	setString(&cfg.Kafka.RequestTopic, DefaultKafkaRequestTopic)
	setString(&cfg.Kafka.ResultTopic, DefaultKafkaResultTopic)
	setString(&cfg.Kafka.DLQTopic, DefaultKafkaDLQTopic)
	setString(&cfg.Kafka.BatchJobTopic, DefaultKafkaBatchJobTopic)
	setInt(&cfg.Kafka.MinBytes, DefaultKafkaMinBytes)
	setInt(&cfg.Kafka.MaxBytes, DefaultKafkaMaxBytes)
	setDuration(&cfg.Kafka.MaxWait, DefaultKafkaMaxWait)
	setDuration(&cfg.Kafka.WriteTimeout, DefaultKafkaWriteTimeout)

	// ── MinIO ────────────────────────────────────────────────────────────────
	setString(&cfg.MinIO.Endpoint, DefaultMinIOEndpoint)
	setString(&cfg.MinIO.Bucket, DefaultMinIOBucket)

	// ── Metrics ──────────────────────────────────────────────────────────────
	setString(&cfg.Metrics.Namespace, DefaultMetricsNamespace)
	setString(&cfg.Metrics.Path, DefaultMetricsPath)

	// ── Worker ───────────────────────────────────────────────────────────────
	setInt(&cfg.Worker.Concurrency, DefaultWorkerConcurrency)
	setInt(&cfg.Worker.MaxRetries, DefaultWorkerMaxRetries)
	setDuration(&cfg.Worker.RetryBackoff, DefaultWorkerRetryBackoff)
	setDuration(&cfg.Worker.ShutdownTimeout, DefaultWorkerShutdownTimeout)
}

// registerDefaults declares every key on v so that environment variables
// bind during Unmarshal even when no config file mentions the key.
func registerDefaults(v *viper.Viper) {
	d := &Config{}
	ApplyDefaults(d)

	v.SetDefault("server.http.host", d.Server.HTTP.Host)
	v.SetDefault("server.http.port", d.Server.HTTP.Port)
	v.SetDefault("server.http.read_timeout", d.Server.HTTP.ReadTimeout)
	v.SetDefault("server.http.write_timeout", d.Server.HTTP.WriteTimeout)
	v.SetDefault("server.http.shutdown_timeout", d.Server.HTTP.ShutdownTimeout)
	v.SetDefault("server.http.max_body_size", d.Server.HTTP.MaxBodySize)
	v.SetDefault("server.grpc.enabled", true)
	v.SetDefault("server.grpc.host", d.Server.GRPC.Host)
	v.SetDefault("server.grpc.port", d.Server.GRPC.Port)
	v.SetDefault("server.grpc.max_recv_msg_size", d.Server.GRPC.MaxRecvMsgSize)

	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("extraction.max_text_length", d.Extraction.MaxTextLength)
	v.SetDefault("extraction.max_tokens", d.Extraction.MaxTokens)
	v.SetDefault("extraction.batch_concurrency", d.Extraction.BatchConcurrency)
	v.SetDefault("extraction.max_batch_size", d.Extraction.MaxBatchSize)
	v.SetDefault("extraction.normalize_text", true)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.watch", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.default_ttl", d.Redis.DefaultTTL)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.group_id", d.Kafka.GroupID)
	v.SetDefault("kafka.request_topic", d.Kafka.RequestTopic)
	v.SetDefault("kafka.result_topic", d.Kafka.ResultTopic)
	v.SetDefault("kafka.dlq_topic", d.Kafka.DLQTopic)
	v.SetDefault("kafka.batch_job_topic", d.Kafka.BatchJobTopic)

	v.SetDefault("minio.endpoint", d.MinIO.Endpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", d.MinIO.Bucket)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("worker.concurrency", d.Worker.Concurrency)
	v.SetDefault("worker.max_retries", d.Worker.MaxRetries)
	v.SetDefault("worker.retry_backoff", d.Worker.RetryBackoff)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}

//Personal.AI order the ending
