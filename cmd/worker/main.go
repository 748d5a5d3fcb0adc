// Worker entry point for ListSense: consumes extraction requests and batch
// jobs from Kafka, answers on the result topic and writes batch output to
// object storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/config"
	redisclient "github.com/turtacn/ListSense/internal/infrastructure/database/redis"
	"github.com/turtacn/ListSense/internal/infrastructure/messaging/kafka"
	minioclient "github.com/turtacn/ListSense/internal/infrastructure/storage/minio"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	httpserver "github.com/turtacn/ListSense/internal/interfaces/http"
	"github.com/turtacn/ListSense/internal/interfaces/http/handlers"
	"github.com/turtacn/ListSense/pkg/errors"
)

// Set via -ldflags at build time.
var Version = "dev"

const (
	defaultHealthPort = 8081
	jobLockTTL        = 5 * time.Minute
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	workers := flag.Int("workers", 0, "consumer group members to run (overrides worker.concurrency)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Worker.Concurrency = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateWorker(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetGlobalLogger(logger)

	if err := run(cfg, *healthPort, logger); err != nil {
		logger.Error("worker exited", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// workerInfrastructure holds every connection the worker closes on exit.
type workerInfrastructure struct {
	producer *kafka.Producer
	store    *minioclient.Client
	redis    *redisclient.Client
}

func (w *workerInfrastructure) Close() {
	if w.producer != nil {
		_ = w.producer.Close()
	}
	if w.store != nil {
		_ = w.store.Close()
	}
	if w.redis != nil {
		_ = w.redis.Close()
	}
}

func initWorkerInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (*workerInfrastructure, error) {
	infra := &workerInfrastructure{}

	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		return nil, err
	}
	err = tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka.RequestTopic, cfg.Kafka.ResultTopic, cfg.Kafka.BatchJobTopic, cfg.Kafka.DLQTopic))
	_ = tm.Close()
	if err != nil {
		return nil, err
	}

	infra.producer, err = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Acks:         "all",
		MaxRetries:   cfg.Worker.MaxRetries,
		WriteTimeout: cfg.Kafka.WriteTimeout,
		Compression:  "snappy",
		Source:       "listsense-worker",
	}, logger)
	if err != nil {
		return nil, err
	}

	infra.store, err = minioclient.NewClient(cfg.MinIO, logger)
	if err != nil {
		infra.Close()
		return nil, err
	}
	if err := infra.store.EnsureBucket(ctx, cfg.MinIO.Bucket); err != nil {
		infra.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		infra.redis, err = redisclient.NewClient(cfg.Redis, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
	}
	return infra, nil
}

func buildService(cfg *config.Config, metrics *prometheus.ExtractionMetrics, logger logging.Logger) (extraction.Service, error) {
	catalog := list_extractor.NewCatalog(list_extractor.SpaceTokenizer, logger)
	if cfg.Catalog.Path != "" {
		if err := catalog.LoadFile(cfg.Catalog.Path); err != nil {
			return nil, err
		}
		logger.Info("catalog loaded", logging.String("path", cfg.Catalog.Path), logging.Int("entities", catalog.Len()))
	}
	extractor := list_extractor.NewExtractor(list_extractor.ExtractorConfig{
		MaxTextLength:    cfg.Extraction.MaxTextLength,
		BatchConcurrency: cfg.Extraction.BatchConcurrency,
		NormalizeText:    cfg.Extraction.NormalizeText,
	}, list_extractor.SpaceTokenizer, logger, metrics)
	return extraction.NewService(extractor, catalog, extraction.ServiceConfig{
		MaxTokens:    cfg.Extraction.MaxTokens,
		MaxBatchSize: cfg.Extraction.MaxBatchSize,
	}, logger, extraction.WithCatalogMetrics(metrics)), nil
}

// retryable rejects errors that no redelivery can fix.
func retryable(err error) bool {
	return !errors.IsValidation(err) && !errors.IsCode(err, errors.ErrCodeSerialization)
}

func run(cfg *config.Config, healthPort int, logger logging.Logger) error {
	logger.Info("starting ListSense worker",
		logging.String("version", Version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.Strings("brokers", cfg.Kafka.Brokers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
		ConstLabels:          map[string]string{"component": "worker"},
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewExtractionMetrics(collector)

	infra, err := initWorkerInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := buildService(cfg, metrics, logger)
	if err != nil {
		return err
	}

	var locks extraction.LockFactory
	if infra.redis != nil {
		locks = func(name string) extraction.Lock {
			return redisclient.NewJobLock(infra.redis, logger, cfg.Redis.KeyPrefix+"lock:", name, jobLockTTL)
		}
	}
	worker := extraction.NewWorker(svc, infra.producer, minioclient.NewBatchStore(infra.store), locks, metrics,
		extraction.WorkerConfig{
			ResultTopic:  cfg.Kafka.ResultTopic,
			MaxBatchSize: cfg.Extraction.MaxBatchSize,
		}, logger)

	// Worker pool: one consumer per slot, all in the same group so partitions
	// are spread across them.
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			_ = c.Close()
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.GroupID,
			Topics:   []string{cfg.Kafka.RequestTopic, cfg.Kafka.BatchJobTopic},
			MinBytes: cfg.Kafka.MinBytes,
			MaxBytes: cfg.Kafka.MaxBytes,
			MaxWait:  cfg.Kafka.MaxWait,
			RetryConfig: kafka.RetryConfig{
				MaxRetries:      cfg.Worker.MaxRetries,
				RetryBackoff:    cfg.Worker.RetryBackoff,
				MaxRetryBackoff: 8 * cfg.Worker.RetryBackoff,
				DeadLetterTopic: cfg.Kafka.DLQTopic,
			},
		}, logger.With(logging.Int("consumer", i)),
			kafka.WithDeadLetterPublisher(infra.producer),
			kafka.WithMessageMetrics(metrics),
			kafka.WithRetryPolicy(retryable),
		)
		if err != nil {
			return err
		}
		c.Subscribe(cfg.Kafka.RequestTopic, worker.HandleRequest)
		c.Subscribe(cfg.Kafka.BatchJobTopic, worker.HandleBatchJob)
		if err := c.Start(ctx); err != nil {
			return err
		}
		consumers = append(consumers, c)
	}

	// Probes and metrics
	checkers := []handlers.HealthChecker{
		handlers.CheckFunc{Component: "minio", Fn: infra.store.HealthCheck},
	}
	if infra.redis != nil {
		checkers = append(checkers, handlers.CheckFunc{Component: "redis", Fn: infra.redis.Ping})
	}
	routerCfg := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(Version, checkers...),
		Logger:        logger,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsHandler = collector.Handler()
	}
	healthCfg := cfg.Server.HTTP
	healthCfg.Port = healthPort
	healthSrv := httpserver.NewServer(healthCfg, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- healthSrv.Start() }()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("health server failed", logging.Err(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Warn("consumer close", logging.Err(err))
		}
	}
	consumers = nil
	if err := healthSrv.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown", logging.Err(err))
	}
	logger.Info("worker stopped")
	return runErr
}

//Personal.AI order the ending
