// API server entry point for ListSense: REST on chi plus the gRPC extraction
// service, sharing one catalog and one application service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/config"
	"github.com/turtacn/ListSense/internal/infrastructure/database/redis"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	grpcserver "github.com/turtacn/ListSense/internal/interfaces/grpc"
	"github.com/turtacn/ListSense/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/ListSense/internal/interfaces/http"
	"github.com/turtacn/ListSense/internal/interfaces/http/handlers"
	"github.com/turtacn/ListSense/internal/interfaces/http/middleware"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	catalogPath := flag.String("catalog", "", "entity catalog file (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.HTTP.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPC.Port = *grpcPort
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if err := cfg.Validate(); err != nil {
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

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("api server exited", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	logger.Info("starting ListSense API server",
		logging.String("version", Version),
		logging.String("commit", GitCommit),
		logging.String("http_addr", cfg.Server.HTTP.Addr()),
		logging.Bool("grpc_enabled", cfg.Server.GRPC.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
		ConstLabels:          map[string]string{"component": "apiserver"},
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewExtractionMetrics(collector)

	// Catalog and engine
	catalog := list_extractor.NewCatalog(list_extractor.SpaceTokenizer, logger)
	if cfg.Catalog.Path != "" {
		if err := catalog.LoadFile(cfg.Catalog.Path); err != nil {
			return err
		}
		logger.Info("catalog loaded", logging.String("path", cfg.Catalog.Path), logging.Int("entities", catalog.Len()))
	}
	extractor := list_extractor.NewExtractor(list_extractor.ExtractorConfig{
		MaxTextLength:    cfg.Extraction.MaxTextLength,
		BatchConcurrency: cfg.Extraction.BatchConcurrency,
		NormalizeText:    cfg.Extraction.NormalizeText,
	}, list_extractor.SpaceTokenizer, logger, metrics)

	opts := []extraction.ServiceOption{extraction.WithCatalogMetrics(metrics)}
	checkers := []handlers.HealthChecker{catalogHealth(catalog, cfg.Catalog.Path)}

	// Result cache
	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()
		cache := redis.NewResultCache(rc, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithTTL(cfg.Redis.DefaultTTL),
			redis.WithCacheMetrics(metrics),
		)
		opts = append(opts, extraction.WithResultCache(cache))
		checkers = append(checkers, redisHealth(rc))
	}

	svc := extraction.NewService(extractor, catalog, extraction.ServiceConfig{
		MaxTokens:    cfg.Extraction.MaxTokens,
		MaxBatchSize: cfg.Extraction.MaxBatchSize,
	}, logger, opts...)

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watcher, err := list_extractor.NewCatalogWatcher(catalog, cfg.Catalog.Path, logger, func(err error) {
			metrics.RecordCatalogReload(err)
			extraction.CatalogReloaded(svc, err)
		})
		if err != nil {
			return err
		}
		watcher.Start(ctx)
		defer watcher.Stop()
	}
	if configPath != "" {
		watchConfig(configPath, cfg.Catalog.Path, catalog, svc, metrics, logger)
	}

	// HTTP
	routerCfg := httpserver.RouterConfig{
		ExtractionHandler: handlers.NewExtractionHandler(svc, logger),
		EntityHandler:     handlers.NewEntityHandler(svc, logger),
		HealthHandler:     handlers.NewHealthHandler(Version, checkers...),
		Logger:            logger,
		Logging: middleware.LoggingConfig{
			SkipPaths:     []string{"/healthz", "/readyz", cfg.Metrics.Path},
			SlowThreshold: time.Second,
		},
		MaxBodySize: cfg.Server.HTTP.MaxBodySize,
	}
	if cfg.Metrics.Enabled {
		routerCfg.HTTPMetrics = metrics
		routerCfg.MetricsHandler = collector.Handler()
	}
	httpSrv := httpserver.NewServer(cfg.Server.HTTP, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Start() }()

	// gRPC
	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg.Server.GRPC,
			grpcserver.WithLogger(logger),
			grpcserver.WithMetrics(metrics),
		)
		if err != nil {
			return err
		}
		grpcSrv.RegisterService(&services.ServiceDesc, services.NewExtractionServer(svc, logger))
		go func() { errCh <- grpcSrv.Start() }()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", logging.Err(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("http shutdown", logging.Err(err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error("grpc shutdown", logging.Err(err))
		}
	}
	logger.Info("servers stopped")
	return runErr
}

// watchConfig follows edits to the config file. Only catalog.path is applied
// live; every other setting needs a restart.
func watchConfig(path, catalogPath string, catalog *list_extractor.Catalog, svc extraction.Service,
	metrics *prometheus.ExtractionMetrics, logger logging.Logger) {
	var mu sync.Mutex
	current := catalogPath
	err := config.Watch(path, func(c *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		if c.Catalog.Path == "" || c.Catalog.Path == current {
			logger.Info("config changed; restart to apply server settings", logging.String("path", path))
			return
		}
		err := catalog.LoadFile(c.Catalog.Path)
		metrics.RecordCatalogReload(err)
		extraction.CatalogReloaded(svc, err)
		if err != nil {
			logger.Error("catalog switch failed", logging.String("catalog", c.Catalog.Path), logging.Err(err))
			return
		}
		logger.Info("catalog switched", logging.String("from", current), logging.String("to", c.Catalog.Path))
		current = c.Catalog.Path
	}, func(err error) {
		logger.Warn("config reload rejected", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch unavailable", logging.Err(err))
	}
}

//Personal.AI order the ending
