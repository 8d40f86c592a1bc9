// API server entry point for KeyIP-Depict.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/config"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/storage/minio"
	grpcserver "github.com/turtacn/KeyIP-Depict/internal/interfaces/grpc"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/KeyIP-Depict/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/middleware"
)

const (
	defaultConfigPath = "configs/config.yaml"
	limiterCleanup    = time.Minute
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	cfg, fromFile, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}

	logger, err := logging.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger = logger.Named("apiserver")
	logger.Info("Starting KeyIP-Depict API server",
		logging.String("version", config.Version),
		logging.Int("port", cfg.Server.Port),
		logging.Bool("redis", cfg.Redis.Enabled),
		logging.Bool("postgres", cfg.Postgres.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled),
		logging.Bool("grpc", cfg.GRPC.Enabled))

	if fromFile {
		config.Watch(configPath,
			func(*config.Config) { logger.Warn("Configuration file changed; restart to apply") },
			func(err error) { logger.Warn("Ignoring invalid configuration change", logging.Err(err)) })
	}

	// ── Metrics ──────────────────────────────────────────────────────────────
	appMetrics := prometheus.NewNoopAppMetrics()
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(cfg.CollectorConfig(), logger)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		metricsHandler = collector.Handler()
	}

	// ── Backends ─────────────────────────────────────────────────────────────
	var (
		checkers []handlers.HealthChecker
		cache    depict.ResultCache
		jobs     depict.JobQueryService
	)
	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(cfg.RedisClientConfig(), logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		checkers = append(checkers, handlers.NewCheck("redis", rc.Ping))
		if cfg.Depict.CacheEnabled {
			cache = redis.NewRedisCache(rc, logger,
				redis.WithPrefix(cfg.Redis.KeyPrefix),
				redis.WithDefaultTTL(cfg.Depict.CacheTTL))
		}
	}
	if cfg.Postgres.Enabled {
		conn, err := postgres.Open(context.Background(), cfg.PostgresClientConfig(), cfg.Postgres.AutoMigrate, logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer conn.Close()
		checkers = append(checkers, handlers.NewCheck("postgres", conn.HealthCheck))
		jobs = depict.NewJobQueryService(repositories.NewPostgresJobRepo(conn, appMetrics, logger))
	}
	if cfg.MinIO.Enabled {
		mc, err := minio.NewMinIOClient(cfg.MinIOClientConfig(), logger)
		if err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		defer mc.Close()
		checkers = append(checkers, handlers.NewCheck("minio", mc.HealthCheck))
	}

	// ── HTTP ─────────────────────────────────────────────────────────────────
	svc := depict.NewService(cfg.ServiceConfig(), cache, appMetrics, logger)

	var limiter middleware.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		tb := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, limiterCleanup)
		defer tb.Stop()
		limiter = tb
	}

	var jobHandler *handlers.JobHandler
	if jobs != nil {
		jobHandler = handlers.NewJobHandler(jobs, logger)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		AnnotateHandler: handlers.NewAnnotateHandler(svc, logger, cfg.Server.MaxBodySize),
		HealthHandler:   handlers.NewHealthHandler(config.Version, checkers...),
		JobHandler:      jobHandler,
		RateLimiter:     limiter,
		RequestTimeout:  cfg.Server.RequestTimeout,
		SlowThreshold:   cfg.Server.SlowThreshold,
		Logger:          logger,
		Metrics:         appMetrics,
		MetricsHandler:  metricsHandler,
		MetricsPath:     cfg.Metrics.Path,
	})
	srv := httpserver.NewServer(httpserver.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start() }()

	// ── gRPC ─────────────────────────────────────────────────────────────────
	var gsrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		gsrv, err = grpcserver.NewServer(grpcserver.ServerConfig{
			Port:            cfg.GRPC.Port,
			MaxRecvMsgSize:  cfg.GRPC.MaxRecvMsgSize,
			GracefulTimeout: cfg.GRPC.GracefulTimeout,
		}, grpcserver.WithLogger(logger), grpcserver.WithMetrics(appMetrics))
		if err != nil {
			_ = srv.Stop(context.Background())
			return fmt.Errorf("grpc: %w", err)
		}
		gsrv.RegisterService(&services.DepictServiceDesc, services.NewDepictServer(svc, jobs))
		go func() { errCh <- gsrv.Start() }()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal", logging.String("signal", sig.String()))
	}

	if gsrv != nil {
		_ = gsrv.Stop(context.Background())
	}
	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	logger.Info("KeyIP-Depict API server stopped")
	return nil
}

// loadConfig reads path when it exists and falls back to environment
// variables otherwise.  fromFile reports which happened.
func loadConfig(path string) (cfg *config.Config, fromFile bool, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.Load(path)
		return cfg, true, err
	}
	cfg, err = config.LoadFromEnv()
	return cfg, false, err
}

//Personal.AI order the ending
