// Background worker entry point for KeyIP-Depict.  It consumes annotation
// jobs from Kafka, stores results in MinIO and publishes completion events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/config"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/KeyIP-Depict/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	topicSetupTimeout       = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	workerCount := flag.Int("workers", 0, "number of concurrent consumers (overrides worker.concurrency)")
	flag.Parse()

	if err := run(*configPath, *workerCount); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workerCount int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if workerCount > 0 {
		cfg.Worker.Concurrency = workerCount
	}
	if !cfg.MinIO.Enabled {
		return fmt.Errorf("minio must be enabled: results are stored in the object store")
	}

	logger, err := logging.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger = logger.Named("worker")
	logger.Info("Starting KeyIP-Depict worker",
		logging.String("version", config.Version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.Bool("job_ledger", cfg.Postgres.Enabled),
		logging.String("topic", kafka.TopicAnnotateRequested))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ──────────────────────────────────────────────────────────────
	appMetrics := prometheus.NewNoopAppMetrics()
	routerCfg := httpserver.RouterConfig{Logger: logger, MetricsPath: cfg.Metrics.Path}
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(cfg.CollectorConfig(), logger)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		routerCfg.MetricsHandler = collector.Handler()
	}
	routerCfg.Metrics = appMetrics

	// ── Backends ─────────────────────────────────────────────────────────────
	var checkers []handlers.HealthChecker

	mc, err := minio.NewMinIOClient(cfg.MinIOClientConfig(), logger)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	defer mc.Close()
	checkers = append(checkers, handlers.NewCheck("minio", mc.HealthCheck))

	var (
		cache   depict.ResultCache
		jobOpts = []depict.JobOption{
			depict.WithJobMetrics(appMetrics),
			depict.WithSource(cfg.Worker.Source),
		}
	)
	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(cfg.RedisClientConfig(), logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		checkers = append(checkers, handlers.NewCheck("redis", rc.Ping))
		jobOpts = append(jobOpts, depict.WithJobLocks(redis.NewLockFactory(rc, logger), cfg.Worker.LockTTL))
		if cfg.Depict.CacheEnabled {
			cache = redis.NewRedisCache(rc, logger, redis.WithPrefix(cfg.Redis.KeyPrefix))
		}
	}

	if cfg.Postgres.Enabled {
		conn, err := postgres.Open(ctx, cfg.PostgresClientConfig(), cfg.Postgres.AutoMigrate, logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer conn.Close()
		checkers = append(checkers, handlers.NewCheck("postgres", conn.HealthCheck))
		repo := repositories.NewPostgresJobRepo(conn, appMetrics, logger)
		worker := cfg.Worker.Source
		if host, err := os.Hostname(); err == nil {
			worker += "@" + host
		}
		jobOpts = append(jobOpts, depict.WithJobLedger(repo, worker))
		routerCfg.JobHandler = handlers.NewJobHandler(depict.NewJobQueryService(repo), logger)
	}

	if cfg.Kafka.AutoCreateTopics {
		if err := ensureTopics(ctx, cfg, logger); err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(cfg.ProducerConfig(), logger)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	svc := depict.NewService(cfg.ServiceConfig(), cache, appMetrics, logger)
	processor := depict.NewJobProcessor(svc, minio.NewMinIORepository(mc, logger), producer, logger, jobOpts...)

	handle := func(ctx context.Context, msg *common.Message) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Worker.HandlerTimeout)
		defer cancel()
		return processor.Handle(ctx, msg)
	}

	// ── Consumers and probes ─────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(cfg.ConsumerConfig(kafka.TopicAnnotateRequested),
			logger.With(logging.Int("consumer", i)))
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("kafka consumer: %w", err)
		}
		if err := consumer.Subscribe(kafka.TopicAnnotateRequested, handle); err != nil {
			_ = consumer.Close()
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error { return consumer.Run(gctx) })
	}

	routerCfg.HealthHandler = handlers.NewHealthHandler(config.Version, checkers...)
	healthSrv := httpserver.NewServer(httpserver.ServerConfig{
		Port:            cfg.Worker.HealthPort,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, httpserver.NewRouter(routerCfg), logger)
	g.Go(healthSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		return healthSrv.Stop(context.Background())
	})

	logger.Info("Worker started")
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("KeyIP-Depict worker stopped")
	return nil
}

func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		return fmt.Errorf("kafka topics: %w", err)
	}
	defer tm.Close()

	ctx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
	defer cancel()
	if err := tm.EnsureDefaultTopics(ctx, cfg.Kafka.NumPartitions, cfg.Kafka.ReplicationFactor); err != nil {
		return fmt.Errorf("kafka topics: %w", err)
	}
	return nil
}

// loadConfig reads path when it exists and falls back to environment
// variables otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

//Personal.AI order the ending
