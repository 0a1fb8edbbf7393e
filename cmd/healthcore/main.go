package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthcore/common/database"
	"healthcore/common/logger"
	"healthcore/common/mqtt"
	"healthcore/common/redis"
	"healthcore/common/startup"
	"healthcore/internal/cache"
	"healthcore/internal/config"
	"healthcore/internal/consumer"
	"healthcore/internal/events"
	"healthcore/internal/fixture"
	"healthcore/internal/healthstore"
	"healthcore/internal/httpapi"
	"healthcore/internal/metrics"
	"healthcore/internal/service"

	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthcore")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("Starting healthcore service",
		zap.String("version", version),
		zap.String("store", cfg.Store.Backend),
		zap.String("event_sink", cfg.Events.Sink),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("trigger", cfg.Trigger.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to open health store", zap.Error(err))
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient = redis.NewRedisClient(&cfg.Redis)
		probe := func(ctx context.Context) error { return redis.Ping(ctx, redisClient) }
		if err := startup.WaitFor(ctx, "redis", startup.DefaultAttempts, probe, lg); err != nil {
			lg.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close(redisClient)
	}

	var sessions *cache.SessionCache
	if cfg.Cache.Enabled {
		sessions = cache.NewSessionCache(cache.NewRedisKVStore(redisClient), cfg.Cache.TTL, lg)
	}

	var publisher events.Publisher
	switch cfg.Events.Sink {
	case config.SinkRedis:
		publisher = events.NewRedisStreamPublisher(redisClient, cfg.Events.Stream, lg)
	case config.SinkKafka:
		publisher = events.NewKafkaPublisher(&cfg.Kafka, lg)
	}

	m := metrics.NewMetrics()
	svc := service.NewSleepService(cfg, store, sessions, publisher, m, lg)
	defer svc.Stop()

	if err := svc.Authorize(ctx); err != nil {
		lg.Fatal("Failed to authorize health store access", zap.Error(err))
	}

	go func() {
		if err := svc.Start(ctx); err != nil {
			lg.Error("Sleep service stopped with error", zap.Error(err))
		}
	}()

	if cfg.Trigger.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, lg)
		if err != nil {
			lg.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()

		triggers := consumer.NewTriggerConsumer(mqttClient, svc, cfg.Trigger.Topic, cfg.MQTT.QoS, lg)
		go func() {
			if err := triggers.Start(ctx); err != nil {
				lg.Error("Trigger consumer stopped with error", zap.Error(err))
			}
		}()
		defer triggers.Stop()
	}

	handler := httpapi.NewHandler(svc, m, lg)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(handler, os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Error during HTTP shutdown", zap.Error(err))
	}

	lg.Info("Service stopped")
}

// openStore builds the configured health store and its release func.
func openStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (healthstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		s, err := healthstore.OpenSQLiteStore(ctx, cfg.Store.SQLitePath, lg)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.StorePostgres:
		db, err := database.NewPostgresDB(ctx, &cfg.Database, lg)
		if err != nil {
			return nil, nil, err
		}
		s := healthstore.NewPostgresStore(db, lg)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		return s, func() { _ = database.Close(db) }, nil

	case config.StoreRemote:
		return healthstore.NewRemoteStore(&cfg.Remote, lg), func() {}, nil

	default:
		lg.Warn("Using in-memory health store; data is lost on restart")
		s := healthstore.NewMemoryStore()
		if cfg.Store.SeedFile != "" {
			samples, err := fixture.Load(cfg.Store.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			s.Seed(samples...)
			lg.Info("Seeded memory store", zap.String("file", cfg.Store.SeedFile), zap.Int("samples", len(samples)))
		}
		return s, func() {}, nil
	}
}
