package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/healthtown-api/internal/config"
	"github.com/jwalitptl/healthtown-api/internal/repository/postgres"
	"github.com/jwalitptl/healthtown-api/internal/worker"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/messaging"
	"github.com/jwalitptl/healthtown-api/pkg/messaging/redis"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
)

func setupHealthCheck(port int, reg *prometheus.Registry, ready func(context.Context) error, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	}).With("service", "audit-worker")

	if !cfg.Redis.Enabled {
		log.Fatal(errors.New("redis disabled"), "The audit relay needs redis.enabled=true")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("healthtown_worker", registry)

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal(err, "Failed to migrate database")
	}

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log, m)
	if err != nil {
		log.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	auditRepo := postgres.NewAuditRepository(db)

	relay := worker.NewAuditRelay(broker, auditRepo, worker.RelayConfig{
		Channel:    messaging.ChannelAgentInteractions,
		MaxRetries: cfg.Worker.MaxRetries,
		RetryDelay: cfg.Worker.RetryDelay,
	}, log, m)
	retention := worker.NewAuditRetention(auditRepo, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, log)

	healthSrv := setupHealthCheck(cfg.Worker.HealthPort, registry, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := broker.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}, log)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := relay.Start(ctx); err != nil {
			log.Error(err, "Relay stopped")
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		retention.Start(ctx)
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = healthSrv.Shutdown(shutdownCtx)
}
