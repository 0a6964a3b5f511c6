package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/healthtown-api/internal/config"
	"github.com/jwalitptl/healthtown-api/internal/email"
	accessHandler "github.com/jwalitptl/healthtown-api/internal/handler/access"
	appointmentHandler "github.com/jwalitptl/healthtown-api/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/healthtown-api/internal/handler/audit"
	authHandler "github.com/jwalitptl/healthtown-api/internal/handler/auth"
	consultationHandler "github.com/jwalitptl/healthtown-api/internal/handler/consultation"
	doctorHandler "github.com/jwalitptl/healthtown-api/internal/handler/doctor"
	"github.com/jwalitptl/healthtown-api/internal/handler/health"
	recordHandler "github.com/jwalitptl/healthtown-api/internal/handler/record"
	settingsHandler "github.com/jwalitptl/healthtown-api/internal/handler/settings"
	userHandler "github.com/jwalitptl/healthtown-api/internal/handler/user"
	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/platform/gemini"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	"github.com/jwalitptl/healthtown-api/internal/repository/memory"
	"github.com/jwalitptl/healthtown-api/internal/repository/postgres"
	"github.com/jwalitptl/healthtown-api/internal/router"
	"github.com/jwalitptl/healthtown-api/internal/service/audit"
	"github.com/jwalitptl/healthtown-api/internal/service/consultation"
	"github.com/jwalitptl/healthtown-api/internal/service/doctorsearch"
	"github.com/jwalitptl/healthtown-api/internal/service/medical"
	"github.com/jwalitptl/healthtown-api/internal/service/orchestrator"
	"github.com/jwalitptl/healthtown-api/internal/service/rbac"
	"github.com/jwalitptl/healthtown-api/internal/service/settings"
	"github.com/jwalitptl/healthtown-api/internal/service/triage"
	"github.com/jwalitptl/healthtown-api/internal/service/user"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/messaging/redis"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
	"github.com/jwalitptl/healthtown-api/pkg/security"
)

type stores struct {
	consultations repository.ConsultationRepository
	appointments  repository.AppointmentRepository
	audit         repository.AuditRepository
	db            *sqlx.DB
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("healthtown", registry)

	ids := idgen.NewUUIDProvider()
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)

	encryptor, err := security.NewEncryptorFromKey(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal(err, "invalid encryption key")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal(err, "failed to initialize storage")
	}
	if st.db != nil {
		defer st.db.Close()
	}

	// Directory and settings
	seed, err := user.DemoDirectory(hasher)
	if err != nil {
		log.Fatal(err, "failed to seed user directory")
	}
	userRepo := memory.NewUserRepository(seed)
	settingsSvc := settings.NewService(memory.NewSettingsRepository(model.DefaultSettings()), log)

	var mailer email.Service
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	} else {
		mailer = email.NewNopService(log)
	}

	userSvc := user.NewService(userRepo, hasher, mailer, settingsSvc, ids, log)
	searchSvc := doctorsearch.NewService(userSvc, doctorsearch.Config{
		CacheTTL:        cfg.Cache.DirectoryTTL,
		CleanupInterval: cfg.Cache.DirectoryCleanup,
	}, log, m)
	userSvc.OnDirectoryChange(searchSvc.Invalidate)

	// Audit trail, optionally mirrored to Redis for the relay worker
	var auditOpts []audit.Option
	var broker *redis.RedisBroker
	if cfg.Redis.Enabled {
		broker, err = redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log, m)
		if err != nil {
			log.Fatal(err, "failed to connect to Redis")
		}
		defer broker.Close()
		auditOpts = append(auditOpts, audit.WithPublisher(broker))
	}
	auditSvc := audit.NewService(st.audit, ids, log, m, auditOpts...)

	// Consultation pipeline
	if cfg.AI.APIKey == "" {
		log.Warn("no AI API key configured; consultations will use the fallback assessment")
	}
	gen := gemini.NewClient(gemini.Config{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Temperature: cfg.AI.Temperature,
	})
	triageClient := triage.NewClient(gen, triage.Config{
		Model:        cfg.AI.Model,
		Timeout:      cfg.AI.Timeout,
		Language:     cfg.AI.Language,
		MaxFailures:  cfg.AI.MaxFailures,
		BreakerReset: cfg.AI.BreakerReset,
	}, log, m, triage.WithModelResolver(settingsSvc.AIModel))

	consultationSvc := consultation.NewService(st.consultations, st.appointments, userRepo, mailer, ids, log, m)
	medicalSvc := medical.NewService(consultationSvc, memory.NewPrescriptionRepository(), encryptor, ids, log)
	orchestratorSvc := orchestrator.NewService(triageClient, searchSvc, auditSvc, consultationSvc, log, m)
	rbacSvc := rbac.NewService()

	// HTTP
	healthH := health.NewHandler(registry)
	healthH.SetStateReporter(func() map[string]string {
		return map[string]string{"ai_breaker": string(triageClient.BreakerState())}
	})
	if st.db != nil {
		healthH.AddCheck("database", st.db.PingContext)
	}
	if broker != nil {
		healthH.AddCheck("redis", broker.Ping)
	}

	r := router.NewRouter(router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        cfg.RateLimit.RequestsPerSecond,
		RateBurst:        cfg.RateLimit.Burst,
		RequestTimeout:   cfg.Server.RequestTimeout,
		CORSConfig:       corsConfig(cfg.CORS),
		MetricsPrefix:    "healthtown_http",
		Registerer:       registry,
		Logger:           log,
	},
		healthH,
		authHandler.NewHandler(userSvc, rbacSvc),
		accessHandler.NewHandler(rbacSvc),
		settingsHandler.NewHandler(settingsSvc, rbacSvc),
		consultationHandler.NewHandler(orchestratorSvc, consultationSvc, settingsSvc, rbacSvc),
		appointmentHandler.NewHandler(consultationSvc, rbacSvc),
		doctorHandler.NewHandler(searchSvc, userSvc),
		recordHandler.NewHandler(medicalSvc, rbacSvc),
		auditHandler.NewHandler(auditSvc, rbacSvc),
		userHandler.NewHandler(userSvc, rbacSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port, "storage", cfg.Storage, "redis", cfg.Redis.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Storage != config.StoragePostgres {
		return &stores{
			consultations: memory.NewConsultationRepository(),
			appointments:  memory.NewAppointmentRepository(),
			audit:         memory.NewAuditRepository(),
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := postgres.NewDB(connectCtx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(connectCtx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &stores{
		consultations: postgres.NewConsultationRepository(db),
		appointments:  postgres.NewAppointmentRepository(db),
		audit:         postgres.NewAuditRepository(db),
		db:            db,
	}, nil
}

func corsConfig(c config.CORSConfig) middleware.CORSConfig {
	out := middleware.DefaultCORSConfig()
	if len(c.AllowOrigins) > 0 {
		out.AllowOrigins = c.AllowOrigins
	}
	return out
}
