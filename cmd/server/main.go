// Package main is the entry point for the workdeck API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"workdeck/internal/domain/auth"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/purge"
	"workdeck/internal/domain/rules"
	"workdeck/internal/infrastructure/blob"
	v1 "workdeck/internal/infrastructure/http/v1"
	"workdeck/internal/infrastructure/metrics"
	"workdeck/internal/infrastructure/storage/postgres"
	"workdeck/internal/infrastructure/storage/postgres/record_repo"
	"workdeck/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting workdeck server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Stores and lifecycle engine ---
	stores := record_repo.New(txManager)
	g := graph.MustNew()
	ruleset := rules.New(stores, g, rules.DefaultConfig())
	engine := cascade.NewEngine(stores, g, ruleset)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	registry := prometheus.NewRegistry()
	stats := metrics.New(registry)

	cascadeService := cascade.NewService(txManager, engine, auditService, stats)

	// --- Purge sweeper ---
	policyPath := getEnv("RETENTION_POLICY_PATH", "configs/retention.yaml")
	policy := loadPolicy(ctx, log, policyPath)

	sweeper, err := purge.NewSweeper(txManager.ForSweeps(), stores, g, policy)
	if err != nil {
		log.Fatalw("failed to initialize sweeper", "error", err)
	}
	sweeper.SetAuditor(auditService)
	sweeper.SetStats(stats)

	if bucket := getEnv("BLOB_S3_BUCKET", ""); bucket != "" {
		blobStore, err := blob.NewS3(ctx, blob.S3Config{
			Region:    getEnv("BLOB_S3_REGION", ""),
			Bucket:    bucket,
			Endpoint:  getEnv("BLOB_S3_ENDPOINT", ""),
			PathStyle: getEnv("BLOB_S3_PATH_STYLE", "false") == "true",
		})
		if err != nil {
			log.Fatalw("failed to initialize blob store", "error", err)
		}
		sweeper.SetBlobStore(blobStore)
		log.Infow("blob store enabled", "bucket", bucket)
	} else {
		log.Warn("no blob store configured; attachment blobs will not be released on purge")
	}

	scheduler := purge.NewScheduler(sweeper, getEnv("SWEEP_SCHEDULE", ""))
	if getEnv("SWEEPER_ENABLED", "true") == "true" {
		if err := scheduler.Start(ctx); err != nil {
			log.Fatalw("failed to start sweeper", "error", err)
		}
	}

	// Hot-reload the retention policy on file changes.
	watchCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()
	if _, err := os.Stat(policyPath); err == nil {
		watcher := purge.NewPolicyWatcher(sweeper, policyPath)
		go func() {
			if err := watcher.Watch(watchCtx); err != nil {
				log.Warnw("policy watcher stopped", "error", err)
			}
		}()
	}

	// --- Token verification ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		TokenValidator:  jwtService,
		Cascade:         cascadeService,
		Scheduler:       scheduler,
		MetricsRegistry: registry,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	stopWatcher()
	scheduler.Stop(ctx)

	log.Info("server stopped")
}

// loadPolicy reads the retention policy file, falling back to the
// built-in defaults when the file is absent.
func loadPolicy(ctx context.Context, log *logger.Logger, path string) *purge.Policy {
	if _, err := os.Stat(path); err != nil {
		log.Infow("no retention policy file, using defaults", "path", path)
		return purge.DefaultPolicy()
	}
	policy, err := purge.Load(path)
	if err != nil {
		log.Fatalw("failed to load retention policy", "path", path, "error", err)
	}
	log.Infow("retention policy loaded", "path", path, "schedule", policy.Schedule)
	return policy
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
