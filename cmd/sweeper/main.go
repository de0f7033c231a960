// Package main is the entry point for the standalone purge worker. It
// runs the retention sweeps without the HTTP surface, for deployments
// that keep the API servers stateless.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/purge"
	"workdeck/internal/infrastructure/blob"
	"workdeck/internal/infrastructure/metrics"
	"workdeck/internal/infrastructure/storage/postgres"
	"workdeck/internal/infrastructure/storage/postgres/record_repo"
	"workdeck/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting workdeck sweeper")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	stores := record_repo.New(txManager)
	g := graph.MustNew()

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	policyPath := getEnv("RETENTION_POLICY_PATH", "configs/retention.yaml")
	var policy *purge.Policy
	if _, err := os.Stat(policyPath); err == nil {
		policy, err = purge.Load(policyPath)
		if err != nil {
			log.Fatalw("failed to load retention policy", "path", policyPath, "error", err)
		}
		log.Infow("retention policy loaded", "path", policyPath, "schedule", policy.Schedule)
	} else {
		log.Infow("no retention policy file, using defaults", "path", policyPath)
	}

	sweeper, err := purge.NewSweeper(txManager.ForSweeps(), stores, g, policy)
	if err != nil {
		log.Fatalw("failed to initialize sweeper", "error", err)
	}
	sweeper.SetAuditor(auditService)
	sweeper.SetStats(metrics.New(prometheus.NewRegistry()))

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
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalw("failed to start sweeper", "error", err)
	}

	if _, err := os.Stat(policyPath); err == nil {
		watcher := purge.NewPolicyWatcher(sweeper, policyPath)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				log.Warnw("policy watcher stopped", "error", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down sweeper...")
	cancel()
	scheduler.Stop(context.Background())
	log.Info("sweeper stopped")
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
