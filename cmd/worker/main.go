// Package main runs the background collection worker: it consumes collect
// jobs from the queue and runs cycles against the GitHub API. One sweep over
// every configured organization is enqueued at startup; further cycles are
// triggered through the API's collect endpoint or an external scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/copilot-pulse/backend/config"
	"github.com/copilot-pulse/backend/internal/collector"
	"github.com/copilot-pulse/backend/internal/docstore"
	"github.com/copilot-pulse/backend/internal/githubapi"
	"github.com/copilot-pulse/backend/internal/leaderboard"
	"github.com/copilot-pulse/backend/internal/models"
	"github.com/copilot-pulse/backend/internal/realtime"
	"github.com/copilot-pulse/backend/internal/snapshot"
	"github.com/copilot-pulse/backend/pkg/database"
	"github.com/copilot-pulse/backend/pkg/queue"
	"github.com/copilot-pulse/backend/pkg/redis"
	"github.com/copilot-pulse/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var archiver snapshot.Archiver
	if cfg.AWS.Region != "" && cfg.AWS.SnapshotBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			SnapshotBucket:  cfg.AWS.SnapshotBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 snapshot archive disabled", zap.Error(err))
		} else {
			archiver = s3Client
		}
	}
	snap := snapshot.NewWriter(cfg.Snapshot.Enabled, cfg.Snapshot.LogPath, archiver, logger)

	client := githubapi.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.GraphQLURL, cfg.GitHub.Token, logger)

	slugs := cfg.GitHub.OrganizationSlugs
	if cfg.GitHub.EnterpriseSlug != "" {
		logins, err := client.ListEnterpriseOrgs(ctx, cfg.GitHub.EnterpriseSlug)
		if err != nil {
			logger.Warn("enterprise org listing failed", zap.Error(err))
		} else {
			slugs = appendMissing(slugs, logins)
			logger.Info("enterprise orgs resolved", zap.Int("count", len(logins)))
		}
	}
	if len(slugs) == 0 {
		logger.Fatal("no organizations to collect")
	}

	store := docstore.NewPostgres(pool)
	writer := docstore.NewWriter(store, cfg.Store.PrimaryKey, logger)
	publisher := realtime.NewRedisPubSub(rdb.Client, logger)
	cycle := collector.NewCycle(client, writer, cfg.Indexes, snap, publisher, cfg.Adoption.TopN, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	boardRepo := leaderboard.NewRepository(pool, rdb.Client, cfg.Indexes, cfg.Store.CacheTTLSec, logger)
	worker := collector.NewWorker(jobQueue, cycle, boardRepo, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(workerCtx)
	worker.EnqueueAll(workerCtx, slugs)
	logger.Info("worker started", zap.Int("organizations", len(slugs)))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

// appendMissing merges enterprise logins into the configured slugs without
// duplicating entries already present (with or without prefix).
func appendMissing(slugs, logins []string) []string {
	seen := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		seen[models.ParseOrgSlug(s).Slug] = struct{}{}
	}
	for _, login := range logins {
		if _, ok := seen[login]; ok {
			continue
		}
		seen[login] = struct{}{}
		slugs = append(slugs, login)
	}
	return slugs
}
