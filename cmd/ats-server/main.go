// cmd/ats-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ats-workers/internal/api"
	"ats-workers/internal/common/aws"
	"ats-workers/internal/common/config"
	"ats-workers/internal/common/database"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/common/observability"
	"ats-workers/internal/intake"
	"ats-workers/internal/interview"
	"ats-workers/internal/notify"
	"ats-workers/internal/repository"
	"ats-workers/internal/scoring"
	"ats-workers/internal/storage"
	"ats-workers/internal/workflow"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting ats-server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS clients ---
	s3Client, err := aws.NewS3Client(ctx, cfg.Storage.S3.Region)
	if err != nil {
		zapLog.Fatal("s3 client init failed", zap.Error(err))
	}
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client init failed", zap.Error(err))
	}

	// --- Domain wiring ---
	documents := storage.NewS3Store(s3Client, cfg.Storage.S3.Bucket, cfg.Storage.S3.Region, cfg.Storage.S3.Prefix, log)

	scorer, err := scoring.NewClient(cfg.APIs.OpenAI.APIKey, scoring.Config{
		Model:              cfg.APIs.OpenAI.Model,
		TranscriptionModel: cfg.APIs.OpenAI.TranscriptionModel,
		Temperature:        cfg.APIs.OpenAI.Temperature,
		MaxTokens:          cfg.APIs.OpenAI.MaxTokens,
		RequestTimeout:     time.Duration(cfg.APIs.OpenAI.Timeout) * time.Millisecond,
	}, log)
	if err != nil {
		zapLog.Fatal("scoring client init failed", zap.Error(err))
	}

	dispatcher := notify.NewSESDispatcher(sesClient, notify.Config{
		Enabled:     cfg.Notifications.Email.Enabled,
		FromEmail:   cfg.Notifications.Email.FromEmail,
		SendTimeout: time.Duration(cfg.Notifications.Email.Timeout) * time.Millisecond,
	}, obs, log)

	jobs := repository.NewJobRepository(pg.GetDB(), log)
	forms := repository.NewCachedFormSource(jobs, redisClient.GetClient(),
		time.Duration(cfg.Database.Redis.FormTTL)*time.Second, log)
	candidates := repository.NewCandidateRepository(pg.GetDB(), log)

	// The submit path reads jobs uncached: a PAUSED/CLOSED job must stop
	// accepting applications immediately, not after the cache TTL. Only the
	// public form view goes through the cache.
	pipeline := intake.NewPipeline(jobs, candidates, documents, scorer, dispatcher, obs, intake.Config{
		ExtractionTimeout: time.Duration(cfg.Intake.ExtractionTimeout) * time.Millisecond,
		ScoringTimeout:    time.Duration(cfg.Intake.ScoringTimeout) * time.Millisecond,
	}, log)

	statusWorkflow := workflow.NewService(candidates, dispatcher, obs, workflow.Config{
		NotifyTimeout: time.Duration(cfg.Notifications.Email.Timeout) * time.Millisecond,
	}, log)

	interviews := interview.NewService(candidates, documents, scorer, dispatcher, log)

	// --- HTTP server ---
	serverConfig := api.Config{
		Address:      cfg.Server.Address,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
		MetricsPath:  cfg.Server.MetricsPath,
		ScopeHeader:  cfg.Server.ScopedHeader,
	}
	handler := api.NewHandler(forms, pipeline, statusWorkflow, interviews, serverConfig, log)
	server := api.NewServer(serverConfig, handler, log)

	go func() {
		if err := server.Listen(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown on signal ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	if err := server.Shutdown(); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
