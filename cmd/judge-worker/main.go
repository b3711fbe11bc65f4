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

	"go.uber.org/zap"

	"gavel/internal/config"
	"gavel/internal/datapack"
	"gavel/internal/executor"
	"gavel/internal/judge"
	"gavel/internal/model"
	"gavel/internal/queue"
	"gavel/internal/sandbox"
	"gavel/internal/sandbox/profile"
	"gavel/internal/storage"
	"gavel/internal/store"
	"gavel/internal/web"
	"gavel/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "judge worker failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, store.DefaultConfig(cfg.Database.DSN))
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	submissions := model.NewSubmissionsModel(db)
	problems := model.NewProblemsModel(db)

	redisCfg := queue.DefaultRedisConfig()
	redisCfg.Addr = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	jobQueue, err := queue.NewRedisQueue(redisCfg, cfg.Queue.Key)
	if err != nil {
		return err
	}
	defer func() {
		_ = jobQueue.Close()
	}()

	driver, err := sandbox.NewDockerDriver(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = driver.Close()
	}()

	exec := executor.New(driver, profile.DefaultRegistry(), cfg.Judge.WorkRoot)

	var packs *datapack.Cache
	if cfg.MinIO.Endpoint != "" {
		objectStorage, err := storage.NewMinIOStorage(storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			return err
		}
		packs = datapack.NewCache(cfg.Cache.RootDir, cfg.Cache.TTL, cfg.MinIO.Bucket, objectStorage)
	}

	processor := judge.NewProcessor(submissions, problems, exec, packs)
	consumer := judge.NewConsumer(jobQueue, processor, cfg.Queue.PopWait, cfg.Queue.Backoff)

	var httpServer *web.Server
	if cfg.HTTP.Addr != "" {
		httpServer = web.NewServer(web.Config{
			Addr:         cfg.HTTP.Addr,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}, submissions, jobQueue)
		go func() {
			logger.Info(ctx, "status server listening", zap.String("addr", cfg.HTTP.Addr))
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "status server failed", zap.Error(err))
			}
		}()
	}

	logger.Info(ctx, "judge worker starting",
		zap.String("queue", cfg.Queue.Key),
		zap.String("work_root", cfg.Judge.WorkRoot))

	_ = consumer.Run(ctx)

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "status server shutdown failed", zap.Error(err))
		}
	}

	logger.Info(context.Background(), "judge worker stopped")
	return nil
}
