// Command onegate bridges an upstream OneBot-style WebSocket to a
// Redis-backed message journal and a plugin runtime.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/config"
	"github.com/onegate/onegate/internal/journal"
	"github.com/onegate/onegate/internal/media"
	"github.com/onegate/onegate/internal/server"
)

const shutdownGrace = 15 * time.Second

func main() {
	set, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := buildLogger(set.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     set.Redis.Addr(),
		Password: set.Redis.Password,
		DB:       set.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.String("addr", set.Redis.Addr()), zap.Error(err))
	}

	pipeline, err := media.NewPipeline(set.MediaDir, set.Proxy, logger)
	if err != nil {
		logger.Fatal("media pipeline failed", zap.Error(err))
	}

	j := journal.New(rdb, pipeline, logger, journal.Options{
		QueueSize: set.JournalQueueSize,
		Consumers: set.JournalConsumers,
	})

	srv := server.New(set, j, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", zap.Error(err))
	}
	if err := j.Close(shutdownCtx); err != nil {
		logger.Warn("journal close incomplete", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close failed", zap.Error(err))
	}
	logger.Info("gateway stopped")
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	zcfg.Level = level
	return zcfg.Build()
}
