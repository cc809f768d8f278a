package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prohmpiriya/ringside/internal/reservation"
	"github.com/prohmpiriya/ringside/internal/worker"
	"github.com/prohmpiriya/ringside/pkg/config"
	"github.com/prohmpiriya/ringside/pkg/logger"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: "hold-release-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Hold Release Worker...")

	if !cfg.Redis.Enabled || !cfg.Reservation.Enabled {
		appLog.Fatal("Hold release worker requires REDIS_ENABLED and RESERVATION_ENABLED")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      10,
		MinIdleConns:  2,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	reserver := reservation.NewRedisReserver(redisClient)
	if err := reserver.LoadScripts(ctx); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to pre-load Lua scripts: %v", err))
	} else {
		appLog.Info("Lua scripts pre-loaded into Redis")
	}

	releaseWorker := worker.NewHoldReleaseWorker(reserver, &worker.HoldReleaseWorkerConfig{
		ScanInterval: cfg.Reservation.ReleaseInterval,
		BatchSize:    cfg.Reservation.ReleaseBatch,
	})
	if err := releaseWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start worker: %v", err))
	}

	appLog.Info("Hold Release Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	releaseWorker.Stop()
	cancel()

	stats := releaseWorker.GetStats()
	appLog.Info(fmt.Sprintf("Worker exited gracefully (released %d holds)", stats.TotalReleased))
}
