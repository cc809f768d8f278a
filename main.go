package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/ringside/internal/di"
	"github.com/prohmpiriya/ringside/internal/handler"
	"github.com/prohmpiriya/ringside/internal/publisher"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/internal/reservation"
	"github.com/prohmpiriya/ringside/internal/service"
	"github.com/prohmpiriya/ringside/pkg/config"
	"github.com/prohmpiriya/ringside/pkg/database"
	"github.com/prohmpiriya/ringside/pkg/logger"
	"github.com/prohmpiriya/ringside/pkg/middleware"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
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
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Ringside API...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry disabled: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database connection
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		dbCfg := &database.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectTimeout:  5 * time.Second,
			MaxRetries:      3,
			RetryInterval:   time.Second,
			EnableTracing:   cfg.OTel.Enabled,
		}
		db, err = database.NewPostgres(ctx, dbCfg)
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
		}
		defer db.Close()

		if err := db.Migrate(ctx, repository.Schema...); err != nil {
			appLog.Fatal(fmt.Sprintf("Database migration failed: %v", err))
		}
		appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))
	} else {
		appLog.Warn("Database disabled, events and orders are kept in memory")
	}

	// Initialize Redis connection
	var redisClient *pkgredis.Client
	var redisReserver *reservation.RedisReserver
	if cfg.Redis.Enabled {
		redisCfg := &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: 100 * time.Millisecond,
		}
		redisClient, err = pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
		}
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (pool: %d, minIdle: %d)", redisCfg.PoolSize, redisCfg.MinIdleConns))

		if cfg.Reservation.Enabled {
			redisReserver = reservation.NewRedisReserver(redisClient)
			if err := redisReserver.LoadScripts(ctx); err != nil {
				appLog.Warn(fmt.Sprintf("Failed to pre-load Lua scripts: %v", err))
			} else {
				appLog.Info("Lua scripts pre-loaded into Redis")
			}
		}
	} else {
		appLog.Warn("Redis disabled, drafts, holds and idempotency keys are kept in memory")
	}

	// Initialize Kafka order publisher
	var orderPublisher publisher.OrderPublisher = publisher.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := publisher.NewKafkaOrderPublisher(ctx, &publisher.Config{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.OrderTopic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			orderPublisher = kafkaPublisher
			appLog.Info("Kafka order publisher connected")
		}
	}
	defer orderPublisher.Close()

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:                   db,
		Redis:                redisClient,
		Publisher:            orderPublisher,
		RedisReserver:        redisReserver,
		EnableHolds:          cfg.Reservation.Enabled,
		HoldTTL:              cfg.Reservation.HoldTTL,
		HoldReleaseInterval:  cfg.Reservation.ReleaseInterval,
		HoldReleaseBatchSize: cfg.Reservation.ReleaseBatch,
		EventCacheTTL:        cfg.Redis.EventCacheTTL,
		DraftTTL:             cfg.Draft.TTL,
		Retry:                service.DefaultRetryConfig(),
	})

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if container.ReleaseWorker != nil {
		if err := container.ReleaseWorker.Start(workerCtx); err != nil {
			appLog.Fatal(fmt.Sprintf("Failed to start hold release worker: %v", err))
		}
		defer container.ReleaseWorker.Stop()
	}

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware())

	handler.RegisterRoutes(router,
		handler.RouterConfig{
			JWT: middleware.JWTConfig{
				Secret: cfg.JWT.Secret,
				Issuer: cfg.JWT.Issuer,
			},
			Idempotency: middleware.IdempotencyConfig{Store: container.IdempotencyStore},
		},
		container.HealthHandler,
		container.OrganizerHandler,
		container.PurchaseHandler,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Ringside API listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
