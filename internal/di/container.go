package di

import (
	"time"

	"github.com/prohmpiriya/ringside/internal/handler"
	"github.com/prohmpiriya/ringside/internal/publisher"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/internal/reservation"
	"github.com/prohmpiriya/ringside/internal/service"
	"github.com/prohmpiriya/ringside/internal/worker"
	"github.com/prohmpiriya/ringside/pkg/database"
	"github.com/prohmpiriya/ringside/pkg/middleware"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
	"github.com/prohmpiriya/ringside/pkg/retry"
)

// Container holds all dependencies of the API server
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *pkgredis.Client

	// Repositories
	EventRepo  repository.EventRepository
	OrderRepo  repository.OrderRepository
	DraftStore repository.DraftStore

	Reserver         reservation.Reserver
	Publisher        publisher.OrderPublisher
	IdempotencyStore middleware.IdempotencyStore

	// ReleaseWorker is set when holds live in process memory and must be
	// expired by this process. Redis holds are expired by cmd/hold-release-worker.
	ReleaseWorker *worker.HoldReleaseWorker

	// Services
	OrganizerService service.OrganizerService
	PurchaseService  service.PurchaseService
	ResultService    service.ResultService

	// Handlers
	HealthHandler    *handler.HealthHandler
	OrganizerHandler *handler.OrganizerHandler
	PurchaseHandler  *handler.PurchaseHandler
}

// ContainerConfig contains configuration for building the container.
// A nil DB or Redis falls back to in-memory implementations.
type ContainerConfig struct {
	DB        *database.PostgresDB
	Redis     *pkgredis.Client
	Publisher publisher.OrderPublisher

	// RedisReserver must have its scripts loaded by the caller
	RedisReserver *reservation.RedisReserver

	EnableHolds          bool
	HoldTTL              time.Duration
	HoldReleaseInterval  time.Duration
	HoldReleaseBatchSize int
	EventCacheTTL        time.Duration
	DraftTTL             time.Duration
	Retry                *retry.Config
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Publisher: cfg.Publisher,
	}
	if c.Publisher == nil {
		c.Publisher = publisher.NoopPublisher{}
	}

	// Repositories
	if c.DB != nil {
		c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
		c.OrderRepo = repository.NewPostgresOrderRepository(c.DB.Pool())
	} else {
		c.EventRepo = repository.NewMemoryEventRepository()
		c.OrderRepo = repository.NewMemoryOrderRepository()
	}

	if c.Redis != nil {
		c.EventRepo = repository.NewCachedEventRepository(c.EventRepo, c.Redis, cfg.EventCacheTTL)
		c.DraftStore = repository.NewRedisDraftStore(c.Redis, cfg.DraftTTL)
		c.IdempotencyStore = middleware.NewRedisIdempotencyStore(c.Redis)
	} else {
		c.DraftStore = repository.NewMemoryDraftStore()
		c.IdempotencyStore = middleware.NewMemoryIdempotencyStore()
	}

	// Seat holds
	if cfg.EnableHolds {
		if cfg.RedisReserver != nil {
			c.Reserver = cfg.RedisReserver
		} else {
			memReserver := reservation.NewMemoryReserver()
			c.Reserver = memReserver
			c.ReleaseWorker = worker.NewHoldReleaseWorker(memReserver, &worker.HoldReleaseWorkerConfig{
				ScanInterval: cfg.HoldReleaseInterval,
				BatchSize:    cfg.HoldReleaseBatchSize,
			})
		}
	}

	// Services
	c.OrganizerService = service.NewOrganizerService(c.DraftStore, c.EventRepo, &service.OrganizerServiceConfig{
		Retry: cfg.Retry,
	})
	c.PurchaseService = service.NewPurchaseService(c.EventRepo, c.OrderRepo, c.Reserver, c.Publisher, &service.PurchaseServiceConfig{
		HoldTTL: cfg.HoldTTL,
		Retry:   cfg.Retry,
	})
	c.ResultService = service.NewResultService(c.EventRepo)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler()
	if c.DB != nil {
		c.HealthHandler.WithComponent("database", c.DB)
	}
	if c.Redis != nil {
		c.HealthHandler.WithComponent("redis", c.Redis)
	}
	c.OrganizerHandler = handler.NewOrganizerHandler(c.OrganizerService, c.ResultService)
	c.PurchaseHandler = handler.NewPurchaseHandler(c.PurchaseService)

	return c
}
