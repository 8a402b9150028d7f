package bootstrap

import (
	"context"
	"fmt"

	"peoples-bill-be/internal/config"
	"peoples-bill-be/internal/controller"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/handler"
	"peoples-bill-be/internal/pkg/lock"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/pkg/serverutils"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/service"
	"peoples-bill-be/internal/websocket"
	"peoples-bill-be/pkg/events"
	pktNats "peoples-bill-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const embedTopic = "submissions.embed"

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	SubmissionController controller.ISubmissionController
	ClusterController    controller.IClusterController
	BillController       controller.IBillController
	VoteController       controller.IVoteController
	StatsController      controller.IStatsController
	AdminMiddleware      fiber.Handler
	PublicLimiter        *serverutils.VisitorLimiter

	// Background services, started by cmd/rest
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets
	BillSocketHandler *handler.BillSocketHandler
	WebSocketHub      *websocket.Hub

	Pipeline *Pipeline
	Logger   logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// Embedding job queue
	queue := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = queue.Close() })

	// Redis: run lock across instances and websocket fan-out
	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb = redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Redis unavailable, running single-instance", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var runLock lock.RunLock = lock.NewLocal()
	if cfg.Clustering.DistributedLock {
		if rdb == nil {
			return nil, fmt.Errorf("distributed clustering lock requires Redis")
		}
		runLock = lock.NewRedis(rdb, runLockKey, cfg.Clustering.LockTTL)
	}

	// NATS: domain events
	var publisher events.Publisher = events.NopPublisher()
	natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "NATS publisher unavailable, events are dropped", map[string]interface{}{"error": err.Error()})
	} else {
		publisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	pipeline, err := NewPipeline(ctx, cfg, uowFactory, PipelineDeps{RunLock: runLock, Events: publisher}, sysLogger)
	if err != nil {
		return nil, err
	}
	c.Pipeline = pipeline

	submissions := service.NewSubmissionService(uowFactory, queue, embedTopic, publisher, pipeline.Metrics, sysLogger)
	c.ConsumerService = service.NewConsumerService(queue, embedTopic, uowFactory, pipeline.Embedder, pipeline.Clustering, pipeline.Metrics, sysLogger)

	// Live updates
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.BillSocketHandler = handler.NewBillSocketHandler(c.WebSocketHub, wsLogger)

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, wsLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "NATS subscriber unavailable, live updates disabled", map[string]interface{}{"error": err.Error()})
	} else {
		c.NotificationService = service.NewNotificationService(natsSub, c.WebSocketHub, wsLogger)
		c.closers = append(c.closers, natsSub.Close)
	}

	c.PublicLimiter = serverutils.NewVisitorLimiter(cfg.App.PublicRatePerMinute, cfg.App.PublicRateBurst)
	c.AdminMiddleware = serverutils.JwtMiddleware(cfg.App.JWTSecret, string(entity.AdminRoleAdmin), string(entity.AdminRoleModerator))
	c.AuthController = controller.NewAuthController(pipeline.Auth)
	c.SubmissionController = controller.NewSubmissionController(submissions)
	c.ClusterController = controller.NewClusterController(pipeline.Clusters, pipeline.Clustering)
	c.BillController = controller.NewBillController(pipeline.Clauses)
	c.VoteController = controller.NewVoteController(pipeline.Votes)
	c.StatsController = controller.NewStatsController(pipeline.Stats, cfg.Stats.CacheTTL)

	return c, nil
}

// Start launches the background workers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	go c.PublicLimiter.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start embedding consumer: %w", err)
	}
	if c.NotificationService != nil {
		if err := c.NotificationService.Start(ctx); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Live update relay not started", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
