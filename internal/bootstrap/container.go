package bootstrap

import (
	"context"
	"log"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/internal/controller"
	"doc-intelligence-be/internal/handler"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/cache"
	"doc-intelligence-be/internal/repository/memory"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/internal/service"
	"doc-intelligence-be/internal/websocket"
	"doc-intelligence-be/pkg/embedding"
	"doc-intelligence-be/pkg/events"
	"doc-intelligence-be/pkg/parser"
	"doc-intelligence-be/pkg/rag/retriever"

	pktNats "doc-intelligence-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ProjectController   controller.IProjectController
	DocumentController  controller.IDocumentController
	EmbeddingController controller.IEmbeddingController

	// Background Services (Exposed for main.go to run)
	ConsumerService      service.IConsumerService
	PipelineEventService *service.PipelineEventService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub

	Logger            logger.ILogger
	StorageDriver     string
	EmbeddingProvider string

	closers []func()
}

// NewContainer wires every component. db may be nil when cfg selects the
// in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger

	var uowFactory unitofwork.RepositoryFactory
	if db == nil || cfg.Database.Driver == "memory" {
		log.Printf("[INFO] Using in-memory storage")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
		c.StorageDriver = "memory"
	} else {
		uowFactory = unitofwork.NewRepositoryFactory(db)
		c.StorageDriver = "postgres"
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 2.5 Infrastructure
	var eventPublisher events.Publisher = events.NopPublisher{}
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	rdb := newRedisClient(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// 3. Embedding
	embeddingOpts := []embedding.Option{embedding.WithLogger(sysLogger)}
	switch cfg.Embedding.CacheBackend {
	case "redis":
		if rdb != nil {
			embeddingOpts = append(embeddingOpts, embedding.WithCache(cache.NewRedisEmbeddingCache(rdb, cfg.Embedding.CacheTTL, sysLogger)))
		} else {
			log.Printf("[WARN] EMBEDDING_CACHE=redis but Redis is unavailable, falling back to memory cache")
			embeddingOpts = append(embeddingOpts, embedding.WithCache(cache.NewMemoryEmbeddingCache(cfg.Embedding.CacheTTL)))
		}
	case "memory":
		embeddingOpts = append(embeddingOpts, embedding.WithCache(cache.NewMemoryEmbeddingCache(cfg.Embedding.CacheTTL)))
	}

	embeddingService := embedding.NewService(embedding.Config{
		Provider:      cfg.Embedding.Provider,
		APIKey:        cfg.Embedding.APIKey,
		BaseURL:       cfg.Embedding.BaseURL,
		Model:         cfg.Embedding.Model,
		Dimension:     cfg.Embedding.Dimension,
		AllowFallback: cfg.Embedding.AllowFallback,
		Timeout:       cfg.Embedding.Timeout,
	}, embeddingOpts...)

	// A bad provider configuration is reported here and again on every
	// embedding request.
	if err := embeddingService.Initialize(context.Background()); err != nil {
		log.Printf("[WARN] Embedding provider not ready: %v", err)
	} else {
		log.Printf("[INFO] Using Embedding Provider: %s", embeddingService.ProviderName())
	}
	c.EmbeddingProvider = embeddingService.ProviderName()

	var sidecar *embedding.SidecarWriter
	if cfg.Storage.SidecarDir != "" {
		sidecar = embedding.NewSidecarWriter(cfg.Storage.SidecarDir)
		log.Printf("[INFO] Mirroring embeddings to %s", cfg.Storage.SidecarDir)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	wsHub := websocket.NewHub(rdb, cfg.App.InstanceID, wsLogger)
	c.WebSocketHub = wsHub

	// 4. Services
	parsers := parser.DefaultRegistry()

	publisherService := service.NewPublisherService(cfg.Batch.JobTopic, pubSub)

	projectService := service.NewProjectService(uowFactory, eventPublisher, sidecar, cfg.Storage.UploadDir, sysLogger)
	documentService := service.NewDocumentService(uowFactory, parsers, eventPublisher, sidecar, cfg.Storage, sysLogger)
	ingestionService := service.NewIngestionService(uowFactory, parsers, eventPublisher, sidecar, cfg.Chunking, cfg.Storage.ParseTimeout, sysLogger)
	embeddingBatchService := service.NewEmbeddingService(
		uowFactory,
		embeddingService,
		publisherService,
		eventPublisher,
		wsHub,
		sidecar,
		cfg.Batch,
		sysLogger,
	)

	rag := retriever.New(embeddingService, uowFactory,
		retriever.WithBackend(retriever.Backend(cfg.Retrieval.Backend)),
		retriever.WithLogger(sysLogger),
	)
	searchService := service.NewSearchService(uowFactory, rag, cfg.Retrieval.TopK, cfg.Retrieval.MinSimilarity)

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Batch.JobTopic, embeddingBatchService, sysLogger)
	if natsSub != nil {
		c.PipelineEventService = service.NewPipelineEventService(natsSub, wsHub, embeddingBatchService, cfg.Batch.AutoEmbed, wsLogger)
	} else if cfg.Batch.AutoEmbed {
		log.Printf("[WARN] AUTO_EMBED needs NATS_URL; automatic embedding is disabled")
	}

	// 5. Controllers
	c.ProjectController = controller.NewProjectController(projectService, ingestionService)
	c.DocumentController = controller.NewDocumentController(documentService)
	c.EmbeddingController = controller.NewEmbeddingController(embeddingBatchService, searchService)
	c.ProgressHandler = handler.NewProgressHandler(uowFactory, wsHub, wsLogger)

	return c
}

// Close releases broker and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}
