package bootstrap

import (
	"context"
	"fmt"

	"peoples-bill-be/internal/config"
	"peoples-bill-be/internal/pkg/lock"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/memory"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/service"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/cluster"
	"peoples-bill-be/pkg/drafter"
	"peoples-bill-be/pkg/embedding"
	"peoples-bill-be/pkg/embedding/jina"
	"peoples-bill-be/pkg/events"
	"peoples-bill-be/pkg/llm/factory"
)

const runLockKey = "peoples-bill:clustering:run"

// Pipeline holds the services shared by the HTTP server and billctl.
type Pipeline struct {
	UowFactory unitofwork.RepositoryFactory
	Embedder   embedding.EmbeddingProvider
	Metrics    *tracer.Metrics
	Events     events.Publisher

	Clustering service.IClusteringService
	Clauses    service.IClauseService
	Votes      service.IVoteService
	Stats      service.IStatsService
	Clusters   service.IClusterService
	Auth       service.IAuthService
}

// PipelineDeps are the infrastructure pieces a caller may already own.
// Nil fields get process-local defaults.
type PipelineDeps struct {
	RunLock lock.RunLock
	Events  events.Publisher
}

func NewPipeline(ctx context.Context, cfg *config.Config, uowFactory unitofwork.RepositoryFactory, deps PipelineDeps, log logger.ILogger) (*Pipeline, error) {
	embedder, err := NewEmbeddingProvider(cfg.Ai)
	if err != nil {
		return nil, err
	}
	log.Info("BOOTSTRAP", "Embedding provider ready", map[string]interface{}{
		"provider":      cfg.Ai.EmbeddingProvider,
		"model_version": embedder.ModelVersion(),
	})

	clauseDrafter, err := NewDrafter(ctx, cfg.Ai)
	if err != nil {
		return nil, err
	}
	log.Info("BOOTSTRAP", "Clause drafter ready", map[string]interface{}{"version": clauseDrafter.Version()})

	metrics, err := tracer.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	runLock := deps.RunLock
	if runLock == nil {
		runLock = lock.NewLocal()
	}
	publisher := deps.Events
	if publisher == nil {
		publisher = events.NopPublisher()
	}

	opts := service.ClusteringOptions{
		Engine: cluster.Options{
			MergeThreshold:  cfg.Clustering.MergeThreshold,
			FloorThreshold:  cfg.Clustering.FloorThreshold,
			AttachThreshold: cfg.Clustering.AttachThreshold,
			MinEligible:     cfg.Clustering.MinEligible,
			MinClusterSize:  cfg.Clustering.MinClusterSize,
		},
		EmbedWorkers: cfg.Ai.EmbeddingWorkers,
	}

	return &Pipeline{
		UowFactory: uowFactory,
		Embedder:   embedder,
		Metrics:    metrics,
		Events:     publisher,
		Clustering: service.NewClusteringService(uowFactory, embedder, opts, runLock, publisher, metrics, log),
		Clauses:    service.NewClauseService(uowFactory, clauseDrafter, publisher, metrics, log),
		Votes:      service.NewVoteService(uowFactory, publisher, metrics, log),
		Stats:      service.NewStatsService(uowFactory, memory.NewStatsCache(cfg.Stats.CacheTTL), log),
		Clusters:   service.NewClusterService(uowFactory),
		Auth:       service.NewAuthService(uowFactory, cfg.App.JWTSecret, cfg.App.JWTExpiry, log),
	}, nil
}

// NewEmbeddingProvider selects the embedding backend. Remote backends are
// wrapped with retries and a dimension check.
func NewEmbeddingProvider(cfg config.AIConfig) (embedding.EmbeddingProvider, error) {
	var inner embedding.EmbeddingProvider
	switch cfg.EmbeddingProvider {
	case "", "hashing":
		return embedding.NewHashingProvider(cfg.EmbeddingDimensions), nil
	case "ollama":
		inner = embedding.NewOllamaProvider(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	case "gemini":
		inner = embedding.NewGeminiProvider(cfg.GeminiAPIKey)
	case "jina":
		inner = jina.NewJinaProvider(cfg.JinaAPIKey, jina.WithDimensions(cfg.EmbeddingDimensions))
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}

	retry := embedding.DefaultRetryConfig()
	retry.MaxAttempts = cfg.EmbeddingRetries
	retry.Dims = cfg.EmbeddingDimensions
	return embedding.NewRetryingProvider(inner, cfg.EmbeddingProvider, retry), nil
}

func NewDrafter(ctx context.Context, cfg config.AIConfig) (drafter.Drafter, error) {
	switch cfg.DrafterMode {
	case "", drafter.MethodTemplate:
		return drafter.NewTemplateDrafter(), nil
	case drafter.MethodGenerative:
		apiKey := cfg.HuggingFaceAPIKey
		if cfg.LLMProvider == "gemini" {
			apiKey = cfg.GeminiAPIKey
		}
		provider, err := factory.NewLLMProvider(ctx, factory.Config{
			Provider: cfg.LLMProvider,
			Model:    cfg.LLMModel,
			BaseURL:  cfg.LLMBaseURL,
			APIKey:   apiKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init llm provider: %w", err)
		}
		gen := drafter.DefaultGenerativeConfig(cfg.LLMModel)
		gen.Timeout = cfg.GenerationTimeout
		gen.Concurrency = int64(cfg.GenerationWorkers)
		gen.RatePerMinute = int(cfg.GenerationPerMinute)
		return drafter.NewGenerativeDrafter(provider, gen), nil
	default:
		return nil, fmt.Errorf("unsupported drafter mode: %s", cfg.DrafterMode)
	}
}
