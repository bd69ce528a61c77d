// Package embedding turns text into fixed-length unit vectors and provides
// the similarity primitive used at retrieval time.
package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/pkg/apperror"
)

const (
	DefaultDimension = 1536
	DefaultTimeout   = 12 * time.Second

	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderFallback = "fallback"
)

type Config struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	AllowFallback bool
	Timeout       time.Duration
}

// Service is the process-wide embedding entry point. Construct it once in
// the bootstrap container and share it.
type Service struct {
	cfg      Config
	provider Provider
	cache    Cache
	logger   logger.ILogger

	initOnce sync.Once
	initErr  error
	// initDone is set once initOnce has finished writing provider.
	initDone atomic.Bool
}

type Option func(*Service)

// WithProvider bypasses provider selection from Config.
func WithProvider(p Provider) Option {
	return func(s *Service) { s.provider = p }
}

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l logger.ILogger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(cfg Config, opts ...Option) *Service {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNopLogger()
	}
	return s
}

// Initialize selects and validates the provider. Only the first call has
// effect; later calls return the first result.
func (s *Service) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.initialize(ctx)
		s.initDone.Store(true)
	})
	return s.initErr
}

func (s *Service) initialize(_ context.Context) error {
	if s.provider != nil {
		s.logger.Info("Embedding", "Using injected embedding provider", map[string]interface{}{"provider": s.provider.Name()})
		return nil
	}

	if err := s.checkDimension(); err != nil {
		return err
	}

	provider, err := s.newProvider()
	if err != nil {
		if !s.cfg.AllowFallback {
			return err
		}
		s.logger.Warn("Embedding", "Provider unavailable, using deterministic fallback", map[string]interface{}{
			"provider": s.cfg.Provider,
			"error":    err.Error(),
		})
		provider = NewFallbackProvider(s.cfg.Dimension)
	}

	s.provider = provider
	s.logger.Info("Embedding", "Embedding provider initialized", map[string]interface{}{
		"provider":  provider.Name(),
		"dimension": s.cfg.Dimension,
	})
	return nil
}

// checkDimension rejects provider setups that can never produce vectors of
// the configured width. It is not eligible for fallback.
func (s *Service) checkDimension() error {
	if s.cfg.Provider != ProviderOllama {
		return nil
	}
	dim, ok := OllamaModelDimension(s.cfg.Model)
	if ok && dim != s.cfg.Dimension {
		model := s.cfg.Model
		if model == "" {
			model = DefaultOllamaModel
		}
		return apperror.Configuration("ollama model %q produces %d dimensions but EMBEDDING_DIMENSION is %d", model, dim, s.cfg.Dimension)
	}
	return nil
}

func (s *Service) newProvider() (Provider, error) {
	switch s.cfg.Provider {
	case ProviderOpenAI:
		if s.cfg.APIKey == "" {
			return nil, apperror.Configuration("EMBEDDING_API_KEY is required for provider %q", s.cfg.Provider)
		}
		return NewOpenAIProvider(s.cfg.APIKey, s.cfg.BaseURL, s.cfg.Model, s.cfg.Dimension), nil
	case ProviderGemini:
		if s.cfg.APIKey == "" {
			return nil, apperror.Configuration("EMBEDDING_API_KEY is required for provider %q", s.cfg.Provider)
		}
		return NewGeminiProvider(s.cfg.APIKey, s.cfg.Model, s.cfg.Dimension), nil
	case ProviderOllama:
		return NewOllamaProvider(s.cfg.BaseURL, s.cfg.Model), nil
	case ProviderFallback, "":
		return NewFallbackProvider(s.cfg.Dimension), nil
	default:
		return nil, apperror.Configuration("unknown embedding provider %q", s.cfg.Provider)
	}
}

func (s *Service) Dimension() int {
	return s.cfg.Dimension
}

// ProviderName reports the active provider, or "" until Initialize has
// finished. It is safe to call while another goroutine initializes.
func (s *Service) ProviderName() string {
	if !s.initDone.Load() || s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateEmbedding embeds document text.
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.generate(ctx, text, TaskRetrievalDocument)
}

// GenerateQueryEmbedding embeds a search query.
func (s *Service) GenerateQueryEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.generate(ctx, text, TaskRetrievalQuery)
}

func (s *Service) generate(ctx context.Context, text string, taskType TaskType) ([]float32, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	key := CacheKey(s.provider.Name(), taskType, text)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok && len(cached) == s.cfg.Dimension {
			return cached, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	values, err := s.provider.Embed(callCtx, text, taskType)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, apperror.Wrap(apperror.KindDeadlineExceeded, context.DeadlineExceeded, "%s embedding timed out after %s", s.provider.Name(), s.cfg.Timeout)
		}
		return nil, apperror.FromContext(err, apperror.KindEmbeddingProvider, "%s embedding failed", s.provider.Name())
	}

	if len(values) != s.cfg.Dimension {
		return nil, apperror.New(apperror.KindDimensionMismatch, "%s returned %d dimensions, expected %d", s.provider.Name(), len(values), s.cfg.Dimension)
	}
	if magnitude(values) == 0 {
		return nil, apperror.New(apperror.KindEmbeddingProvider, "%s returned a zero vector", s.provider.Name())
	}

	normalized := normalizeVector(values)
	if s.cache != nil {
		s.cache.Set(ctx, key, normalized)
	}
	return normalized, nil
}
