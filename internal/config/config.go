package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/chunker"
	"doc-intelligence-be/pkg/embedding"
	"doc-intelligence-be/pkg/rag/retriever"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Chunking  ChunkingConfig
	Retrieval RetrievalConfig
	Batch     BatchConfig
	Storage   StorageConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	HubLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InstanceID         string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type EmbeddingConfig struct {
	Provider      string // "openai", "gemini", "ollama" or "fallback"
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	AllowFallback bool
	Timeout       time.Duration
	CacheBackend  string // "memory", "redis" or "none"
	CacheTTL      time.Duration
}

type ChunkingConfig struct {
	ChunkSize int
	Overlap   int
}

type RetrievalConfig struct {
	TopK          int
	MinSimilarity float64
	Backend       string // "scan" or "pgvector"
}

type BatchConfig struct {
	Size      int
	Delay     time.Duration
	JobTopic  string
	AutoEmbed bool // enqueue embedding when a project finishes ingestion
}

type StorageConfig struct {
	UploadDir     string
	SidecarDir    string // empty disables the JSON mirror
	MaxUploadSize int
	ParseTimeout  time.Duration
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// Validate rejects settings the pipeline cannot run with. The postgres
// vector column has a fixed width, so the embedding dimension must match it.
func (c *Config) Validate() error {
	if err := (chunker.Config{ChunkSize: c.Chunking.ChunkSize, Overlap: c.Chunking.Overlap}).Validate(); err != nil {
		return err
	}
	if c.Embedding.Dimension <= 0 {
		return apperror.Configuration("EMBEDDING_DIMENSION must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Database.Driver != "memory" && c.Embedding.Dimension != embedding.DefaultDimension {
		return apperror.Configuration("EMBEDDING_DIMENSION must be %d with the postgres store, got %d", embedding.DefaultDimension, c.Embedding.Dimension)
	}
	topK, minSimilarity := c.Retrieval.TopK, c.Retrieval.MinSimilarity
	if _, _, err := retriever.NormalizeParams(&topK, &minSimilarity); err != nil {
		return apperror.Wrap(apperror.KindConfiguration, err, "invalid retrieval defaults")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	hostname, _ := os.Hostname()

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			HubLogFilePath:     getEnv("HUB_LOG_FILE_PATH", "logs/hub.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			InstanceID:         getEnv("INSTANCE_ID", hostname),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORAGE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:      getEnv("EMBEDDING_PROVIDER", "openai"),
			APIKey:        getEnv("EMBEDDING_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:       getEnv("EMBEDDING_BASE_URL", ""),
			Model:         getEnv("EMBEDDING_MODEL", ""),
			Dimension:     getEnvAsInt("EMBEDDING_DIMENSION", 1536),
			AllowFallback: getEnvAsBool("EMBEDDING_ALLOW_FALLBACK", false),
			Timeout:       getEnvAsDuration("EMBEDDING_TIMEOUT", 12*time.Second),
			CacheBackend:  getEnv("EMBEDDING_CACHE", "memory"),
			CacheTTL:      getEnvAsDuration("EMBEDDING_CACHE_TTL", time.Hour),
		},
		Chunking: ChunkingConfig{
			ChunkSize: getEnvAsInt("CHUNK_SIZE", 1000),
			Overlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 8),
			MinSimilarity: getEnvAsFloat("RETRIEVAL_MIN_SIMILARITY", 0.3),
			Backend:       getEnv("RETRIEVAL_BACKEND", "scan"),
		},
		Batch: BatchConfig{
			Size:      getEnvAsInt("EMBEDDING_BATCH_SIZE", 5),
			Delay:     getEnvAsDuration("EMBEDDING_BATCH_DELAY", 100*time.Millisecond),
			JobTopic:  getEnv("EMBED_PROJECT_TOPIC_NAME", "EMBED_PROJECT"),
			AutoEmbed: getEnvAsBool("AUTO_EMBED", false),
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			SidecarDir:    getEnv("EMBEDDING_SIDECAR_DIR", ""),
			MaxUploadSize: getEnvAsInt("MAX_UPLOAD_SIZE", 50*1024*1024),
			ParseTimeout:  getEnvAsDuration("PARSE_TIMEOUT", 60*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "doc-intelligence-be"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("250ms") or plain milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
