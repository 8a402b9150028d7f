package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Clustering ClusteringConfig
	Stats      StatsConfig
	Telemetry  TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	JWTExpiry          time.Duration
	AdminUsername      string
	AdminPassword      string

	// Anonymous writes (submissions, votes) allowed per IP and minute.
	PublicRatePerMinute int
	PublicRateBurst     int
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider   string // "hashing", "ollama", "gemini" or "jina"
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingDimensions int
	EmbeddingRetries    int
	EmbeddingWorkers    int

	LLMProvider string // "ollama", "gemini" or "huggingface"
	LLMModel    string
	LLMBaseURL  string

	GeminiAPIKey      string
	JinaAPIKey        string
	HuggingFaceAPIKey string

	DrafterMode         string // "template" or "generative"
	GenerationTimeout   time.Duration
	GenerationWorkers   int
	GenerationPerMinute float64
}

type ClusteringConfig struct {
	MergeThreshold  float64
	FloorThreshold  float64
	AttachThreshold float64
	MinEligible     int
	MinClusterSize  int
	LockTTL         time.Duration
	DistributedLock bool
}

type StatsConfig struct {
	CacheTTL time.Duration
}

type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			JWTExpiry:          getEnvAsDuration("JWT_EXPIRY", 12*time.Hour),
			AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:      getEnv("ADMIN_PASSWORD", ""),

			PublicRatePerMinute: getEnvAsInt("PUBLIC_RATE_PER_MINUTE", 20),
			PublicRateBurst:     getEnvAsInt("PUBLIC_RATE_BURST", 5),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "hashing"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1024),
			EmbeddingRetries:    getEnvAsInt("EMBEDDING_RETRIES", 3),
			EmbeddingWorkers:    getEnvAsInt("EMBEDDING_WORKERS", 4),

			LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:    getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", "http://localhost:11434"),

			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaAPIKey:        getEnv("JINA_API_KEY", ""),
			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),

			DrafterMode:         getEnv("DRAFTER_MODE", "template"),
			GenerationTimeout:   getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second),
			GenerationWorkers:   getEnvAsInt("GENERATION_WORKERS", 2),
			GenerationPerMinute: getEnvAsFloat("GENERATION_PER_MINUTE", 30),
		},
		Clustering: ClusteringConfig{
			MergeThreshold:  getEnvAsFloat("CLUSTER_MERGE_THRESHOLD", 0.45),
			FloorThreshold:  getEnvAsFloat("CLUSTER_FLOOR_THRESHOLD", 0.35),
			AttachThreshold: getEnvAsFloat("CLUSTER_ATTACH_THRESHOLD", 0.60),
			MinEligible:     getEnvAsInt("CLUSTER_MIN_ELIGIBLE", 3),
			MinClusterSize:  getEnvAsInt("CLUSTER_MIN_SIZE", 2),
			LockTTL:         getEnvAsDuration("CLUSTER_LOCK_TTL", 15*time.Minute),
			DistributedLock: getEnvAsBool("CLUSTER_DISTRIBUTED_LOCK", false),
		},
		Stats: StatsConfig{
			CacheTTL: getEnvAsDuration("STATS_CACHE_TTL", 5*time.Minute),
		},
		Telemetry: TelemetryConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
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
