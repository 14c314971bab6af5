package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/futig/joke-flows/internal/pkg/retry"
)

// Vector store backends
const (
	VectorStoreLocal    = "local"
	VectorStorePostgres = "postgres"
)

// Auth policies for the flow entry points
const (
	AuthPolicyNone  = "none"
	AuthPolicyToken = "token"
	AuthPolicyJWT   = "jwt"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":3400"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration: replaces the model, embedder and joke API
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// External service configurations
	OpenAICfg OpenAIConfig `envPrefix:"OPENAI_"`
	JokeCfg   JokeConfig   `envPrefix:"JOKE_"`

	// Vector index storage
	VectorStore   string `env:"VECTOR_STORE" envDefault:"local"`
	LocalStoreDir string `env:"LOCAL_STORE_DIR" envDefault:".flows/indexes"`

	// Database configuration (VECTOR_STORE=postgres)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Flow configuration
	PromptDir     string           `env:"PROMPT_DIR" envDefault:"prompts"`
	IndexName     string           `env:"INDEX_NAME" envDefault:"jokes"`
	IngestRoot    string           `env:"INGEST_ROOT"`
	MaxToolRounds int              `env:"MAX_TOOL_ROUNDS" envDefault:"5"`
	ChunkCfg      ChunkConfig      `envPrefix:"CHUNK_"`
	EmbedCacheCfg EmbedCacheConfig `envPrefix:"EMBED_CACHE_"`

	// Auth policy for HTTP flow endpoints
	AuthCfg AuthConfig `envPrefix:"AUTH_"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

type OpenAIConfig struct {
	APIKey         string        `env:"API_KEY"`
	BaseURL        string        `env:"BASE_URL"`
	Model          string        `env:"MODEL" envDefault:"gpt-4o"`
	EmbeddingModel string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	Temperature    float32       `env:"TEMPERATURE" envDefault:"1"`
	RequestTimeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

type JokeConfig struct {
	HTTPClientConfig
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"15s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"https://v2.jokeapi.dev"`
}

// ChunkConfig mirrors the chunking settings of the ingestion pipeline
type ChunkConfig struct {
	MinLength  int    `env:"MIN_LENGTH" envDefault:"1000"`
	MaxLength  int    `env:"MAX_LENGTH" envDefault:"2000"`
	Overlap    int    `env:"OVERLAP" envDefault:"100"`
	Splitter   string `env:"SPLITTER" envDefault:"paragrapah"`
	Delimiters string `env:"DELIMITERS" envDefault:""`
}

type EmbedCacheConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"1h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

type AuthConfig struct {
	Policy    string `env:"POLICY" envDefault:"none"`
	Token     string `env:"TOKEN"`
	JWTSecret string `env:"JWT_SECRET"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string               `env:"BOT_TOKEN"`
	Flow               string               `env:"FLOW" envDefault:"myFlow"`
	UpdateTimeout      int                  `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int                  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int                  `env:"RATE_LIMIT_BURST" envDefault:"3"`
	ShutdownTimeout    int                  `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	Retry              pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// LoadConfig loads .env.<environment> if present and parses the environment
func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	_ = godotenv.Load(envFile)

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	cfg.Environment = environment
	return cfg, nil
}

// Parse reads and validates the configuration from the process environment
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if !cfg.EnableMocks && cfg.OpenAICfg.APIKey == "" {
		errors = append(errors, "OPENAI_API_KEY is required unless ENABLE_MOCKS=true")
	}

	if cfg.OpenAICfg.Temperature < 0 || cfg.OpenAICfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("OPENAI_TEMPERATURE must be between 0 and 2, got %v", cfg.OpenAICfg.Temperature))
	}

	switch cfg.VectorStore {
	case VectorStoreLocal:
		if cfg.LocalStoreDir == "" {
			errors = append(errors, "LOCAL_STORE_DIR is required for the local vector store")
		}
	case VectorStorePostgres:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required for the postgres vector store")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	default:
		errors = append(errors, fmt.Sprintf("VECTOR_STORE must be %q or %q, got %q", VectorStoreLocal, VectorStorePostgres, cfg.VectorStore))
	}

	if cfg.MaxToolRounds < 1 || cfg.MaxToolRounds > 20 {
		errors = append(errors, fmt.Sprintf("MAX_TOOL_ROUNDS must be between 1 and 20, got %d", cfg.MaxToolRounds))
	}

	switch cfg.AuthCfg.Policy {
	case AuthPolicyNone:
	case AuthPolicyToken:
		if cfg.AuthCfg.Token == "" {
			errors = append(errors, "AUTH_TOKEN is required for the token auth policy")
		}
	case AuthPolicyJWT:
		if cfg.AuthCfg.JWTSecret == "" {
			errors = append(errors, "AUTH_JWT_SECRET is required for the jwt auth policy")
		}
	default:
		errors = append(errors, fmt.Sprintf("AUTH_POLICY must be none, token or jwt, got %q", cfg.AuthCfg.Policy))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
