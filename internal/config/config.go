package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/sightlabs/qa-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Generation parameters
	Model           string `env:"MODEL,notEmpty"`
	MaxTokens       int    `env:"MAX_TOKENS,notEmpty"`
	ReasoningEffort string `env:"REASONING_EFFORT,notEmpty"`

	// Retrieval parameters
	EmbedModel         string `env:"EMBED_MODEL,notEmpty"`
	TopK               int    `env:"TOP_K,notEmpty"`
	MaxCharsPerContent int    `env:"MAX_CHARS_PER_CONTENT,notEmpty"`
	VectorStoreID      string `env:"VECTOR_STORE_ID,notEmpty"`

	// Instructions seeding every new conversation
	SystemInstructions string `env:"SYSTEM_INSTRUCTIONS,notEmpty"`

	// Request limits
	MaxQuestionChars int `env:"MAX_QUESTION_CHARS" envDefault:"8192"`

	// External service configurations
	SearchConnectorCfg     SearchConnectorConfig     `envPrefix:"SEARCH_"`
	GenerationConnectorCfg GenerationConnectorConfig `envPrefix:"GENERATION_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type SearchConnectorConfig struct {
	HTTPClientConfig
	SearchEndpoint string `env:"ENDPOINT,notEmpty"`
	HealthEndpoint string `env:"HEALTH_ENDPOINT,notEmpty"`

	// Startup readiness probe only. Per-request provider calls are never
	// retried: a retried generation call would be billed twice.
	StartupRetry pkgRetry.RetryConfig `envPrefix:"STARTUP_RETRY_"`
}

type GenerationConnectorConfig struct {
	HTTPClientConfig
	CompleteEndpoint string `env:"COMPLETE_ENDPOINT,notEmpty"`
	StreamEndpoint   string `env:"STREAM_ENDPOINT,notEmpty"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

var reasoningEfforts = map[string]struct{}{
	"minimal": {},
	"low":     {},
	"medium":  {},
	"high":    {},
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := ParseEnv()
	if err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag
	return cfg, nil
}

// ParseEnv reads configuration from the process environment and validates it
// eagerly. Any failure here is fatal at startup; the service must not serve
// traffic with an incomplete configuration.
func ParseEnv() (*Config, error) {
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

	if cfg.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("MAX_TOKENS must be positive, got %d", cfg.MaxTokens))
	}

	if cfg.TopK < 1 || cfg.TopK > 50 {
		errors = append(errors, fmt.Sprintf("TOP_K must be between 1 and 50, got %d", cfg.TopK))
	}

	if cfg.MaxCharsPerContent < 1 {
		errors = append(errors, fmt.Sprintf("MAX_CHARS_PER_CONTENT must be positive, got %d", cfg.MaxCharsPerContent))
	}

	if _, ok := reasoningEfforts[cfg.ReasoningEffort]; !ok {
		errors = append(errors, fmt.Sprintf("REASONING_EFFORT must be one of minimal, low, medium, high, got %q", cfg.ReasoningEffort))
	}

	if strings.TrimSpace(cfg.SystemInstructions) == "" {
		errors = append(errors, "SYSTEM_INSTRUCTIONS must not be blank")
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
