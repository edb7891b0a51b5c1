package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"meridian/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	Pipeline      PipelineConfig
	Workers       WorkerConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"meridian"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"meridian"`
}

// AIConfig configures the multi-provider LLM gateway.
// Providers with an empty key are not registered; failover walks
// DefaultProvider first, then the remaining registered providers.
type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	AnthropicKey    string        `envconfig:"ANTHROPIC_API_KEY"`
	LocalBaseURL    string        `envconfig:"LOCAL_LLM_BASE_URL"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	AnthropicModel  string        `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5-20250929"`
	LocalModel      string        `envconfig:"LOCAL_LLM_MODEL" default:"llama-3.1-8b-instruct"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"90s"`

	// Per-provider rate limits (requests per minute, 0 disables)
	OpenAIRPM    float64 `envconfig:"OPENAI_RATE_LIMIT_RPM" default:"500"`
	AnthropicRPM float64 `envconfig:"ANTHROPIC_RATE_LIMIT_RPM" default:"50"`
	LocalRPM     float64 `envconfig:"LOCAL_RATE_LIMIT_RPM" default:"0"`

	// DistributedRateLimit switches from in-memory to Redis-backed limiters
	DistributedRateLimit bool `envconfig:"AI_DISTRIBUTED_RATE_LIMIT" default:"false"`
}

// Enabled reports whether at least one provider is configured.
func (c AIConfig) Enabled() bool {
	return c.OpenAIKey != "" || c.AnthropicKey != "" || c.LocalBaseURL != ""
}

// PipelineConfig controls the risk-assessment pipeline.
type PipelineConfig struct {
	MaxParallel  int  `envconfig:"PIPELINE_MAX_PARALLEL" default:"4"`
	UseAI        bool `envconfig:"PIPELINE_USE_AI" default:"true"`
	AgentTimeout time.Duration `envconfig:"PIPELINE_AGENT_TIMEOUT" default:"120s"`
}

type WorkerConfig struct {
	AssessmentEnabled    bool          `envconfig:"WORKER_ASSESSMENT_ENABLED" default:"true"`
	AssessmentRetries    int           `envconfig:"WORKER_ASSESSMENT_RETRIES" default:"2"`
	AssessmentHardLimit  time.Duration `envconfig:"WORKER_ASSESSMENT_HARD_LIMIT" default:"10m"`
	AssessmentSoftLimit  time.Duration `envconfig:"WORKER_ASSESSMENT_SOFT_LIMIT" default:"9m"`
	AssessmentRetryDelay time.Duration `envconfig:"WORKER_ASSESSMENT_RETRY_DELAY" default:"1m"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads configuration from environment variables, honoring an
// optional .env file in development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	return &cfg, nil
}
