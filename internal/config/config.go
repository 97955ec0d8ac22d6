package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"opslens"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"opslens"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	AgentModel     string `envconfig:"AGENT_MODEL" default:"gemini-2.0-flash"`

	CollectionLogs    string `envconfig:"COLLECTION_LOGS" default:"aks_logs"`
	CollectionTickets string `envconfig:"COLLECTION_TICKETS" default:"tickets"`

	// Retrieval
	DefaultK       int     `envconfig:"DEFAULT_K" default:"5"`
	ScoreThreshold float32 `envconfig:"THRESHOLD_LIMIT" default:"0.5"`

	// Ingestion
	VectorSize        int    `envconfig:"VECTOR_SIZE" default:"768"`
	BatchSize         int    `envconfig:"BATCH_SIZE" default:"10"`
	BatchPauseSeconds int    `envconfig:"BATCH_SLEEP_TIME" default:"2"`
	LogDir            string `envconfig:"LOG_DIR" default:"./data/logs"`
	TicketDir         string `envconfig:"TICKET_DIR" default:"./data/tickets"`
	TrackerFile       string `envconfig:"INGESTION_TRACKER_FILE" default:"./data/ingest-tracker/ingested.json"`

	// Agent
	MaxAgentSteps int    `envconfig:"MAX_AGENT_STEPS" default:"8"`
	TraceLogPath  string `envconfig:"TRACE_LOG_PATH" default:"data/trace/agent.log"`

	// Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8081"`

	// Resilience
	MigrationPath              string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	BootstrapRetryAttempts     int    `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int    `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may come from the shell instead, so a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST is required", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: BATCH_SIZE must be positive", ErrInvalidConfig)
	}
	if c.DefaultK <= 0 {
		return fmt.Errorf("%w: DEFAULT_K must be positive", ErrInvalidConfig)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("%w: THRESHOLD_LIMIT must be within [0,1]", ErrInvalidConfig)
	}
	if c.MaxAgentSteps <= 0 {
		return fmt.Errorf("%w: MAX_AGENT_STEPS must be positive", ErrInvalidConfig)
	}
	if c.CollectionLogs == "" || c.CollectionTickets == "" {
		return fmt.Errorf("%w: collection names must not be empty", ErrInvalidConfig)
	}
	return nil
}
