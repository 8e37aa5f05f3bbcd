package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backend selectors.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// StoreBackend selects the knowledge store: postgres, sqlite or memory.
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`
	// StoreReadOnly wraps the store so writes are rejected; used when the
	// store is populated by an external, authoritative process.
	StoreReadOnly bool   `envconfig:"STORE_READ_ONLY" default:"false"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"loretex.db"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	OwnerID        string  `envconfig:"OWNER_ID" default:"default"`
	ChunkSize      int     `envconfig:"CHUNK_SIZE" default:"512"`
	ChunkOverlap   int     `envconfig:"CHUNK_OVERLAP" default:"20"`
	RetrieveCount  int     `envconfig:"RETRIEVE_COUNT" default:"15"`
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.55"`

	// APIToken protects the HTTP surface; empty disables auth (dev only).
	APIToken string `envconfig:"API_TOKEN"`

	// S3-compatible source bucket for batch ingestion.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"loretex-sources"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LORETEX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
