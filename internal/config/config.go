package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"tubequery"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"tubequery"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQDHost string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	AnswerModel    string `envconfig:"ANSWER_MODEL" default:"gemini-1.5-flash"`

	// Ingestion
	ChunkSize       int    `envconfig:"CHUNK_SIZE" default:"1000"`
	FetchWorkers    int    `envconfig:"FETCH_WORKERS" default:"5"`
	IngestWorkers   int    `envconfig:"INGEST_WORKERS" default:"2"`
	TaskQueueSize   int    `envconfig:"TASK_QUEUE_SIZE" default:"64"`
	CaptionLangs    string `envconfig:"CAPTION_LANGS" default:"en,hi,es,de,fr,ja,ko"`
	FetchTimeoutSec int    `envconfig:"FETCH_TIMEOUT_SECONDS" default:"60"`
	TaskTimeoutSec  int    `envconfig:"TASK_TIMEOUT_SECONDS" default:"600"`

	// Fraction of a source's videos that must end up stored (or already
	// present) for the source to be marked ready. Zero keeps the
	// "any success = ready" behaviour.
	SuccessThreshold float64 `envconfig:"SUCCESS_THRESHOLD" default:"0"`

	// Retrieval
	TopKResults      int     `envconfig:"TOP_K_RESULTS" default:"5"`
	OverlapThreshold float64 `envconfig:"OVERLAP_THRESHOLD" default:"0.8"`
	MinRankResults   int     `envconfig:"MIN_RANK_RESULTS" default:"3"`
	QueryLogPath     string  `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	MigrationPath              string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	BootstrapRetryAttempts     int    `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int    `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
	ShutdownGraceSeconds       int    `envconfig:"SHUTDOWN_GRACE_SECONDS" default:"5"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrMissingRequired)
	}
	if c.FetchWorkers <= 0 || c.IngestWorkers <= 0 {
		return fmt.Errorf("%w: worker counts must be positive", ErrMissingRequired)
	}
	if c.SuccessThreshold < 0 || c.SuccessThreshold > 1 {
		return fmt.Errorf("%w: SUCCESS_THRESHOLD must be in [0,1]", ErrMissingRequired)
	}
	return nil
}

// CaptionLanguages returns the preferred caption languages in priority order.
func (c *Config) CaptionLanguages() []string {
	parts := strings.Split(c.CaptionLangs, ",")
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			langs = append(langs, trimmed)
		}
	}
	return langs
}
