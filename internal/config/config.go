package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

// Resolver strategy names. "requeue" re-publishes pending result refs with a
// delay; "fanout" blocks each handler on a bounded poll loop.
const (
	StrategyRequeue = "requeue"
	StrategyFanout  = "fanout"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"mlsight"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"mlsight"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	DocAIURL           string `envconfig:"DOCAI_API_URL"`
	DocAIKey           string `envconfig:"DOCAI_API_KEY"`
	DocAISchemaName    string `envconfig:"DOCAI_SCHEMA_NAME" default:"mls_listing"`
	DocAISchemaVersion string `envconfig:"DOCAI_SCHEMA_VERSION" default:"1"`
	DocAITimeoutSecs   int    `envconfig:"DOCAI_TIMEOUT_SECONDS" default:"120"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	EmbeddingDim int    `envconfig:"EMBEDDING_DIM" default:"1536"`

	// Download links handed to the fetcher expire after five minutes, so the
	// fetch timeout must stay comfortably below that.
	DownloadTimeoutSecs int `envconfig:"DOWNLOAD_TIMEOUT_SECONDS" default:"120"`
	PDFRenderDPI        int `envconfig:"PDF_RENDER_DPI" default:"450"`

	ResolverStrategy   string `envconfig:"RESOLVER_STRATEGY" default:"requeue"`
	ResultDelaySecs    int    `envconfig:"RESULT_DELAY_SECONDS" default:"120"`
	MaxPollAttempts    int    `envconfig:"MAX_POLL_ATTEMPTS" default:"30"`
	FanoutIntervalSecs int    `envconfig:"FANOUT_INTERVAL_SECONDS" default:"30"`
	// Fanout handlers block while polling, so the elapsed bound must stay
	// under nsqd's --max-msg-timeout (15m by default).
	FanoutMaxElapsedMin int `envconfig:"FANOUT_MAX_ELAPSED_MINUTES" default:"10"`
	FanoutConcurrency   int `envconfig:"FANOUT_CONCURRENCY" default:"10"`
	WorkerConcurrency   int `envconfig:"WORKER_CONCURRENCY" default:"2"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"8081"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell instead, so a missing .env is fine.
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
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.ResolverStrategy != StrategyRequeue && c.ResolverStrategy != StrategyFanout {
		return fmt.Errorf("%w: RESOLVER_STRATEGY must be %q or %q", ErrMissingRequired, StrategyRequeue, StrategyFanout)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIM must be positive", ErrMissingRequired)
	}
	return nil
}
