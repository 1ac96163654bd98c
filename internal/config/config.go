package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/progress"
	"github.com/cloo-solutions/jobspy-mcp/internal/scraper"
	"github.com/cloo-solutions/jobspy-mcp/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "JOBSPY"

type Config struct {
	Host      string `envconfig:"HOST" default:"0.0.0.0"`
	Port      int    `envconfig:"PORT" default:"9423"`
	EnableSSE bool   `envconfig:"ENABLE_SSE" default:"false"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	ScraperCommand string        `envconfig:"SCRAPER_COMMAND" default:"docker"`
	ScraperArgs    []string      `envconfig:"SCRAPER_ARGS" default:"run,--rm,jobspy"`
	WorkDir        string        `envconfig:"WORK_DIR"`
	TimeoutMS      int           `envconfig:"TIMEOUT_MS" default:"120000"`
	ProgressEvery  time.Duration `envconfig:"PROGRESS_INTERVAL" default:"2s"`
	ProgressStep   int           `envconfig:"PROGRESS_STEP" default:"5"`
	KillGrace      time.Duration `envconfig:"KILL_GRACE" default:"5s"`

	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	MigrationsDir      string        `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	SearchLogRetention time.Duration `envconfig:"SEARCH_LOG_RETENTION" default:"720h"`
	PruneInterval      time.Duration `envconfig:"PRUNE_INTERVAL" default:"1h"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"jobspy-results"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	APIKey       string `envconfig:"API_KEY"`
	MaxBodyBytes int64  `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

// Load reads an optional .env file and then the JOBSPY_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid %s_PORT %d", Prefix, c.Port)
	}
	if c.ScraperCommand == "" {
		return fmt.Errorf("%s_SCRAPER_COMMAND is required", Prefix)
	}
	if c.TimeoutMS < 1 {
		return fmt.Errorf("%s_TIMEOUT_MS must be positive", Prefix)
	}
	if c.ProgressEvery <= 0 {
		return fmt.Errorf("%s_PROGRESS_INTERVAL must be positive", Prefix)
	}
	if c.ProgressStep < 1 {
		return fmt.Errorf("%s_PROGRESS_STEP must be positive", Prefix)
	}
	if c.KillGrace < 0 {
		return fmt.Errorf("%s_KILL_GRACE must not be negative", Prefix)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) Runner() scraper.RunnerConfig {
	return scraper.RunnerConfig{
		Command:        c.ScraperCommand,
		BaseArgs:       c.ScraperArgs,
		Dir:            c.WorkDir,
		DefaultTimeout: time.Duration(c.TimeoutMS) * time.Millisecond,
		KillGrace:      c.KillGrace,
	}
}

func (c *Config) Progress() progress.Config {
	return progress.Config{
		Interval: c.ProgressEvery,
		Step:     c.ProgressStep,
		Cap:      progress.DefaultCap,
	}
}

func (c *Config) Sentry(release string) telemetry.Config {
	return telemetry.Config{
		DSN:              c.SentryDSN,
		Environment:      c.Environment,
		Release:          release,
		TracesSampleRate: 1.0,
		Debug:            c.LogLevel == "debug",
	}
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}
