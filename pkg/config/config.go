// Package config loads engine configuration from YAML and environment
// variables. Environment variables override YAML values; secrets only come
// from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the data health engine.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Source is the incident database being assessed.
	Source SourceConfig `yaml:"source"`

	// Engine is the engine's own PostgreSQL database for assessment
	// history and quality alerts. Optional: history features are disabled
	// when the host is empty.
	Engine EngineDBConfig `yaml:"engine"`

	// AI configures the optional semantic reasoning service.
	AI AIConfig `yaml:"ai"`

	// Assessment holds run-level budgets and thresholds.
	Assessment AssessmentConfig `yaml:"assessment"`

	// SemanticsPath points at the column semantics YAML file.
	SemanticsPath string `yaml:"semantics_path" env:"SEMANTICS_PATH" env-default:"semantics.yaml"`
}

// SourceConfig holds connection settings for the assessed data source.
type SourceConfig struct {
	Driver   string `yaml:"driver" env:"SOURCE_DRIVER" env-default:"postgres"` // postgres or mssql
	Host     string `yaml:"host" env:"SOURCE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SOURCE_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"SOURCE_USER" env-default:"incidents"`
	Password string `yaml:"-" env:"SOURCE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"SOURCE_DATABASE" env-default:"incidents"`
	SSLMode  string `yaml:"ssl_mode" env:"SOURCE_SSLMODE" env-default:"disable"`
}

// EngineDBConfig holds the engine's own PostgreSQL settings.
type EngineDBConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:""`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"datahealth"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"datahealth"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// Enabled reports whether history persistence is configured.
func (c *EngineDBConfig) Enabled() bool {
	return c.Host != ""
}

// URL builds a pgx-compatible connection URL with escaped credentials.
func (c *EngineDBConfig) URL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Host, c.Port, url.QueryEscape(c.Database), c.SSLMode)
}

// Supported AI providers.
const (
	AIProviderOpenAI    = "openai"
	AIProviderAnthropic = "anthropic"
)

// AIConfig configures the reasoning service used for semantic dimension
// selection. The engine is fully functional without it.
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"` // openai or anthropic
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// IsAvailable reports whether semantic selection can be attempted.
func (c *AIConfig) IsAvailable() bool {
	return c.Model != "" && (c.Endpoint != "" || c.APIKey != "")
}

// AssessmentConfig holds concurrency budgets, timeouts and thresholds for a
// run. Budgets are per-orchestrator, never process-global, so concurrent
// runs with different budgets can coexist.
type AssessmentConfig struct {
	MaxLLMConcurrency int           `yaml:"max_llm_concurrency" env:"MAX_LLM_CONCURRENCY" env-default:"10"`
	MaxDataSourceOps  int           `yaml:"max_datasource_ops" env:"MAX_DATASOURCE_OPS" env-default:"5"`
	CheckTimeout      time.Duration `yaml:"check_timeout" env:"CHECK_TIMEOUT" env-default:"30s"`
	SampleSize        int           `yaml:"sample_size" env:"SAMPLE_SIZE" env-default:"500"`
	TopIssues         int           `yaml:"top_issues" env:"TOP_ISSUES" env-default:"5"`

	// Alert floors. Scores below these thresholds produce quality alerts.
	OverallAlertFloor   float64 `yaml:"overall_alert_floor" env:"OVERALL_ALERT_FLOOR" env-default:"70"`
	DimensionAlertFloor float64 `yaml:"dimension_alert_floor" env:"DIMENSION_ALERT_FLOOR" env-default:"60"`
}

// Load reads configuration from config.yaml (when present) with environment
// variable overrides, then validates it.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Source.Driver != "postgres" && c.Source.Driver != "mssql" {
		return fmt.Errorf("unsupported source driver %q", c.Source.Driver)
	}
	if c.Assessment.MaxLLMConcurrency < 1 {
		return fmt.Errorf("max_llm_concurrency must be at least 1")
	}
	if c.Assessment.MaxDataSourceOps < 1 {
		return fmt.Errorf("max_datasource_ops must be at least 1")
	}
	if c.Assessment.SampleSize < 1 {
		return fmt.Errorf("sample_size must be at least 1")
	}
	if c.AI.Provider != AIProviderOpenAI && c.AI.Provider != AIProviderAnthropic {
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}
	return nil
}
