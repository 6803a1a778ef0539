package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Tasks    TasksConfig    `mapstructure:"tasks"    validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// StaticDir, when set, is served at / for the browser frontend.
	StaticDir          string   `mapstructure:"static_dir"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown window.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection URL, or a SQLite file path / file: URI.
	URL            string `mapstructure:"url"             validate:"required"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"  validate:"gte=0"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"  validate:"gte=0"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	ConnMaxLifeMin int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// LLMConfig contains settings for the external generation backend.
// An empty GeminiAPIKey is a supported mode: generation uses the local fallback.
type LLMConfig struct {
	GeminiAPIKey       string  `mapstructure:"gemini_api_key"`
	ModelName          string  `mapstructure:"model_name"           validate:"required"`
	PromptTemplatePath string  `mapstructure:"prompt_template_path"`
	Temperature        float32 `mapstructure:"temperature"          validate:"gte=0,lte=2"`
	MaxRetries         int     `mapstructure:"max_retries"          validate:"gte=0,lte=5"`
	RetryDelaySeconds  int     `mapstructure:"retry_delay_seconds"  validate:"gte=0"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"      validate:"gt=0"`
}

// Enabled reports whether the primary generation tier is configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// Timeout returns the bound on one primary-tier generation attempt.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TasksConfig contains task domain settings.
type TasksConfig struct {
	// DefaultGenerateCount is used when an autogenerate request omits n.
	DefaultGenerateCount int `mapstructure:"default_generate_count" validate:"gt=0,ltefield=MaxGenerateCount"`
	MaxGenerateCount     int `mapstructure:"max_generate_count"     validate:"gt=0,lte=100"`
}
