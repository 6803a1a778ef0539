package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/generation"
)

const (
	defaultMaxRetries = 2
	maxBackoff        = 30
)

// validateConfig checks the settings the generator cannot run without and
// normalizes the retry settings it can recover from.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (config.LLMConfig, error) {
	if cfg.GeminiAPIKey == "" {
		return cfg, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return cfg, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.MaxRetries < 0 {
		logger.WarnContext(ctx, "invalid max retries value, using default",
			slog.Int("value", cfg.MaxRetries),
			slog.Int("default", defaultMaxRetries))
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelaySeconds < 0 || cfg.RetryDelaySeconds > maxBackoff {
		logger.WarnContext(ctx, "invalid retry delay value, using default",
			slog.Int("value", cfg.RetryDelaySeconds),
			slog.Int("default", 1))
		cfg.RetryDelaySeconds = 1
	}
	return cfg, nil
}
