package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"google.golang.org/genai"
)

const systemInstruction = "You plan work. Reply with JSON only."

// modelsAPI is the subset of genai.Models the generator calls.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.RawGenerator using the Gemini API.
type Generator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	models         modelsAPI
	baseDelay      time.Duration
}

var _ generation.RawGenerator = (*Generator)(nil)

// NewGenerator creates a Generator backed by a genai client.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.With(slog.String("component", "gemini_generator"))

	cfg, err := validateConfig(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, models modelsAPI) (*Generator, error) {
	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	logger.Info("gemini generator initialized",
		slog.String("model", cfg.ModelName),
		slog.Int("max_retries", cfg.MaxRetries))

	return &Generator{
		logger:         logger,
		config:         cfg,
		promptTemplate: tmpl,
		models:         models,
		baseDelay:      time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

// GenerateRaw asks the model for n tasks about prompt and returns its text.
func (g *Generator) GenerateRaw(ctx context.Context, prompt string, n int) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	rendered, err := createPromptFromTemplate(ctx, log, g.promptTemplate, prompt, n)
	if err != nil {
		return "", err
	}
	return g.callWithRetry(ctx, log, rendered)
}

func (g *Generator) requestConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:      genai.Ptr(g.config.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   taskListSchema(),
	}
}

// callWithRetry calls the model up to MaxRetries+1 times. Transient failures
// back off exponentially with jitter; permanent failures return immediately.
func (g *Generator) callWithRetry(ctx context.Context, log *slog.Logger, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	maxRetries := g.config.MaxRetries

	for attempt := 0; ; attempt++ {
		text, err := g.callOnce(ctx, contents)
		if err == nil {
			log.DebugContext(ctx, "gemini call succeeded",
				slog.Int("attempt", attempt+1),
				slog.Int("response_length", len(text)))
			return text, nil
		}

		if !isTransient(err) {
			log.WarnContext(ctx, "permanent gemini error, not retrying",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := g.backoff(attempt)
		log.InfoContext(ctx, "retrying gemini call after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func (g *Generator) callOnce(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.config.ModelName, contents, g.requestConfig())
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}

// backoff returns baseDelay * 2^attempt scaled by a jitter factor in [0.5, 1).
func (g *Generator) backoff(attempt int) time.Duration {
	base := float64(g.baseDelay) * math.Pow(2, float64(attempt))
	return time.Duration(base * (0.5 + rand.Float64()*0.5))
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
