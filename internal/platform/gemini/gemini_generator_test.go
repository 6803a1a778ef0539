package gemini

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeCall struct {
	model    string
	prompt   string
	mimeType string
}

type fakeModels struct {
	mu        sync.Mutex
	calls     []fakeCall
	responses []func() (*genai.GenerateContentResponse, error)
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{
		model:    model,
		prompt:   contents[0].Parts[0].Text,
		mimeType: cfg.ResponseMIMEType,
	})
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i]()
}

func textResponse(text string) func() (*genai.GenerateContentResponse, error) {
	return func() (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
				FinishReason: genai.FinishReasonStop,
			}},
		}, nil
	}
}

func failure(err error) func() (*genai.GenerateContentResponse, error) {
	return func() (*genai.GenerateContentResponse, error) { return nil, err }
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:      "test-key",
		ModelName:         "gemini-test",
		Temperature:       0.5,
		MaxRetries:        2,
		RetryDelaySeconds: 0,
		TimeoutSeconds:    5,
	}
}

func newTestGenerator(t *testing.T, models *fakeModels) *Generator {
	t.Helper()
	l, _ := logger.NewTestLogger(t)
	g, err := newGenerator(l, testConfig(), models)
	require.NoError(t, err)
	return g
}

func TestGenerateRaw_Success(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){
		textResponse(`[{"title":"Book venue"}]`),
	}}
	g := newTestGenerator(t, models)

	raw, err := g.GenerateRaw(context.Background(), "Plan a wedding", 4)

	require.NoError(t, err)
	assert.Equal(t, `[{"title":"Book venue"}]`, raw)
	require.Len(t, models.calls, 1)
	assert.Equal(t, "gemini-test", models.calls[0].model)
	assert.Equal(t, "application/json", models.calls[0].mimeType)
	assert.Contains(t, models.calls[0].prompt, "Goal: Plan a wedding")
	assert.Contains(t, models.calls[0].prompt, "exactly 4 tasks")
}

func TestGenerateRaw_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){
		failure(genai.APIError{Code: 503, Message: "unavailable"}),
		failure(errors.New("connection reset")),
		textResponse(`[]`),
	}}
	g := newTestGenerator(t, models)

	raw, err := g.GenerateRaw(context.Background(), "Goal", 1)

	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
	assert.Len(t, models.calls, 3)
}

func TestGenerateRaw_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){
		failure(genai.APIError{Code: 429, Message: "slow down"}),
	}}
	g := newTestGenerator(t, models)

	_, err := g.GenerateRaw(context.Background(), "Goal", 1)

	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Len(t, models.calls, 3)
}

func TestGenerateRaw_PermanentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    func() (*genai.GenerateContentResponse, error)
		wantErr error
	}{
		{
			name: "safety block",
			resp: func() (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{
					Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
				}, nil
			},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name: "no candidates",
			resp: func() (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{}, nil
			},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "blank text",
			resp:    textResponse("  "),
			wantErr: generation.ErrInvalidResponse,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){tc.resp}}
			g := newTestGenerator(t, models)

			_, err := g.GenerateRaw(context.Background(), "Goal", 1)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Len(t, models.calls, 1)
		})
	}

	t.Run("client error is not retried", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){
			failure(genai.APIError{Code: 400, Message: "bad request"}),
		}}
		g := newTestGenerator(t, models)

		_, err := g.GenerateRaw(context.Background(), "Goal", 1)

		require.Error(t, err)
		assert.Len(t, models.calls, 1)
	})
}

func TestGenerateRaw_EmptyPrompt(t *testing.T) {
	t.Parallel()

	models := &fakeModels{}
	g := newTestGenerator(t, models)

	_, err := g.GenerateRaw(context.Background(), "   ", 2)

	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, models.calls)
}

func TestGenerateRaw_CancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){
		failure(errors.New("flaky")),
	}}
	g := newTestGenerator(t, models)
	g.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.GenerateRaw(ctx, "Goal", 1)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, models.calls, 1)
}

func TestNewGenerator_Validation(t *testing.T) {
	t.Parallel()

	l, _ := logger.NewTestLogger(t)

	_, err := NewGenerator(context.Background(), nil, testConfig())
	require.Error(t, err)

	cfg := testConfig()
	cfg.GeminiAPIKey = ""
	_, err = NewGenerator(context.Background(), l, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.ModelName = ""
	_, err = NewGenerator(context.Background(), l, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestValidateConfig_NormalizesRetrySettings(t *testing.T) {
	t.Parallel()

	l, _ := logger.NewTestLogger(t)
	cfg := testConfig()
	cfg.MaxRetries = -1
	cfg.RetryDelaySeconds = -5

	got, err := validateConfig(context.Background(), l, cfg)

	require.NoError(t, err)
	assert.Equal(t, defaultMaxRetries, got.MaxRetries)
	assert.Equal(t, 1, got.RetryDelaySeconds)
}

func TestPromptTemplate_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.Count}} steps for {{.Prompt}}"), 0o600))

	cfg := testConfig()
	cfg.PromptTemplatePath = path
	models := &fakeModels{responses: []func() (*genai.GenerateContentResponse, error){textResponse("[]")}}
	l, _ := logger.NewTestLogger(t)
	g, err := newGenerator(l, cfg, models)
	require.NoError(t, err)

	_, err = g.GenerateRaw(context.Background(), "bake bread", 2)
	require.NoError(t, err)
	assert.Equal(t, "2 steps for bake bread", models.calls[0].prompt)
}

func TestPromptTemplate_Errors(t *testing.T) {
	t.Parallel()

	_, err := loadPromptTemplate(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "broken.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.Prompt"), 0o600))
	_, err = loadPromptTemplate(path)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestBackoffGrowsWithAttempt(t *testing.T) {
	t.Parallel()

	g := &Generator{baseDelay: time.Second}
	for attempt := 0; attempt < 4; attempt++ {
		d := g.backoff(attempt)
		upper := time.Second << attempt
		assert.GreaterOrEqual(t, d, upper/2)
		assert.Less(t, d, upper)
	}
}
