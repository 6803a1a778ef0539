package generation

import "context"

// RawGenerator is the external generation capability consumed by the primary
// tier. It asks a model for n task ideas about prompt and returns the model's
// raw text, which the Engine parses.
type RawGenerator interface {
	GenerateRaw(ctx context.Context, prompt string, n int) (string, error)
}

// RawGeneratorFunc adapts a function to RawGenerator.
type RawGeneratorFunc func(ctx context.Context, prompt string, n int) (string, error)

// GenerateRaw calls f.
func (f RawGeneratorFunc) GenerateRaw(ctx context.Context, prompt string, n int) (string, error) {
	return f(ctx, prompt, n)
}

// Tier identifies which generation path produced a result.
type Tier string

const (
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
)

// Recorder observes generation outcomes, typically for metrics.
type Recorder interface {
	ObserveGeneration(tier Tier, reason FailureReason, produced int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(Tier, FailureReason, int) {}
