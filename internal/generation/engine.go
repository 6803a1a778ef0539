package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// DefaultTimeout bounds one primary-tier attempt when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// Result is the outcome of Engine.Generate.
type Result struct {
	Candidates []domain.TaskCandidate
	Tier       Tier
	// Failure is set when the fallback tier ran; it explains why.
	Failure *Failure
}

// Engine produces task candidates, preferring the primary RawGenerator and
// degrading to Synthesize on any failure.
type Engine struct {
	primary  RawGenerator
	timeout  time.Duration
	logger   *slog.Logger
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each primary-tier attempt.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRecorder installs an observer for generation outcomes.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEngine creates an Engine. A nil primary is a supported configuration in
// which every request is served by the fallback tier.
func NewEngine(primary RawGenerator, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		primary:  primary,
		timeout:  DefaultTimeout,
		logger:   logger.With(slog.String("component", "generation_engine")),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate returns candidates for prompt. When the fallback tier runs it
// returns exactly n candidates; the primary tier may return fewer, never more.
// Generate never fails.
func (e *Engine) Generate(ctx context.Context, prompt string, n int) Result {
	log := logger.FromContextOrDefault(ctx, e.logger)

	candidates, failure := e.tryPrimary(ctx, prompt, n)
	if failure == nil {
		log.Info("generated tasks with primary tier",
			slog.Int("requested", n),
			slog.Int("produced", len(candidates)))
		e.recorder.ObserveGeneration(TierPrimary, "", len(candidates))
		return Result{Candidates: candidates, Tier: TierPrimary}
	}

	level := slog.LevelWarn
	if failure.Reason == ReasonNotConfigured {
		level = slog.LevelDebug
	}
	attrs := []slog.Attr{
		slog.String("reason", string(failure.Reason)),
		slog.Int("requested", n),
	}
	if failure.Err != nil {
		attrs = append(attrs, slog.String("error", failure.Err.Error()))
	}
	log.LogAttrs(ctx, level, "falling back to local task synthesis", attrs...)

	candidates = Synthesize(prompt, n)
	e.recorder.ObserveGeneration(TierFallback, failure.Reason, len(candidates))
	return Result{Candidates: candidates, Tier: TierFallback, Failure: failure}
}

// tryPrimary runs the primary tier once. Every problem, including a panic in
// the generator, comes back as a *Failure. The call runs in its own goroutine
// so a generator that ignores ctx still cannot hold Generate past the timeout.
func (e *Engine) tryPrimary(ctx context.Context, prompt string, n int) ([]domain.TaskCandidate, *Failure) {
	if e.primary == nil {
		return nil, &Failure{Reason: ReasonNotConfigured}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// Buffered so an abandoned call can still deliver and exit.
	done := make(chan primaryOutcome, 1)
	go func() {
		done <- e.callPrimary(callCtx, prompt, n)
	}()

	var out primaryOutcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		out = primaryOutcome{err: callCtx.Err()}
	}

	if out.failure != nil {
		return nil, out.failure
	}
	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &Failure{Reason: ReasonTimeout, Err: out.err}
		}
		return nil, &Failure{Reason: ReasonInvocation, Err: out.err}
	}

	candidates, err := ParseCandidates(out.raw, n)
	if err != nil {
		return nil, &Failure{Reason: ReasonMalformed, Err: err}
	}
	return candidates, nil
}

type primaryOutcome struct {
	raw     string
	err     error
	failure *Failure
}

// callPrimary invokes the generator, turning a panic into a Failure.
func (e *Engine) callPrimary(ctx context.Context, prompt string, n int) (out primaryOutcome) {
	defer func() {
		if p := recover(); p != nil {
			out = primaryOutcome{failure: &Failure{
				Reason: ReasonPanic,
				Err:    fmt.Errorf("%w: %v", ErrGenerationFailed, p),
			}}
		}
	}()

	raw, err := e.primary.GenerateRaw(ctx, prompt, n)
	return primaryOutcome{raw: raw, err: err}
}
