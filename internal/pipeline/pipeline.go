package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/inference"
	"github.com/nao1215/phishscan/internal/model"
)

// Step is one stage of a URL check. Steps run in order on a shared
// CheckReport.
type Step interface {
	// Do runs the step. A returned error marks the check as failed; the
	// step should already have set report.Status when it knows a more
	// specific status than processing_error.
	Do(ctx context.Context, report *model.CheckReport) error

	// Name identifies the step in logs and in report.PerformedSteps.
	Name() string
}

// Finalizer is implemented by steps that must run even after an earlier
// step failed, such as summarizing and persisting the report.
//
// Design decision: A failed check is still a result. The history has to
// show why a URL could not be scored, so the steps that record the outcome
// are marked instead of making every step tolerate a missing vector.
type Finalizer interface {
	Step

	// RunsAfterFailure reports whether the step runs after a failure.
	RunsAfterFailure() bool
}

// Pipeline runs the steps of a URL check.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running every step after a failure. By default
	// only finalizers run once a step has failed.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError runs every step after a failure instead of only the
// finalizers. Execute then returns nil and the first error stays in the
// report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute checks report.URL by running every step.
//
// The first failure is kept in report.Error; later failures are only
// logged. A failure whose step left the status untouched is classified
// with inference.StatusFor. report.PerformedSteps lists the steps that
// succeeded and report.Duration covers the whole run.
//
// Cancellation stops the run at the next step boundary, finalizers
// included, since they would only fail on the cancelled context.
func (p *Pipeline) Execute(ctx context.Context, report *model.CheckReport) error {
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
	}()

	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("check cancelled",
				"url", report.URL,
				"step", step.Name(),
				"reason", err,
			)
			p.fail(report, err)
			return err
		}

		if firstErr != nil && !p.continueOnError && !runsAfterFailure(step) {
			p.logger.Debug("step skipped", "step", step.Name(), "url", report.URL)
			continue
		}

		if err := step.Do(ctx, report); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", report.URL,
				"status", report.Status,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
				p.fail(report, err)
			}
			continue
		}

		p.logger.Debug("step completed", "step", step.Name(), "url", report.URL)
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	if p.continueOnError {
		return nil
	}
	return firstErr
}

// fail records err as the reason the check failed. A status set by the
// step wins over the generic classification, and a prediction that was
// already made stays ok when a later step such as persist fails.
func (p *Pipeline) fail(report *model.CheckReport, err error) {
	report.SetError(err)
	if report.Status == inference.StatusProcessingError {
		report.Status = inference.StatusFor(err)
	}
}

func runsAfterFailure(step Step) bool {
	f, ok := step.(Finalizer)
	return ok && f.RunsAfterFailure()
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
