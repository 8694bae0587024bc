package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/inference"
	"github.com/nao1215/phishscan/internal/model"
)

// ErrNoVector is returned by ClassifyStep when extraction did not produce a
// vector.
var ErrNoVector = errors.New("no feature vector to classify")

// ExtractStep converts the report URL into a feature vector.
//
// Design decision: Extraction is a separate step from classification because:
// 1. The vector is useful on its own (reports list every indicator)
// 2. Input errors are detected here, before the model is consulted
// 3. Lookup failures never surface; the extractor degrades them to Neutral
type ExtractStep struct {
	// extractor performs the lexical, content and reputation lookups.
	extractor inference.Extractor

	// schema names the vector entries for reporting.
	schema *feature.Schema

	// logger for structured logging.
	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates a new extraction step.
func NewExtractStep(extractor inference.Extractor, schema *feature.Schema, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor: extractor,
		schema:    schema,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step. Input errors are recorded in the report
// status and returned, stopping the pipeline.
func (s *ExtractStep) Do(ctx context.Context, report *model.CheckReport) error {
	vector, err := s.extractor.Extract(ctx, report.URL)
	if err != nil {
		report.Status = inference.StatusFor(err)
		return fmt.Errorf("failed to extract features: %w", err)
	}

	report.Vector = vector
	report.Indicators = s.schema.Describe(vector)

	s.logger.Debug("features extracted",
		"url", report.URL,
		"suspicious", len(report.SuspiciousIndicators()),
	)
	return nil
}

// ClassifyStep scores the extracted vector with the current model.
type ClassifyStep struct {
	scorer *inference.Scorer
}

// NewClassifyStep creates a new classification step.
func NewClassifyStep(scorer *inference.Scorer) *ClassifyStep {
	return &ClassifyStep{scorer: scorer}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do executes the classification step. A missing model or a shape mismatch
// is recorded in the report status and returned.
func (s *ClassifyStep) Do(_ context.Context, report *model.CheckReport) error {
	if report.Vector == nil {
		// ExtractStep already recorded why.
		return ErrNoVector
	}

	resp := s.scorer.ScoreVector(report.URL, report.Vector)
	report.ApplyResponse(resp)
	if resp.Status != inference.StatusOK {
		return resp.Err
	}
	return nil
}

// SummarizeStep builds the simple report from the check results.
type SummarizeStep struct{}

// NewSummarizeStep creates a new summarize step.
func NewSummarizeStep() *SummarizeStep {
	return &SummarizeStep{}
}

// Name returns the step name.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// RunsAfterFailure implements Finalizer.
func (s *SummarizeStep) RunsAfterFailure() bool { return true }

// Do executes the summarize step.
func (s *SummarizeStep) Do(_ context.Context, report *model.CheckReport) error {
	report.SimpleReport = model.NewSimpleReport(report)
	return nil
}

// ReportStore persists check reports.
type ReportStore interface {
	SaveCheckReport(ctx context.Context, report *model.CheckReport) error
}

// PersistStep records the report in the history database.
type PersistStep struct {
	store ReportStore
}

// NewPersistStep creates a new persist step.
func NewPersistStep(store ReportStore) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// RunsAfterFailure implements Finalizer.
func (s *PersistStep) RunsAfterFailure() bool { return true }

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, report *model.CheckReport) error {
	if err := s.store.SaveCheckReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save check report: %w", err)
	}
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Schema names the vector entries. Defaults to feature.DefaultSchema().
	Schema *feature.Schema

	// Store receives every report. Nil disables persistence.
	Store ReportStore

	// Offline marks reports as produced without network lookups.
	Offline bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineSchema sets the schema used to describe vectors.
func WithPipelineSchema(schema *feature.Schema) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Schema = schema
	}
}

// WithPipelineStore enables persistence to store.
func WithPipelineStore(store ReportStore) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Store = store
	}
}

// WithPipelineOffline marks reports as offline checks.
func WithPipelineOffline(offline bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Offline = offline
	}
}

// offlineStep flags the report before any other step runs.
type offlineStep struct{}

func (offlineStep) Name() string { return "offline" }

func (offlineStep) Do(_ context.Context, report *model.CheckReport) error {
	report.Offline = true
	return nil
}

// DefaultPipeline creates a pipeline with all default steps configured.
// This is the standard pipeline for checking a URL.
//
// Design decision: We provide a default pipeline because:
// 1. Most callers want every step
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
//
// A failed extraction skips classification. Summarize and persist are
// finalizers, so failed checks are still summarized and recorded with
// their status; Execute returns the first failure.
func DefaultPipeline(extractor inference.Extractor, scorer *inference.Scorer, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Schema: feature.DefaultSchema(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	if cfg.Offline {
		p.AddStep(offlineStep{})
	}
	p.AddSteps(
		NewExtractStep(extractor, cfg.Schema, WithExtractLogger(p.logger)),
		NewClassifyStep(scorer),
		NewSummarizeStep(),
	)
	if cfg.Store != nil {
		p.AddStep(NewPersistStep(cfg.Store))
	}

	return p
}
