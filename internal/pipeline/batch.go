package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/phishscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent checking of multiple URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-URL execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each check.
	// We use a factory to ensure each check gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent checks.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed check reports.
	// Access is synchronized via mutex.
	results []*model.CheckReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent checks.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each URL to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// checks and allows for per-URL customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     10,
		results:         make([]*model.CheckReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch checks multiple URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each URL gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected in input order, even for URLs that failed.
// Reports of URLs never started because of cancellation are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.CheckReport, error) {
	bp.logger.Info("starting batch processing",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.CheckReport, len(urls))

	err := bp.run(ctx, urls, func(report *model.CheckReport, i int) {
		bp.mu.Lock()
		bp.results[i] = report
		bp.mu.Unlock()
	})

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_urls", len(urls),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback checks multiple URLs and calls a callback
// for each completed check. This is useful for streaming results.
//
// The callback receives the report and the index of the URL in the
// original slice. The callback is called from the goroutine that completed
// the check, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(report *model.CheckReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, urls, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, urls []string, callback func(*model.CheckReport, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewCheckReport(url)
			pipeline := bp.pipelineFactory()
			if err := pipeline.Execute(ctx, report); err != nil {
				// Don't return error to errgroup - we want to continue other checks
				// The error is recorded in the report
				bp.logger.Debug("check failed",
					"url", url,
					"error", err,
				)
			}

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
