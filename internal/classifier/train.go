package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/dataset"
	"github.com/nao1215/phishscan/internal/feature"
)

// TrainOptions configures a training run.
type TrainOptions struct {
	// DatasetPath is the labeled CSV file.
	DatasetPath string

	// ModelPath is where the artifact is written. Empty skips saving.
	ModelPath string

	// Schema defines the column order. Defaults to feature.DefaultSchema().
	Schema *feature.Schema

	// Params are the boosting parameters.
	Params GradientBoosting

	// TestRatio is the held-out share. Defaults to dataset.DefaultTestRatio.
	TestRatio float64

	// Seed drives the train/test split.
	Seed uint64

	Logger *slog.Logger
	Now    func() time.Time
}

// TrainResult reports the outcome of Train.
type TrainResult struct {
	Model      *Model
	Artifact   *Artifact
	Metrics    Metrics
	TrainSize  int
	TestSize   int
	ModelPath  string
	FitElapsed time.Duration
}

// Train loads the dataset, splits it, fits the ensemble, evaluates it on the
// held-out split and persists the artifact.
func Train(ctx context.Context, opts TrainOptions) (*TrainResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schema := opts.Schema
	if schema == nil {
		schema = feature.DefaultSchema()
	}
	testRatio := opts.TestRatio
	if testRatio == 0 {
		testRatio = dataset.DefaultTestRatio
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}

	ds, err := dataset.LoadCSV(opts.DatasetPath, schema)
	if err != nil {
		return nil, err
	}
	counts := ds.ClassCounts()
	logger.Info("dataset loaded",
		"path", opts.DatasetPath,
		"samples", ds.Len(),
		"phishing", counts[dataset.LabelPhishing],
		"legitimate", counts[dataset.LabelLegitimate])

	train, test, err := dataset.StratifiedSplit(ds, testRatio, opts.Seed)
	if err != nil {
		return nil, err
	}

	logger.Info("training started",
		"train", train.Len(),
		"test", test.Len(),
		"rounds", opts.Params.Rounds,
		"learning_rate", opts.Params.LearningRate,
		"max_depth", opts.Params.MaxDepth)

	start := time.Now()
	model, err := opts.Params.Fit(ctx, train.X, train.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}
	elapsed := time.Since(start)
	model.BindSchema(schema)

	metrics, err := Evaluate(model, test.X, test.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model: %w", err)
	}
	logger.Info("training finished", "accuracy", metrics.Accuracy, "elapsed", elapsed)

	artifact, err := NewArtifact(model, opts.Params, &metrics, now())
	if err != nil {
		return nil, err
	}
	if opts.ModelPath != "" {
		if err := SaveArtifact(opts.ModelPath, artifact); err != nil {
			return nil, err
		}
		logger.Info("model saved", "path", opts.ModelPath)
	}

	return &TrainResult{
		Model:      model,
		Artifact:   artifact,
		Metrics:    metrics,
		TrainSize:  train.Len(),
		TestSize:   test.Len(),
		ModelPath:  opts.ModelPath,
		FitElapsed: elapsed,
	}, nil
}
