package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// GradientBoosting holds the training parameters of the ensemble.
type GradientBoosting struct {
	// Rounds is the number of trees added to the ensemble.
	Rounds int `json:"rounds"`

	// LearningRate shrinks the contribution of every tree.
	LearningRate float64 `json:"learning_rate"`

	// MaxDepth bounds the depth of each tree. A depth of 0 yields stumps
	// with a single leaf.
	MaxDepth int `json:"max_depth"`

	// MinSamplesLeaf is the minimum number of samples on each side of a split.
	MinSamplesLeaf int `json:"min_samples_leaf"`

	// Subsample is the fraction of rows drawn without replacement for each
	// tree. 1 uses every row and makes fitting independent of Seed.
	Subsample float64 `json:"subsample"`

	// Seed drives row subsampling.
	Seed uint64 `json:"seed"`
}

// DefaultGradientBoosting returns the default training parameters.
func DefaultGradientBoosting() GradientBoosting {
	return GradientBoosting{
		Rounds:         100,
		LearningRate:   0.1,
		MaxDepth:       5,
		MinSamplesLeaf: 1,
		Subsample:      1.0,
		Seed:           42,
	}
}

// Validate checks that the parameters are usable.
func (g GradientBoosting) Validate() error {
	switch {
	case g.Rounds < 1:
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidParams, g.Rounds)
	case g.LearningRate <= 0 || g.LearningRate > 1:
		return fmt.Errorf("%w: learning rate must be in (0, 1], got %v", ErrInvalidParams, g.LearningRate)
	case g.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidParams, g.MaxDepth)
	case g.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min samples per leaf must be positive, got %d", ErrInvalidParams, g.MinSamplesLeaf)
	case g.Subsample <= 0 || g.Subsample > 1:
		return fmt.Errorf("%w: subsample must be in (0, 1], got %v", ErrInvalidParams, g.Subsample)
	}
	return nil
}

// Fit trains an ensemble on X and y with binary log-loss.
//
// The larger label becomes the positive class. Every round fits a regression
// tree to the residuals y - p of the current ensemble, with leaf values taken
// as one Newton step sum(r) / sum(p(1-p)), and adds it scaled by the learning
// rate. Fitting is deterministic given the data and the parameters.
//
// ctx is checked between rounds so that a long training run can be cancelled.
func (g GradientBoosting) Fit(ctx context.Context, x [][]float64, y []int) (*Model, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrSingleClass)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", ErrShapeMismatch, len(x), len(y))
	}
	numFeatures := len(x[0])
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShapeMismatch, i, len(row), numFeatures)
		}
	}

	classes := distinct(y)
	if len(classes) != 2 {
		return nil, fmt.Errorf("%w: found %d", ErrSingleClass, len(classes))
	}

	target := make([]float64, len(y))
	var positives float64
	for i, label := range y {
		if label == classes[1] {
			target[i] = 1
			positives++
		}
	}
	prior := positives / float64(len(y))
	initial := math.Log(prior / (1 - prior))

	score := make([]float64, len(y))
	for i := range score {
		score[i] = initial
	}

	builder := &treeBuilder{
		x:              x,
		residual:       make([]float64, len(y)),
		hessian:        make([]float64, len(y)),
		maxDepth:       g.MaxDepth,
		minSamplesLeaf: g.MinSamplesLeaf,
	}

	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}
	sampleSize := max(1, int(math.Round(g.Subsample*float64(len(y)))))
	rng := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducibility, not security

	model := &Model{
		Classes:        []Label{Label(classes[0]), Label(classes[1])},
		InitialLogOdds: initial,
		LearningRate:   g.LearningRate,
		NumFeatures:    numFeatures,
		Trees:          make([]Tree, 0, g.Rounds),
	}

	for round := range g.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training stopped after %d rounds: %w", round, err)
		}

		for i := range score {
			p := sigmoid(score[i])
			builder.residual[i] = target[i] - p
			builder.hessian[i] = p * (1 - p)
		}

		idx := all
		if sampleSize < len(all) {
			idx = slices.Clone(all)
			rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
			idx = idx[:sampleSize]
			slices.Sort(idx)
		}

		tree := builder.fit(idx)
		for i, row := range x {
			score[i] += g.LearningRate * tree.Predict(row)
		}
		model.Trees = append(model.Trees, tree)
	}

	return model, nil
}

func distinct(y []int) []int {
	classes := slices.Clone(y)
	slices.Sort(classes)
	return slices.Compact(classes)
}

// sigmoid is the logistic function, written to avoid overflow for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
