package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/phishscan/internal/feature"
)

// synthetic returns n rows of 30 indicators labeled by the sign of the sum of
// UsingIP, HTTPS and AnchorURL. The other columns are noise.
func synthetic(n int, seed uint64) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		x[i] = make([]float64, 30)
		for j := range x[i] {
			x[i][j] = float64(rng.IntN(3) - 1)
		}
		if x[i][0]+x[i][7]+x[i][13] > 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	return x, y
}

func constant(v float64) []float64 {
	x := make([]float64, 30)
	for i := range x {
		x[i] = v
	}
	return x
}

func smallParams() GradientBoosting {
	p := DefaultGradientBoosting()
	p.Rounds = 30
	p.MaxDepth = 3
	return p
}

func TestDefaultGradientBoosting(t *testing.T) {
	t.Parallel()

	p := DefaultGradientBoosting()
	assert.Equal(t, 100, p.Rounds)
	assert.InDelta(t, 0.1, p.LearningRate, 1e-12)
	assert.Equal(t, 5, p.MaxDepth)
	assert.Equal(t, 1, p.MinSamplesLeaf)
	assert.Equal(t, uint64(42), p.Seed)
	assert.NoError(t, p.Validate())
}

func TestFit(t *testing.T) {
	t.Parallel()

	x, y := synthetic(400, 1)
	model, err := smallParams().Fit(context.Background(), x, y)
	require.NoError(t, err)

	assert.Equal(t, []Label{Phishing, Legitimate}, model.Classes)
	assert.Len(t, model.Trees, 30)
	assert.Equal(t, 30, model.NumFeatures)

	metrics, err := Evaluate(model, x, y)
	require.NoError(t, err)
	assert.Greater(t, metrics.Accuracy, 0.95)

	legit, err := model.Predict(constant(1))
	require.NoError(t, err)
	assert.Equal(t, Legitimate, legit.Label)
	assert.Greater(t, legit.Probabilities[1], 0.5)
	assert.InDelta(t, 1, legit.Probabilities[0]+legit.Probabilities[1], 1e-6)
	assert.InDelta(t, legit.Probabilities[1], legit.Confidence, 1e-12)

	phish, err := model.Predict(constant(-1))
	require.NoError(t, err)
	assert.Equal(t, Phishing, phish.Label)
	assert.Greater(t, phish.Probabilities[0], 0.5)
	assert.InDelta(t, phish.Probabilities[1], model.ProbabilityOf(phish, Legitimate), 1e-12)
}

func TestFitDeterministic(t *testing.T) {
	t.Parallel()

	x, y := synthetic(200, 2)

	a, err := smallParams().Fit(context.Background(), x, y)
	require.NoError(t, err)
	b, err := smallParams().Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	sub := smallParams()
	sub.Subsample = 0.5
	c, err := sub.Fit(context.Background(), x, y)
	require.NoError(t, err)
	d, err := sub.Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, c, d)

	sub.Seed = 7
	e, err := sub.Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.NotEqual(t, c.Trees, e.Trees)
}

func TestFitInitialLogOdds(t *testing.T) {
	t.Parallel()

	x := [][]float64{{0}, {0}, {0}, {1}}
	y := []int{1, 1, 1, -1}
	p := DefaultGradientBoosting()
	p.Rounds = 1
	p.MaxDepth = 0

	model, err := p.Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(3), model.InitialLogOdds, 1e-12)
	require.Len(t, model.Trees, 1)
	assert.True(t, model.Trees[0].Nodes[0].Leaf)
}

func TestFitErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := DefaultGradientBoosting()

	_, err := p.Fit(ctx, [][]float64{{1}, {0}}, []int{1, 1})
	assert.ErrorIs(t, err, ErrSingleClass)

	_, err = p.Fit(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrSingleClass)

	_, err = p.Fit(ctx, [][]float64{{1}, {0, 1}}, []int{1, -1})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = p.Fit(ctx, [][]float64{{1}}, []int{1, -1})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	tests := []struct {
		name   string
		mutate func(*GradientBoosting)
	}{
		{"zero rounds", func(g *GradientBoosting) { g.Rounds = 0 }},
		{"zero learning rate", func(g *GradientBoosting) { g.LearningRate = 0 }},
		{"negative depth", func(g *GradientBoosting) { g.MaxDepth = -1 }},
		{"zero leaf size", func(g *GradientBoosting) { g.MinSamplesLeaf = 0 }},
		{"subsample above one", func(g *GradientBoosting) { g.Subsample = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := DefaultGradientBoosting()
			tt.mutate(&g)
			_, err := g.Fit(ctx, [][]float64{{1}, {0}}, []int{1, -1})
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestFitCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, y := synthetic(50, 3)
	_, err := DefaultGradientBoosting().Fit(ctx, x, y)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictProbaErrors(t *testing.T) {
	t.Parallel()

	var nilModel *Model
	_, err := nilModel.PredictProba(constant(1))
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = (&Model{}).Predict(constant(1))
	assert.ErrorIs(t, err, ErrModelUnavailable)

	x, y := synthetic(100, 4)
	model, err := smallParams().Fit(context.Background(), x, y)
	require.NoError(t, err)

	_, err = model.PredictProba(make([]float64, 29))
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "expected 30 features, got 29")

	// Out-of-domain values are scored normally.
	out := constant(5)
	proba, err := model.PredictProba(out)
	require.NoError(t, err)
	assert.InDelta(t, 1, proba[0]+proba[1], 1e-6)
}

func TestSigmoid(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.5, sigmoid(0), 1e-12)
	assert.InDelta(t, 1, sigmoid(1000), 1e-12)
	assert.InDelta(t, 0, sigmoid(-1000), 1e-12)
	assert.False(t, math.IsNaN(sigmoid(-1e308)))
}

// stump predicts Legitimate when x[0] > 0.
func stump() *Model {
	return &Model{
		Classes:      []Label{Phishing, Legitimate},
		LearningRate: 1,
		NumFeatures:  1,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 0, Left: 1, Right: 2},
			{Feature: -1, Left: -1, Right: -1, Value: -10, Leaf: true},
			{Feature: -1, Left: -1, Right: -1, Value: 10, Leaf: true},
		}}},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	x := [][]float64{{-1}, {1}, {1}, {-1}}
	y := []int{-1, 1, -1, -1}

	m, err := Evaluate(stump(), x, y)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, m.Accuracy, 1e-12)
	assert.Equal(t, [][]int{{2, 1}, {0, 1}}, m.Confusion)

	require.Len(t, m.PerClass, 2)
	assert.InDelta(t, 1.0, m.PerClass[0].Precision, 1e-12)
	assert.InDelta(t, 2.0/3, m.PerClass[0].Recall, 1e-12)
	assert.InDelta(t, 0.8, m.PerClass[0].F1, 1e-12)
	assert.Equal(t, 3, m.PerClass[0].Support)
	assert.InDelta(t, 0.5, m.PerClass[1].Precision, 1e-12)
	assert.InDelta(t, 1.0, m.PerClass[1].Recall, 1e-12)
	assert.Equal(t, 4, m.WeightedAvg.Support)
	assert.InDelta(t, 0.75, m.MacroAvg.Precision, 1e-12)

	report := m.String()
	assert.Contains(t, report, "precision")
	assert.Contains(t, report, "weighted avg")
	assert.Contains(t, report, "confusion matrix")

	_, err = Evaluate(nil, x, y)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestArtifactRoundTrip(t *testing.T) {
	t.Parallel()

	schema := feature.DefaultSchema()
	x, y := synthetic(150, 5)
	model, err := smallParams().Fit(context.Background(), x, y)
	require.NoError(t, err)
	model.BindSchema(schema)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	artifact, err := NewArtifact(model, smallParams(), nil, created)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "model.json")
	require.NoError(t, SaveArtifact(path, artifact))

	loaded, meta, err := LoadArtifact(path, schema)
	require.NoError(t, err)
	assert.Equal(t, model, loaded)
	assert.Equal(t, created, meta.CreatedAt)
	assert.Equal(t, smallParams(), meta.Params)

	for _, v := range []float64{-1, 0, 1} {
		want, err := model.PredictProba(constant(v))
		require.NoError(t, err)
		got, err := loaded.PredictProba(constant(v))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Saving again overwrites in place and leaves no temporary files behind.
	require.NoError(t, SaveArtifact(path, artifact))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadArtifactErrors(t *testing.T) {
	t.Parallel()

	schema := feature.DefaultSchema()
	x, y := synthetic(100, 6)
	model, err := smallParams().Fit(context.Background(), x, y)
	require.NoError(t, err)
	model.BindSchema(schema)
	artifact, err := NewArtifact(model, smallParams(), nil, time.Now())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, SaveArtifact(path, artifact))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, _, err := LoadArtifact(filepath.Join(dir, "absent.json"), schema)
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		tampered := strings.Replace(string(data), `"num_features": 30`, `"num_features": 31`, 1)
		require.NotEqual(t, string(data), tampered)
		_, _, err := DecodeArtifact([]byte(tampered), schema)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("different schema", func(t *testing.T) {
		t.Parallel()

		specs := schema.Specs()
		specs[0], specs[1] = specs[1], specs[0]
		swapped, err := feature.NewSchema(specs)
		require.NoError(t, err)

		_, _, err = DecodeArtifact(data, swapped)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		future := strings.Replace(string(data), `"format_version": 1`, `"format_version": 99`, 1)
		_, _, err := DecodeArtifact([]byte(future), schema)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		_, _, err = DecodeArtifact([]byte("not json"), schema)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("malformed tree", func(t *testing.T) {
		t.Parallel()

		bad := stump()
		bad.Trees[0].Nodes[0].Left = 0
		a, err := NewArtifact(bad, smallParams(), nil, time.Now())
		require.NoError(t, err)
		raw, err := json.Marshal(a)
		require.NoError(t, err)

		_, _, err = DecodeArtifact(raw, nil)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func writeDataset(t *testing.T, n int, seed uint64) string {
	t.Helper()

	x, y := synthetic(n, seed)
	var b strings.Builder
	b.WriteString("Index," + strings.Join(feature.DefaultSchema().Names(), ",") + ",class\n")
	for i, row := range x {
		fmt.Fprintf(&b, "%d", i)
		for _, v := range row {
			fmt.Fprintf(&b, ",%d", int(v))
		}
		fmt.Fprintf(&b, ",%d\n", y[i])
	}

	path := filepath.Join(t.TempDir(), "phishing.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestTrain(t *testing.T) {
	t.Parallel()

	modelPath := filepath.Join(t.TempDir(), "model.json")
	result, err := Train(context.Background(), TrainOptions{
		DatasetPath: writeDataset(t, 500, 7),
		ModelPath:   modelPath,
		Params:      smallParams(),
		Seed:        42,
	})
	require.NoError(t, err)

	assert.Equal(t, 400, result.TrainSize)
	assert.Equal(t, 100, result.TestSize)
	assert.Greater(t, result.Metrics.Accuracy, 0.9)
	assert.Equal(t, feature.DefaultSchema().Fingerprint(), result.Model.SchemaFingerprint)

	loaded, artifact, err := LoadArtifact(modelPath, feature.DefaultSchema())
	require.NoError(t, err)
	assert.Equal(t, result.Model, loaded)
	require.NotNil(t, artifact.Evaluation)
	assert.InDelta(t, result.Metrics.Accuracy, artifact.Evaluation.Accuracy, 1e-12)
}

func TestTrainReproducible(t *testing.T) {
	t.Parallel()

	dataset := writeDataset(t, 400, 11)
	params := smallParams()
	params.Subsample = 0.8

	run := func() *TrainResult {
		result, err := Train(context.Background(), TrainOptions{
			DatasetPath: dataset,
			ModelPath:   filepath.Join(t.TempDir(), "model.json"),
			Params:      params,
			Seed:        42,
		})
		require.NoError(t, err)
		return result
	}

	first, second := run(), run()
	assert.Equal(t, first.Metrics.Confusion, second.Metrics.Confusion)
	assert.InDelta(t, first.Metrics.Accuracy, second.Metrics.Accuracy, 1e-12)
	assert.Equal(t, first.Metrics.PerClass, second.Metrics.PerClass)
	assert.Equal(t, first.Model.Trees, second.Model.Trees)
	assert.Equal(t, first.Artifact.Checksum, second.Artifact.Checksum)
}

func TestTrainErrors(t *testing.T) {
	t.Parallel()

	_, err := Train(context.Background(), TrainOptions{
		DatasetPath: filepath.Join(t.TempDir(), "missing.csv"),
		Params:      DefaultGradientBoosting(),
	})
	assert.Error(t, err)

	_, err = Train(context.Background(), TrainOptions{
		DatasetPath: writeDataset(t, 20, 8),
		Params:      GradientBoosting{},
	})
	assert.ErrorIs(t, err, ErrInvalidParams)
}
