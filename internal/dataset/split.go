package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// Split defaults.
const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

// StratifiedSplit partitions ds into a training and a test set while
// preserving the class proportions. The same seed always yields the same
// partition.
//
// Each class contributes round(n*testRatio) samples to the test set, keeping
// at least one sample of every class on the training side.
func StratifiedSplit(ds *Dataset, testRatio float64, seed uint64) (*Dataset, *Dataset, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, nil, ErrEmpty
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("%w: test ratio %v must be in (0, 1)", ErrSplit, testRatio)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducibility, not security

	byClass := make(map[int][]int)
	for i, y := range ds.Y {
		byClass[y] = append(byClass[y], i)
	}

	var trainIdx, testIdx []int
	for _, class := range ds.Classes() {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(float64(len(idx)) * testRatio))
		nTest = min(nTest, len(idx)-1)
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	if len(testIdx) == 0 || len(trainIdx) == 0 {
		return nil, nil, fmt.Errorf("%w: %d samples are too few for ratio %v", ErrSplit, ds.Len(), testRatio)
	}

	slices.Sort(trainIdx)
	slices.Sort(testIdx)
	return ds.Subset(trainIdx), ds.Subset(testIdx), nil
}
