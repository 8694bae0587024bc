package classifier

import (
	"cmp"
	"slices"
)

// minHessian guards Newton steps against near-pure nodes.
const minHessian = 1e-12

// Node is one node of a regression tree. Nodes are stored in a flat slice in
// pre-order; Left and Right index into that slice and are -1 for leaves.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a regression tree. Samples with x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value reached by x. The caller guarantees that x
// has at least as many features as the tree references.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// valid checks the structural integrity of a deserialized tree so that
// Predict can never index out of range or loop.
func (t *Tree) valid(numFeatures int) bool {
	if len(t.Nodes) == 0 {
		return false
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return false
		}
		// Pre-order layout: children always come after their parent.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return false
		}
	}
	return true
}

// treeBuilder fits one regression tree to residuals with squared-error
// splits and Newton leaf values.
type treeBuilder struct {
	x              [][]float64
	residual       []float64
	hessian        []float64
	maxDepth       int
	minSamplesLeaf int
	nodes          []Node
}

func (b *treeBuilder) fit(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.build(idx, 0)
	return Tree{Nodes: slices.Clone(b.nodes)}
}

// build appends the subtree for idx and returns its root index.
func (b *treeBuilder) build(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Left: -1, Right: -1})

	if depth >= b.maxDepth || len(idx) < 2*b.minSamplesLeaf {
		b.makeLeaf(self, idx)
		return self
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.makeLeaf(self, idx)
		return self
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return self
}

func (b *treeBuilder) makeLeaf(at int, idx []int) {
	var num, den float64
	for _, i := range idx {
		num += b.residual[i]
		den += b.hessian[i]
	}
	value := 0.0
	if den > minHessian {
		value = num / den
	}
	b.nodes[at] = Node{Feature: -1, Left: -1, Right: -1, Value: value, Leaf: true}
}

// bestSplit finds the split that most reduces the squared error of the
// residuals. Thresholds are midpoints between consecutive distinct values.
// Ties keep the lowest feature index and the lowest threshold, so fitting is
// deterministic.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.residual[i]
	}
	parentScore := total * total / float64(n)

	bestFeature, bestThreshold, bestGain := -1, 0.0, 1e-12
	sorted := make([]int, n)
	numFeatures := len(b.x[idx[0]])

	for f := range numFeatures {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.x[a][f], b.x[c][f])
		})

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.residual[sorted[k]]
			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.minSamplesLeaf || nr < b.minSamplesLeaf {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parentScore
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, (cur+next)/2, gain
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}
