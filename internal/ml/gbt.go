package ml

import (
	"errors"
	"math"
	"sort"
)

// GradientBoosting is a binary classifier of depth-limited regression trees
// boosted on logistic loss. Fields are exported for gob persistence inside
// the model bundle.
type GradientBoosting struct {
	NumTrees       int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int

	BaseScore float64
	Trees     []*RegTree
	Fitted    bool
}

// RegTree is a regression tree stored as a flat node slice; index 0 is the root.
type RegTree struct {
	Nodes []RegNode
}

// RegNode is either an internal split (Leaf false, x[Feature] <= Threshold
// goes Left) or a leaf carrying an additive logit Value.
type RegNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// GBOption configures the classifier.
type GBOption func(*GradientBoosting)

func WithNumTrees(n int) GBOption       { return func(g *GradientBoosting) { g.NumTrees = n } }
func WithLearningRate(lr float64) GBOption {
	return func(g *GradientBoosting) { g.LearningRate = lr }
}
func WithMaxDepth(d int) GBOption { return func(g *GradientBoosting) { g.MaxDepth = d } }
func WithMinSamplesLeaf(n int) GBOption {
	return func(g *GradientBoosting) { g.MinSamplesLeaf = n }
}

// NewGradientBoosting returns a classifier with defaults tuned for small
// tabular batches.
func NewGradientBoosting(opts ...GBOption) *GradientBoosting {
	g := &GradientBoosting{
		NumTrees:       100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Fit trains on features X and binary labels y (0/1).
func (g *GradientBoosting) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 {
		return errors.New("gbt: empty training set")
	}
	if len(y) != n {
		return errors.New("gbt: X and y length mismatch")
	}

	pos := 0.0
	for _, label := range y {
		if label != 0 && label != 1 {
			return errors.New("gbt: labels must be 0 or 1")
		}
		pos += label
	}
	// initial logit from the class prior, clamped away from the degenerate edges
	prior := pos / float64(n)
	if prior < 1e-6 {
		prior = 1e-6
	}
	if prior > 1-1e-6 {
		prior = 1 - 1e-6
	}
	g.BaseScore = math.Log(prior / (1 - prior))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.BaseScore
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	g.Trees = make([]*RegTree, 0, g.NumTrees)
	for t := 0; t < g.NumTrees; t++ {
		for i := range scores {
			p := sigmoid(scores[i])
			grad[i] = y[i] - p
			hess[i] = p * (1 - p)
		}
		tree := buildRegTree(x, grad, hess, g.MaxDepth, g.MinSamplesLeaf)
		g.Trees = append(g.Trees, tree)
		for i := range scores {
			scores[i] += g.LearningRate * tree.predict(x[i])
		}
	}
	g.Fitted = true
	return nil
}

// Predict returns 0/1 labels for the rows of X.
func (g *GradientBoosting) Predict(x [][]float64) ([]int, error) {
	probs, err := g.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// PredictProba returns positive-class probabilities for the rows of X.
func (g *GradientBoosting) PredictProba(x [][]float64) ([]float64, error) {
	if !g.Fitted {
		return nil, errors.New("gbt: predict before fit")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		score := g.BaseScore
		for _, tree := range g.Trees {
			score += g.LearningRate * tree.predict(row)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

func (t *RegTree) predict(row []float64) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// buildRegTree grows a tree on gradient/hessian statistics. Leaf values are
// Newton steps sum(grad)/sum(hess); splits minimize the gradient SSE.
func buildRegTree(x [][]float64, grad, hess []float64, maxDepth, minLeaf int) *RegTree {
	tree := &RegTree{}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	tree.grow(x, grad, hess, idx, maxDepth, minLeaf)
	return tree
}

// grow appends a subtree for the given sample indices and returns its node index.
func (t *RegTree) grow(x [][]float64, grad, hess []float64, idx []int, depth, minLeaf int) int {
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, RegNode{})

	feature, threshold, ok := bestSplit(x, grad, idx, minLeaf)
	if depth <= 0 || !ok {
		t.Nodes[nodeIdx] = RegNode{Leaf: true, Value: newtonLeaf(grad, hess, idx)}
		return nodeIdx
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < minLeaf || len(right) < minLeaf {
		t.Nodes[nodeIdx] = RegNode{Leaf: true, Value: newtonLeaf(grad, hess, idx)}
		return nodeIdx
	}

	leftIdx := t.grow(x, grad, hess, left, depth-1, minLeaf)
	rightIdx := t.grow(x, grad, hess, right, depth-1, minLeaf)
	t.Nodes[nodeIdx] = RegNode{Feature: feature, Threshold: threshold, Left: leftIdx, Right: rightIdx}
	return nodeIdx
}

// bestSplit scans every feature with a sorted prefix-sum sweep and returns
// the split minimizing the within-partition gradient SSE.
func bestSplit(x [][]float64, grad []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	if n < 2*minLeaf || n < 2 {
		return 0, 0, false
	}
	features := len(x[idx[0]])

	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)

	order := make([]int, n)
	for f := 0; f < features; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		total := 0.0
		for _, i := range order {
			total += grad[i]
		}
		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += grad[order[k]]
			if x[order[k]][f] == x[order[k+1]][f] {
				continue
			}
			leftN, rightN := k+1, n-k-1
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}
			rightSum := total - leftSum
			// maximizing sum²/n on both sides == minimizing SSE
			score := -(leftSum*leftSum/float64(leftN) + rightSum*rightSum/float64(rightN))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (x[order[k]][f] + x[order[k+1]][f]) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func newtonLeaf(grad, hess []float64, idx []int) float64 {
	gs, hs := 0.0, 0.0
	for _, i := range idx {
		gs += grad[i]
		hs += hess[i]
	}
	return gs / (hs + 1e-9)
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
