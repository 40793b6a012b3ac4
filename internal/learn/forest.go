package learn

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// RandomForest is a bagged ensemble of gini CART trees. Each tree draws a
// bootstrap sample and considers a random feature subset at every split.
// Tree t is grown from Seed+t so fits are reproducible.
type RandomForest struct {
	Trees       int
	MaxFeatures int
	Seed        int64
	Workers     int

	forest []*treeNode
}

type treeNode struct {
	leaf      bool
	prob1     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// NewRandomForest returns a 100-tree forest using sqrt(features) per split.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{Trees: 100, Seed: seed, Workers: runtime.NumCPU()}
}

// Fit grows every tree concurrently.
func (m *RandomForest) Fit(ctx context.Context, x mat.Matrix, y []int) error {
	rows, cols := x.Dims()
	if len(y) != rows {
		return fmt.Errorf("failed to fit random forest: %d samples but %d labels", rows, len(y))
	}
	if rows == 0 || cols == 0 {
		return fmt.Errorf("failed to fit random forest: empty training set")
	}
	if m.Trees < 1 {
		return fmt.Errorf("failed to fit random forest: trees must be >= 1, got %d", m.Trees)
	}
	maxFeatures := m.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(cols)))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	if maxFeatures > cols {
		maxFeatures = cols
	}

	data := denseRows(x)
	forest := make([]*treeNode, m.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(m.Workers))
	for t := 0; t < m.Trees; t++ {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(m.Seed + int64(t)))
			sample := make([]int, rows)
			for i := range sample {
				sample[i] = rng.Intn(rows)
			}
			b := treeBuilder{data: data, y: y, cols: cols, maxFeatures: maxFeatures, rng: rng}
			forest[t] = b.grow(sample)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to fit random forest: %w", err)
	}
	m.forest = forest
	return nil
}

// Predict averages tree probabilities and labels rows above 0.5 as 1.
func (m *RandomForest) Predict(_ context.Context, x mat.Matrix) ([]int, error) {
	if m.forest == nil {
		return nil, fmt.Errorf("failed to predict random forest: %w", ErrNotFitted)
	}
	rows := denseRows(x)
	out := make([]int, len(rows))
	for i, row := range rows {
		sum := 0.0
		for _, tree := range m.forest {
			sum += tree.predict(row)
		}
		if sum/float64(len(m.forest)) > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob1
}

type treeBuilder struct {
	data        [][]float64
	y           []int
	cols        int
	maxFeatures int
	rng         *rand.Rand
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) grow(idx []int) *treeNode {
	ones := 0
	for _, i := range idx {
		ones += b.y[i]
	}
	prob1 := float64(ones) / float64(len(idx))
	if ones == 0 || ones == len(idx) || len(idx) < 2 {
		return &treeNode{leaf: true, prob1: prob1}
	}
	best, ok := b.bestSplit(idx)
	if !ok {
		return &treeNode{leaf: true, prob1: prob1}
	}
	var left, right []int
	for _, i := range idx {
		if b.data[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   best.feature,
		threshold: best.threshold,
		left:      b.grow(left),
		right:     b.grow(right),
	}
}

// bestSplit visits features in random order until maxFeatures non-constant
// features were scored and at least one split was found.
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	best := split{impurity: math.Inf(1)}
	found := false
	visited := 0
	sorted := make([]int, len(idx))
	for _, f := range b.rng.Perm(b.cols) {
		if visited >= b.maxFeatures && found {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.data[sorted[i]][f] < b.data[sorted[j]][f]
		})
		if b.data[sorted[0]][f] == b.data[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++
		if s, ok := b.scoreFeature(sorted, f); ok && s.impurity < best.impurity {
			best = s
			found = true
		}
	}
	return best, found
}

func (b *treeBuilder) scoreFeature(sorted []int, f int) (split, bool) {
	total := len(sorted)
	totalOnes := 0
	for _, i := range sorted {
		totalOnes += b.y[i]
	}
	best := split{feature: f, impurity: math.Inf(1)}
	found := false
	leftOnes := 0
	for pos := 1; pos < total; pos++ {
		leftOnes += b.y[sorted[pos-1]]
		lo, hi := b.data[sorted[pos-1]][f], b.data[sorted[pos]][f]
		if lo == hi {
			continue
		}
		nl, nr := float64(pos), float64(total-pos)
		imp := (nl*gini(float64(leftOnes), nl) + nr*gini(float64(totalOnes-leftOnes), nr)) / float64(total)
		if imp < best.impurity {
			best.impurity = imp
			best.threshold = lo + (hi-lo)/2
			found = true
		}
	}
	return best, found
}

func gini(ones, n float64) float64 {
	p := ones / n
	return 2 * p * (1 - p)
}
