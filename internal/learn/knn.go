package learn

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Classifier is a binary classifier over dense feature matrices.
type Classifier interface {
	Fit(ctx context.Context, x mat.Matrix, y []int) error
	Predict(ctx context.Context, x mat.Matrix) ([]int, error)
}

// KNN is a k-nearest-neighbors classifier with euclidean distance and
// uniform majority vote. Equal distances are ordered by training index and
// a tied vote resolves to label 0.
type KNN struct {
	K       int
	Workers int

	train [][]float64
	y     []int
}

// NewKNN returns a classifier voting over k neighbors on all CPUs.
func NewKNN(k int) *KNN {
	return &KNN{K: k, Workers: runtime.NumCPU()}
}

// Fit memorizes the training set.
func (m *KNN) Fit(_ context.Context, x mat.Matrix, y []int) error {
	rows, _ := x.Dims()
	if len(y) != rows {
		return fmt.Errorf("failed to fit knn: %d samples but %d labels", rows, len(y))
	}
	if m.K < 1 {
		return fmt.Errorf("failed to fit knn: k must be >= 1, got %d", m.K)
	}
	if m.K > rows {
		return fmt.Errorf("failed to fit knn: k=%d exceeds %d training samples", m.K, rows)
	}
	m.train = denseRows(x)
	m.y = append([]int(nil), y...)
	return nil
}

// Predict labels every row of x. Rows are scored concurrently.
func (m *KNN) Predict(ctx context.Context, x mat.Matrix) ([]int, error) {
	if m.train == nil {
		return nil, fmt.Errorf("failed to predict knn: %w", ErrNotFitted)
	}
	rows := denseRows(x)
	out := make([]int, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(m.Workers))
	for i := range rows {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = m.predictRow(rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to predict knn: %w", err)
	}
	return out, nil
}

func (m *KNN) predictRow(row []float64) int {
	type neighbor struct {
		idx  int
		dist float64
	}
	neighbors := make([]neighbor, len(m.train))
	for i, t := range m.train {
		neighbors[i] = neighbor{idx: i, dist: floats.Distance(row, t, 2)}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].dist == neighbors[j].dist {
			return neighbors[i].idx < neighbors[j].idx
		}
		return neighbors[i].dist < neighbors[j].dist
	})
	var votes [2]int
	for _, n := range neighbors[:m.K] {
		votes[m.y[n.idx]]++
	}
	if votes[1] > votes[0] {
		return 1
	}
	return 0
}

func denseRows(x mat.Matrix) [][]float64 {
	rows, _ := x.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = mat.Row(nil, i, x)
	}
	return out
}

func workerCount(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
