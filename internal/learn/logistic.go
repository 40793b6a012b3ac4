package learn

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularized binary logistic regression fitted
// with L-BFGS. The intercept is not penalized.
type LogisticRegression struct {
	C       float64
	MaxIter int
	Tol     float64

	Coef      []float64
	Intercept float64
}

// NewLogisticRegression returns a model with C=1, 100 iterations and tolerance 1e-4.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1.0, MaxIter: 100, Tol: 1e-4}
}

// Fit minimizes 0.5*||w||^2 + C*sum(logloss). Hitting the iteration limit
// keeps the last iterate.
func (m *LogisticRegression) Fit(_ context.Context, x mat.Matrix, y []int) error {
	rows, cols := x.Dims()
	if len(y) != rows {
		return fmt.Errorf("failed to fit logistic regression: %d samples but %d labels", rows, len(y))
	}
	if rows == 0 {
		return fmt.Errorf("failed to fit logistic regression: no samples")
	}
	if m.C <= 0 {
		return fmt.Errorf("failed to fit logistic regression: C must be > 0, got %v", m.C)
	}
	data := denseRows(x)
	target := make([]float64, rows)
	for i, v := range y {
		target[i] = float64(v)
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			w, b := params[:cols], params[cols]
			loss := 0.0
			for i, row := range data {
				z := floats.Dot(w, row) + b
				loss += softplus(z) - target[i]*z
			}
			return 0.5*floats.Dot(w, w) + m.C*loss
		},
		Grad: func(grad, params []float64) {
			w, b := params[:cols], params[cols]
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range data {
				z := floats.Dot(w, row) + b
				d := m.C * (sigmoid(z) - target[i])
				floats.AddScaled(grad[:cols], d, row)
				grad[cols] += d
			}
			floats.Add(grad[:cols], w)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: m.Tol,
		MajorIterations:   m.MaxIter,
	}
	init := make([]float64, cols+1)
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil || !allFinite(result.X) {
		if err == nil {
			err = fmt.Errorf("non-finite solution")
		}
		return fmt.Errorf("failed to fit logistic regression: %w", err)
	}
	m.Coef = append([]float64(nil), result.X[:cols]...)
	m.Intercept = result.X[cols]
	return nil
}

// Predict labels rows with a positive decision value as 1.
func (m *LogisticRegression) Predict(_ context.Context, x mat.Matrix) ([]int, error) {
	if m.Coef == nil {
		return nil, fmt.Errorf("failed to predict logistic regression: %w", ErrNotFitted)
	}
	rows := denseRows(x)
	out := make([]int, len(rows))
	for i, row := range rows {
		if len(row) != len(m.Coef) {
			return nil, fmt.Errorf("failed to predict logistic regression: expected %d features, got %d", len(m.Coef), len(row))
		}
		if floats.Dot(m.Coef, row)+m.Intercept > 0 {
			out[i] = 1
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
