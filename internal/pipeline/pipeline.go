// Package pipeline runs model evaluation and live prediction over the
// prediction dataset.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/model"
)

var (
	// ErrTraining reports a failed evaluation fit or unusable training data.
	ErrTraining = errors.New("training failed")
	// ErrPrediction reports an invalid prediction input or failed prediction fit.
	ErrPrediction = errors.New("prediction failed")
	// ErrInvalidModelSpec reports an unknown family or out-of-range parameter.
	ErrInvalidModelSpec = errors.New("invalid model spec")
)

// Neighbor slider bounds for evaluation.
const (
	MinNeighbors     = 1
	MaxNeighbors     = 29
	NeighborStep     = 2
	DefaultNeighbors = 5
)

// Structured log attribute keys.
const (
	ModelNameKey  = "model.name"
	OperationKey  = "ml.operation"
	SamplesKey    = "data.samples"
	FeaturesKey   = "data.features"
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metric.accuracy"
)

// Options carries the tunable defaults of both pipelines.
type Options struct {
	Seed             int64
	TestFraction     float64
	ForestTrees      int
	LogisticC        float64
	LogisticMaxIter  int
	PredictNeighbors int
	Workers          int
	Logger           *slog.Logger
}

// DefaultOptions returns seed 42, a 25% test split and library-style defaults.
func DefaultOptions() Options {
	return Options{
		Seed:             42,
		TestFraction:     0.25,
		ForestTrees:      100,
		LogisticC:        1.0,
		LogisticMaxIter:  100,
		PredictNeighbors: 5,
		Workers:          runtime.NumCPU(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseFamily accepts a family name or a short alias.
func ParseFamily(s string) (model.Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logistic-regression", "logistic", "logreg", "lr":
		return model.FamilyLogistic, nil
	case "random-forest", "forest", "rf":
		return model.FamilyForest, nil
	case "k-nearest-neighbors", "knn":
		return model.FamilyKNN, nil
	default:
		return "", fmt.Errorf("%w: unknown model %q", ErrInvalidModelSpec, s)
	}
}

// ValidateSpec checks the family and, for k-NN, the neighbor bounds.
// Even k values are accepted.
func ValidateSpec(spec model.ModelSpec) error {
	switch spec.Family {
	case model.FamilyLogistic, model.FamilyForest:
		return nil
	case model.FamilyKNN:
		if spec.Neighbors < MinNeighbors || spec.Neighbors > MaxNeighbors {
			return fmt.Errorf("%w: k must be between %d and %d, got %d", ErrInvalidModelSpec, MinNeighbors, MaxNeighbors, spec.Neighbors)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown model %q", ErrInvalidModelSpec, spec.Family)
	}
}

// project builds the feature matrix and outcome vector.
func project(ds *dataset.Dataset) (*mat.Dense, []int, error) {
	rows := ds.Len()
	if rows == 0 {
		return nil, nil, fmt.Errorf("dataset %s has no records", ds.Name())
	}
	cols := len(dataset.PredictionFeatures)
	x := mat.NewDense(rows, cols, nil)
	for j, name := range dataset.PredictionFeatures {
		values, err := ds.Floats(name)
		if err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("column %q row %d: value is not finite", name, i+2)
			}
			x.Set(i, j, v)
		}
	}
	return x, ds.Outcome(), nil
}
