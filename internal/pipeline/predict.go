package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/learn"
	"github.com/verte-zerg/hairstat/internal/model"
)

// Verdicts shown for each predicted label.
const (
	VerdictHairLoss   = "The model predicts for hair loss!"
	VerdictNoHairLoss = "The model predicts for no hair loss!"
)

// FeatureDomains returns the accepted value range of every prediction
// feature, in matrix order.
func FeatureDomains() []model.FeatureDomain {
	out := make([]model.FeatureDomain, 0, len(dataset.PredictionFeatures))
	for _, name := range dataset.PredictionFeatures {
		if name == "Age" {
			out = append(out, model.FeatureDomain{Name: name, Min: 1, Max: 100, Step: 1, Default: 1})
			continue
		}
		out = append(out, model.FeatureDomain{Name: name, Min: 0, Max: 1, Step: 1, Default: 1})
	}
	return out
}

// DefaultInput returns every feature at its default value.
func DefaultInput() model.PredictionInput {
	in := model.PredictionInput{}
	for _, d := range FeatureDomains() {
		in[d.Name] = d.Default
	}
	return in
}

// Verdict maps a label to its message.
func Verdict(label int) string {
	if label == 1 {
		return VerdictHairLoss
	}
	return VerdictNoHairLoss
}

// ValidateInput checks that the input names exactly the prediction features
// and that every value lies on its domain grid.
func ValidateInput(input model.PredictionInput) error {
	domains := FeatureDomains()
	known := make(map[string]model.FeatureDomain, len(domains))
	for _, d := range domains {
		known[d.Name] = d
	}
	unknown := make([]string, 0)
	for name := range input {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown feature %q", ErrPrediction, unknown[0])
	}
	for _, d := range domains {
		v, ok := input[d.Name]
		if !ok {
			return fmt.Errorf("%w: missing feature %q", ErrPrediction, d.Name)
		}
		if math.IsNaN(v) || v < d.Min || v > d.Max || math.Mod(v-d.Min, d.Step) != 0 {
			return fmt.Errorf("%w: %q must be between %g and %g in steps of %g, got %g", ErrPrediction, d.Name, d.Min, d.Max, d.Step, v)
		}
	}
	return nil
}

// Predict fits k-NN with the default neighbor count on the full, unscaled
// dataset and classifies one input row.
func Predict(ctx context.Context, ds *dataset.Dataset, input model.PredictionInput, opts Options) (model.Prediction, error) {
	if err := ValidateInput(input); err != nil {
		return model.Prediction{}, err
	}
	k := opts.PredictNeighbors
	if k <= 0 {
		k = DefaultOptions().PredictNeighbors
	}
	log := opts.logger().With(ModelNameKey, fmt.Sprintf("KNN(k=%d)", k))
	started := time.Now()

	x, y, err := project(ds)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	knn := learn.NewKNN(k)
	if opts.Workers > 0 {
		knn.Workers = opts.Workers
	}
	if err := knn.Fit(ctx, x, y); err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	row := make([]float64, len(dataset.PredictionFeatures))
	for j, name := range dataset.PredictionFeatures {
		row[j] = input[name]
	}
	labels, err := knn.Predict(ctx, mat.NewDense(1, len(row), row))
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	label := labels[0]
	log.Info("prediction finished",
		OperationKey, "predict",
		SamplesKey, len(y),
		"prediction.label", label,
		DurationMsKey, time.Since(started).Milliseconds(),
	)
	return model.Prediction{Label: label, Verdict: Verdict(label)}, nil
}
