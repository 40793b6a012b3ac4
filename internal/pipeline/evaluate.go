package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/learn"
	"github.com/verte-zerg/hairstat/internal/model"
)

// Evaluate splits the dataset, standardizes on the training split, fits the
// chosen classifier and scores it on both splits. Accuracies are rounded to
// three decimals. The fitted model is dropped on return.
func Evaluate(ctx context.Context, ds *dataset.Dataset, spec model.ModelSpec, opts Options) (model.EvaluationResult, error) {
	if err := ValidateSpec(spec); err != nil {
		return model.EvaluationResult{}, err
	}
	log := opts.logger().With(ModelNameKey, spec.String())
	started := time.Now()

	x, y, err := project(ds)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	trainIdx, testIdx, err := learn.TrainTestSplit(len(y), opts.TestFraction, opts.Seed)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	xTrain, yTrain := learn.SelectRows(x, trainIdx), learn.SelectLabels(y, trainIdx)
	xTest, yTest := learn.SelectRows(x, testIdx), learn.SelectLabels(y, testIdx)

	var scaler learn.StandardScaler
	if err := scaler.Fit(xTrain); err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	if xTrain, err = scaler.Transform(xTrain); err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	if xTest, err = scaler.Transform(xTest); err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}

	clf := newClassifier(spec, opts)
	_, features := xTrain.Dims()
	log.Debug("fitting classifier", OperationKey, "fit", SamplesKey, len(yTrain), FeaturesKey, features)
	if err := clf.Fit(ctx, xTrain, yTrain); err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	trainPred, err := clf.Predict(ctx, xTrain)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	testPred, err := clf.Predict(ctx, xTest)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	trainAcc, err := learn.Accuracy(yTrain, trainPred)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	testAcc, err := learn.Accuracy(yTest, testPred)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	cm, err := learn.ConfusionMatrix(yTest, testPred)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("%w: %w", ErrTraining, err)
	}

	result := model.EvaluationResult{
		Model:         spec,
		TrainSize:     len(yTrain),
		TestSize:      len(yTest),
		TrainAccuracy: learn.Round(trainAcc, 3),
		TestAccuracy:  learn.Round(testAcc, 3),
		Baseline:      learn.Round(learn.MajorityShare(y), 4),
		Confusion:     cm,
	}
	log.Info("evaluation finished",
		OperationKey, "score",
		SamplesKey, len(y),
		AccuracyKey, result.TestAccuracy,
		DurationMsKey, time.Since(started).Milliseconds(),
	)
	return result, nil
}

func newClassifier(spec model.ModelSpec, opts Options) learn.Classifier {
	switch spec.Family {
	case model.FamilyForest:
		rf := learn.NewRandomForest(opts.Seed)
		if opts.ForestTrees > 0 {
			rf.Trees = opts.ForestTrees
		}
		if opts.Workers > 0 {
			rf.Workers = opts.Workers
		}
		return rf
	case model.FamilyKNN:
		knn := learn.NewKNN(spec.Neighbors)
		if opts.Workers > 0 {
			knn.Workers = opts.Workers
		}
		return knn
	default:
		lr := learn.NewLogisticRegression()
		if opts.LogisticC > 0 {
			lr.C = opts.LogisticC
		}
		if opts.LogisticMaxIter > 0 {
			lr.MaxIter = opts.LogisticMaxIter
		}
		return lr
	}
}
