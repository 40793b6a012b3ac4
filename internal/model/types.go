// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// ColumnKind classifies a dataset column for display and aggregation.
type ColumnKind string

// Column kinds.
const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// Column describes one dataset column.
type Column struct {
	Name string     `json:"name" yaml:"name"`
	Kind ColumnKind `json:"kind" yaml:"kind"`
}

// Family names a classifier family.
type Family string

// Supported classifier families.
const (
	FamilyLogistic Family = "logistic-regression"
	FamilyForest   Family = "random-forest"
	FamilyKNN      Family = "k-nearest-neighbors"
)

// Families lists the classifier families in display order.
var Families = []Family{FamilyLogistic, FamilyForest, FamilyKNN}

// Title returns the human-readable family name.
func (f Family) Title() string {
	switch f {
	case FamilyLogistic:
		return "Logistic Regression"
	case FamilyForest:
		return "Random Forest"
	case FamilyKNN:
		return "K-Nearest Neighbors"
	default:
		return string(f)
	}
}

// ModelSpec selects a classifier family and its user-tunable parameter.
type ModelSpec struct {
	Family    Family `json:"family" yaml:"family"`
	Neighbors int    `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
}

// String describes the spec for display.
func (s ModelSpec) String() string {
	if s.Family == FamilyKNN {
		return fmt.Sprintf("%s (k=%d)", s.Family.Title(), s.Neighbors)
	}
	return s.Family.Title()
}

// LevelShare holds outcome percentages for one level of a categorical column.
type LevelShare struct {
	Level    string  `json:"level" yaml:"level"`
	Count    int     `json:"count" yaml:"count"`
	Percent0 float64 `json:"percent_0" yaml:"percent_0"`
	Percent1 float64 `json:"percent_1" yaml:"percent_1"`
}

// AggregationResult is a ranked per-level outcome breakdown.
type AggregationResult struct {
	Column string       `json:"column" yaml:"column"`
	Levels []LevelShare `json:"levels" yaml:"levels"`
}

// Ranking returns the level labels in ranked order.
func (r AggregationResult) Ranking() []string {
	out := make([]string, len(r.Levels))
	for i, l := range r.Levels {
		out[i] = l.Level
	}
	return out
}

// EvaluationResult reports the outcome of one train/test evaluation.
// Confusion is indexed [actual][predicted].
type EvaluationResult struct {
	Model         ModelSpec `json:"model" yaml:"model"`
	TrainSize     int       `json:"train_size" yaml:"train_size"`
	TestSize      int       `json:"test_size" yaml:"test_size"`
	TrainAccuracy float64   `json:"train_accuracy" yaml:"train_accuracy"`
	TestAccuracy  float64   `json:"test_accuracy" yaml:"test_accuracy"`
	Baseline      float64   `json:"baseline" yaml:"baseline"`
	Confusion     [2][2]int `json:"confusion" yaml:"confusion"`
}

// PredictionInput maps feature names to the values chosen by the user.
type PredictionInput map[string]float64

// Prediction is the classification of one input row.
type Prediction struct {
	Label   int    `json:"label" yaml:"label"`
	Verdict string `json:"verdict" yaml:"verdict"`
}

// FeatureDomain bounds the values a prediction feature accepts.
type FeatureDomain struct {
	Name    string  `json:"name" yaml:"name"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Step    float64 `json:"step" yaml:"step"`
	Default float64 `json:"default" yaml:"default"`
}

// EvaluationRecord is a journaled evaluation run.
type EvaluationRecord struct {
	ID        string           `json:"id" yaml:"id"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	Result    EvaluationResult `json:"result" yaml:"result"`
}

// PredictionRecord is a journaled prediction run.
type PredictionRecord struct {
	ID        string          `json:"id" yaml:"id"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	Input     PredictionInput `json:"input" yaml:"input"`
	Result    Prediction      `json:"result" yaml:"result"`
}

// HistoryFilter defines filters and options for journal output.
type HistoryFilter struct {
	Family      Family
	Since       *time.Time
	Last        int
	CurveWindow int
}
