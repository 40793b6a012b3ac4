package learn

import (
	"fmt"
	"math"
)

// Accuracy returns the fraction of exact label matches.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("label length mismatch: %d vs %d", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, fmt.Errorf("no labels to score")
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue)), nil
}

// ConfusionMatrix counts binary outcomes indexed [actual][predicted].
func ConfusionMatrix(yTrue, yPred []int) ([2][2]int, error) {
	var cm [2][2]int
	if len(yTrue) != len(yPred) {
		return cm, fmt.Errorf("label length mismatch: %d vs %d", len(yTrue), len(yPred))
	}
	for i := range yTrue {
		a, p := yTrue[i], yPred[i]
		if a < 0 || a > 1 || p < 0 || p > 1 {
			return cm, fmt.Errorf("non-binary label at %d: actual=%d predicted=%d", i, a, p)
		}
		cm[a][p]++
	}
	return cm, nil
}

// MajorityShare returns the share of the most frequent label.
func MajorityShare(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	ones := 0
	for _, v := range y {
		if v == 1 {
			ones++
		}
	}
	share := float64(ones) / float64(len(y))
	return math.Max(share, 1-share)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
