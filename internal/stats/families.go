// Package stats contains summary calculations and text reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/hairstat/internal/model"
)

// FamiliesByRuns returns evaluated model families ordered by run count.
func FamiliesByRuns(evals []model.EvaluationRecord) []model.Family {
	if len(evals) == 0 {
		return nil
	}
	counts := map[model.Family]int{}
	for _, e := range evals {
		counts[e.Result.Model.Family]++
	}
	out := make([]model.Family, 0, len(counts))
	for f := range counts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] == counts[out[j]] {
			return out[i] < out[j]
		}
		return counts[out[i]] > counts[out[j]]
	})
	return out
}
