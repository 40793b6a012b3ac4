package stats

import (
	"sort"

	"github.com/verte-zerg/hairstat/internal/model"
)

// BestByFamily selects the highest test-accuracy run for each family, best
// first. Earlier runs win ties.
func BestByFamily(evals []model.EvaluationRecord) []model.EvaluationRecord {
	best := map[model.Family]model.EvaluationRecord{}
	for _, e := range evals {
		cur, ok := best[e.Result.Model.Family]
		if !ok || e.Result.TestAccuracy > cur.Result.TestAccuracy {
			best[e.Result.Model.Family] = e
		}
	}
	out := make([]model.EvaluationRecord, 0, len(best))
	for _, rec := range best {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Result.TestAccuracy == out[j].Result.TestAccuracy {
			return out[i].Result.Model.Family < out[j].Result.Model.Family
		}
		return out[i].Result.TestAccuracy > out[j].Result.TestAccuracy
	})
	return out
}
