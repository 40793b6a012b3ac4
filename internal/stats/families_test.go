package stats

import (
	"testing"

	"github.com/verte-zerg/hairstat/internal/model"
)

func evalRecord(family model.Family, test float64) model.EvaluationRecord {
	return model.EvaluationRecord{
		Result: model.EvaluationResult{
			Model:        model.ModelSpec{Family: family},
			TestAccuracy: test,
		},
	}
}

func TestFamiliesByRuns(t *testing.T) {
	evals := []model.EvaluationRecord{
		evalRecord(model.FamilyForest, 0.5),
		evalRecord(model.FamilyKNN, 0.5),
		evalRecord(model.FamilyKNN, 0.6),
		evalRecord(model.FamilyLogistic, 0.4),
	}
	got := FamiliesByRuns(evals)
	want := []model.Family{model.FamilyKNN, model.FamilyLogistic, model.FamilyForest}
	if len(got) != len(want) {
		t.Fatalf("expected %d families, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
	if FamiliesByRuns(nil) != nil {
		t.Fatalf("expected nil for no runs")
	}
}

func TestBestByFamily(t *testing.T) {
	evals := []model.EvaluationRecord{
		evalRecord(model.FamilyKNN, 0.52),
		evalRecord(model.FamilyLogistic, 0.48),
		evalRecord(model.FamilyKNN, 0.61),
		evalRecord(model.FamilyLogistic, 0.55),
	}
	best := BestByFamily(evals)
	if len(best) != 2 {
		t.Fatalf("expected 2 families, got %d", len(best))
	}
	if best[0].Result.Model.Family != model.FamilyKNN || best[0].Result.TestAccuracy != 0.61 {
		t.Fatalf("unexpected first entry: %+v", best[0].Result)
	}
	if best[1].Result.Model.Family != model.FamilyLogistic || best[1].Result.TestAccuracy != 0.55 {
		t.Fatalf("unexpected second entry: %+v", best[1].Result)
	}
}
