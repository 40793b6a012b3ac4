package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/hairstat/internal/model"
)

func TestNilJournalIsDisabled(t *testing.T) {
	var j *Journal
	if j.Enabled() {
		t.Fatalf("expected nil journal to be disabled")
	}
	j.Evaluation(context.Background(), model.EvaluationResult{})
	j.Prediction(context.Background(), model.PredictionInput{}, model.Prediction{})
	if err := j.Close(); err != nil {
		t.Fatalf("close nil journal: %v", err)
	}
	if _, err := j.History(context.Background(), model.HistoryFilter{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestJournalRecordsRuns(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "hairstat.db"), nil)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	ctx := context.Background()
	j.Evaluation(ctx, model.EvaluationResult{
		Model:        model.ModelSpec{Family: model.FamilyForest},
		TestAccuracy: 0.6,
	})
	j.Prediction(ctx, model.PredictionInput{"Age": 42}, model.Prediction{Label: 0, Verdict: "no"})

	hist, err := j.History(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Evaluations) != 1 || hist.Evaluations[0].Result.Model.Family != model.FamilyForest {
		t.Fatalf("unexpected evaluations: %+v", hist.Evaluations)
	}
	if len(hist.Predictions) != 1 || hist.Predictions[0].Input["Age"] != 42 {
		t.Fatalf("unexpected predictions: %+v", hist.Predictions)
	}
}
