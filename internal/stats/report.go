// Package stats contains summary calculations and text reporting.
package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/store"
)

const historyTimeLayout = "2006-01-02 15:04"

// History contains journal data prepared for rendering.
type History struct {
	Evaluations []model.EvaluationRecord
	Predictions []model.PredictionRecord
}

// BuildHistory loads journal runs and keeps the last N of each kind.
func BuildHistory(ctx context.Context, st *store.Store, filter model.HistoryFilter) (History, error) {
	evals, err := st.ListEvaluations(ctx, filter)
	if err != nil {
		return History{}, err
	}
	preds, err := st.ListPredictions(ctx, filter)
	if err != nil {
		return History{}, err
	}
	if filter.Last > 0 && len(evals) > filter.Last {
		evals = evals[len(evals)-filter.Last:]
	}
	if filter.Last > 0 && len(preds) > filter.Last {
		preds = preds[len(preds)-filter.Last:]
	}
	return History{Evaluations: evals, Predictions: preds}, nil
}

// AccuracySeries builds one smoothed test-accuracy series per family, most
// frequently evaluated family first.
func AccuracySeries(evals []model.EvaluationRecord, window int) []Series {
	families := FamiliesByRuns(evals)
	series := make([]Series, 0, len(families))
	for _, f := range families {
		var values []float64
		for _, e := range evals {
			if e.Result.Model.Family == f {
				values = append(values, e.Result.TestAccuracy*100)
			}
		}
		series = append(series, Series{Name: f.Title(), Values: MovingAverage(values, window)})
	}
	return series
}

// RenderHistoryCurves plots test accuracy over runs sized to a total width.
func RenderHistoryCurves(w io.Writer, evals []model.EvaluationRecord, window, totalWidth, height int, useColor bool) error {
	if len(evals) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Test Accuracy Over Runs", AccuracySeries(evals, window), AccuracyRange, width, height, useColor)
}

// RenderHistory prints best runs, accuracy trends and recent runs.
func RenderHistory(w io.Writer, hist History, window int) error {
	if len(hist.Evaluations) == 0 && len(hist.Predictions) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	if len(hist.Evaluations) > 0 {
		lines := []string{"Best Test Accuracy"}
		rows := [][]string{}
		for _, rec := range BestByFamily(hist.Evaluations) {
			rows = append(rows, []string{rec.Result.Model.String(), fmt.Sprintf("%.3f", rec.Result.TestAccuracy), rec.CreatedAt.Local().Format(historyTimeLayout)})
		}
		lines = append(lines, formatTable([]string{"Model", "Test", "When"}, rows, map[int]bool{1: true})...)
		lines = append(lines, "", "Trend")
		for _, s := range AccuracySeries(hist.Evaluations, window) {
			lines = append(lines, fmt.Sprintf("%-20s %s", s.Name, Sparkline(s.Values)))
		}
		lines = append(lines, "", "Evaluations")
		lines = append(lines, EvaluationTable(hist.Evaluations)...)
		lines = append(lines, "")
		if err := writeLines(w, lines); err != nil {
			return err
		}
	}
	if len(hist.Predictions) > 0 {
		lines := []string{"Predictions"}
		lines = append(lines, PredictionTable(hist.Predictions)...)
		lines = append(lines, "")
		if err := writeLines(w, lines); err != nil {
			return err
		}
	}
	return nil
}

// EvaluationTable formats evaluation runs, oldest first.
func EvaluationTable(evals []model.EvaluationRecord) []string {
	rows := make([][]string, 0, len(evals))
	for _, e := range evals {
		rows = append(rows, []string{
			e.CreatedAt.Local().Format(historyTimeLayout),
			e.Result.Model.String(),
			fmt.Sprintf("%.3f", e.Result.TrainAccuracy),
			fmt.Sprintf("%.3f", e.Result.TestAccuracy),
		})
	}
	return formatTable([]string{"When", "Model", "Train", "Test"}, rows, map[int]bool{2: true, 3: true})
}

// PredictionTable formats prediction runs, oldest first.
func PredictionTable(preds []model.PredictionRecord) []string {
	rows := make([][]string, 0, len(preds))
	for _, p := range preds {
		rows = append(rows, []string{
			p.CreatedAt.Local().Format(historyTimeLayout),
			fmt.Sprintf("%g", p.Input["Age"]),
			fmt.Sprintf("%d", p.Result.Label),
			p.Result.Verdict,
		})
	}
	return formatTable([]string{"When", "Age", "Label", "Verdict"}, rows, map[int]bool{1: true, 2: true})
}

func sinceLabel(since *time.Time) string {
	if since == nil {
		return "any"
	}
	return since.Format("2006-01-02")
}

// FilterSummary describes a history filter on one line.
func FilterSummary(filter model.HistoryFilter) string {
	family := string(filter.Family)
	if family == "" {
		family = "any"
	}
	last := "all"
	if filter.Last > 0 {
		last = fmt.Sprintf("%d", filter.Last)
	}
	return fmt.Sprintf("Settings: model=%s  since=%s  last=%s  window=%d", family, sinceLabel(filter.Since), last, filter.CurveWindow)
}
