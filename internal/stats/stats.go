// Package stats contains summary calculations and text reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/eda"
	"github.com/verte-zerg/hairstat/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Outcome segment names used in charts and tables.
const (
	NoHairLossLabel = "No Hair Loss (0)"
	HairLossLabel   = "Hair Loss (1)"
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// OverviewOptions selects the sections of the data overview.
type OverviewOptions struct {
	Frame     bool
	FrameRows int
	Columns   bool
	Breakdown bool
	Shape     bool
}

// RenderOverview prints the selected overview sections for a dataset.
func RenderOverview(w io.Writer, ds *dataset.Dataset, opts OverviewOptions) error {
	var lines []string
	if opts.Frame {
		lines = append(lines, "DataFrame")
		lines = append(lines, formatTable(ds.Header(), ds.Head(opts.FrameRows), nil)...)
		lines = append(lines, "")
	}
	if opts.Columns {
		lines = append(lines, "Column List")
		for _, name := range ds.Header() {
			lines = append(lines, fmt.Sprintf("  %q", name))
		}
		lines = append(lines, "")
	}
	if opts.Breakdown {
		numeric, categorical := SplitColumns(ds.Columns())
		lines = append(lines, "Numerical Columns: "+quoteJoin(numeric))
		lines = append(lines, "Object Columns: "+quoteJoin(categorical))
		lines = append(lines, "")
	}
	if opts.Shape {
		lines = append(lines, ShapeSentence(ds))
		lines = append(lines, "")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SplitColumns partitions column names by kind, keeping file order.
func SplitColumns(cols []model.Column) (numeric, categorical []string) {
	for _, c := range cols {
		if c.Kind == model.KindNumeric {
			numeric = append(numeric, c.Name)
		} else {
			categorical = append(categorical, c.Name)
		}
	}
	return numeric, categorical
}

// ShapeSentence describes the dataset dimensions.
func ShapeSentence(ds *dataset.Dataset) string {
	rows, cols := ds.Shape()
	return fmt.Sprintf("There are %d rows and %d columns.", rows, cols)
}

func quoteJoin(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

// AggregationBars converts a ranked breakdown into stacked bars.
func AggregationBars(res model.AggregationResult) []Bar {
	bars := make([]Bar, len(res.Levels))
	for i, l := range res.Levels {
		bars[i] = Bar{
			Label: l.Level,
			Segments: []BarSegment{
				{Name: NoHairLossLabel, Percent: l.Percent0},
				{Name: HairLossLabel, Percent: l.Percent1},
			},
		}
	}
	return bars
}

// RenderAggregation prints the stacked bar chart and its percentage table.
func RenderAggregation(w io.Writer, res model.AggregationResult, totalWidth int, useColor bool) error {
	if err := RenderStackedBars(w, eda.Title(res.Column), AggregationBars(res), totalWidth, useColor); err != nil {
		return err
	}
	headers := []string{"Level", "Records", NoHairLossLabel, HairLossLabel}
	rows := make([][]string, 0, len(res.Levels))
	for _, l := range res.Levels {
		rows = append(rows, []string{
			l.Level,
			fmt.Sprintf("%d", l.Count),
			fmt.Sprintf("%.1f%%", l.Percent0),
			fmt.Sprintf("%.1f%%", l.Percent1),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}))
}

// RenderEvaluation prints accuracies and the confusion matrix.
func RenderEvaluation(w io.Writer, res model.EvaluationResult) error {
	lines := []string{
		fmt.Sprintf("Model: %s", res.Model),
		fmt.Sprintf("Training accuracy: %.3f (%d records)", res.TrainAccuracy, res.TrainSize),
		fmt.Sprintf("Testing accuracy: %.3f (%d records)", res.TestAccuracy, res.TestSize),
		fmt.Sprintf("Baseline (majority class): %.2f%%", res.Baseline*100),
		"",
		"Confusion matrix (rows: actual, columns: predicted)",
	}
	lines = append(lines, ConfusionLines(res.Confusion)...)
	return writeLines(w, lines)
}

// ConfusionLines formats a 2x2 confusion matrix as an aligned table.
func ConfusionLines(cm [2][2]int) []string {
	headers := []string{"", "Predicted 0", "Predicted 1"}
	rows := [][]string{
		{"Actual 0", fmt.Sprintf("%d", cm[0][0]), fmt.Sprintf("%d", cm[0][1])},
		{"Actual 1", fmt.Sprintf("%d", cm[1][0]), fmt.Sprintf("%d", cm[1][1])},
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true})
}

// RenderPrediction prints the chosen inputs and the verdict.
func RenderPrediction(w io.Writer, input model.PredictionInput, p model.Prediction) error {
	rows := make([][]string, 0, len(input))
	for _, name := range dataset.PredictionFeatures {
		v, ok := input[name]
		if !ok {
			continue
		}
		rows = append(rows, []string{strings.TrimSpace(name), fmt.Sprintf("%g", v)})
	}
	lines := formatTable([]string{"Feature", "Value"}, rows, map[int]bool{1: true})
	lines = append(lines, "", p.Verdict)
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
