package dashboard

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/hairstat/internal/eda"
	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/pipeline"
	"github.com/verte-zerg/hairstat/internal/stats"
)

// DatasetURL points at the public source of both tables.
const DatasetURL = "https://www.kaggle.com/datasets/amitvkulkarni/hair-health"

const homeText = "This dashboard makes the Hair Loss Prediction dataset easy to explore. " +
	"Look at how the data is distributed, compare how each factor relates to hair loss, " +
	"measure how well different machine learning models perform, and predict whether " +
	"an individual is likely to experience hair loss."

const aboutText = "Each row describes one individual. The columns record factors that may " +
	"contribute to baldness: genetics, hormonal changes, medical conditions, medications " +
	"and treatments, nutritional deficiencies, stress, age, hair care habits, environmental " +
	"factors, smoking, weight loss, and whether hair loss is present."

const modelingText = "Compare how well different machine learning models predict hair loss. " +
	"A model is worth keeping when its testing accuracy beats the baseline of always " +
	"guessing the most common outcome."

func renderHome(width int) string {
	lines := []string{
		cardValueStyle.Render(pageTitles[pageHome]),
		"Welcome to the Hair Loss Prediction dashboard!",
		"",
		wrapText(homeText, width),
		"",
		"Dataset: " + DatasetURL,
		"",
		"Use tab, shift+tab or the number keys to move between pages.",
	}
	return strings.Join(lines, "\n")
}

func checkbox(label, key string, on bool) string {
	mark := " "
	if on {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s (%s)", mark, label, key)
}

func (m *Model) renderOverview(width int) string {
	lines := []string{
		cardValueStyle.Render("About the Data"),
		wrapText(aboutText, width),
		"Dataset: " + DatasetURL,
		"",
		cardValueStyle.Render("Sneak Peek at the Data"),
		strings.Join([]string{
			checkbox("DataFrame", "d", m.toggles.frame),
			checkbox("Column List", "c", m.toggles.columns),
			checkbox("Breakdown", "b", m.toggles.breakdown),
			checkbox("Shape", "s", m.toggles.shape),
		}, "  "),
		"",
	}
	if m.toggles.frame {
		lines = append(lines, tableMutedStyle.Render(m.frame.View()), "")
	}
	var buf bytes.Buffer
	opts := stats.OverviewOptions{
		Columns:   m.toggles.columns,
		Breakdown: m.toggles.columns && m.toggles.breakdown,
		Shape:     m.toggles.shape,
	}
	if err := stats.RenderOverview(&buf, m.cfg.Prediction, opts); err != nil {
		lines = append(lines, fmt.Sprintf("Failed to render overview: %v", err))
	} else {
		lines = append(lines, strings.TrimRight(buf.String(), "\n"))
	}
	if m.toggles.breakdown && !m.toggles.columns {
		lines = append(lines, headerStyle.Render("Enable the column list to see the breakdown."))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func selectorLines(options []string, selected int) []string {
	lines := make([]string, len(options))
	for i, opt := range options {
		if i == selected {
			lines[i] = selectedStyle.Render("> " + opt)
		} else {
			lines[i] = "  " + opt
		}
	}
	return lines
}

func (m *Model) renderEDA(width int) string {
	cols := eda.Columns()
	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = strings.TrimSpace(c)
	}
	lines := []string{"Select a column:"}
	lines = append(lines, selectorLines(labels, m.edaIndex)...)
	lines = append(lines, "")
	if m.edaResult == nil {
		lines = append(lines, "No breakdown available.")
		return strings.Join(lines, "\n")
	}
	var buf bytes.Buffer
	if err := stats.RenderAggregation(&buf, *m.edaResult, width, true); err != nil {
		lines = append(lines, fmt.Sprintf("Failed to render chart: %v", err))
	} else {
		lines = append(lines, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderModeling(width int) string {
	names := make([]string, len(model.Families))
	for i, f := range model.Families {
		names[i] = f.Title()
	}
	lines := []string{wrapText(modelingText, width), "", "Select a model:"}
	lines = append(lines, selectorLines(names, m.familyIndex)...)
	if model.Families[m.familyIndex] == model.FamilyKNN {
		lines = append(lines, "", fmt.Sprintf("Number of neighbors k: %d  %s",
			m.neighbors, renderSlider(float64(m.neighbors), pipeline.MinNeighbors, pipeline.MaxNeighbors)))
	}
	lines = append(lines, "")
	switch {
	case m.evaluating:
		lines = append(lines, headerStyle.Render("Evaluating "+m.currentSpec().String()+"..."))
	case m.evaluation == nil:
		lines = append(lines, headerStyle.Render("Press enter to see the performance."))
	default:
		lines = append(lines, renderEvaluation(*m.evaluation, width))
	}
	return strings.Join(lines, "\n")
}

func renderEvaluation(res model.EvaluationResult, width int) string {
	cards := []string{
		metricCard("Training Accuracy", fmt.Sprintf("%.3f", res.TrainAccuracy)),
		metricCard("Testing Accuracy", fmt.Sprintf("%.3f", res.TestAccuracy)),
		metricCard("Baseline", fmt.Sprintf("%.2f%%", res.Baseline*100)),
	}
	var summary string
	if width < 60 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	verdict := fmt.Sprintf("Compared to the baseline of %.2f%%, this model does not beat it.", res.Baseline*100)
	if res.TestAccuracy > res.Baseline {
		verdict = fmt.Sprintf("Compared to the baseline of %.2f%%, this model beats it!", res.Baseline*100)
	}
	lines := []string{
		cardValueStyle.Render(res.Model.String() + " Evaluation"),
		summary,
		"",
		"Confusion matrix (rows: actual, columns: predicted)",
	}
	lines = append(lines, stats.ConfusionLines(res.Confusion)...)
	lines = append(lines, "", wrapText(verdict, width))
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderSlider(v, lo, hi float64) string {
	pos := 0
	if hi > lo {
		pos = int((v - lo) / (hi - lo) * float64(sliderWidth-1))
	}
	pos = maxInt(0, minInt(pos, sliderWidth-1))
	return strings.Repeat("━", pos) + "●" + strings.Repeat("─", sliderWidth-1-pos)
}

func (m *Model) renderPredict(width int) string {
	lines := []string{"Adjust the sliders to input data:", ""}
	domains := pipeline.FeatureDomains()
	labelWidth := 0
	for _, d := range domains {
		labelWidth = maxInt(labelWidth, lipgloss.Width(strings.TrimSpace(d.Name)))
	}
	for i, d := range domains {
		name := strings.TrimSpace(d.Name)
		row := fmt.Sprintf("%-*s  %s  %g", labelWidth, name, renderSlider(m.input[d.Name], d.Min, d.Max), m.input[d.Name])
		if i == m.fieldIndex {
			lines = append(lines, selectedStyle.Render("> "+row))
		} else {
			lines = append(lines, "  "+row)
		}
	}
	lines = append(lines, "", wrapText(fmt.Sprintf(
		"Predictions use k-nearest neighbors (k=%d) fitted on the full dataset.",
		m.cfg.Options.PredictNeighbors), width), "")
	switch {
	case m.predicting:
		lines = append(lines, headerStyle.Render("Predicting..."))
	case m.prediction == nil:
		lines = append(lines, headerStyle.Render("Press enter to make a prediction."))
	default:
		lines = append(lines, verdictStyle.Render(m.prediction.Verdict))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHistory(width int) string {
	if m.historyErr != "" {
		return fmt.Sprintf("Failed to load history: %s", m.historyErr)
	}
	hist := m.history
	if len(hist.Evaluations) == 0 && len(hist.Predictions) == 0 {
		return "No runs recorded."
	}
	var sections []string
	if len(hist.Evaluations) > 0 {
		cards := []string{metricCard("Evaluations", fmt.Sprintf("%d", len(hist.Evaluations)))}
		for _, rec := range stats.BestByFamily(hist.Evaluations) {
			cards = append(cards, metricCard("Best "+rec.Result.Model.Family.Title(), fmt.Sprintf("%.3f", rec.Result.TestAccuracy)))
		}
		if width < 80 {
			sections = append(sections, strings.Join(cards, "\n"))
		} else {
			sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		}
		var buf bytes.Buffer
		if err := stats.RenderHistoryCurves(&buf, hist.Evaluations, m.cfg.Filter.CurveWindow, width, plotHeight, true); err != nil {
			sections = append(sections, fmt.Sprintf("Failed to render curves: %v", err))
		} else {
			sections = append(sections, strings.TrimRight(buf.String(), "\n"))
		}
		lines := stats.EvaluationTable(hist.Evaluations)
		sections = append(sections, cardValueStyle.Render("Evaluations")+"\n"+tableMutedStyle.Render(strings.Join(lines, "\n")))
	}
	if len(hist.Predictions) > 0 {
		lines := stats.PredictionTable(hist.Predictions)
		sections = append(sections, cardValueStyle.Render("Predictions")+"\n"+tableMutedStyle.Render(strings.Join(lines, "\n")))
	}
	return strings.Join(sections, "\n\n")
}
