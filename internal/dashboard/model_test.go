package dashboard

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/journal"
	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/pipeline"
)

const (
	predictionHeader = "Id,Genetics,Hormonal Changes,Age,Poor Hair Care Habits ,Environmental Factors,Smoking,Weight Loss ,Hair Loss\n"
	edaHeader        = "Id,Genetics,Weight Loss ,Smoking,Medical Conditions,Stress,Medications & Treatments,Poor Hair Care Habits ,Nutritional Deficiencies ,Hair Loss\n"
)

func testConfig(t *testing.T, withJournal bool) Config {
	t.Helper()
	var pred, eda strings.Builder
	pred.WriteString(predictionHeader)
	eda.WriteString(edaHeader)
	for i := 0; i < 40; i++ {
		label := i % 2
		v := label
		if i%7 == 0 {
			v = 1 - label
		}
		fmt.Fprintf(&pred, "%d,%d,%d,%d,%d,%d,%d,%d,%d\n", i+1, v, label, 20+i, label, v, label, label, label)
		yes := "No"
		if label == 1 {
			yes = "Yes"
		}
		fmt.Fprintf(&eda, "%d,%s,%s,%s,Eczema,High,None,%s,Zinc,%d\n", i+1, yes, yes, yes, yes, label)
	}
	predDS, err := dataset.Read(strings.NewReader(pred.String()), "df1.csv", dataset.PredictionSchema)
	if err != nil {
		t.Fatalf("read prediction dataset: %v", err)
	}
	edaDS, err := dataset.Read(strings.NewReader(eda.String()), "df-eda.csv", dataset.EDASchema)
	if err != nil {
		t.Fatalf("read eda dataset: %v", err)
	}
	opts := pipeline.DefaultOptions()
	opts.ForestTrees = 10
	cfg := Config{Prediction: predDS, EDA: edaDS, Options: opts}
	if withJournal {
		j, err := journal.Open(filepath.Join(t.TempDir(), "hairstat.db"), nil)
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		t.Cleanup(func() {
			_ = j.Close()
		})
		cfg.Journal = j
	}
	return cfg
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newSizedModel(t *testing.T, withJournal bool) *Model {
	t.Helper()
	m := NewModel(testConfig(t, withJournal))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestNewModelPages(t *testing.T) {
	m := newSizedModel(t, false)
	if len(m.pages) != 5 {
		t.Fatalf("expected 5 pages without journal, got %d", len(m.pages))
	}
	m = newSizedModel(t, true)
	if len(m.pages) != 6 || m.pages[5] != pageHistory {
		t.Fatalf("expected history page with journal, got %v", m.pages)
	}
}

func TestTabNavigation(t *testing.T) {
	m := newSizedModel(t, false)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.active != 1 {
		t.Fatalf("expected tab to move to page 1, got %d", m.active)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.active != 4 {
		t.Fatalf("expected shift+tab to wrap to page 4, got %d", m.active)
	}
	m.Update(runeKey("3"))
	if m.currentPage() != pageEDA {
		t.Fatalf("expected EDA page, got %d", m.currentPage())
	}
	m.Update(runeKey("6"))
	if m.currentPage() != pageEDA {
		t.Fatalf("expected missing history page to be ignored")
	}
}

func TestQuitKey(t *testing.T) {
	m := newSizedModel(t, false)
	_, cmd := m.Update(runeKey("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestViewFillsWindow(t *testing.T) {
	m := newSizedModel(t, false)
	view := m.View()
	if got := strings.Count(view, "\n") + 1; got != 40 {
		t.Fatalf("expected 40 lines, got %d", got)
	}
	if !strings.Contains(view, "Welcome to the Hair Loss Prediction dashboard!") {
		t.Fatalf("expected home page content")
	}
}

func TestOverviewToggles(t *testing.T) {
	m := newSizedModel(t, false)
	m.Update(runeKey("2"))
	if strings.Contains(m.renderOverview(100), "There are") {
		t.Fatalf("expected shape hidden by default")
	}
	m.Update(runeKey("s"))
	m.Update(runeKey("c"))
	m.Update(runeKey("b"))
	out := m.renderOverview(100)
	for _, want := range []string{"There are 40 rows and 9 columns.", "Column List", "Numerical Columns:", "[x] Shape (s)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in overview:\n%s", want, out)
		}
	}
}

func TestEDASelection(t *testing.T) {
	m := newSizedModel(t, false)
	m.Update(runeKey("3"))
	if m.edaResult == nil || m.edaResult.Column != "Genetics" {
		t.Fatalf("expected initial Genetics breakdown, got %+v", m.edaResult)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.edaResult == nil || m.edaResult.Column != "Weight Loss " {
		t.Fatalf("expected Weight Loss breakdown, got %+v", m.edaResult)
	}
	if got := m.edaResult.Ranking(); len(got) != 2 || got[0] != "Yes" {
		t.Fatalf("unexpected ranking: %v", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.edaResult.Column != "Nutritional Deficiencies " {
		t.Fatalf("expected selection to wrap, got %q", m.edaResult.Column)
	}
	if !strings.Contains(m.renderEDA(100), "Nutritional Deficiencies  & Hair Loss") {
		t.Fatalf("expected chart title")
	}
}

func TestModelingNeighborBounds(t *testing.T) {
	m := newSizedModel(t, false)
	m.Update(runeKey("4"))
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.neighbors != pipeline.DefaultNeighbors {
		t.Fatalf("expected k unchanged for logistic regression, got %d", m.neighbors)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.currentSpec().Family != model.FamilyKNN {
		t.Fatalf("expected knn selected, got %s", m.currentSpec().Family)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.neighbors != 7 {
		t.Fatalf("expected k=7, got %d", m.neighbors)
	}
	for i := 0; i < 20; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.neighbors != pipeline.MaxNeighbors {
		t.Fatalf("expected k capped at %d, got %d", pipeline.MaxNeighbors, m.neighbors)
	}
	for i := 0; i < 20; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	if m.neighbors != pipeline.MinNeighbors {
		t.Fatalf("expected k floored at %d, got %d", pipeline.MinNeighbors, m.neighbors)
	}
}

func TestEvaluationFlow(t *testing.T) {
	m := newSizedModel(t, true)
	m.Update(runeKey("4"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.evaluating {
		t.Fatalf("expected evaluation to start")
	}
	if _, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); second != nil {
		t.Fatalf("expected no second run while evaluating")
	}
	m.Update(cmd())
	if m.evaluating || m.evaluation == nil {
		t.Fatalf("expected evaluation result")
	}
	if m.evaluation.TrainSize != 30 || m.evaluation.TestSize != 10 {
		t.Fatalf("unexpected split: %d/%d", m.evaluation.TrainSize, m.evaluation.TestSize)
	}
	out := m.renderModeling(100)
	if !strings.Contains(out, "Testing Accuracy") || !strings.Contains(out, "Actual 1") {
		t.Fatalf("expected evaluation output:\n%s", out)
	}
	if len(m.history.Evaluations) != 1 {
		t.Fatalf("expected evaluation recorded, got %d", len(m.history.Evaluations))
	}
}

func TestPredictionFlow(t *testing.T) {
	m := newSizedModel(t, true)
	m.Update(runeKey("5"))
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.input["Genetics"] != 1 {
		t.Fatalf("expected Genetics clamped at 1, got %v", m.input["Genetics"])
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.input["Genetics"] != 0 {
		t.Fatalf("expected Genetics 0, got %v", m.input["Genetics"])
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.input["Age"] != 1 {
		t.Fatalf("expected Age clamped at 1, got %v", m.input["Age"])
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.input["Age"] != 2 {
		t.Fatalf("expected Age 2, got %v", m.input["Age"])
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected prediction command")
	}
	m.Update(cmd())
	if m.prediction == nil {
		t.Fatalf("expected prediction, footer error: %q", m.errMsg)
	}
	if m.prediction.Verdict != pipeline.Verdict(m.prediction.Label) {
		t.Fatalf("unexpected verdict: %+v", m.prediction)
	}
	if !strings.Contains(m.renderPredict(100), m.prediction.Verdict) {
		t.Fatalf("expected verdict on page")
	}
	if len(m.history.Predictions) != 1 || m.history.Predictions[0].Input["Age"] != 2 {
		t.Fatalf("expected prediction recorded, got %+v", m.history.Predictions)
	}
}

func TestHistoryFilter(t *testing.T) {
	m := newSizedModel(t, true)
	m.Update(runeKey("6"))
	if !strings.Contains(m.renderHistory(100), "No runs recorded.") {
		t.Fatalf("expected empty history")
	}
	m.Update(runeKey("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[1].SetValue("2026/01/01")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected invalid date to keep the form open")
	}
	m.filterInputs[0].SetValue("knn")
	m.filterInputs[1].SetValue("2026-01-01")
	m.filterInputs[2].SetValue("3")
	m.filterInputs[3].SetValue("5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected form closed, error %q", m.filterError)
	}
	f := m.cfg.Filter
	if f.Family != model.FamilyKNN || f.Since == nil || f.Last != 3 || f.CurveWindow != 5 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	m.Update(runeKey("="))
	if m.cfg.Filter.CurveWindow != 10 {
		t.Fatalf("expected window 10, got %d", m.cfg.Filter.CurveWindow)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(1) != 5 || nextCurveWindow(7) != 10 || nextCurveWindow(10) != 15 {
		t.Fatalf("unexpected next window")
	}
	if prevCurveWindow(5) != 1 || prevCurveWindow(7) != 5 || prevCurveWindow(15) != 10 {
		t.Fatalf("unexpected previous window")
	}
}

func TestFitLines(t *testing.T) {
	got := fitLines("ab\ncdef\nx", 3, 2)
	if got != "ab \ncdef" {
		t.Fatalf("unexpected fit: %q", got)
	}
	if truncateLine("abcdefgh", 6) != "abc..." {
		t.Fatalf("unexpected truncation")
	}
}
