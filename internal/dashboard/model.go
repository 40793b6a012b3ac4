// Package dashboard provides the Bubble Tea hair loss dashboard.
package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/eda"
	"github.com/verte-zerg/hairstat/internal/journal"
	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/pipeline"
	"github.com/verte-zerg/hairstat/internal/stats"
)

type page int

const (
	pageHome page = iota
	pageOverview
	pageEDA
	pageModeling
	pagePredict
	pageHistory
)

var pageTabs = map[page]string{
	pageHome:     "Home",
	pageOverview: "Overview",
	pageEDA:      "EDA",
	pageModeling: "Modeling",
	pagePredict:  "Predict",
	pageHistory:  "History",
}

var pageTitles = map[page]string{
	pageHome:     "Hair Loss Prediction",
	pageOverview: "Data Overview",
	pageEDA:      "Exploratory Data Analysis",
	pageModeling: "Modeling",
	pagePredict:  "Make Predictions on Hair Loss!",
	pageHistory:  "Run History",
}

const (
	plotHeight     = 10
	frameHeight    = 12
	maxFrameColumn = 24
	sliderWidth    = 24
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	verdictStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Config carries the datasets and services the dashboard drives.
type Config struct {
	Prediction *dataset.Dataset
	EDA        *dataset.Dataset
	Options    pipeline.Options
	Journal    *journal.Journal
	Filter     model.HistoryFilter
}

type overviewToggles struct {
	frame     bool
	columns   bool
	breakdown bool
	shape     bool
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	cfg Config

	pages     []page
	active    int
	viewports []viewport.Model
	frame     table.Model

	width  int
	height int
	errMsg string

	toggles overviewToggles

	edaIndex  int
	edaResult *model.AggregationResult

	familyIndex int
	neighbors   int
	evaluating  bool
	evaluation  *model.EvaluationResult

	input      model.PredictionInput
	fieldIndex int
	predicting bool
	prediction *model.Prediction

	history      stats.History
	historyErr   string
	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type evaluationMsg struct {
	result model.EvaluationResult
	err    error
}

type predictionMsg struct {
	input  model.PredictionInput
	result model.Prediction
	err    error
}

// NewModel constructs a dashboard model.
func NewModel(cfg Config) *Model {
	if cfg.Filter.CurveWindow < 1 {
		cfg.Filter.CurveWindow = 1
	}
	m := &Model{
		cfg:       cfg,
		pages:     []page{pageHome, pageOverview, pageEDA, pageModeling, pagePredict},
		neighbors: pipeline.DefaultNeighbors,
		input:     pipeline.DefaultInput(),
	}
	if cfg.Journal.Enabled() {
		m.pages = append(m.pages, pageHistory)
	}
	m.initInputs()
	m.initFrameTable()
	m.initViewports()
	m.refreshAggregation()
	m.refreshHistory()
	m.renderContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case evaluationMsg:
		m.evaluating = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.evaluation = nil
		} else {
			res := msg.result
			m.errMsg = ""
			m.evaluation = &res
			m.cfg.Journal.Evaluation(context.Background(), res)
			m.refreshHistory()
		}
		m.renderContents()
		return m, nil
	case predictionMsg:
		m.predicting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.prediction = nil
		} else {
			res := msg.result
			m.errMsg = ""
			m.prediction = &res
			m.cfg.Journal.Prediction(context.Background(), msg.input, res)
			m.refreshHistory()
		}
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch key := msg.String(); key {
		case "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "1", "2", "3", "4", "5", "6":
			idx := int(key[0] - '1')
			if idx < len(m.pages) {
				m.active = idx
				return m, tea.ClearScreen
			}
			return m, nil
		case "g", "home":
			m.viewports[m.active].GotoTop()
			return m, nil
		case "G", "end":
			m.viewports[m.active].GotoBottom()
			return m, nil
		}
		if handled, cmd := m.updatePage(msg); handled {
			return m, cmd
		}
		vp := m.viewports[m.active]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.active] = vp
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) currentPage() page {
	return m.pages[m.active]
}

// updatePage handles page-specific keys and reports whether the key was used.
func (m *Model) updatePage(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()
	switch m.currentPage() {
	case pageOverview:
		switch key {
		case "d":
			m.toggles.frame = !m.toggles.frame
		case "c":
			m.toggles.columns = !m.toggles.columns
		case "b":
			m.toggles.breakdown = !m.toggles.breakdown
		case "s":
			m.toggles.shape = !m.toggles.shape
		case "up", "down":
			if !m.toggles.frame {
				return false, nil
			}
			var cmd tea.Cmd
			m.frame, cmd = m.frame.Update(msg)
			m.renderContents()
			return true, cmd
		default:
			return false, nil
		}
		m.renderContents()
		return true, nil
	case pageEDA:
		switch key {
		case "up":
			m.selectColumn(-1)
		case "down":
			m.selectColumn(1)
		default:
			return false, nil
		}
		return true, nil
	case pageModeling:
		switch key {
		case "up":
			m.selectFamily(-1)
		case "down":
			m.selectFamily(1)
		case "left":
			m.adjustNeighbors(-pipeline.NeighborStep)
		case "right":
			m.adjustNeighbors(pipeline.NeighborStep)
		case "enter":
			return true, m.startEvaluation()
		default:
			return false, nil
		}
		m.renderContents()
		return true, nil
	case pagePredict:
		switch key {
		case "up":
			m.selectField(-1)
		case "down":
			m.selectField(1)
		case "left":
			m.adjustField(-1)
		case "right":
			m.adjustField(1)
		case "enter":
			return true, m.startPrediction()
		default:
			return false, nil
		}
		m.renderContents()
		return true, nil
	case pageHistory:
		switch key {
		case "/":
			return true, m.startFilter()
		case "r":
			m.refreshHistory()
		case "=":
			m.cfg.Filter.CurveWindow = nextCurveWindow(m.cfg.Filter.CurveWindow)
		case "-":
			m.cfg.Filter.CurveWindow = prevCurveWindow(m.cfg.Filter.CurveWindow)
		default:
			return false, nil
		}
		m.renderContents()
		return true, nil
	}
	return false, nil
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.pages))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initFrameTable() {
	ds := m.cfg.Prediction
	header := ds.Header()
	rows := ds.Head(ds.Len())
	columns := make([]table.Column, len(header))
	for i, name := range header {
		width := lipgloss.Width(name)
		for _, row := range rows {
			width = maxInt(width, lipgloss.Width(row[i]))
		}
		columns[i] = table.Column{Title: name, Width: minInt(width, maxFrameColumn)}
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	m.frame = table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(frameHeight),
		table.WithFocused(true),
	)
	m.frame.SetStyles(frameTableStyles())
}

func frameTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Model: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromFilter()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromFilter() {
	f := m.cfg.Filter
	m.filterInputs[0].SetValue(string(f.Family))
	if f.Since != nil {
		m.filterInputs[1].SetValue(f.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if f.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(f.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(f.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.frame.SetWidth(m.width)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.pages)
	next := m.active + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.active = next
}

func (m *Model) selectColumn(delta int) {
	cols := eda.Columns()
	m.edaIndex = (m.edaIndex + delta + len(cols)) % len(cols)
	m.refreshAggregation()
	m.renderContents()
}

func (m *Model) selectFamily(delta int) {
	count := len(model.Families)
	m.familyIndex = (m.familyIndex + delta + count) % count
	m.evaluation = nil
}

func (m *Model) adjustNeighbors(delta int) {
	if model.Families[m.familyIndex] != model.FamilyKNN {
		return
	}
	next := m.neighbors + delta
	if next < pipeline.MinNeighbors || next > pipeline.MaxNeighbors {
		return
	}
	m.neighbors = next
	m.evaluation = nil
}

func (m *Model) currentSpec() model.ModelSpec {
	spec := model.ModelSpec{Family: model.Families[m.familyIndex]}
	if spec.Family == model.FamilyKNN {
		spec.Neighbors = m.neighbors
	}
	return spec
}

func (m *Model) selectField(delta int) {
	count := len(dataset.PredictionFeatures)
	m.fieldIndex = (m.fieldIndex + delta + count) % count
}

func (m *Model) adjustField(steps int) {
	d := pipeline.FeatureDomains()[m.fieldIndex]
	v := m.input[d.Name] + float64(steps)*d.Step
	if v < d.Min {
		v = d.Min
	}
	if v > d.Max {
		v = d.Max
	}
	m.input[d.Name] = v
	m.prediction = nil
}

func (m *Model) startEvaluation() tea.Cmd {
	if m.evaluating {
		return nil
	}
	m.evaluating = true
	m.errMsg = ""
	m.renderContents()
	ds, spec, opts := m.cfg.Prediction, m.currentSpec(), m.cfg.Options
	return func() tea.Msg {
		res, err := pipeline.Evaluate(context.Background(), ds, spec, opts)
		return evaluationMsg{result: res, err: err}
	}
}

func (m *Model) startPrediction() tea.Cmd {
	if m.predicting {
		return nil
	}
	m.predicting = true
	m.errMsg = ""
	m.renderContents()
	input := make(model.PredictionInput, len(m.input))
	for k, v := range m.input {
		input[k] = v
	}
	ds, opts := m.cfg.Prediction, m.cfg.Options
	return func() tea.Msg {
		res, err := pipeline.Predict(context.Background(), ds, input, opts)
		return predictionMsg{input: input, result: res, err: err}
	}
}

func (m *Model) refreshAggregation() {
	res, err := eda.Aggregate(m.cfg.EDA, eda.Columns()[m.edaIndex])
	if err != nil {
		m.errMsg = err.Error()
		m.edaResult = nil
		return
	}
	m.edaResult = &res
}

func (m *Model) refreshHistory() {
	if !m.cfg.Journal.Enabled() {
		return
	}
	hist, err := m.cfg.Journal.History(context.Background(), m.cfg.Filter)
	if err != nil {
		m.historyErr = err.Error()
		return
	}
	m.historyErr = ""
	m.history = hist
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) renderContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.contentWidth()
	for i, p := range m.pages {
		var content string
		switch p {
		case pageHome:
			content = renderHome(width)
		case pageOverview:
			content = m.renderOverview(width)
		case pageEDA:
			content = m.renderEDA(width)
		case pageModeling:
			content = m.renderModeling(width)
		case pagePredict:
			content = m.renderPredict(width)
		case pageHistory:
			content = m.renderHistory(width)
		}
		m.viewports[i].SetContent(content)
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.pages))
	for i, p := range m.pages {
		label := fmt.Sprintf("%d %s", i+1, pageTabs[p])
		if i == m.active {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	var sub string
	if m.currentPage() == pageHistory {
		sub = stats.FilterSummary(m.cfg.Filter)
	} else {
		rows, cols := m.cfg.Prediction.Shape()
		sub = fmt.Sprintf("%s  (data: %s, %d rows, %d columns)", pageTitles[m.currentPage()], m.cfg.Prediction.Name(), rows, cols)
	}
	return tabs + "\n" + headerStyle.Render(truncateLine(sub, m.width))
}

func (m *Model) renderHelp() string {
	nav := "Nav: tab/1-6"
	var help string
	switch m.currentPage() {
	case pageOverview:
		help = nav + "  Toggle: d frame  c columns  b breakdown  s shape  Scroll: pgup/pgdn  Quit: q"
	case pageEDA:
		help = nav + "  Column: up/down  Scroll: pgup/pgdn  Quit: q"
	case pageModeling:
		help = nav + "  Model: up/down  k: left/right  Evaluate: enter  Quit: q"
	case pagePredict:
		help = nav + "  Feature: up/down  Value: left/right  Predict: enter  Quit: q"
	case pageHistory:
		help = nav + "  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Reload: r  Quit: q"
	default:
		help = nav + "  Scroll: up/down/pgup/pgdn  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: q")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	return fitLines(m.viewports[m.active].View(), m.width, height)
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) startFilter() tea.Cmd {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromFilter()
	return m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshHistory()
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	var family model.Family
	if familyInput := strings.TrimSpace(m.filterInputs[0].Value()); familyInput != "" {
		parsed, err := pipeline.ParseFamily(familyInput)
		if err != nil {
			return fmt.Errorf("invalid model (use logistic, forest or knn)")
		}
		family = parsed
	}

	sinceInput := strings.TrimSpace(m.filterInputs[1].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	lastInput := strings.TrimSpace(m.filterInputs[2].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	windowInput := strings.TrimSpace(m.filterInputs[3].Value())
	window := 1
	if windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil {
			return fmt.Errorf("invalid curve window (use integer)")
		}
		if parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg.Filter = model.HistoryFilter{
		Family:      family,
		Since:       since,
		Last:        last,
		CurveWindow: window,
	}
	return nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
