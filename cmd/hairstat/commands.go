package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/hairstat/internal/eda"
	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/pipeline"
	"github.com/verte-zerg/hairstat/internal/server"
	"github.com/verte-zerg/hairstat/internal/stats"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

const historyPlotHeight = 8

var (
	outputFormat string

	overviewRows      int
	overviewFrame     bool
	overviewColumns   bool
	overviewBreakdown bool
	overviewShape     bool

	evaluateModel     string
	evaluateNeighbors int

	predictValues = map[string]*float64{}

	historyModel  string
	historySince  string
	historyLast   int
	historyWindow int

	serveAddr string
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormat, "format", formatText, "output format: text, json or yaml")
}

// cliLogger writes warnings to stderr, or everything with --debug.
func cliLogger(level slog.Level) *slog.Logger {
	if debugLog {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newOverviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Describe the prediction dataset",
		Args:  cobra.NoArgs,
		RunE:  runOverviewCmd,
	}
	cmd.Flags().IntVar(&overviewRows, "rows", defaultHeadRows, "rows shown in the data frame")
	cmd.Flags().BoolVar(&overviewFrame, "frame", true, "show the first rows")
	cmd.Flags().BoolVar(&overviewColumns, "columns", true, "show the column list")
	cmd.Flags().BoolVar(&overviewBreakdown, "breakdown", true, "show numerical and object columns")
	cmd.Flags().BoolVar(&overviewShape, "shape", true, "show the row and column count")
	addFormatFlag(cmd)
	return cmd
}

type overviewOutput struct {
	Name        string         `json:"name" yaml:"name"`
	Rows        int            `json:"rows" yaml:"rows"`
	Columns     int            `json:"columns" yaml:"columns"`
	Shape       string         `json:"shape" yaml:"shape"`
	ColumnList  []model.Column `json:"column_list" yaml:"column_list"`
	Numeric     []string       `json:"numeric_columns" yaml:"numeric_columns"`
	Categorical []string       `json:"categorical_columns" yaml:"categorical_columns"`
	Header      []string       `json:"header" yaml:"header"`
	Head        [][]string     `json:"head" yaml:"head"`
}

func runOverviewCmd(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	if overviewRows < 0 {
		return fmt.Errorf("--rows must be >= 0")
	}
	s, err := openSession(cmd, cliLogger(slog.LevelWarn), false)
	if err != nil {
		return err
	}
	defer s.Close()

	ds := s.prediction
	rows, cols := ds.Shape()
	numeric, categorical := stats.SplitColumns(ds.Columns())
	out := overviewOutput{
		Name:        ds.Name(),
		Rows:        rows,
		Columns:     cols,
		Shape:       stats.ShapeSentence(ds),
		ColumnList:  ds.Columns(),
		Numeric:     numeric,
		Categorical: categorical,
		Header:      ds.Header(),
		Head:        ds.Head(overviewRows),
	}
	return writeResult(cmd.OutOrStdout(), outputFormat, out, func(w io.Writer) error {
		return stats.RenderOverview(w, ds, stats.OverviewOptions{
			Frame:     overviewFrame,
			FrameRows: overviewRows,
			Columns:   overviewColumns,
			Breakdown: overviewColumns && overviewBreakdown,
			Shape:     overviewShape,
		})
	})
}

func newEDACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eda <column>",
		Short: "Break down hair loss by a categorical column",
		Long:  "Break down hair loss by a categorical column.\n\nColumns: " + strings.Join(trimmedColumns(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runEDACmd,
	}
	addFormatFlag(cmd)
	return cmd
}

type aggregationOutput struct {
	Title                   string `json:"title" yaml:"title"`
	model.AggregationResult `yaml:",inline"`
	Order                   []string `json:"ranking" yaml:"ranking"`
}

func runEDACmd(cmd *cobra.Command, args []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	s, err := openSession(cmd, cliLogger(slog.LevelWarn), false)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := eda.Aggregate(s.eda, resolveColumn(args[0]))
	if err != nil {
		return err
	}
	out := aggregationOutput{Title: eda.Title(res.Column), AggregationResult: res, Order: res.Ranking()}
	return writeResult(cmd.OutOrStdout(), outputFormat, out, func(w io.Writer) error {
		return stats.RenderAggregation(w, res, 0, colorEnabled(w))
	})
}

// resolveColumn maps a column typed without its trailing spaces to the
// exact dataset name. Unknown names are returned unchanged.
func resolveColumn(name string) string {
	if eda.IsColumn(name) {
		return name
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, col := range eda.Columns() {
		if strings.ToLower(strings.TrimSpace(col)) == want {
			return col
		}
	}
	return name
}

func trimmedColumns() []string {
	cols := eda.Columns()
	for i, c := range cols {
		cols[i] = fmt.Sprintf("%q", strings.TrimSpace(c))
	}
	return cols
}

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Train a classifier and score it on the test split",
		Args:  cobra.NoArgs,
		RunE:  runEvaluateCmd,
	}
	cmd.Flags().StringVar(&evaluateModel, "model", string(model.FamilyLogistic), "logistic-regression, random-forest or k-nearest-neighbors")
	cmd.Flags().IntVar(&evaluateNeighbors, "k", pipeline.DefaultNeighbors, "number of neighbors for k-nearest-neighbors (1-29)")
	addFormatFlag(cmd)
	return cmd
}

func runEvaluateCmd(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	family, err := pipeline.ParseFamily(evaluateModel)
	if err != nil {
		return err
	}
	spec := model.ModelSpec{Family: family}
	if family == model.FamilyKNN {
		spec.Neighbors = evaluateNeighbors
	} else if cmd.Flags().Changed("k") {
		logErrln("--k only applies to k-nearest-neighbors; ignoring")
	}

	s, err := openSession(cmd, cliLogger(slog.LevelWarn), false)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := pipeline.Evaluate(context.Background(), s.prediction, spec, s.options)
	if err != nil {
		return err
	}
	s.journal.Evaluation(context.Background(), res)
	return writeResult(cmd.OutOrStdout(), outputFormat, res, func(w io.Writer) error {
		return stats.RenderEvaluation(w, res)
	})
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict hair loss for one individual",
		Args:  cobra.NoArgs,
		RunE:  runPredictCmd,
	}
	for _, d := range pipeline.FeatureDomains() {
		v := new(float64)
		predictValues[d.Name] = v
		usage := fmt.Sprintf("%s (%g-%g)", strings.TrimSpace(d.Name), d.Min, d.Max)
		cmd.Flags().Float64Var(v, featureFlag(d.Name), d.Default, usage)
	}
	addFormatFlag(cmd)
	return cmd
}

// featureFlag turns a column name such as "Poor Hair Care Habits " into
// "poor-hair-care-habits".
func featureFlag(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

type predictionOutput struct {
	Input            model.PredictionInput `json:"input" yaml:"input"`
	model.Prediction `yaml:",inline"`
}

func runPredictCmd(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	input := model.PredictionInput{}
	for name, v := range predictValues {
		input[name] = *v
	}

	s, err := openSession(cmd, cliLogger(slog.LevelWarn), false)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := pipeline.Predict(context.Background(), s.prediction, input, s.options)
	if err != nil {
		return err
	}
	s.journal.Prediction(context.Background(), input, res)
	out := predictionOutput{Input: input, Prediction: res}
	return writeResult(cmd.OutOrStdout(), outputFormat, out, func(w io.Writer) error {
		return stats.RenderPrediction(w, input, res)
	})
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled evaluations and predictions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyModel, "model", "", "model family filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs of each kind")
	cmd.Flags().IntVar(&historyWindow, "window", defaultCurveWindow, "moving average window")
	addFormatFlag(cmd)
	return cmd
}

type historyOutput struct {
	Evaluations []model.EvaluationRecord `json:"evaluations" yaml:"evaluations"`
	Predictions []model.PredictionRecord `json:"predictions" yaml:"predictions"`
}

func historyFilter() (model.HistoryFilter, error) {
	filter := model.HistoryFilter{Last: historyLast, CurveWindow: historyWindow}
	if historyModel != "" {
		family, err := pipeline.ParseFamily(historyModel)
		if err != nil {
			return model.HistoryFilter{}, err
		}
		filter.Family = family
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if filter.Last < 0 {
		return model.HistoryFilter{}, fmt.Errorf("--last must be >= 0")
	}
	if filter.CurveWindow < 1 {
		return model.HistoryFilter{}, fmt.Errorf("--window must be >= 1")
	}
	return filter, nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	filter, err := historyFilter()
	if err != nil {
		return err
	}
	s, err := openSession(cmd, cliLogger(slog.LevelWarn), true)
	if err != nil {
		return err
	}
	defer s.Close()

	hist, err := s.journal.History(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	out := historyOutput{Evaluations: hist.Evaluations, Predictions: hist.Predictions}
	return writeResult(cmd.OutOrStdout(), outputFormat, out, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, stats.FilterSummary(filter)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := stats.RenderHistoryCurves(w, hist.Evaluations, filter.CurveWindow, 0, historyPlotHeight, colorEnabled(w)); err != nil {
			return err
		}
		return stats.RenderHistory(w, hist, filter.CurveWindow)
	})
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	logger := cliLogger(slog.LevelInfo)
	s, err := openSession(cmd, logger, false)
	if err != nil {
		return err
	}
	defer s.Close()
	applyStringConfig(cmd, "addr", &serveAddr, s.file.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Prediction: s.prediction,
		EDA:        s.eda,
		Options:    s.options,
		Journal:    s.journal,
		Logger:     logger,
	})
	return srv.ListenAndServe(ctx, serveAddr)
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("--format must be one of %s, %s, %s", formatText, formatJSON, formatYAML)
	}
}

// writeResult encodes v as JSON or YAML, or calls text for the default format.
func writeResult(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	default:
		if err := text(w); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
