// Package main provides the CLI entrypoint for hairstat.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/hairstat/internal/config"
	"github.com/verte-zerg/hairstat/internal/dashboard"
	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/journal"
	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/pipeline"
)

const (
	defaultPredictionPath = "data/df1.csv"
	defaultEDAPath        = "data/df-eda.csv"
	defaultCurveWindow    = 3
	defaultHeadRows       = 5
	defaultAddr           = ":8080"
)

var (
	configPath     string
	predictionPath string
	edaPath        string
	journalOn      bool
	journalPath    string
	debugLog       bool

	modelSeed         int64
	modelTestFraction float64
	modelForestTrees  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := pipeline.DefaultOptions()
	rootCmd := &cobra.Command{
		Use:           "hairstat",
		Short:         "Hair loss dataset dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&predictionPath, "data", defaultPredictionPath, "prediction dataset CSV")
	flags.StringVar(&edaPath, "eda-data", defaultEDAPath, "exploratory dataset CSV")
	flags.BoolVar(&journalOn, "journal", false, "record evaluations and predictions")
	flags.StringVar(&journalPath, "journal-path", config.DefaultDBPath(), "run journal database")
	flags.BoolVar(&debugLog, "debug", false, "write debug logs")
	flags.Int64Var(&modelSeed, "seed", defaults.Seed, "random seed for the split and forest")
	flags.Float64Var(&modelTestFraction, "test-fraction", defaults.TestFraction, "share of records held out for testing (0-1)")
	flags.IntVar(&modelForestTrees, "forest-trees", defaults.ForestTrees, "number of random forest trees")

	rootCmd.AddCommand(newOverviewCmd())
	rootCmd.AddCommand(newEDACmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// session holds everything a command needs after flags and config are merged.
type session struct {
	file       config.FileConfig
	prediction *dataset.Dataset
	eda        *dataset.Dataset
	options    pipeline.Options
	journal    *journal.Journal
	logger     *slog.Logger
}

func (s *session) Close() {
	if err := s.journal.Close(); err != nil {
		logErrf("failed to close journal: %v\n", err)
	}
}

// loadSettings reads the config file and merges it into the global flags.
func loadSettings(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "data", &predictionPath, fileCfg.Data.Prediction)
	applyStringConfig(cmd, "eda-data", &edaPath, fileCfg.Data.EDA)
	applyBoolConfig(cmd, "journal", &journalOn, fileCfg.Journal.Enabled)
	applyStringConfig(cmd, "journal-path", &journalPath, fileCfg.Journal.Path)
	applyInt64Config(cmd, "seed", &modelSeed, fileCfg.Modeling.Seed)
	applyFloatConfig(cmd, "test-fraction", &modelTestFraction, fileCfg.Modeling.TestFraction)
	applyIntConfig(cmd, "forest-trees", &modelForestTrees, fileCfg.Modeling.ForestTrees)
	return fileCfg, nil
}

func buildOptions(fileCfg config.FileConfig, logger *slog.Logger) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Seed = modelSeed
	opts.TestFraction = modelTestFraction
	opts.ForestTrees = modelForestTrees
	if v := fileCfg.Modeling.LogisticC; v != nil {
		opts.LogisticC = *v
	}
	if v := fileCfg.Modeling.LogisticMaxIter; v != nil {
		opts.LogisticMaxIter = *v
	}
	if v := fileCfg.Modeling.PredictNeighbors; v != nil {
		opts.PredictNeighbors = *v
	}
	opts.Logger = logger
	if err := validateOptions(opts); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// openSession loads both datasets and, when requested, the run journal.
func openSession(cmd *cobra.Command, logger *slog.Logger, forceJournal bool) (*session, error) {
	fileCfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := buildOptions(fileCfg, logger)
	if err != nil {
		return nil, err
	}
	pred, err := dataset.Load(predictionPath, dataset.PredictionSchema)
	if err != nil {
		return nil, dataLoadError(predictionPath, "--data", dataset.PredictionSchema, err)
	}
	edaDS, err := dataset.Load(edaPath, dataset.EDASchema)
	if err != nil {
		return nil, dataLoadError(edaPath, "--eda-data", dataset.EDASchema, err)
	}
	logger.Debug("datasets loaded",
		"data.prediction", predictionPath,
		"data.eda", edaPath,
		pipeline.SamplesKey, pred.Len(),
	)
	s := &session{file: fileCfg, prediction: pred, eda: edaDS, options: opts, logger: logger}
	if journalOn || forceJournal {
		path := expandHome(journalPath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		j, err := journal.Open(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		s.journal = j
	}
	return s, nil
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if debugLog {
		path := config.DefaultLogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := tea.LogToFile(path, "hairstat")
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close debug log: %v\n", cerr)
			}
		}()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	s, err := openSession(cmd, logger, false)
	if err != nil {
		return err
	}
	defer s.Close()

	m := dashboard.NewModel(dashboard.Config{
		Prediction: s.prediction,
		EDA:        s.eda,
		Options:    s.options,
		Journal:    s.journal,
		Filter:     model.HistoryFilter{CurveWindow: defaultCurveWindow},
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateOptions(opts pipeline.Options) error {
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		return fmt.Errorf("--test-fraction must be between 0 and 1")
	}
	if opts.ForestTrees <= 0 {
		return fmt.Errorf("--forest-trees must be > 0")
	}
	if opts.LogisticC <= 0 {
		return fmt.Errorf("logistic-c must be > 0")
	}
	if opts.LogisticMaxIter <= 0 {
		return fmt.Errorf("logistic-max-iter must be > 0")
	}
	if opts.PredictNeighbors <= 0 {
		return fmt.Errorf("predict-neighbors must be > 0")
	}
	return nil
}

func dataLoadError(path, flag string, schema dataset.Schema, err error) error {
	lines := []string{
		fmt.Sprintf("expected %s dataset at: %s", schema.Name, path),
		"required columns: " + requiredColumns(schema),
		fmt.Sprintf("Set the path with %s or in the [data] section of the config file.", flag),
	}
	return fmt.Errorf("%w\n%s", err, strings.Join(lines, "\n"))
}

// requiredColumns lists a schema's columns for error hints.
func requiredColumns(schema dataset.Schema) string {
	names := make([]string, len(schema.Required))
	for i, n := range schema.Required {
		names[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(names, ", ")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
