// Package journal records dashboard, CLI and API runs in the optional store.
package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/stats"
	"github.com/verte-zerg/hairstat/internal/store"
)

// ErrDisabled is returned when history is requested without a journal.
var ErrDisabled = errors.New("run journal is disabled")

// Journal writes runs to a store. A nil Journal records nothing.
type Journal struct {
	store  *store.Store
	logger *slog.Logger
}

// Open opens the journal database at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return New(st, logger), nil
}

// New wraps an open store.
func New(st *store.Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Journal{store: st, logger: logger}
}

// Enabled reports whether runs are recorded.
func (j *Journal) Enabled() bool {
	return j != nil && j.store != nil
}

// Close closes the underlying store.
func (j *Journal) Close() error {
	if !j.Enabled() {
		return nil
	}
	return j.store.Close()
}

// Evaluation records an evaluation run. Failures are logged, never returned.
func (j *Journal) Evaluation(ctx context.Context, res model.EvaluationResult) {
	if !j.Enabled() {
		return
	}
	rec, err := j.store.InsertEvaluation(ctx, model.EvaluationRecord{Result: res})
	if err != nil {
		j.logger.Warn("failed to record evaluation", "model.name", res.Model.String(), "error", err)
		return
	}
	j.logger.Debug("recorded evaluation", "run.id", rec.ID, "model.name", res.Model.String())
}

// Prediction records a prediction run. Failures are logged, never returned.
func (j *Journal) Prediction(ctx context.Context, input model.PredictionInput, p model.Prediction) {
	if !j.Enabled() {
		return
	}
	rec, err := j.store.InsertPrediction(ctx, model.PredictionRecord{Input: input, Result: p})
	if err != nil {
		j.logger.Warn("failed to record prediction", "error", err)
		return
	}
	j.logger.Debug("recorded prediction", "run.id", rec.ID, "prediction.label", p.Label)
}

// History loads recorded runs matching the filter.
func (j *Journal) History(ctx context.Context, filter model.HistoryFilter) (stats.History, error) {
	if !j.Enabled() {
		return stats.History{}, ErrDisabled
	}
	return stats.BuildHistory(ctx, j.store, filter)
}
