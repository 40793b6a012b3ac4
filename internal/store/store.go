// Package store handles SQLite persistence of evaluation and prediction runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/hairstat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Fixed-width UTC timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access for the run journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			family TEXT NOT NULL,
			neighbors INTEGER NOT NULL,
			train_size INTEGER NOT NULL,
			test_size INTEGER NOT NULL,
			train_accuracy REAL NOT NULL,
			test_accuracy REAL NOT NULL,
			baseline REAL NOT NULL,
			true_negative INTEGER NOT NULL,
			false_positive INTEGER NOT NULL,
			false_negative INTEGER NOT NULL,
			true_positive INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			label INTEGER NOT NULL,
			verdict TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS prediction_inputs (
			prediction_id TEXT NOT NULL,
			feature TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (prediction_id, feature)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertEvaluation stores an evaluation run. Empty IDs and zero timestamps are filled in.
func (s *Store) InsertEvaluation(ctx context.Context, rec model.EvaluationRecord) (model.EvaluationRecord, error) {
	rec.ID, rec.CreatedAt = stamp(rec.ID, rec.CreatedAt)
	res := rec.Result
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, created_at, family, neighbors, train_size, test_size, train_accuracy, test_accuracy, baseline, true_negative, false_positive, false_negative, true_positive)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.UTC().Format(timeLayout),
		string(res.Model.Family),
		res.Model.Neighbors,
		res.TrainSize,
		res.TestSize,
		res.TrainAccuracy,
		res.TestAccuracy,
		res.Baseline,
		res.Confusion[0][0],
		res.Confusion[0][1],
		res.Confusion[1][0],
		res.Confusion[1][1],
	)
	if err != nil {
		return model.EvaluationRecord{}, err
	}
	return rec, nil
}

// InsertPrediction stores a prediction run and its input values.
func (s *Store) InsertPrediction(ctx context.Context, rec model.PredictionRecord) (_ model.PredictionRecord, err error) {
	rec.ID, rec.CreatedAt = stamp(rec.ID, rec.CreatedAt)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PredictionRecord{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO predictions (id, created_at, label, verdict) VALUES (?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.Result.Label,
		rec.Result.Verdict,
	); err != nil {
		return model.PredictionRecord{}, err
	}

	if len(rec.Input) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO prediction_inputs (prediction_id, feature, value) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return model.PredictionRecord{}, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		features := make([]string, 0, len(rec.Input))
		for name := range rec.Input {
			features = append(features, name)
		}
		sort.Strings(features)
		for _, name := range features {
			if _, err = stmt.ExecContext(ctx, rec.ID, name, rec.Input[name]); err != nil {
				return model.PredictionRecord{}, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return model.PredictionRecord{}, err
	}
	return rec, nil
}

func stamp(id string, at time.Time) (string, time.Time) {
	if id == "" {
		id = uuid.NewString()
	}
	if at.IsZero() {
		at = time.Now()
	}
	return id, at.UTC()
}

func historyClauses(filter model.HistoryFilter, withFamily bool) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if withFamily && filter.Family != "" {
		clauses = append(clauses, "family = ?")
		args = append(args, string(filter.Family))
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	return strings.Join(clauses, " AND "), args
}

// ListEvaluations returns evaluation runs in chronological order.
func (s *Store) ListEvaluations(ctx context.Context, filter model.HistoryFilter) ([]model.EvaluationRecord, error) {
	where, args := historyClauses(filter, true)
	query := fmt.Sprintf(`SELECT id, created_at, family, neighbors, train_size, test_size, train_accuracy, test_accuracy, baseline,
		true_negative, false_positive, false_negative, true_positive
		FROM evaluations
		WHERE %s
		ORDER BY created_at ASC, rowid ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []model.EvaluationRecord
	for rows.Next() {
		var rec model.EvaluationRecord
		var createdAt, family string
		res := &rec.Result
		if err := rows.Scan(&rec.ID, &createdAt, &family, &res.Model.Neighbors, &res.TrainSize, &res.TestSize,
			&res.TrainAccuracy, &res.TestAccuracy, &res.Baseline,
			&res.Confusion[0][0], &res.Confusion[0][1], &res.Confusion[1][0], &res.Confusion[1][1]); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		res.Model.Family = model.Family(family)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPredictions returns prediction runs with their inputs in chronological order.
func (s *Store) ListPredictions(ctx context.Context, filter model.HistoryFilter) ([]model.PredictionRecord, error) {
	where, args := historyClauses(filter, false)
	query := fmt.Sprintf(`SELECT p.id, p.created_at, p.label, p.verdict, i.feature, i.value
		FROM (SELECT rowid AS seq, * FROM predictions WHERE %s) p
		LEFT JOIN prediction_inputs i ON i.prediction_id = p.id
		ORDER BY p.created_at ASC, p.seq ASC, i.feature ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []model.PredictionRecord
	for rows.Next() {
		var id, createdAt, verdict string
		var label int
		var feature sql.NullString
		var value sql.NullFloat64
		if err := rows.Scan(&id, &createdAt, &label, &verdict, &feature, &value); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			parsed, err := time.Parse(timeLayout, createdAt)
			if err != nil {
				return nil, err
			}
			out = append(out, model.PredictionRecord{
				ID:        id,
				CreatedAt: parsed,
				Input:     model.PredictionInput{},
				Result:    model.Prediction{Label: label, Verdict: verdict},
			})
		}
		if feature.Valid {
			out[len(out)-1].Input[feature.String] = value.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
