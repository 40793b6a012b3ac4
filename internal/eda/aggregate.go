// Package eda computes per-level outcome breakdowns of categorical columns.
package eda

import (
	"errors"
	"fmt"
	"sort"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/model"
)

var (
	// ErrInvalidColumn reports a column outside the exploratory set.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrEmptyGroup reports a level (or table) without records.
	ErrEmptyGroup = errors.New("empty group")
)

// Columns returns the columns that can be aggregated, in menu order.
func Columns() []string {
	return append([]string(nil), dataset.EDAColumns...)
}

// IsColumn reports whether the name is one of the exploratory columns.
func IsColumn(name string) bool {
	for _, col := range dataset.EDAColumns {
		if col == name {
			return true
		}
	}
	return false
}

// Title returns the chart title for a column.
func Title(column string) string {
	return column + " & Hair Loss"
}

// Aggregate groups records by the column's level and the outcome, normalizes
// each level to percentages and ranks levels by descending outcome-1 share.
// Ties keep lexical level order.
func Aggregate(ds *dataset.Dataset, column string) (model.AggregationResult, error) {
	if !IsColumn(column) || !ds.HasColumn(column) {
		return model.AggregationResult{}, fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}
	values, err := ds.Values(column)
	if err != nil {
		return model.AggregationResult{}, fmt.Errorf("%w: %w", ErrInvalidColumn, err)
	}
	if len(values) == 0 {
		return model.AggregationResult{}, fmt.Errorf("%w: no records for %q", ErrEmptyGroup, column)
	}
	outcome := ds.Outcome()
	if len(outcome) != len(values) {
		return model.AggregationResult{}, fmt.Errorf("%w: %q has %d outcome values for %d records", ErrInvalidColumn, column, len(outcome), len(values))
	}

	counts := map[string]*[2]int{}
	for i, level := range values {
		c, ok := counts[level]
		if !ok {
			c = &[2]int{}
			counts[level] = c
		}
		c[outcome[i]]++
	}

	levels := make([]model.LevelShare, 0, len(counts))
	for level, c := range counts {
		total := c[0] + c[1]
		if total == 0 {
			return model.AggregationResult{}, fmt.Errorf("%w: level %q of %q", ErrEmptyGroup, level, column)
		}
		levels = append(levels, model.LevelShare{
			Level:    level,
			Count:    total,
			Percent0: float64(c[0]) / float64(total) * 100,
			Percent1: float64(c[1]) / float64(total) * 100,
		})
	}
	RankLevels(levels)
	return model.AggregationResult{Column: column, Levels: levels}, nil
}

// RankLevels orders levels by descending outcome-1 share, then by level label.
func RankLevels(levels []model.LevelShare) {
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Percent1 == levels[j].Percent1 {
			return levels[i].Level < levels[j].Level
		}
		return levels[i].Percent1 > levels[j].Percent1
	})
}
