// Package dataset loads the fixed-schema hair loss tables.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/hairstat/internal/model"
)

// ErrDataLoad reports a missing, malformed or schema-mismatched dataset.
var ErrDataLoad = errors.New("failed to load dataset")

// OutcomeColumn is the binary target column shared by both tables.
const OutcomeColumn = "Hair Loss"

// PredictionFeatures lists the modeling features in matrix order.
// Names are bit-exact, including trailing spaces.
var PredictionFeatures = []string{
	"Genetics",
	"Hormonal Changes",
	"Age",
	"Poor Hair Care Habits ",
	"Environmental Factors",
	"Smoking",
	"Weight Loss ",
}

// EDAColumns lists the categorical columns offered for outcome breakdowns.
var EDAColumns = []string{
	"Genetics",
	"Weight Loss ",
	"Smoking",
	"Medical Conditions",
	"Stress",
	"Medications & Treatments",
	"Poor Hair Care Habits ",
	"Nutritional Deficiencies ",
}

// Schema names the columns a table must carry on top of the outcome column.
// Extra columns are allowed.
type Schema struct {
	Name     string
	Required []string
}

// PredictionSchema is the schema of the modeling table.
var PredictionSchema = Schema{
	Name:     "prediction",
	Required: append(append([]string{}, PredictionFeatures...), OutcomeColumn),
}

// EDASchema is the schema of the exploratory table.
var EDASchema = Schema{
	Name:     "eda",
	Required: append(append([]string{}, EDAColumns...), OutcomeColumn),
}

// Dataset is an immutable in-memory table with a binary outcome column.
type Dataset struct {
	name    string
	header  []string
	index   map[string]int
	rows    [][]string
	kinds   []model.ColumnKind
	outcome []int
}

// Load reads a CSV file and checks it against the schema.
func Load(path string, schema Schema) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrDataLoad, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	return Read(f, filepath.Base(path), schema)
}

// Read parses CSV content and checks it against the schema.
func Read(r io.Reader, name string, schema Schema) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrDataLoad, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDataLoad, name)
	}

	header := append([]string(nil), records[0]...)
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	index := make(map[string]int, len(header))
	for i, col := range header {
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("%w: %s has duplicate column %q", ErrDataLoad, name, col)
		}
		index[col] = i
	}
	for _, col := range schema.Required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s is missing %s column %q", ErrDataLoad, name, schema.Name, col)
		}
	}
	outcomeCol, ok := index[OutcomeColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %s is missing outcome column %q", ErrDataLoad, name, OutcomeColumn)
	}

	rows := records[1:]
	ds := &Dataset{
		name:   name,
		header: header,
		index:  index,
		rows:   rows,
	}
	outcome, err := parseOutcome(rows, outcomeCol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataLoad, name, err)
	}
	ds.outcome = outcome
	ds.kinds = inferKinds(header, rows)
	return ds, nil
}

func parseOutcome(rows [][]string, col int) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		raw := strings.TrimSpace(row[col])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || (v != 0 && v != 1) {
			return nil, fmt.Errorf("row %d: outcome %q is not 0 or 1", i+2, row[col])
		}
		out[i] = int(v)
	}
	return out, nil
}

func inferKinds(header []string, rows [][]string) []model.ColumnKind {
	kinds := make([]model.ColumnKind, len(header))
	for c := range header {
		numeric := false
		for _, row := range rows {
			cell := strings.TrimSpace(row[c])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			kinds[c] = model.KindNumeric
		} else {
			kinds[c] = model.KindCategorical
		}
	}
	return kinds
}

// Name returns the file name the dataset was loaded from.
func (d *Dataset) Name() string {
	return d.name
}

// Header returns the column names in file order.
func (d *Dataset) Header() []string {
	return append([]string(nil), d.header...)
}

// Columns returns every column with its inferred kind, in file order.
func (d *Dataset) Columns() []model.Column {
	out := make([]model.Column, len(d.header))
	for i, name := range d.header {
		out[i] = model.Column{Name: name, Kind: d.kinds[i]}
	}
	return out
}

// ColumnKinds maps column names to their inferred kind.
func (d *Dataset) ColumnKinds() map[string]model.ColumnKind {
	out := make(map[string]model.ColumnKind, len(d.header))
	for i, name := range d.header {
		out[name] = d.kinds[i]
	}
	return out
}

// Shape returns the row and column counts.
func (d *Dataset) Shape() (rows, cols int) {
	return len(d.rows), len(d.header)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// HasColumn reports whether the header contains the exact column name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Head returns copies of the first n records.
func (d *Dataset) Head(n int) [][]string {
	if n < 0 || n > len(d.rows) {
		n = len(d.rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = append([]string(nil), d.rows[i]...)
	}
	return out
}

// Values returns the raw cells of a column.
func (d *Dataset) Values(name string) ([]string, error) {
	col, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]string, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[col]
	}
	return out, nil
}

// Floats parses a column as numbers. Empty or non-numeric cells are an error.
func (d *Dataset) Floats(name string) ([]float64, error) {
	col, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(d.rows))
	for i, row := range d.rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: value %q is not numeric", name, i+2, row[col])
		}
		out[i] = v
	}
	return out, nil
}

// Outcome returns the binary outcome of every record.
func (d *Dataset) Outcome() []int {
	return append([]int(nil), d.outcome...)
}
