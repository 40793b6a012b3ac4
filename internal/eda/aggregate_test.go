package eda

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/verte-zerg/hairstat/internal/dataset"
)

const header = "Genetics,Weight Loss ,Smoking,Medical Conditions,Stress,Medications & Treatments,Poor Hair Care Habits ,Nutritional Deficiencies ,Hair Loss\n"

func row(smoking, stress string, outcome string) string {
	return "Yes,No," + smoking + ",None," + stress + ",None,No,Iron," + outcome + "\n"
}

func load(t *testing.T, rows ...string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(header+strings.Join(rows, "")), "eda.csv", dataset.EDASchema)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	return ds
}

func TestAggregateSmoking(t *testing.T) {
	ds := load(t,
		row("Yes", "Low", "1"),
		row("Yes", "Low", "1"),
		row("No", "Low", "0"),
		row("No", "Low", "1"),
	)
	res, err := Aggregate(ds, "Smoking")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(res.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(res.Levels))
	}
	yes, no := res.Levels[0], res.Levels[1]
	if yes.Level != "Yes" || yes.Percent0 != 0 || yes.Percent1 != 100 {
		t.Fatalf("unexpected Yes level: %+v", yes)
	}
	if no.Level != "No" || no.Percent0 != 50 || no.Percent1 != 50 {
		t.Fatalf("unexpected No level: %+v", no)
	}
	if got := strings.Join(res.Ranking(), ","); got != "Yes,No" {
		t.Fatalf("unexpected ranking %s", got)
	}
}

func TestAggregatePercentagesSumAndRanking(t *testing.T) {
	ds := load(t,
		row("Yes", "High", "1"),
		row("Yes", "High", "0"),
		row("Yes", "High", "1"),
		row("Yes", "Moderate", "0"),
		row("Yes", "Moderate", "1"),
		row("Yes", "Low", "0"),
		row("Yes", "Low", "0"),
		row("Yes", "Low", "1"),
	)
	res, err := Aggregate(ds, "Stress")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	for i, level := range res.Levels {
		if math.Abs(level.Percent0+level.Percent1-100) > 1e-9 {
			t.Fatalf("level %s does not sum to 100: %+v", level.Level, level)
		}
		if i > 0 && res.Levels[i-1].Percent1 < level.Percent1 {
			t.Fatalf("ranking not descending at %d: %+v", i, res.Levels)
		}
	}
	if res.Levels[0].Level != "High" || res.Levels[len(res.Levels)-1].Level != "Low" {
		t.Fatalf("unexpected order: %v", res.Ranking())
	}
}

func TestAggregateSingleRecordLevel(t *testing.T) {
	ds := load(t, row("Yes", "Low", "0"))
	res, err := Aggregate(ds, "Smoking")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if res.Levels[0].Percent0 != 100 || res.Levels[0].Percent1 != 0 {
		t.Fatalf("unexpected shares: %+v", res.Levels[0])
	}
}

func TestAggregateTiesAreLexical(t *testing.T) {
	ds := load(t,
		row("b", "Low", "1"),
		row("a", "Low", "1"),
		row("c", "Low", "1"),
	)
	res, err := Aggregate(ds, "Smoking")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := strings.Join(res.Ranking(), ","); got != "a,b,c" {
		t.Fatalf("expected lexical tie order, got %s", got)
	}
}

func TestAggregateInvalidColumn(t *testing.T) {
	ds := load(t, row("Yes", "Low", "1"))
	for _, col := range []string{"Age", "Weight Loss", "Hair Loss"} {
		if _, err := Aggregate(ds, col); !errors.Is(err, ErrInvalidColumn) {
			t.Fatalf("expected ErrInvalidColumn for %q, got %v", col, err)
		}
	}
}

func TestAggregateLooseSchemaTable(t *testing.T) {
	if _, err := dataset.Read(strings.NewReader("Smoking\nYes\nNo\n"), "x.csv", dataset.Schema{Name: "loose"}); !errors.Is(err, dataset.ErrDataLoad) {
		t.Fatalf("expected table without outcome to be rejected, got %v", err)
	}
	ds, err := dataset.Read(strings.NewReader("Smoking,Hair Loss\nYes,1\nNo,0\n"), "x.csv", dataset.Schema{Name: "loose"})
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	res, err := Aggregate(ds, "Smoking")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := strings.Join(res.Ranking(), ","); got != "Yes,No" {
		t.Fatalf("unexpected ranking %s", got)
	}
}

func TestAggregateEmptyTable(t *testing.T) {
	ds := load(t)
	if _, err := Aggregate(ds, "Smoking"); !errors.Is(err, ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
}

func TestTitleKeepsColumnName(t *testing.T) {
	if got := Title("Stress"); got != "Stress & Hair Loss" {
		t.Fatalf("unexpected title %q", got)
	}
}
