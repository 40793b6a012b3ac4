package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLayoutSegmentsCentersLabels(t *testing.T) {
	spans := layoutSegments([]BarSegment{
		{Name: "no", Percent: 25},
		{Name: "yes", Percent: 75},
	}, 40)
	if spans[0].width != 10 || spans[1].width != 30 {
		t.Fatalf("unexpected widths: %+v", spans)
	}
	if spans[0].label != "25.0%" || spans[0].labelStart != 2 {
		t.Fatalf("unexpected first label: %+v", spans[0])
	}
	if spans[1].label != "75.0%" || spans[1].labelStart != 22 {
		t.Fatalf("unexpected second label: %+v", spans[1])
	}
}

func TestLayoutSegmentsWidthsSum(t *testing.T) {
	for _, width := range []int{12, 17, 33, 80} {
		spans := layoutSegments([]BarSegment{
			{Percent: 33.3},
			{Percent: 66.7},
		}, width)
		if spans[0].width+spans[1].width != width {
			t.Fatalf("width %d: segments sum to %d", width, spans[0].width+spans[1].width)
		}
	}
}

func TestLayoutSegmentsSkipsZero(t *testing.T) {
	spans := layoutSegments([]BarSegment{
		{Percent: 0},
		{Percent: 100},
	}, 20)
	if spans[0].width != 0 || spans[0].label != "" {
		t.Fatalf("expected empty first segment, got %+v", spans[0])
	}
	if spans[1].width != 20 || spans[1].label != "100.0%" || spans[1].labelStart != 7 {
		t.Fatalf("unexpected second segment: %+v", spans[1])
	}
}

func TestLayoutSegmentsSkipsLabelOfZeroWidthSegment(t *testing.T) {
	segments := []BarSegment{{Percent: 0.5}, {Percent: 99.5}}
	spans := layoutSegments(segments, 12)
	if spans[0].width != 0 || spans[0].label != "" {
		t.Fatalf("expected unlabeled zero-width segment, got %+v", spans[0])
	}
	if spans[1].width != 12 || spans[1].label != "99.5%" {
		t.Fatalf("unexpected second segment: %+v", spans[1])
	}
	if out := renderBar(segments, 12, true); strings.Count(out, "%") != 1 {
		t.Fatalf("expected a single label, got %q", out)
	}
}

func TestRenderStackedBars(t *testing.T) {
	var buf bytes.Buffer
	bars := []Bar{
		{Label: "Yes", Segments: []BarSegment{{Name: "A", Percent: 0}, {Name: "B", Percent: 100}}},
		{Label: "No", Segments: []BarSegment{{Name: "A", Percent: 50}, {Name: "B", Percent: 50}}},
	}
	if err := RenderStackedBars(&buf, "Smoking & Hair Loss", bars, 40, false); err != nil {
		t.Fatalf("RenderStackedBars failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Smoking & Hair Loss" {
		t.Fatalf("unexpected title: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Yes"+axisSeparator) || !strings.Contains(lines[1], "100.0%") {
		t.Fatalf("unexpected first bar: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "No "+axisSeparator) || strings.Count(lines[2], "50.0%") != 2 {
		t.Fatalf("unexpected second bar: %q", lines[2])
	}
	if got := utf8.RuneCountInString(lines[1]); got != 40 {
		t.Fatalf("expected bar line width 40, got %d", got)
	}
	if !strings.HasPrefix(lines[3], "Legend:") {
		t.Fatalf("expected legend, got %q", lines[3])
	}
}
