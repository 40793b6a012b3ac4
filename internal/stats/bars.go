// Package stats contains summary calculations and text reporting.
package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// BarSegment is one stacked part of a bar, sized by its percentage.
type BarSegment struct {
	Name    string
	Percent float64
}

// Bar is one labelled horizontal stacked bar.
type Bar struct {
	Label    string
	Segments []BarSegment
}

type segmentSpan struct {
	start      int
	width      int
	label      string
	labelStart int
}

const minBarWidth = 12

var segmentFill = []rune{'░', '▓', '▒', '█'}

// RenderStackedBars draws one horizontal bar per entry, in the given order.
// Every non-empty segment carries its "%.1f%%" label centered inside it.
func RenderStackedBars(w io.Writer, title string, bars []Bar, width int, useColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	labelWidth := 0
	for _, b := range bars {
		labelWidth = maxInt(labelWidth, displayWidth(b.Label))
	}
	barWidth := width - labelWidth - displayWidth(axisSeparator)
	if width <= 0 {
		barWidth = terminalWidth() - labelWidth - displayWidth(axisSeparator)
	}
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, b := range bars {
		line := padCell(b.Label, labelWidth, false) + axisSeparator + renderBar(b.Segments, barWidth, useColor)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderBarLegend(bars[0].Segments, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderBar(segments []BarSegment, width int, useColor bool) string {
	spans := layoutSegments(segments, width)
	cells := []rune(strings.Repeat(" ", width))
	owner := make([]int, width)
	for si, span := range spans {
		for x := span.start; x < span.start+span.width; x++ {
			cells[x] = segmentFill[si%len(segmentFill)]
			owner[x] = si
		}
	}
	for _, span := range spans {
		for i, r := range span.label {
			cells[span.labelStart+i] = r
		}
	}
	if !useColor {
		return string(cells)
	}
	var b strings.Builder
	for x := 0; x < width; {
		end := x
		for end < width && owner[end] == owner[x] {
			end++
		}
		chunk := cells[x:end]
		b.WriteString(colorPalette[owner[x]%len(colorPalette)].bg)
		for i, r := range chunk {
			if r == segmentFill[owner[x]%len(segmentFill)] {
				chunk[i] = ' '
			}
		}
		b.WriteString(string(chunk))
		b.WriteString(colorReset)
		x = end
	}
	return b.String()
}

// layoutSegments splits width between segments by largest remainder so the
// widths always add up to width.
func layoutSegments(segments []BarSegment, width int) []segmentSpan {
	spans := make([]segmentSpan, len(segments))
	total := 0.0
	for _, s := range segments {
		if s.Percent > 0 {
			total += s.Percent
		}
	}
	if total == 0 || width <= 0 {
		return spans
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, 0, len(segments))
	used := 0
	for i, s := range segments {
		exact := 0.0
		if s.Percent > 0 {
			exact = s.Percent / total * float64(width)
		}
		spans[i].width = int(exact)
		used += spans[i].width
		rems = append(rems, remainder{idx: i, frac: exact - float64(spans[i].width)})
	}
	sort.SliceStable(rems, func(i, j int) bool {
		return rems[i].frac > rems[j].frac
	})
	for i := 0; used < width && i < len(rems); i++ {
		if segments[rems[i].idx].Percent <= 0 {
			continue
		}
		spans[rems[i].idx].width++
		used++
	}

	start := 0
	for i, s := range segments {
		spans[i].start = start
		start += spans[i].width
		if s.Percent <= 0 || spans[i].width == 0 {
			continue
		}
		label := fmt.Sprintf("%.1f%%", s.Percent)
		if len(label) > width {
			label = label[:width]
		}
		labelStart := spans[i].start + (spans[i].width-len(label))/2
		if labelStart+len(label) > width {
			labelStart = width - len(label)
		}
		if labelStart < 0 {
			labelStart = 0
		}
		spans[i].label = label
		spans[i].labelStart = labelStart
	}
	return spans
}

func renderBarLegend(segments []BarSegment, useColor bool) string {
	parts := make([]string, 0, len(segments))
	for i, s := range segments {
		swatch := string(segmentFill[i%len(segmentFill)])
		if useColor {
			swatch = colorPalette[i%len(colorPalette)].bg + "  " + colorReset
		}
		parts = append(parts, swatch+" "+s.Name)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
