package dashboard

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapTextBreaksOnSpaces(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := "one two\nthree\nfour"
	if got != want {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	got := wrapText("abcdefghij xy", 4)
	want := "abcd\nefgh\nij\nxy"
	if got != want {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextKeepsParagraphs(t *testing.T) {
	got := wrapText("alpha\n\nbeta", 10)
	if got != "alpha\n\nbeta" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextRespectsWidth(t *testing.T) {
	text := strings.Repeat("hair loss dataset ", 20)
	for _, line := range strings.Split(wrapText(text, 23), "\n") {
		if runewidth.StringWidth(line) > 23 {
			t.Fatalf("line too wide: %q", line)
		}
	}
}
