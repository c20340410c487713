package tui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	lines := wrapText("In the beginning God created the heaven and the earth.", 20)
	want := []string{"In the beginning God", "created the heaven", "and the earth."}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected wrap: %q", lines)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	lines := wrapText("abcdefghij", 4)
	if strings.Join(lines, "|") != "abcd|efgh|ij" {
		t.Fatalf("unexpected wrap: %q", lines)
	}
}

func TestWrapTextCountsWideRunes(t *testing.T) {
	lines := wrapText("起初神創造天地", 6)
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 6 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", lines)
	}
}

func TestWrapTextEmpty(t *testing.T) {
	lines := wrapText("", 10)
	if len(lines) != 1 || lines[0] != "" {
		t.Fatalf("expected one empty line, got %q", lines)
	}
}

func TestWrapVerseHangingIndent(t *testing.T) {
	lines := wrapVerse("12", "one two three four", 10)
	want := []string{"12 one two", "   three", "   four"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected verse wrap: %q", lines)
	}
}
