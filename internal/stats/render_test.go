package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Book", "Read", "Progress"}
	rows := [][]string{
		{"Genesis", "25", "50%"},
		{"Song of Solomon", "8", "100%"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Book            Read Progress" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Genesis           25      50%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Song of Solomon    8     100%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"創世記", "1"}, {"Ruth", "2"}}, map[int]bool{1: true})
	if lines[1] != "創世記 1" {
		t.Fatalf("wide runes should count as two cells: %q", lines[1])
	}
	if lines[2] != "Ruth   2" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRenderBookTable(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	read := now.Add(-3 * time.Hour)
	details := []BookDetail{
		{Name: "Genesis", TotalChapters: 50, ChaptersRead: 25, Percentage: 50, LastRead: &read},
		{Name: "Exodus", TotalChapters: 40},
	}
	var buf bytes.Buffer
	if err := RenderBookTable(&buf, details, now, true); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Genesis") || !strings.Contains(out, "3 hours ago") {
		t.Fatalf("expected Genesis with relative time, got:\n%s", out)
	}
	if strings.Contains(out, "Exodus") {
		t.Fatalf("unstarted books should be hidden, got:\n%s", out)
	}

	buf.Reset()
	if err := RenderBookTable(&buf, details, now, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Exodus") {
		t.Fatalf("expected full grid, got:\n%s", buf.String())
	}
}

func TestBarLinesScaleToPeak(t *testing.T) {
	lines := BarLines([]Bar{{"a", 10}, {"b", 5}, {"c", 0}}, 20, nil)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	full := strings.Count(lines[0], string(barRune))
	half := strings.Count(lines[1], string(barRune))
	if full != 15 || half != 8 {
		t.Fatalf("expected bars of 15 and 8 cells, got %d and %d", full, half)
	}
	if strings.Contains(lines[2], string(barRune)) {
		t.Fatalf("zero value must have no bar: %q", lines[2])
	}
	if !strings.HasSuffix(lines[0], "10") || !strings.HasSuffix(lines[2], " 0") {
		t.Fatalf("values should be right aligned: %q %q", lines[0], lines[2])
	}
}

func TestRenderActivity(t *testing.T) {
	snap := Snapshot{}
	snap.Patterns.Hourly[7] = 3
	snap.Patterns.Weekly = []DayActivity{{DateKey: "2024-03-13", TotalSeconds: 3900, HasActivity: true}}
	snap.Patterns.Monthly = []DayActivity{{DateKey: "2024-03-13", ChaptersRead: 2, HasActivity: true}}

	var buf bytes.Buffer
	if err := RenderActivity(&buf, snap, 60, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Chapters, last 30 days", "03-13", "Wed 03-13", "1h 5m", "07:00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("no color expected for a buffer")
	}
}

func TestRenderSummary(t *testing.T) {
	snap := Snapshot{}
	snap.Streak.Current = 1
	snap.Time.Total = 7530
	snap.Books.Coverage = Coverage{ChaptersRead: 50, TotalChapters: 1189, Percentage: 4}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, snap); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"1 day", "2h 5m", "4% (50/1189 chapters)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday(" Monday ")
	if err != nil || day != time.Monday {
		t.Fatalf("expected Monday, got %v %v", day, err)
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatalf("expected error")
	}
}
