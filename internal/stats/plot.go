package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	barRune             = '█'
	minBarWidth         = 10
	terminalWidthBackup = 80
	colorReset          = "\x1b[0m"
	barColor            = "\x1b[36m"
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value int
}

// BarLines lays out horizontal bars scaled to the largest value so that each
// line fits in width cells. format renders the value column.
func BarLines(bars []Bar, width int, format func(int) string) []string {
	if len(bars) == 0 {
		return nil
	}
	if format == nil {
		format = func(v int) string { return fmt.Sprintf("%d", v) }
	}
	labelWidth, valueWidth, peak := 0, 0, 0
	values := make([]string, len(bars))
	for i, b := range bars {
		values[i] = format(b.Value)
		labelWidth = max(labelWidth, runewidth.StringWidth(b.Label))
		valueWidth = max(valueWidth, runewidth.StringWidth(values[i]))
		peak = max(peak, b.Value)
	}
	barWidth := max(width-labelWidth-valueWidth-2, minBarWidth)

	lines := make([]string, len(bars))
	for i, b := range bars {
		n := 0
		if peak > 0 && b.Value > 0 {
			n = max(1, int(math.Round(float64(b.Value)/float64(peak)*float64(barWidth))))
		}
		lines[i] = runewidth.FillRight(b.Label, labelWidth) + " " +
			runewidth.FillRight(strings.Repeat(string(barRune), n), barWidth) + " " +
			runewidth.FillLeft(values[i], valueWidth)
	}
	return lines
}

// RenderBars prints a titled bar chart. A width <= 0 uses the terminal width.
func RenderBars(w io.Writer, title string, bars []Bar, width int, format func(int) string, forceColor bool) error {
	if width <= 0 {
		width = terminalWidth()
	}
	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, line := range BarLines(bars, width, format) {
		if useColor {
			line = colorizeBars(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func colorizeBars(line string) string {
	start := strings.IndexRune(line, barRune)
	if start < 0 {
		return line
	}
	end := strings.LastIndex(line, string(barRune)) + len(string(barRune))
	return line[:start] + barColor + line[start:end] + colorReset + line[end:]
}

// RenderActivity prints the 30-day, 7-day and hourly charts of a snapshot.
func RenderActivity(w io.Writer, snap Snapshot, width int, forceColor bool) error {
	if err := RenderBars(w, "Chapters, last 30 days", DailyBars(snap.Patterns.Monthly, chaptersOf), width, nil, forceColor); err != nil {
		return err
	}
	if err := RenderBars(w, "Reading time, last 7 days", WeekdayBars(snap.Patterns.Weekly), width, FormatDuration, forceColor); err != nil {
		return err
	}
	return RenderBars(w, "Sessions by hour", HourlyBars(snap.Patterns.Hourly), width, nil, forceColor)
}

func chaptersOf(d DayActivity) int { return d.ChaptersRead }

// DailyBars labels each day with its month and day.
func DailyBars(days []DayActivity, value func(DayActivity) int) []Bar {
	bars := make([]Bar, len(days))
	for i, d := range days {
		label := d.DateKey
		if len(label) == len("2006-01-02") {
			label = label[5:]
		}
		bars[i] = Bar{Label: label, Value: value(d)}
	}
	return bars
}

// WeekdayBars labels each day with its weekday and charts reading time.
func WeekdayBars(days []DayActivity) []Bar {
	bars := make([]Bar, len(days))
	for i, d := range days {
		label := d.DateKey
		if t, err := parseDateKey(d.DateKey); err == nil {
			label = t.Weekday().String()[:3] + " " + d.DateKey[5:]
		}
		bars[i] = Bar{Label: label, Value: d.TotalSeconds}
	}
	return bars
}

// HourlyBars labels each hour of the day.
func HourlyBars(hours [24]int) []Bar {
	bars := make([]Bar, len(hours))
	for h, n := range hours {
		bars[h] = Bar{Label: fmt.Sprintf("%02d:00", h), Value: n}
	}
	return bars
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
