package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// RenderBookTable prints the per-book grid. With startedOnly, unopened books
// are left out.
func RenderBookTable(w io.Writer, details []BookDetail, now time.Time, startedOnly bool) error {
	headers := []string{"Book", "Read", "Chapters", "Progress", "Last Read"}
	rows := make([][]string, 0, len(details))
	for _, d := range details {
		if startedOnly && d.ChaptersRead == 0 {
			continue
		}
		rows = append(rows, []string{
			d.Name,
			fmt.Sprintf("%d", d.ChaptersRead),
			fmt.Sprintf("%d", d.TotalChapters),
			fmt.Sprintf("%d%%", d.Percentage),
			LastReadLabel(d.LastRead, now),
		})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No books read yet.")
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// LastReadLabel renders a last-read time relative to now, or "-" when unset.
func LastReadLabel(lastRead *time.Time, now time.Time) string {
	if lastRead == nil || lastRead.IsZero() {
		return "-"
	}
	return humanize.RelTime(*lastRead, now, "ago", "from now")
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if rightAlignCols[i] {
			cells[i] = runewidth.FillLeft(cell, width)
		} else {
			cells[i] = runewidth.FillRight(cell, width)
		}
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}
