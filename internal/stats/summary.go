package stats

import (
	"fmt"
	"io"
	"strings"
)

// RenderSummary prints the headline metrics of a snapshot.
func RenderSummary(w io.Writer, snap Snapshot) error {
	cov := snap.Books.Coverage
	sections := []struct {
		title string
		rows  [][]string
	}{
		{"Streak", [][]string{
			{"Current", days(snap.Streak.Current)},
			{"Longest", days(snap.Streak.Longest)},
		}},
		{"Chapters", [][]string{
			{"Today", fmt.Sprint(snap.Chapters.Today)},
			{"This week", fmt.Sprint(snap.Chapters.Week)},
			{"This month", fmt.Sprint(snap.Chapters.Month)},
			{"This year", fmt.Sprint(snap.Chapters.Year)},
			{"All time", fmt.Sprint(snap.Chapters.Total)},
		}},
		{"Time", [][]string{
			{"Today", FormatDuration(snap.Time.Today)},
			{"This week", FormatDuration(snap.Time.Week)},
			{"This month", FormatDuration(snap.Time.Month)},
			{"This year", FormatDuration(snap.Time.Year)},
			{"All time", FormatDuration(snap.Time.Total)},
		}},
		{"Books", [][]string{
			{"Started", fmt.Sprint(snap.Books.Started)},
			{"Completed", fmt.Sprint(snap.Books.Completed)},
			{"Coverage", fmt.Sprintf("%d%% (%d/%d chapters)", cov.Percentage, cov.ChaptersRead, cov.TotalChapters)},
		}},
		{"Engagement", [][]string{
			{"Highlights", fmt.Sprint(snap.Engagement.Highlights)},
			{"Notes", fmt.Sprint(snap.Engagement.Notes)},
		}},
	}
	for _, section := range sections {
		if _, err := fmt.Fprintln(w, section.title); err != nil {
			return err
		}
		for _, line := range formatTable(nil, section.rows, map[int]bool{1: true}) {
			if _, err := fmt.Fprintln(w, "  "+line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	if len(snap.Books.MostRead) > 0 {
		names := make([]string, 0, len(snap.Books.MostRead))
		for _, p := range snap.Books.MostRead {
			names = append(names, fmt.Sprintf("%s (%d)", p.Book, len(p.ChaptersRead)))
		}
		if _, err := fmt.Fprintf(w, "Most read: %s\n\n", strings.Join(names, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
