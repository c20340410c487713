package stats

import (
	"context"
	"sort"
	"time"

	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/model"
)

// Coverage is the share of the corpus read at least once.
type Coverage struct {
	ChaptersRead  int `json:"chaptersRead"`
	TotalChapters int `json:"totalChapters"`
	Percentage    int `json:"percentage"`
}

// BookDetail is one row of the per-book progress grid.
type BookDetail struct {
	Name          string     `json:"name"`
	TotalChapters int        `json:"totalChapters"`
	ChaptersRead  int        `json:"chaptersRead"`
	Percentage    int        `json:"percentage"`
	LastRead      *time.Time `json:"lastRead"`
}

// BooksStarted counts books with any recorded progress.
func (c *Calculator) BooksStarted(ctx context.Context) (int, error) {
	progress, err := c.src.AllBookProgress(ctx)
	if err != nil {
		return 0, err
	}
	return len(progress), nil
}

// BooksCompleted counts books read through at least once.
func (c *Calculator) BooksCompleted(ctx context.Context) (int, error) {
	progress, err := c.src.AllBookProgress(ctx)
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, p := range progress {
		if p.TimesRead > 0 {
			completed++
		}
	}
	return completed, nil
}

// MostReadBooks returns progress entries with the most chapters read, ties
// broken by name. A limit <= 0 uses DefaultMostReadLimit.
func (c *Calculator) MostReadBooks(ctx context.Context, limit int) ([]model.BookProgress, error) {
	progress, err := c.src.AllBookProgress(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMostReadLimit
	}
	sort.SliceStable(progress, func(i, j int) bool {
		ni, nj := len(progress[i].ChaptersRead), len(progress[j].ChaptersRead)
		if ni == nj {
			return progress[i].Book < progress[j].Book
		}
		return ni > nj
	})
	if limit > len(progress) {
		limit = len(progress)
	}
	return progress[:limit], nil
}

func (c *Calculator) totalChapters() int {
	if c.catalog == nil {
		return corpus.FallbackTotalChapters
	}
	if total := c.catalog.TotalChapters(); total > 0 {
		return total
	}
	return corpus.FallbackTotalChapters
}

// ReadingCoverage sums read chapters over all books against the corpus total.
func (c *Calculator) ReadingCoverage(ctx context.Context) (Coverage, error) {
	progress, err := c.src.AllBookProgress(ctx)
	if err != nil {
		return Coverage{}, err
	}
	read := 0
	for _, p := range progress {
		read += len(p.ChaptersRead)
	}
	total := c.totalChapters()
	return Coverage{
		ChaptersRead:  read,
		TotalChapters: total,
		Percentage:    percent(read, total),
	}, nil
}

// BookProgressDetails lists every book of the corpus in canonical order,
// including books never opened.
func (c *Calculator) BookProgressDetails(ctx context.Context) ([]BookDetail, error) {
	progress, err := c.src.AllBookProgress(ctx)
	if err != nil {
		return nil, err
	}
	byBook := make(map[string]model.BookProgress, len(progress))
	for _, p := range progress {
		byBook[p.Book] = p
	}
	if c.catalog == nil {
		return []BookDetail{}, nil
	}
	books := c.catalog.Books()
	details := make([]BookDetail, 0, len(books))
	for _, book := range books {
		p := byBook[book.Name]
		details = append(details, BookDetail{
			Name:          book.Name,
			TotalChapters: book.Chapters,
			ChaptersRead:  len(p.ChaptersRead),
			Percentage:    percent(len(p.ChaptersRead), book.Chapters),
			LastRead:      p.LastRead,
		})
	}
	return details, nil
}
