package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/readstats/internal/model"
)

// Snapshot is the point-in-time dashboard data.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Streak      StreakStats     `json:"streak"`
	Chapters    PeriodTotals    `json:"chapters"`
	Time        PeriodTotals    `json:"time"`
	Books       BookStats       `json:"books"`
	Engagement  EngagementStats `json:"engagement"`
	Patterns    Patterns        `json:"patterns"`
}

// StreakStats holds the current and longest streaks in days.
type StreakStats struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// PeriodTotals holds a metric for the calendar periods ending today. Time
// totals are in seconds.
type PeriodTotals struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
	Year  int `json:"year"`
	Total int `json:"total"`
}

// BookStats summarizes book progress.
type BookStats struct {
	Started   int                  `json:"started"`
	Completed int                  `json:"completed"`
	Coverage  Coverage             `json:"coverage"`
	MostRead  []model.BookProgress `json:"mostRead"`
}

// EngagementStats summarizes engagement events.
type EngagementStats struct {
	Highlights int                          `json:"highlights"`
	Notes      int                          `json:"notes"`
	ByType     map[model.EngagementType]int `json:"byType"`
}

// Patterns holds the time-series views.
type Patterns struct {
	Hourly       [24]int       `json:"hourly"`
	Weekly       []DayActivity `json:"weekly"`
	Monthly      []DayActivity `json:"monthly"`
	BookProgress []BookDetail  `json:"bookProgress"`
}

// AllStats computes every metric concurrently. Any failure fails the whole
// snapshot.
func (c *Calculator) AllStats(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{GeneratedAt: c.clock.Now()}
	g, gctx := errgroup.WithContext(ctx)

	intTasks := []struct {
		dst *int
		fn  func(context.Context) (int, error)
	}{
		{&snap.Streak.Current, c.CurrentStreak},
		{&snap.Streak.Longest, c.LongestStreak},
		{&snap.Chapters.Today, c.ChaptersToday},
		{&snap.Chapters.Week, c.ChaptersThisWeek},
		{&snap.Chapters.Month, c.ChaptersThisMonth},
		{&snap.Chapters.Year, c.ChaptersThisYear},
		{&snap.Chapters.Total, c.ChaptersTotal},
		{&snap.Time.Today, c.TimeToday},
		{&snap.Time.Week, c.TimeThisWeek},
		{&snap.Time.Month, c.TimeThisMonth},
		{&snap.Time.Year, c.TimeThisYear},
		{&snap.Time.Total, c.TimeTotal},
		{&snap.Books.Started, c.BooksStarted},
		{&snap.Books.Completed, c.BooksCompleted},
		{&snap.Engagement.Highlights, c.TotalHighlights},
		{&snap.Engagement.Notes, c.TotalNotes},
	}
	for _, task := range intTasks {
		task := task
		g.Go(func() error {
			v, err := task.fn(gctx)
			if err != nil {
				return err
			}
			*task.dst = v
			return nil
		})
	}

	g.Go(func() (err error) {
		snap.Books.Coverage, err = c.ReadingCoverage(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Books.MostRead, err = c.MostReadBooks(gctx, c.mostReadLimit)
		return err
	})
	g.Go(func() (err error) {
		snap.Engagement.ByType, err = c.EngagementTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Patterns.Hourly, err = c.HourlyDistribution(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Patterns.Weekly, err = c.WeeklyDistribution(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Patterns.Monthly, err = c.MonthlyTrend(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Patterns.BookProgress, err = c.BookProgressDetails(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
