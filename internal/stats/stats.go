// Package stats derives reading statistics from the event store.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/readstats/internal/clock"
	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/model"
)

// DefaultMostReadLimit is the number of books in the most-read list.
const DefaultMostReadLimit = 5

// Source is the read-only view of the event store used by the calculator.
type Source interface {
	AllSessions(ctx context.Context) ([]model.ReadingSession, error)
	DailyStat(ctx context.Context, dateKey string) (model.DailyStat, error)
	DailyStatsRange(ctx context.Context, startKey, endKey string) ([]model.DailyStat, error)
	AllDailyStats(ctx context.Context) ([]model.DailyStat, error)
	AllBookProgress(ctx context.Context) ([]model.BookProgress, error)
	EngagementByType(ctx context.Context, eventType model.EngagementType) ([]model.EngagementEvent, error)
	AllEngagementEvents(ctx context.Context) ([]model.EngagementEvent, error)
}

// Catalog lists the books of the corpus.
type Catalog interface {
	Books() []corpus.Book
	TotalChapters() int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(calc *Calculator) {
		if c != nil {
			calc.clock = c
		}
	}
}

// WithWeekStart sets the first day of the week.
func WithWeekStart(day time.Weekday) Option {
	return func(calc *Calculator) {
		calc.weekStart = day
	}
}

// WithMostReadLimit sets the size of the most-read list in snapshots.
func WithMostReadLimit(n int) Option {
	return func(calc *Calculator) {
		if n > 0 {
			calc.mostReadLimit = n
		}
	}
}

// Calculator computes metrics on demand. It never writes to its source.
type Calculator struct {
	src           Source
	catalog       Catalog
	clock         clock.Clock
	weekStart     time.Weekday
	mostReadLimit int
}

// New returns a calculator reading from src. A nil catalog falls back to the
// fixed corpus chapter total.
func New(src Source, catalog Catalog, opts ...Option) *Calculator {
	c := &Calculator{
		src:           src,
		catalog:       catalog,
		clock:         clock.System{},
		weekStart:     time.Sunday,
		mostReadLimit: DefaultMostReadLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DayActivity is one day of reading history.
type DayActivity struct {
	DateKey      string `json:"dateKey"`
	ChaptersRead int    `json:"chaptersRead"`
	TotalSeconds int    `json:"totalSeconds"`
	HasActivity  bool   `json:"hasActivity"`
}

func (c *Calculator) activeDates(ctx context.Context) (map[string]struct{}, error) {
	all, err := c.src.AllDailyStats(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{}, len(all))
	for _, stat := range all {
		if stat.HasActivity() {
			active[stat.DateKey] = struct{}{}
		}
	}
	return active, nil
}

// CurrentStreak counts consecutive reading days ending today, or ending
// yesterday when nothing was read yet today.
func (c *Calculator) CurrentStreak(ctx context.Context) (int, error) {
	active, err := c.activeDates(ctx)
	if err != nil {
		return 0, err
	}
	day := c.TodayKey()
	if _, ok := active[day]; !ok {
		day = c.DaysAgoKey(1)
		if _, ok := active[day]; !ok {
			return 0, nil
		}
	}
	streak := 0
	for {
		if _, ok := active[day]; !ok {
			return streak, nil
		}
		streak++
		if day, err = PrevDateKey(day); err != nil {
			return 0, err
		}
	}
}

// LongestStreak returns the longest run of consecutive reading days.
func (c *Calculator) LongestStreak(ctx context.Context) (int, error) {
	active, err := c.activeDates(ctx)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(active))
	for key := range active {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	longest, run := 0, 0
	for i, key := range keys {
		if i == 0 {
			run = 1
		} else {
			gap, err := DaysBetween(keys[i-1], key)
			if err != nil {
				return 0, err
			}
			if gap == 1 {
				run++
			} else {
				run = 1
			}
		}
		longest = max(longest, run)
	}
	return longest, nil
}

// StreakHistory reports the last days days, oldest first. Days without a
// stored aggregate are zero.
func (c *Calculator) StreakHistory(ctx context.Context, days int) ([]DayActivity, error) {
	if days <= 0 {
		return []DayActivity{}, nil
	}
	stats, err := c.src.DailyStatsRange(ctx, c.DaysAgoKey(days-1), c.TodayKey())
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]model.DailyStat, len(stats))
	for _, stat := range stats {
		byKey[stat.DateKey] = stat
	}
	history := make([]DayActivity, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := c.DaysAgoKey(i)
		stat := byKey[key]
		history = append(history, DayActivity{
			DateKey:      key,
			ChaptersRead: stat.ChaptersRead,
			TotalSeconds: stat.TotalSeconds,
			HasActivity:  stat.HasActivity(),
		})
	}
	return history, nil
}

// WeeklyDistribution is the last 7 days of history.
func (c *Calculator) WeeklyDistribution(ctx context.Context) ([]DayActivity, error) {
	return c.StreakHistory(ctx, 7)
}

// MonthlyTrend is the last 30 days of history.
func (c *Calculator) MonthlyTrend(ctx context.Context) ([]DayActivity, error) {
	return c.StreakHistory(ctx, 30)
}

func (c *Calculator) sumSince(ctx context.Context, startKey string, field func(model.DailyStat) int) (int, error) {
	stats, err := c.src.DailyStatsRange(ctx, startKey, c.TodayKey())
	if err != nil {
		return 0, err
	}
	total := 0
	for _, stat := range stats {
		total += field(stat)
	}
	return total, nil
}

func chapters(stat model.DailyStat) int { return stat.ChaptersRead }
func seconds(stat model.DailyStat) int  { return stat.TotalSeconds }

// ChaptersToday returns the distinct chapters read today.
func (c *Calculator) ChaptersToday(ctx context.Context) (int, error) {
	stat, err := c.src.DailyStat(ctx, c.TodayKey())
	if err != nil {
		return 0, err
	}
	return stat.ChaptersRead, nil
}

// ChaptersThisWeek sums daily chapter counts since the start of the week.
func (c *Calculator) ChaptersThisWeek(ctx context.Context) (int, error) {
	return c.sumSince(ctx, c.WeekStartKey(), chapters)
}

// ChaptersThisMonth sums daily chapter counts since the start of the month.
func (c *Calculator) ChaptersThisMonth(ctx context.Context) (int, error) {
	return c.sumSince(ctx, c.MonthStartKey(), chapters)
}

// ChaptersThisYear sums daily chapter counts since January 1st.
func (c *Calculator) ChaptersThisYear(ctx context.Context) (int, error) {
	return c.sumSince(ctx, c.YearStartKey(), chapters)
}

// ChaptersTotal counts distinct (book, chapter) pairs over all sessions, so a
// chapter re-read on another day counts once.
func (c *Calculator) ChaptersTotal(ctx context.Context) (int, error) {
	sessions, err := c.src.AllSessions(ctx)
	if err != nil {
		return 0, err
	}
	return model.CountDistinctChapters(sessions), nil
}

// TimeToday returns seconds read today.
func (c *Calculator) TimeToday(ctx context.Context) (int, error) {
	stat, err := c.src.DailyStat(ctx, c.TodayKey())
	if err != nil {
		return 0, err
	}
	return stat.TotalSeconds, nil
}

// TimeThisWeek returns seconds read since the start of the week.
func (c *Calculator) TimeThisWeek(ctx context.Context) (int, error) {
	return c.sumSince(ctx, c.WeekStartKey(), seconds)
}

// TimeThisMonth returns seconds read since the start of the month.
func (c *Calculator) TimeThisMonth(ctx context.Context) (int, error) {
	return c.sumSince(ctx, c.MonthStartKey(), seconds)
}

// TimeThisYear returns seconds read since January 1st.
func (c *Calculator) TimeThisYear(ctx context.Context) (int, error) {
	return c.sumSince(ctx, c.YearStartKey(), seconds)
}

// TimeTotal returns seconds read over all time.
func (c *Calculator) TimeTotal(ctx context.Context) (int, error) {
	all, err := c.src.AllDailyStats(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, stat := range all {
		total += stat.TotalSeconds
	}
	return total, nil
}

// HourlyDistribution counts sessions by local hour of their start.
func (c *Calculator) HourlyDistribution(ctx context.Context) ([24]int, error) {
	var hours [24]int
	sessions, err := c.src.AllSessions(ctx)
	if err != nil {
		return hours, err
	}
	for _, s := range sessions {
		hours[s.SessionStart.Local().Hour()]++
	}
	return hours, nil
}

// FormatDuration renders whole seconds as "2h 5m" or "5m".
func FormatDuration(totalSeconds int) string {
	if totalSeconds <= 0 {
		return "0m"
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
