package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/readstats/internal/model"
)

// Date keys are calendar dates; arithmetic on them runs in UTC so daylight
// saving transitions never skip or repeat a day.

// PrevDateKey returns the key of the day before key.
func PrevDateKey(key string) (string, error) {
	return shiftDateKey(key, -1)
}

// NextDateKey returns the key of the day after key.
func NextDateKey(key string) (string, error) {
	return shiftDateKey(key, 1)
}

func shiftDateKey(key string, days int) (string, error) {
	t, err := parseDateKey(key)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(model.DateLayout), nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b string) (int, error) {
	ta, err := parseDateKey(a)
	if err != nil {
		return 0, err
	}
	tb, err := parseDateKey(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

func parseDateKey(key string) (time.Time, error) {
	if !model.ValidDateKey(key) {
		return time.Time{}, fmt.Errorf("invalid date key %q", key)
	}
	return time.ParseInLocation(model.DateLayout, key, time.UTC)
}

// localDay returns local midnight of the day containing t.
func localDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// TodayKey returns today's key in local time.
func (c *Calculator) TodayKey() string {
	return model.DateKey(c.clock.Now())
}

// DaysAgoKey returns the key of the local day n days before today.
func (c *Calculator) DaysAgoKey(n int) string {
	return model.DateKey(localDay(c.clock.Now()).AddDate(0, 0, -n))
}

// WeekStartKey returns the key of the first day of the current week.
func (c *Calculator) WeekStartKey() string {
	today := localDay(c.clock.Now())
	back := (int(today.Weekday()) - int(c.weekStart) + 7) % 7
	return model.DateKey(today.AddDate(0, 0, -back))
}

// MonthStartKey returns the key of the first day of the current month.
func (c *Calculator) MonthStartKey() string {
	today := localDay(c.clock.Now())
	return model.DateKey(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local))
}

// YearStartKey returns the key of January 1st of the current year.
func (c *Calculator) YearStartKey() string {
	today := localDay(c.clock.Now())
	return model.DateKey(time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.Local))
}

// weekdayNames maps config names to weekdays.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a weekday name such as "monday".
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown weekday %q", name)
	}
	return day, nil
}
