// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the layout of a date key.
const DateLayout = "2006-01-02"

// ErrInvalidRecord reports a record that fails validation.
var ErrInvalidRecord = errors.New("invalid record")

// DateKey returns the YYYY-MM-DD key of t in local time.
func DateKey(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ValidDateKey reports whether key is a well-formed date key.
func ValidDateKey(key string) bool {
	if len(key) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, key)
	return err == nil
}

// ReadingSession is one continuous (modulo pauses) interval of reading a chapter.
type ReadingSession struct {
	ID              int64     `json:"id,omitempty"`
	Book            string    `json:"book"`
	Chapter         int       `json:"chapter"`
	SessionStart    time.Time `json:"sessionStart"`
	SessionEnd      time.Time `json:"sessionEnd"`
	DurationSeconds int       `json:"durationSeconds"`
	DateKey         string    `json:"dateKey"`
}

// Normalize fills derived fields and validates the session.
func (s *ReadingSession) Normalize() error {
	s.Book = strings.TrimSpace(s.Book)
	if s.Book == "" {
		return fmt.Errorf("%w: session book is empty", ErrInvalidRecord)
	}
	if s.Chapter < 1 {
		return fmt.Errorf("%w: session chapter %d", ErrInvalidRecord, s.Chapter)
	}
	if s.SessionStart.IsZero() {
		return fmt.Errorf("%w: session start is missing", ErrInvalidRecord)
	}
	if s.SessionEnd.IsZero() {
		s.SessionEnd = s.SessionStart.Add(time.Duration(s.DurationSeconds) * time.Second)
	}
	if s.SessionEnd.Before(s.SessionStart) {
		return fmt.Errorf("%w: session ends before it starts", ErrInvalidRecord)
	}
	if s.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative session duration", ErrInvalidRecord)
	}
	if s.DateKey == "" {
		s.DateKey = DateKey(s.SessionStart)
	}
	if !ValidDateKey(s.DateKey) {
		return fmt.Errorf("%w: session date key %q", ErrInvalidRecord, s.DateKey)
	}
	return nil
}

// DailyStat aggregates all sessions sharing a date key.
type DailyStat struct {
	DateKey       string   `json:"dateKey"`
	ChaptersRead  int      `json:"chaptersRead"`
	TotalSeconds  int      `json:"totalSeconds"`
	BooksRead     []string `json:"booksRead"`
	SessionsCount int      `json:"sessionsCount"`
}

// NewDailyStat recomputes the aggregate for dateKey from the day's sessions.
// Sessions with a different date key are ignored.
func NewDailyStat(dateKey string, sessions []ReadingSession) DailyStat {
	stat := DailyStat{DateKey: dateKey, BooksRead: []string{}}
	chapters := map[chapterRef]struct{}{}
	books := map[string]struct{}{}
	for _, s := range sessions {
		if s.DateKey != dateKey {
			continue
		}
		chapters[chapterRef{book: s.Book, chapter: s.Chapter}] = struct{}{}
		if _, ok := books[s.Book]; !ok {
			books[s.Book] = struct{}{}
			stat.BooksRead = append(stat.BooksRead, s.Book)
		}
		stat.TotalSeconds += s.DurationSeconds
		stat.SessionsCount++
	}
	stat.ChaptersRead = len(chapters)
	return stat
}

// HasActivity reports whether at least one chapter was read that day.
func (d DailyStat) HasActivity() bool {
	return d.ChaptersRead > 0
}

type chapterRef struct {
	book    string
	chapter int
}

// CountDistinctChapters counts distinct (book, chapter) pairs across sessions.
func CountDistinctChapters(sessions []ReadingSession) int {
	seen := make(map[chapterRef]struct{}, len(sessions))
	for _, s := range sessions {
		seen[chapterRef{book: s.Book, chapter: s.Chapter}] = struct{}{}
	}
	return len(seen)
}

// BookProgress tracks which chapters of a book were ever read.
type BookProgress struct {
	Book         string     `json:"bookName"`
	ChaptersRead []int      `json:"chaptersRead"`
	LastRead     *time.Time `json:"lastRead"`
	TimesRead    int        `json:"timesRead"`
}

// NewBookProgress returns empty progress for book.
func NewBookProgress(book string) BookProgress {
	return BookProgress{Book: book, ChaptersRead: []int{}}
}

// HasChapter reports whether chapter was read.
func (p BookProgress) HasChapter(chapter int) bool {
	for _, c := range p.ChaptersRead {
		if c == chapter {
			return true
		}
	}
	return false
}

// MarkRead records a read of chapter at the given time.
//
// TimesRead increments every time the read set is saturated after the update,
// including repeat reads of an already completed book. totalChapters <= 0
// means the book is unknown and never counts as completed.
func (p *BookProgress) MarkRead(chapter int, at time.Time, totalChapters int) {
	if p.ChaptersRead == nil {
		p.ChaptersRead = []int{}
	}
	if !p.HasChapter(chapter) {
		p.ChaptersRead = append(p.ChaptersRead, chapter)
	}
	read := at
	p.LastRead = &read
	if totalChapters > 0 && len(p.ChaptersRead) >= totalChapters {
		p.TimesRead++
	}
}

// SortedChapters returns the read chapters in ascending order.
func (p BookProgress) SortedChapters() []int {
	out := append([]int(nil), p.ChaptersRead...)
	sort.Ints(out)
	return out
}

// EngagementType tags an engagement event.
type EngagementType string

// Known engagement types.
const (
	EngagementHighlight EngagementType = "highlight"
	EngagementNote      EngagementType = "note"
)

// EngagementEvent is a discrete user action recorded for statistics.
type EngagementEvent struct {
	ID        int64          `json:"id,omitempty"`
	EventType EngagementType `json:"eventType"`
	Book      string         `json:"book"`
	Chapter   int            `json:"chapter"`
	Verse     int            `json:"verse,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	DateKey   string         `json:"dateKey"`
	Data      map[string]any `json:"data,omitempty"`
}

// Normalize fills derived fields and validates the event.
func (e *EngagementEvent) Normalize() error {
	e.EventType = EngagementType(strings.TrimSpace(string(e.EventType)))
	if e.EventType == "" {
		return fmt.Errorf("%w: event type is empty", ErrInvalidRecord)
	}
	e.Book = strings.TrimSpace(e.Book)
	if e.Book == "" {
		return fmt.Errorf("%w: event book is empty", ErrInvalidRecord)
	}
	if e.Chapter < 1 {
		return fmt.Errorf("%w: event chapter %d", ErrInvalidRecord, e.Chapter)
	}
	if e.Verse < 0 {
		return fmt.Errorf("%w: event verse %d", ErrInvalidRecord, e.Verse)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: event timestamp is missing", ErrInvalidRecord)
	}
	if e.DateKey == "" {
		e.DateKey = DateKey(e.Timestamp)
	}
	if !ValidDateKey(e.DateKey) {
		return fmt.Errorf("%w: event date key %q", ErrInvalidRecord, e.DateKey)
	}
	return nil
}

// StoreCounts holds per-collection record counts.
type StoreCounts struct {
	Sessions         int
	DailyStats       int
	BookProgress     int
	EngagementEvents int
}

// StatsBackup carries all four collections for export and restore.
type StatsBackup struct {
	Sessions         []ReadingSession  `json:"reading_sessions"`
	DailyStats       []DailyStat       `json:"daily_stats"`
	BookProgress     []BookProgress    `json:"book_progress"`
	EngagementEvents []EngagementEvent `json:"engagement_events"`
}
