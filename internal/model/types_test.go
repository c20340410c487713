package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewDailyStatCountsDistinctChapters(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	key := DateKey(start)
	sessions := []ReadingSession{
		{Book: "Genesis", Chapter: 1, DurationSeconds: 60, DateKey: key},
		{Book: "Genesis", Chapter: 1, DurationSeconds: 30, DateKey: key},
		{Book: "Genesis", Chapter: 2, DurationSeconds: 10, DateKey: key},
		{Book: "Exodus", Chapter: 1, DurationSeconds: 20, DateKey: key},
		{Book: "Ruth", Chapter: 1, DurationSeconds: 999, DateKey: "2024-03-11"},
	}
	stat := NewDailyStat(key, sessions)
	if stat.ChaptersRead != 3 {
		t.Fatalf("expected 3 chapters, got %d", stat.ChaptersRead)
	}
	if stat.TotalSeconds != 120 {
		t.Fatalf("expected 120 seconds, got %d", stat.TotalSeconds)
	}
	if stat.SessionsCount != 4 {
		t.Fatalf("expected 4 sessions, got %d", stat.SessionsCount)
	}
	if len(stat.BooksRead) != 2 || stat.BooksRead[0] != "Genesis" || stat.BooksRead[1] != "Exodus" {
		t.Fatalf("unexpected books: %v", stat.BooksRead)
	}
}

func TestMarkReadCompletionQuirk(t *testing.T) {
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	p := NewBookProgress("Ruth")
	for ch := 1; ch <= 4; ch++ {
		p.MarkRead(ch, at, 4)
	}
	if p.TimesRead != 1 {
		t.Fatalf("expected 1 completion, got %d", p.TimesRead)
	}
	// Re-reading a chapter of a saturated book counts again.
	p.MarkRead(2, at.Add(time.Hour), 4)
	if p.TimesRead != 2 {
		t.Fatalf("expected 2 completions, got %d", p.TimesRead)
	}
	if len(p.ChaptersRead) != 4 {
		t.Fatalf("expected 4 chapters, got %v", p.ChaptersRead)
	}
	if p.LastRead == nil || !p.LastRead.Equal(at.Add(time.Hour)) {
		t.Fatalf("unexpected last read: %v", p.LastRead)
	}
}

func TestMarkReadUnknownBookNeverCompletes(t *testing.T) {
	p := NewBookProgress("Tobit")
	p.MarkRead(1, time.Now(), 0)
	if p.TimesRead != 0 {
		t.Fatalf("expected no completion, got %d", p.TimesRead)
	}
}

func TestSessionNormalize(t *testing.T) {
	start := time.Date(2024, 3, 10, 23, 30, 0, 0, time.Local)
	s := ReadingSession{Book: " Genesis ", Chapter: 1, SessionStart: start, DurationSeconds: 60}
	if err := s.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if s.Book != "Genesis" || s.DateKey != "2024-03-10" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if !s.SessionEnd.Equal(start.Add(time.Minute)) {
		t.Fatalf("unexpected end: %v", s.SessionEnd)
	}

	bad := ReadingSession{Book: "Genesis", Chapter: 0, SessionStart: start}
	if err := bad.Normalize(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
	bad = ReadingSession{Book: "Genesis", Chapter: 1, SessionStart: start, DateKey: "10/03/2024"}
	if err := bad.Normalize(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid date key, got %v", err)
	}
}

func TestEventNormalize(t *testing.T) {
	ts := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	e := EngagementEvent{EventType: "bookmark", Book: "John", Chapter: 3, Timestamp: ts}
	if err := e.Normalize(); err != nil {
		t.Fatalf("custom event types are accepted: %v", err)
	}
	if e.DateKey != "2024-03-10" {
		t.Fatalf("unexpected date key %q", e.DateKey)
	}
	e = EngagementEvent{Book: "John", Chapter: 3, Timestamp: ts}
	if err := e.Normalize(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
}
