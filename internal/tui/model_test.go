package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/model"
	"github.com/verte-zerg/readstats/internal/store"
	"github.com/verte-zerg/readstats/internal/tracker"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *store.Store
	tracker *tracker.Tracker
	clock   *fakeClock
	model   *Model
}

func newFixture(t *testing.T, book string, chapter int, text TextSource) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "stats.db"), corpus.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	clk := &fakeClock{now: time.Date(2024, 3, 13, 8, 0, 0, 0, time.Local)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := tracker.New(st, tracker.WithClock(clk), tracker.WithLogger(logger))
	m, err := NewModel(ctx, Config{
		Session:  tr,
		Recorder: st,
		Catalog:  corpus.Default(),
		Text:     text,
		Clock:    clk,
		Logger:   logger,
		Book:     book,
		Chapter:  chapter,
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return &fixture{store: st, tracker: tr, clock: clk, model: m}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelRejectsUnknownChapter(t *testing.T) {
	tr := tracker.New(nil)
	if _, err := NewModel(context.Background(), Config{Session: tr, Book: "Jude", Chapter: 2}); err == nil {
		t.Fatalf("expected error for chapter past the end of the book")
	}
	if _, err := NewModel(context.Background(), Config{Session: tr, Book: "Hezekiah", Chapter: 1}); err == nil {
		t.Fatalf("expected error for unknown book")
	}
	if tr.State() != tracker.Idle {
		t.Fatalf("no session should start for an invalid chapter")
	}
}

func TestQuitEndsSession(t *testing.T) {
	f := newFixture(t, "genesis", 1, nil)
	f.clock.Advance(42 * time.Second)
	_, cmd := f.model.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	res, err := f.model.Result()
	if err != nil || !res.Saved {
		t.Fatalf("expected saved session, got %+v %v", res, err)
	}
	if res.Session.Book != "Genesis" || res.Session.DurationSeconds != 42 {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
	if f.tracker.State() != tracker.Idle {
		t.Fatalf("tracker should be idle after quit")
	}
}

func TestNavigationStartsNewSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Ruth", 4, nil)
	f.clock.Advance(30 * time.Second)
	f.model.Update(key("n"))
	if f.model.book != "1 Samuel" {
		t.Fatalf("expected to cross into the next book, got %s %d", f.model.book, f.model.chapter)
	}
	if f.model.chapter != 1 {
		t.Fatalf("expected chapter 1, got %d", f.model.chapter)
	}
	f.clock.Advance(20 * time.Second)
	f.model.Update(key("b"))
	if f.model.book != "Ruth" || f.model.chapter != 4 {
		t.Fatalf("expected to return to Ruth 4, got %s %d", f.model.book, f.model.chapter)
	}

	sessions, err := f.store.AllSessions(ctx)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Book != "Ruth" || sessions[0].DurationSeconds != 30 {
		t.Fatalf("unexpected first session: %+v", sessions[0])
	}
}

func TestNavigationStopsAtCorpusEdges(t *testing.T) {
	f := newFixture(t, "Genesis", 1, nil)
	f.model.Update(key("b"))
	if f.model.book != "Genesis" || f.model.chapter != 1 {
		t.Fatalf("should stay on Genesis 1, got %s %d", f.model.book, f.model.chapter)
	}
	last := newFixture(t, "Revelation", 22, nil)
	last.model.Update(key("n"))
	if last.model.book != "Revelation" || last.model.chapter != 22 {
		t.Fatalf("should stay on Revelation 22, got %s %d", last.model.book, last.model.chapter)
	}
}

func TestBlurPausesAndFocusResumes(t *testing.T) {
	f := newFixture(t, "John", 3, nil)
	f.clock.Advance(10 * time.Second)
	f.model.Update(tea.BlurMsg{})
	snap, ok := f.tracker.Current()
	if !ok || !snap.Paused {
		t.Fatalf("expected paused snapshot, got %+v", snap)
	}
	f.clock.Advance(time.Hour)
	f.model.Update(tea.FocusMsg{})
	f.clock.Advance(5 * time.Second)
	snap, _ = f.tracker.Current()
	if snap.Paused || snap.ElapsedSeconds != 15 {
		t.Fatalf("expected 15s active, got %+v", snap)
	}
}

func TestFocusKeepsManualPause(t *testing.T) {
	f := newFixture(t, "John", 3, nil)
	f.model.Update(key("p"))
	f.model.Update(tea.BlurMsg{})
	f.model.Update(tea.FocusMsg{})
	if snap, _ := f.tracker.Current(); !snap.Paused {
		t.Fatalf("focus should not undo a manual pause")
	}
	f.model.Update(key("p"))
	if snap, _ := f.tracker.Current(); snap.Paused {
		t.Fatalf("p should resume")
	}
}

func TestHighlightAndNoteRecordEvents(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "John"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	text := "For God so loved the world.\n\nThat whosoever believeth.\n"
	if err := os.WriteFile(filepath.Join(dir, "John", "3.txt"), []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := newFixture(t, "John", 3, DirSource{Dir: dir})
	if len(f.model.verses) != 2 {
		t.Fatalf("expected 2 verses, got %d", len(f.model.verses))
	}

	f.model.Update(key("j"))
	f.model.Update(key("h"))
	f.model.Update(key("m"))
	if !f.model.noting {
		t.Fatalf("expected note input")
	}
	f.model.Update(key("amen"))
	f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if f.model.noting {
		t.Fatalf("enter should close the note input")
	}

	highlights, err := f.store.EngagementByType(ctx, model.EngagementHighlight)
	if err != nil {
		t.Fatalf("highlights: %v", err)
	}
	if len(highlights) != 1 || highlights[0].Verse != 2 || highlights[0].Data["color"] != HighlightColor {
		t.Fatalf("unexpected highlights: %+v", highlights)
	}
	notes, err := f.store.EngagementByType(ctx, model.EngagementNote)
	if err != nil {
		t.Fatalf("notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Book != "John" || notes[0].Chapter != 3 {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	if length, ok := notes[0].Data["length"].(float64); !ok || length != 4 {
		t.Fatalf("expected note length 4, got %v", notes[0].Data["length"])
	}
	if !f.model.highlighted[2] {
		t.Fatalf("verse 2 should render highlighted")
	}
}

func TestEmptyNoteIsDiscarded(t *testing.T) {
	f := newFixture(t, "John", 3, nil)
	f.model.Update(key("m"))
	f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	events, err := f.store.AllEngagementEvents(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

type failingRecorder struct{}

func (failingRecorder) AddEngagementEvent(context.Context, model.EngagementEvent) (int64, error) {
	return 0, errors.New("read-only")
}

func TestRecordFailureShowsStatus(t *testing.T) {
	f := newFixture(t, "John", 3, nil)
	f.model.recorder = failingRecorder{}
	f.model.Update(key("h"))
	if !f.model.statusErr || !strings.Contains(f.model.renderFooter(), "Could not save highlight") {
		t.Fatalf("expected error status, got %q", f.model.renderFooter())
	}
}

func TestRenderFooterFormats(t *testing.T) {
	f := newFixture(t, "Psalms", 119, nil)
	f.clock.Advance(3*time.Minute + 7*time.Second)
	f.model.Update(key("p"))
	out := f.model.renderFooter()
	for _, want := range []string{"Chapter 119/150", "03:07 paused"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestViewShowsPlaceholderWithoutText(t *testing.T) {
	f := newFixture(t, "Jude", 1, nil)
	f.model.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	view := f.model.View()
	if !strings.Contains(view, "No text available for Jude 1.") {
		t.Fatalf("expected placeholder, got:\n%s", view)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(59); got != "00:59" {
		t.Fatalf("expected 00:59, got %s", got)
	}
	if got := formatElapsed(3725); got != "1:02:05" {
		t.Fatalf("expected 1:02:05, got %s", got)
	}
}
