package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/readstats/internal/model"
	"github.com/verte-zerg/readstats/internal/stats"
)

type fakeLoader struct {
	snap  stats.Snapshot
	err   error
	calls int
}

func (f *fakeLoader) AllStats(context.Context) (stats.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func sampleSnapshot() stats.Snapshot {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	read := now.Add(-2 * time.Hour)
	snap := stats.Snapshot{GeneratedAt: now}
	snap.Streak.Current = 3
	snap.Streak.Longest = 9
	snap.Chapters.Today = 2
	snap.Time.Today = 900
	snap.Books.Started = 1
	snap.Books.Coverage = stats.Coverage{ChaptersRead: 2, TotalChapters: 1189}
	snap.Books.MostRead = []model.BookProgress{{Book: "Genesis", ChaptersRead: []int{1, 2}}}
	snap.Patterns.Hourly[6] = 2
	snap.Patterns.BookProgress = []stats.BookDetail{
		{Name: "Genesis", TotalChapters: 50, ChaptersRead: 2, Percentage: 4, LastRead: &read},
		{Name: "Exodus", TotalChapters: 40},
	}
	return snap
}

// loadNow runs the model's load command synchronously.
func loadNow(t *testing.T, m *Model) {
	t.Helper()
	cmd := m.reload()
	m.Update(cmd())
}

func sized(loader Loader) *Model {
	m := NewModel(loader)
	m.now = func() time.Time { return time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestDashboardShowsSpinnerUntilLoaded(t *testing.T) {
	m := sized(&fakeLoader{snap: sampleSnapshot()})
	m.reload()
	if !strings.Contains(m.View(), "Loading statistics") {
		t.Fatalf("expected loading state, got:\n%s", m.View())
	}
}

func TestDashboardRendersOverview(t *testing.T) {
	m := sized(&fakeLoader{snap: sampleSnapshot()})
	loadNow(t, m)
	view := m.View()
	for _, want := range []string{"Current streak", "3 days", "2 ch / 15m", "1. Genesis (2 chapters)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestDashboardBooksTab(t *testing.T) {
	m := sized(&fakeLoader{snap: sampleSnapshot()})
	loadNow(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabBooks {
		t.Fatalf("expected books tab, got %d", m.activeTab)
	}
	view := m.View()
	if !strings.Contains(view, "Exodus") || !strings.Contains(view, "2 hours ago") {
		t.Fatalf("expected book grid in view:\n%s", view)
	}
}

func TestDashboardErrorStateAndRetry(t *testing.T) {
	loader := &fakeLoader{err: errors.New("disk on fire")}
	m := sized(loader)
	loadNow(t, m)
	view := m.View()
	if !strings.Contains(view, "Press r to retry") {
		t.Fatalf("expected retry hint, got:\n%s", view)
	}
	if strings.Contains(view, "disk on fire") || strings.Contains(view, "Current streak") {
		t.Fatalf("error view must stay generic and show no stats:\n%s", view)
	}

	loader.err = nil
	loader.snap = sampleSnapshot()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil || !m.loading {
		t.Fatalf("expected r to start a reload")
	}
	loadNow(t, m)
	if loader.calls != 2 {
		t.Fatalf("expected 2 loads, got %d", loader.calls)
	}
	if !strings.Contains(m.View(), "Current streak") {
		t.Fatalf("expected stats after retry:\n%s", m.View())
	}
}

func TestDashboardFailedRefreshDropsOldSnapshot(t *testing.T) {
	loader := &fakeLoader{snap: sampleSnapshot()}
	m := sized(loader)
	loadNow(t, m)
	loader.err = errors.New("gone")
	loadNow(t, m)
	if m.loaded || strings.Contains(m.View(), "Current streak") {
		t.Fatalf("stale stats should not render after a failed refresh")
	}
}

func TestDashboardIgnoresStaleResults(t *testing.T) {
	m := sized(&fakeLoader{snap: sampleSnapshot()})
	first := m.reload()
	second := m.reload()
	m.Update(first())
	if !m.loading {
		t.Fatalf("stale result should not finish loading")
	}
	m.Update(second())
	if m.loading || !m.loaded {
		t.Fatalf("expected latest result to apply")
	}
}

func TestQuitKey(t *testing.T) {
	m := sized(&fakeLoader{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
