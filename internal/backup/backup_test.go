package backup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/model"
	"github.com/verte-zerg/readstats/internal/store"
)

func openTestStore(t *testing.T, name string) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), name), corpus.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestExportAndRestore(t *testing.T) {
	ctx := context.Background()
	src := openTestStore(t, "src.db")
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	for ch := 1; ch <= 3; ch++ {
		start := now.Add(time.Duration(ch) * time.Hour)
		if _, err := src.AddSession(ctx, model.ReadingSession{Book: "Ruth", Chapter: ch, SessionStart: start, DurationSeconds: 90}); err != nil {
			t.Fatalf("add session: %v", err)
		}
		if _, err := src.UpsertBookProgress(ctx, "Ruth", ch, start); err != nil {
			t.Fatalf("progress: %v", err)
		}
	}
	if _, err := src.RecomputeDailyStat(ctx, model.DateKey(now)); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if _, err := src.AddEngagementEvent(ctx, model.EngagementEvent{EventType: model.EngagementNote, Book: "Ruth", Chapter: 1, Timestamp: now, Data: map[string]any{"length": 12}}); err != nil {
		t.Fatalf("add event: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf, now); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), `"reading_sessions"`) || !strings.Contains(buf.String(), `"version": "1.0"`) {
		t.Fatalf("unexpected backup document:\n%s", buf.String())
	}

	env, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := model.StoreCounts{Sessions: 3, DailyStats: 1, BookProgress: 1, EngagementEvents: 1}
	if got := Counts(*env.Data.Statistics); got != want {
		t.Fatalf("expected %+v in backup, got %+v", want, got)
	}

	dst := openTestStore(t, "dst.db")
	if _, err := dst.AddSession(ctx, model.ReadingSession{Book: "Jude", Chapter: 1, SessionStart: now, DurationSeconds: 10}); err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := dst.Restore(ctx, *env.Data.Statistics); err != nil {
		t.Fatalf("restore: %v", err)
	}
	counts, err := dst.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts != want {
		t.Fatalf("expected %+v after restore, got %+v", want, counts)
	}
	progress, err := dst.BookProgress(ctx, "Ruth")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(progress.ChaptersRead) != 3 || progress.LastRead == nil {
		t.Fatalf("progress not restored: %+v", progress)
	}
	events, err := dst.AllEngagementEvents(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Data["length"] != float64(12) {
		t.Fatalf("event payload not restored: %+v", events)
	}
}

func TestExportEmptyStoreWritesLists(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(context.Background(), openTestStore(t, "empty.db"), &buf, time.Now()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(buf.String(), "null") {
		t.Fatalf("empty collections should be lists:\n%s", buf.String())
	}
}

func TestReadRejectsBadEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `{`, ErrInvalidBackup},
		{"no version", `{"data":{"statistics":{}}}`, ErrInvalidBackup},
		{"future version", `{"version":"2.0","data":{"statistics":{}}}`, ErrUnsupportedVersion},
		{"no statistics", `{"version":"1.0","data":{"settings":{}}}`, ErrInvalidBackup},
	}
	for _, tc := range cases {
		if _, err := Read(strings.NewReader(tc.doc)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestReadAcceptsOriginalSections(t *testing.T) {
	doc := `{"version":"1.0","exportDate":"2024-03-10T09:00:00Z","data":{"settings":{},"history":[],
	"statistics":{"reading_sessions":[{"id":4,"book":"Genesis","chapter":1,"sessionStart":"2024-03-10T09:00:00Z",
	"sessionEnd":"2024-03-10T09:05:00Z","durationSeconds":300,"dateKey":"2024-03-10"}]}}}`
	env, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	stats := env.Data.Statistics
	if len(stats.Sessions) != 1 || stats.Sessions[0].DurationSeconds != 300 {
		t.Fatalf("unexpected sessions: %+v", stats.Sessions)
	}
	if stats.DailyStats == nil || stats.EngagementEvents == nil {
		t.Fatalf("missing collections should decode as empty lists")
	}
}
