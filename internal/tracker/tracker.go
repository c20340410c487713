// Package tracker turns "currently reading a chapter" into stored sessions.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/readstats/internal/clock"
	"github.com/verte-zerg/readstats/internal/model"
)

// DefaultMinDuration is the shortest session that is stored.
const DefaultMinDuration = 5 * time.Second

// ErrInvalidChapter means a session was started without a book or with a
// chapter below 1.
var ErrInvalidChapter = errors.New("invalid chapter")

// Store is the part of the event store the tracker writes to.
type Store interface {
	AddSession(ctx context.Context, session model.ReadingSession) (int64, error)
	RecomputeDailyStat(ctx context.Context, dateKey string) (model.DailyStat, error)
	UpsertBookProgress(ctx context.Context, book string, chapter int, at time.Time) (model.BookProgress, error)
}

// State is the tracker lifecycle state.
type State int

const (
	// Idle means no session is open.
	Idle State = iota
	// Active means a session is open and its clock is running.
	Active
	// Paused means a session is open with its clock stopped.
	Paused
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Snapshot is a read-only view of the running session.
type Snapshot struct {
	Book           string
	Chapter        int
	ElapsedSeconds int
	Paused         bool
}

// EndResult describes how a session was closed.
type EndResult struct {
	// Saved is false when there was no session or it was too short.
	Saved   bool
	Session model.ReadingSession
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMinDuration sets the discard threshold.
func WithMinDuration(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.minDuration = d
		}
	}
}

type current struct {
	book    string
	chapter int
	start   time.Time
	paused  time.Duration
	pauseAt time.Time
}

// Tracker is the session state machine. All methods are safe for concurrent
// use; operations are serialized so at most one session is open.
type Tracker struct {
	store       Store
	clock       clock.Clock
	logger      *slog.Logger
	minDuration time.Duration

	mu      sync.Mutex
	state   State
	session *current
}

// New returns an idle tracker writing to store.
func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:       store,
		clock:       clock.System{},
		logger:      slog.Default(),
		minDuration: DefaultMinDuration,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// StartSession begins tracking book/chapter. An open session is ended first.
func (t *Tracker) StartSession(ctx context.Context, book string, chapter int) error {
	book = strings.TrimSpace(book)
	if book == "" || chapter < 1 {
		return fmt.Errorf("%w: %q %d", ErrInvalidChapter, book, chapter)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Idle {
		if _, err := t.endLocked(ctx); err != nil {
			t.logger.Warn("previous session not saved", "err", err)
		}
	}
	t.session = &current{book: book, chapter: chapter, start: t.clock.Now()}
	t.state = Active
	t.logger.Debug("session started", "book", book, "chapter", chapter)
	return nil
}

// PauseSession freezes the session clock. It is a no-op unless active.
func (t *Tracker) PauseSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Active {
		return
	}
	t.session.pauseAt = t.clock.Now()
	t.state = Paused
	t.logger.Debug("session paused", "book", t.session.book, "chapter", t.session.chapter)
}

// ResumeSession restarts the session clock. It is a no-op unless paused.
func (t *Tracker) ResumeSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumeLocked()
}

func (t *Tracker) resumeLocked() {
	if t.state != Paused {
		return
	}
	if d := t.clock.Now().Sub(t.session.pauseAt); d > 0 {
		t.session.paused += d
	}
	t.session.pauseAt = time.Time{}
	t.state = Active
	t.logger.Debug("session resumed", "paused", t.session.paused)
}

// EndSession closes the open session. Sessions shorter than the minimum
// duration are dropped. Once the session record is written, failures to
// update the daily aggregate or book progress are logged and not returned.
// The tracker is idle afterwards in every case.
func (t *Tracker) EndSession(ctx context.Context) (EndResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endLocked(ctx)
}

func (t *Tracker) endLocked(ctx context.Context) (EndResult, error) {
	if t.state == Idle {
		return EndResult{}, nil
	}
	t.resumeLocked()

	cur := t.session
	t.session = nil
	t.state = Idle

	now := t.clock.Now()
	seconds := wholeSeconds(now.Sub(cur.start) - cur.paused)
	if time.Duration(seconds)*time.Second < t.minDuration {
		t.logger.Debug("session too short, discarded", "book", cur.book, "chapter", cur.chapter, "seconds", seconds)
		return EndResult{}, nil
	}

	session := model.ReadingSession{
		Book:            cur.book,
		Chapter:         cur.chapter,
		SessionStart:    cur.start,
		SessionEnd:      now,
		DurationSeconds: seconds,
		DateKey:         model.DateKey(cur.start),
	}
	id, err := t.store.AddSession(ctx, session)
	if err != nil {
		t.logger.Error("save session", "book", cur.book, "chapter", cur.chapter, "err", err)
		return EndResult{}, fmt.Errorf("save session: %w", err)
	}
	session.ID = id
	t.logger.Info("session saved", "id", id, "book", cur.book, "chapter", cur.chapter, "seconds", seconds)

	if _, err := t.store.RecomputeDailyStat(ctx, session.DateKey); err != nil {
		t.logger.Error("update daily stat", "date", session.DateKey, "err", err)
	}
	if _, err := t.store.UpsertBookProgress(ctx, session.Book, session.Chapter, now); err != nil {
		t.logger.Error("update book progress", "book", session.Book, "err", err)
	}
	return EndResult{Saved: true, Session: session}, nil
}

// Current returns the running session, if any. Elapsed time excludes pauses
// and stops advancing while paused.
func (t *Tracker) Current() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Idle {
		return Snapshot{}, false
	}
	until := t.clock.Now()
	if t.state == Paused {
		until = t.session.pauseAt
	}
	return Snapshot{
		Book:           t.session.book,
		Chapter:        t.session.chapter,
		ElapsedSeconds: wholeSeconds(until.Sub(t.session.start) - t.session.paused),
		Paused:         t.state == Paused,
	}, true
}

func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
