// Package store handles SQLite persistence of reading statistics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrStorageUnavailable means the database could not be opened or used.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrWrite means a write failed.
	ErrWrite = errors.New("write error")
	// ErrNotInitialized means the store was used before Init completed.
	ErrNotInitialized = errors.New("store not initialized")
	// ErrInvalidRecord means a record was rejected at the store boundary.
	ErrInvalidRecord = model.ErrInvalidRecord
	// ErrInvalidDateKey means a query used a malformed date key.
	ErrInvalidDateKey = errors.New("invalid date key")
)

// BookCatalog resolves book names to their canonical spelling and chapter
// count. Records naming a catalog book are stored under that spelling and
// checked against its chapter count.
type BookCatalog interface {
	Lookup(name string) (corpus.Book, bool)
}

// Store wraps SQLite access for sessions, daily stats, book progress and
// engagement events.
type Store struct {
	path    string
	catalog BookCatalog

	mu sync.Mutex
	db *sql.DB

	locksMu   sync.Mutex
	bookLocks map[string]*sync.Mutex
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New returns an uninitialized store for the database at path.
func New(path string, catalog BookCatalog) *Store {
	return &Store{
		path:      path,
		catalog:   catalog,
		bookLocks: map[string]*sync.Mutex{},
	}
}

// Open creates and initializes a store.
func Open(ctx context.Context, path string, catalog BookCatalog) (*Store, error) {
	s := New(path, catalog)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init opens the database and applies migrations. Calling it again on an
// initialized store is a no-op.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	if strings.TrimSpace(s.path) == "" {
		return fmt.Errorf("%w: database path is empty", ErrStorageUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	// One connection: this process is the single writer of the file.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := migrate(ctx, db); err != nil {
		closeQuietly(db)
		return fmt.Errorf("%w: migrate: %w", ErrStorageUnavailable, err)
	}
	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func closeQuietly(db *sql.DB) {
	_ = db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reading_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			session_start TEXT NOT NULL,
			session_end TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			date_key TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_date_key ON reading_sessions(date_key);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_book ON reading_sessions(book);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start ON reading_sessions(session_start);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_book_chapter ON reading_sessions(book, chapter);`,
		`CREATE TABLE IF NOT EXISTS daily_stats (
			date_key TEXT PRIMARY KEY,
			chapters_read INTEGER NOT NULL,
			total_seconds INTEGER NOT NULL,
			books_read TEXT NOT NULL,
			sessions_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS book_progress (
			book TEXT PRIMARY KEY,
			chapters_read TEXT NOT NULL,
			last_read TEXT,
			times_read INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_book_progress_last_read ON book_progress(last_read);`,
		`CREATE TABLE IF NOT EXISTS engagement_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			book TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			verse INTEGER NOT NULL DEFAULT 0,
			timestamp TEXT NOT NULL,
			date_key TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_engagement_date_key ON engagement_events(date_key);`,
		`CREATE INDEX IF NOT EXISTS idx_engagement_type ON engagement_events(event_type);`,
		`CREATE INDEX IF NOT EXISTS idx_engagement_book ON engagement_events(book);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}

// resolveBook returns the catalog spelling of book and its chapter count.
// A chapter past the end of a catalog book is rejected. Books missing from
// the catalog keep their name and report zero chapters.
func (s *Store) resolveBook(book string, chapter int) (string, int, error) {
	book = strings.TrimSpace(book)
	if s.catalog == nil {
		return book, 0, nil
	}
	found, ok := s.catalog.Lookup(book)
	if !ok {
		return book, 0, nil
	}
	if chapter > found.Chapters {
		return "", 0, fmt.Errorf("%w: %s has %d chapters, got %d", ErrInvalidRecord, found.Name, found.Chapters, chapter)
	}
	return found.Name, found.Chapters, nil
}

func checkDateKey(key string) error {
	if !model.ValidDateKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	return nil
}

// ClearAllData removes every session, daily stat, book progress entry and
// engagement event in one transaction.
func (s *Store) ClearAllData(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := withTx(ctx, db, func(tx *sql.Tx) error {
		return clearTables(ctx, tx)
	}); err != nil {
		return fmt.Errorf("%w: clear data: %w", ErrWrite, err)
	}
	return nil
}

func clearTables(ctx context.Context, q querier) error {
	for _, table := range []string{"reading_sessions", "daily_stats", "book_progress", "engagement_events"} {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns the number of records per collection.
func (s *Store) Counts(ctx context.Context) (model.StoreCounts, error) {
	db, err := s.conn()
	if err != nil {
		return model.StoreCounts{}, err
	}
	var counts model.StoreCounts
	targets := []struct {
		table string
		dst   *int
	}{
		{"reading_sessions", &counts.Sessions},
		{"daily_stats", &counts.DailyStats},
		{"book_progress", &counts.BookProgress},
		{"engagement_events", &counts.EngagementEvents},
	}
	for _, t := range targets {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return model.StoreCounts{}, err
		}
	}
	return counts, nil
}

// Flag reports whether the named persistent flag is set.
func (s *Store) Flag(ctx context.Context, key string) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetFlag persists the named flag as set.
func (s *Store) SetFlag(ctx context.Context, key string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, 'true')
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key); err != nil {
		return fmt.Errorf("%w: set flag %s: %w", ErrWrite, key, err)
	}
	return nil
}

// Restore replaces all four collections with the backup contents in one
// transaction. Session and event ids are discarded so fresh ones are assigned.
func (s *Store) Restore(ctx context.Context, backup model.StatsBackup) error {
	db, err := s.conn()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if err := clearTables(ctx, tx); err != nil {
			return err
		}
		for i, session := range backup.Sessions {
			session.ID = 0
			if err := s.normalizeSession(&session); err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			if _, err := insertSession(ctx, tx, session); err != nil {
				return err
			}
		}
		for i, stat := range backup.DailyStats {
			if err := validateDailyStat(stat); err != nil {
				return fmt.Errorf("daily stat %d: %w", i, err)
			}
			if err := putDailyStat(ctx, tx, stat); err != nil {
				return err
			}
		}
		for i, progress := range backup.BookProgress {
			if err := s.normalizeBookProgress(&progress); err != nil {
				return fmt.Errorf("book progress %d: %w", i, err)
			}
			if err := putBookProgress(ctx, tx, progress); err != nil {
				return err
			}
		}
		for i, event := range backup.EngagementEvents {
			event.ID = 0
			if err := s.normalizeEngagementEvent(&event); err != nil {
				return fmt.Errorf("engagement event %d: %w", i, err)
			}
			if _, err := insertEngagementEvent(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			return err
		}
		return fmt.Errorf("%w: restore: %w", ErrWrite, err)
	}
	return nil
}
