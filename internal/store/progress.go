package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/readstats/internal/model"
)

const progressColumns = `book, chapters_read, last_read, times_read`

// UpsertBookProgress records that chapter of book was read at the given time.
// The read-modify-write runs under a per-book lock inside one transaction.
func (s *Store) UpsertBookProgress(ctx context.Context, book string, chapter int, at time.Time) (model.BookProgress, error) {
	db, err := s.conn()
	if err != nil {
		return model.BookProgress{}, err
	}
	book = strings.TrimSpace(book)
	if book == "" {
		return model.BookProgress{}, fmt.Errorf("%w: progress book is empty", ErrInvalidRecord)
	}
	if chapter < 1 {
		return model.BookProgress{}, fmt.Errorf("%w: progress chapter %d", ErrInvalidRecord, chapter)
	}
	book, total, err := s.resolveBook(book, chapter)
	if err != nil {
		return model.BookProgress{}, err
	}

	lock := s.bookLock(book)
	lock.Lock()
	defer lock.Unlock()

	var progress model.BookProgress
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		found, err := queryBookProgress(ctx, tx, `SELECT `+progressColumns+` FROM book_progress WHERE book = ?`, book)
		if err != nil {
			return err
		}
		progress = model.NewBookProgress(book)
		if len(found) > 0 {
			progress = found[0]
		}
		progress.MarkRead(chapter, at, total)
		return putBookProgress(ctx, tx, progress)
	})
	if err != nil {
		return model.BookProgress{}, fmt.Errorf("%w: upsert book progress %s: %w", ErrWrite, book, err)
	}
	return progress, nil
}

// BookProgress returns the progress for book, or empty progress when the book
// was never read.
func (s *Store) BookProgress(ctx context.Context, book string) (model.BookProgress, error) {
	db, err := s.conn()
	if err != nil {
		return model.BookProgress{}, err
	}
	book, _, err = s.resolveBook(book, 0)
	if err != nil {
		return model.BookProgress{}, err
	}
	found, err := queryBookProgress(ctx, db, `SELECT `+progressColumns+` FROM book_progress WHERE book = ?`, book)
	if err != nil {
		return model.BookProgress{}, err
	}
	if len(found) == 0 {
		return model.NewBookProgress(book), nil
	}
	return found[0], nil
}

// AllBookProgress returns progress for every book that was ever read.
func (s *Store) AllBookProgress(ctx context.Context) ([]model.BookProgress, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return queryBookProgress(ctx, db, `SELECT `+progressColumns+` FROM book_progress ORDER BY book ASC`)
}

func (s *Store) bookLock(book string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.bookLocks[book]
	if !ok {
		lock = &sync.Mutex{}
		s.bookLocks[book] = lock
	}
	return lock
}

// normalizeBookProgress checks restored progress, resolves its book against
// the catalog and drops repeated chapters.
func (s *Store) normalizeBookProgress(progress *model.BookProgress) error {
	progress.Book = strings.TrimSpace(progress.Book)
	if progress.Book == "" {
		return fmt.Errorf("%w: progress book is empty", ErrInvalidRecord)
	}
	if progress.TimesRead < 0 {
		return fmt.Errorf("%w: progress %s has negative completions", ErrInvalidRecord, progress.Book)
	}
	seen := make(map[int]bool, len(progress.ChaptersRead))
	chapters := make([]int, 0, len(progress.ChaptersRead))
	last := 0
	for _, ch := range progress.ChaptersRead {
		if ch < 1 {
			return fmt.Errorf("%w: progress %s has chapter %d", ErrInvalidRecord, progress.Book, ch)
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		chapters = append(chapters, ch)
		last = max(last, ch)
	}
	book, _, err := s.resolveBook(progress.Book, last)
	if err != nil {
		return err
	}
	progress.Book = book
	progress.ChaptersRead = chapters
	return nil
}

func putBookProgress(ctx context.Context, q querier, progress model.BookProgress) error {
	chapters := progress.ChaptersRead
	if chapters == nil {
		chapters = []int{}
	}
	encoded, err := json.Marshal(chapters)
	if err != nil {
		return err
	}
	var lastRead sql.NullString
	if progress.LastRead != nil {
		lastRead = sql.NullString{String: progress.LastRead.Format(time.RFC3339Nano), Valid: true}
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO book_progress (`+progressColumns+`) VALUES (?, ?, ?, ?)
		 ON CONFLICT(book) DO UPDATE SET
			chapters_read = excluded.chapters_read,
			last_read = excluded.last_read,
			times_read = excluded.times_read`,
		strings.TrimSpace(progress.Book), string(encoded), lastRead, progress.TimesRead)
	return err
}

func queryBookProgress(ctx context.Context, q querier, query string, args ...any) ([]model.BookProgress, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.BookProgress
	for rows.Next() {
		var progress model.BookProgress
		var chapters string
		var lastRead sql.NullString
		if err := rows.Scan(&progress.Book, &chapters, &lastRead, &progress.TimesRead); err != nil {
			return nil, err
		}
		if err := decodeJSONList(chapters, &progress.ChaptersRead); err != nil {
			return nil, fmt.Errorf("book progress %s: %w", progress.Book, err)
		}
		if progress.ChaptersRead == nil {
			progress.ChaptersRead = []int{}
		}
		if lastRead.Valid {
			parsed, err := time.Parse(time.RFC3339Nano, lastRead.String)
			if err != nil {
				return nil, err
			}
			progress.LastRead = &parsed
		}
		result = append(result, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
