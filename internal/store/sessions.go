package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verte-zerg/readstats/internal/model"
)

const sessionColumns = `id, book, chapter, session_start, session_end, duration_seconds, date_key`

// AddSession appends a reading session and returns its id. Duplicate
// sessions are allowed.
func (s *Store) AddSession(ctx context.Context, session model.ReadingSession) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	session.ID = 0
	if err := s.normalizeSession(&session); err != nil {
		return 0, err
	}
	id, err := insertSession(ctx, db, session)
	if err != nil {
		return 0, fmt.Errorf("%w: insert session: %w", ErrWrite, err)
	}
	return id, nil
}

// normalizeSession applies the model checks and resolves the book against
// the catalog.
func (s *Store) normalizeSession(session *model.ReadingSession) error {
	if err := session.Normalize(); err != nil {
		return err
	}
	book, _, err := s.resolveBook(session.Book, session.Chapter)
	if err != nil {
		return err
	}
	session.Book = book
	return nil
}

func insertSession(ctx context.Context, q querier, session model.ReadingSession) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO reading_sessions (book, chapter, session_start, session_end, duration_seconds, date_key)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.Book,
		session.Chapter,
		session.SessionStart.Format(time.RFC3339Nano),
		session.SessionEnd.Format(time.RFC3339Nano),
		session.DurationSeconds,
		session.DateKey,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SessionsByDate returns the sessions recorded under dateKey.
func (s *Store) SessionsByDate(ctx context.Context, dateKey string) ([]model.ReadingSession, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if err := checkDateKey(dateKey); err != nil {
		return nil, err
	}
	return querySessions(ctx, db,
		`SELECT `+sessionColumns+` FROM reading_sessions WHERE date_key = ? ORDER BY id ASC`, dateKey)
}

// SessionsByRange returns sessions with startKey <= date_key <= endKey,
// ordered by date key.
func (s *Store) SessionsByRange(ctx context.Context, startKey, endKey string) ([]model.ReadingSession, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if err := checkDateKey(startKey); err != nil {
		return nil, err
	}
	if err := checkDateKey(endKey); err != nil {
		return nil, err
	}
	return querySessions(ctx, db,
		`SELECT `+sessionColumns+` FROM reading_sessions
		 WHERE date_key >= ? AND date_key <= ?
		 ORDER BY date_key ASC, id ASC`, startKey, endKey)
}

// AllSessions returns every stored session in insertion order.
func (s *Store) AllSessions(ctx context.Context) ([]model.ReadingSession, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return querySessions(ctx, db, `SELECT `+sessionColumns+` FROM reading_sessions ORDER BY id ASC`)
}

func querySessions(ctx context.Context, q querier, query string, args ...any) ([]model.ReadingSession, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.ReadingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSession(rows *sql.Rows) (model.ReadingSession, error) {
	var session model.ReadingSession
	var start, end string
	if err := rows.Scan(&session.ID, &session.Book, &session.Chapter, &start, &end, &session.DurationSeconds, &session.DateKey); err != nil {
		return model.ReadingSession{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return model.ReadingSession{}, err
	}
	session.SessionStart = parsed
	parsed, err = time.Parse(time.RFC3339Nano, end)
	if err != nil {
		return model.ReadingSession{}, err
	}
	session.SessionEnd = parsed
	return session, nil
}
