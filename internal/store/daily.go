package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/readstats/internal/model"
)

const dailyColumns = `date_key, chapters_read, total_seconds, books_read, sessions_count`

// UpsertDailyStat replaces the aggregate stored for dateKey. The caller
// supplies the full aggregate; nothing is merged.
func (s *Store) UpsertDailyStat(ctx context.Context, dateKey string, stat model.DailyStat) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	stat.DateKey = dateKey
	if err := validateDailyStat(stat); err != nil {
		return err
	}
	if err := putDailyStat(ctx, db, stat); err != nil {
		return fmt.Errorf("%w: upsert daily stat: %w", ErrWrite, err)
	}
	return nil
}

// RecomputeDailyStat rebuilds the aggregate for dateKey from that day's
// sessions and stores it.
func (s *Store) RecomputeDailyStat(ctx context.Context, dateKey string) (model.DailyStat, error) {
	db, err := s.conn()
	if err != nil {
		return model.DailyStat{}, err
	}
	if err := checkDateKey(dateKey); err != nil {
		return model.DailyStat{}, err
	}
	var stat model.DailyStat
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		sessions, err := querySessions(ctx, tx,
			`SELECT `+sessionColumns+` FROM reading_sessions WHERE date_key = ? ORDER BY id ASC`, dateKey)
		if err != nil {
			return err
		}
		stat = model.NewDailyStat(dateKey, sessions)
		return putDailyStat(ctx, tx, stat)
	})
	if err != nil {
		return model.DailyStat{}, fmt.Errorf("%w: recompute daily stat %s: %w", ErrWrite, dateKey, err)
	}
	return stat, nil
}

// DailyStat returns the aggregate for dateKey, or a zero-valued aggregate
// when nothing was read that day.
func (s *Store) DailyStat(ctx context.Context, dateKey string) (model.DailyStat, error) {
	db, err := s.conn()
	if err != nil {
		return model.DailyStat{}, err
	}
	if err := checkDateKey(dateKey); err != nil {
		return model.DailyStat{}, err
	}
	stats, err := queryDailyStats(ctx, db, `SELECT `+dailyColumns+` FROM daily_stats WHERE date_key = ?`, dateKey)
	if err != nil {
		return model.DailyStat{}, err
	}
	if len(stats) == 0 {
		return model.DailyStat{DateKey: dateKey, BooksRead: []string{}}, nil
	}
	return stats[0], nil
}

// DailyStatsRange returns stored aggregates with startKey <= date_key <= endKey.
func (s *Store) DailyStatsRange(ctx context.Context, startKey, endKey string) ([]model.DailyStat, error) {
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
	return queryDailyStats(ctx, db,
		`SELECT `+dailyColumns+` FROM daily_stats
		 WHERE date_key >= ? AND date_key <= ?
		 ORDER BY date_key ASC`, startKey, endKey)
}

// AllDailyStats returns every stored aggregate ordered by date.
func (s *Store) AllDailyStats(ctx context.Context) ([]model.DailyStat, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return queryDailyStats(ctx, db, `SELECT `+dailyColumns+` FROM daily_stats ORDER BY date_key ASC`)
}

func validateDailyStat(stat model.DailyStat) error {
	if !model.ValidDateKey(stat.DateKey) {
		return fmt.Errorf("%w: daily stat date key %q", ErrInvalidRecord, stat.DateKey)
	}
	if stat.ChaptersRead < 0 || stat.TotalSeconds < 0 || stat.SessionsCount < 0 {
		return fmt.Errorf("%w: daily stat %s has negative counts", ErrInvalidRecord, stat.DateKey)
	}
	return nil
}

func putDailyStat(ctx context.Context, q querier, stat model.DailyStat) error {
	books := stat.BooksRead
	if books == nil {
		books = []string{}
	}
	encoded, err := json.Marshal(books)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO daily_stats (`+dailyColumns+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date_key) DO UPDATE SET
			chapters_read = excluded.chapters_read,
			total_seconds = excluded.total_seconds,
			books_read = excluded.books_read,
			sessions_count = excluded.sessions_count`,
		stat.DateKey, stat.ChaptersRead, stat.TotalSeconds, string(encoded), stat.SessionsCount)
	return err
}

func queryDailyStats(ctx context.Context, q querier, query string, args ...any) ([]model.DailyStat, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var stats []model.DailyStat
	for rows.Next() {
		var stat model.DailyStat
		var books string
		if err := rows.Scan(&stat.DateKey, &stat.ChaptersRead, &stat.TotalSeconds, &books, &stat.SessionsCount); err != nil {
			return nil, err
		}
		if err := decodeJSONList(books, &stat.BooksRead); err != nil {
			return nil, fmt.Errorf("daily stat %s: %w", stat.DateKey, err)
		}
		if stat.BooksRead == nil {
			stat.BooksRead = []string{}
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func decodeJSONList(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode stored list: %w", err)
	}
	return nil
}
