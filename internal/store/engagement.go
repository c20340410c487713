package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verte-zerg/readstats/internal/model"
)

const eventColumns = `id, event_type, book, chapter, verse, timestamp, date_key, data`

// AddEngagementEvent appends an engagement event and returns its id.
func (s *Store) AddEngagementEvent(ctx context.Context, event model.EngagementEvent) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	event.ID = 0
	if err := s.normalizeEngagementEvent(&event); err != nil {
		return 0, err
	}
	id, err := insertEngagementEvent(ctx, db, event)
	if err != nil {
		return 0, fmt.Errorf("%w: insert engagement event: %w", ErrWrite, err)
	}
	return id, nil
}

// EngagementByDate returns events recorded under dateKey.
func (s *Store) EngagementByDate(ctx context.Context, dateKey string) ([]model.EngagementEvent, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if err := checkDateKey(dateKey); err != nil {
		return nil, err
	}
	return queryEngagementEvents(ctx, db,
		`SELECT `+eventColumns+` FROM engagement_events WHERE date_key = ? ORDER BY id ASC`, dateKey)
}

// EngagementByType returns events of the given type.
func (s *Store) EngagementByType(ctx context.Context, eventType model.EngagementType) ([]model.EngagementEvent, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return queryEngagementEvents(ctx, db,
		`SELECT `+eventColumns+` FROM engagement_events WHERE event_type = ? ORDER BY id ASC`, string(eventType))
}

// AllEngagementEvents returns every stored event in insertion order.
func (s *Store) AllEngagementEvents(ctx context.Context) ([]model.EngagementEvent, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return queryEngagementEvents(ctx, db, `SELECT `+eventColumns+` FROM engagement_events ORDER BY id ASC`)
}

func (s *Store) normalizeEngagementEvent(event *model.EngagementEvent) error {
	if err := event.Normalize(); err != nil {
		return err
	}
	book, _, err := s.resolveBook(event.Book, event.Chapter)
	if err != nil {
		return err
	}
	event.Book = book
	return nil
}

func insertEngagementEvent(ctx context.Context, q querier, event model.EngagementEvent) (int64, error) {
	data := ""
	if len(event.Data) > 0 {
		encoded, err := json.Marshal(event.Data)
		if err != nil {
			return 0, err
		}
		data = string(encoded)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO engagement_events (event_type, book, chapter, verse, timestamp, date_key, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(event.EventType),
		event.Book,
		event.Chapter,
		event.Verse,
		event.Timestamp.Format(time.RFC3339Nano),
		event.DateKey,
		data,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func queryEngagementEvents(ctx context.Context, q querier, query string, args ...any) ([]model.EngagementEvent, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var events []model.EngagementEvent
	for rows.Next() {
		var event model.EngagementEvent
		var eventType, timestamp, data string
		if err := rows.Scan(&event.ID, &eventType, &event.Book, &event.Chapter, &event.Verse, &timestamp, &event.DateKey, &data); err != nil {
			return nil, err
		}
		event.EventType = model.EngagementType(eventType)
		parsed, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, err
		}
		event.Timestamp = parsed
		if data != "" {
			if err := json.Unmarshal([]byte(data), &event.Data); err != nil {
				return nil, fmt.Errorf("engagement event %d: decode data: %w", event.ID, err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
