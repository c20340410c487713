package stats

import (
	"context"

	"github.com/verte-zerg/readstats/internal/model"
)

// BookEngagement counts engagement events for one book.
type BookEngagement struct {
	Book       string `json:"book"`
	Highlights int    `json:"highlights"`
	Notes      int    `json:"notes"`
	Total      int    `json:"total"`
}

// EngagementTotals counts events by type.
func (c *Calculator) EngagementTotals(ctx context.Context) (map[model.EngagementType]int, error) {
	events, err := c.src.AllEngagementEvents(ctx)
	if err != nil {
		return nil, err
	}
	totals := map[model.EngagementType]int{}
	for _, e := range events {
		totals[e.EventType]++
	}
	return totals, nil
}

// TotalHighlights counts highlight events.
func (c *Calculator) TotalHighlights(ctx context.Context) (int, error) {
	return c.countType(ctx, model.EngagementHighlight)
}

// TotalNotes counts note events.
func (c *Calculator) TotalNotes(ctx context.Context) (int, error) {
	return c.countType(ctx, model.EngagementNote)
}

func (c *Calculator) countType(ctx context.Context, eventType model.EngagementType) (int, error) {
	events, err := c.src.EngagementByType(ctx, eventType)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// EngagementByBook counts the events recorded for book. Total includes
// event types other than highlights and notes.
func (c *Calculator) EngagementByBook(ctx context.Context, book string) (BookEngagement, error) {
	events, err := c.src.AllEngagementEvents(ctx)
	if err != nil {
		return BookEngagement{}, err
	}
	out := BookEngagement{Book: book}
	for _, e := range events {
		if e.Book != book {
			continue
		}
		out.Total++
		switch e.EventType {
		case model.EngagementHighlight:
			out.Highlights++
		case model.EngagementNote:
			out.Notes++
		}
	}
	return out, nil
}
