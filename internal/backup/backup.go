// Package backup exports and reads JSON snapshots of the statistics store.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/readstats/internal/model"
)

// Version is the envelope version written by Export.
const Version = "1.0"

const appName = "readstats"

var (
	// ErrUnsupportedVersion means the file was written by an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	// ErrInvalidBackup means the file is not a statistics backup.
	ErrInvalidBackup = errors.New("invalid backup")
)

// Source provides bulk reads of every collection.
type Source interface {
	AllSessions(ctx context.Context) ([]model.ReadingSession, error)
	AllDailyStats(ctx context.Context) ([]model.DailyStat, error)
	AllBookProgress(ctx context.Context) ([]model.BookProgress, error)
	AllEngagementEvents(ctx context.Context) ([]model.EngagementEvent, error)
}

// Envelope is the on-disk backup document.
type Envelope struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	AppVersion string    `json:"appVersion,omitempty"`
	Data       Data      `json:"data"`
}

// Data holds the backup sections.
type Data struct {
	Statistics *model.StatsBackup `json:"statistics"`
}

// Collect reads all four collections from src.
func Collect(ctx context.Context, src Source) (model.StatsBackup, error) {
	var (
		b   model.StatsBackup
		err error
	)
	if b.Sessions, err = src.AllSessions(ctx); err != nil {
		return model.StatsBackup{}, fmt.Errorf("read sessions: %w", err)
	}
	if b.DailyStats, err = src.AllDailyStats(ctx); err != nil {
		return model.StatsBackup{}, fmt.Errorf("read daily stats: %w", err)
	}
	if b.BookProgress, err = src.AllBookProgress(ctx); err != nil {
		return model.StatsBackup{}, fmt.Errorf("read book progress: %w", err)
	}
	if b.EngagementEvents, err = src.AllEngagementEvents(ctx); err != nil {
		return model.StatsBackup{}, fmt.Errorf("read engagement events: %w", err)
	}
	return withEmptyLists(b), nil
}

// Export writes an indented backup envelope of src to w.
func Export(ctx context.Context, src Source, w io.Writer, now time.Time) error {
	stats, err := Collect(ctx, src)
	if err != nil {
		return err
	}
	env := Envelope{
		Version:    Version,
		ExportDate: now.UTC(),
		AppVersion: appName,
		Data:       Data{Statistics: &stats},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Read parses and validates a backup envelope.
func Read(r io.Reader) (Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	if env.Version == "" {
		return Envelope{}, fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	if env.Version != Version {
		return Envelope{}, fmt.Errorf("%w: %s", ErrUnsupportedVersion, env.Version)
	}
	if env.Data.Statistics == nil {
		return Envelope{}, fmt.Errorf("%w: missing statistics section", ErrInvalidBackup)
	}
	stats := withEmptyLists(*env.Data.Statistics)
	env.Data.Statistics = &stats
	return env, nil
}

// Counts summarizes a backup for a restore preview.
func Counts(b model.StatsBackup) model.StoreCounts {
	return model.StoreCounts{
		Sessions:         len(b.Sessions),
		DailyStats:       len(b.DailyStats),
		BookProgress:     len(b.BookProgress),
		EngagementEvents: len(b.EngagementEvents),
	}
}

func withEmptyLists(b model.StatsBackup) model.StatsBackup {
	if b.Sessions == nil {
		b.Sessions = []model.ReadingSession{}
	}
	if b.DailyStats == nil {
		b.DailyStats = []model.DailyStat{}
	}
	if b.BookProgress == nil {
		b.BookProgress = []model.BookProgress{}
	}
	if b.EngagementEvents == nil {
		b.EngagementEvents = []model.EngagementEvent{}
	}
	return b
}
