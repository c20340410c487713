package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/readstats/internal/model"
)

// HistoryMigratedFlag marks the legacy history as imported.
const HistoryMigratedFlag = "stats_history_migrated"

// legacySessionDuration is the estimate used for every legacy history entry.
const legacySessionDuration = 5 * time.Minute

// HistoryStore is what the legacy migration needs from the event store.
type HistoryStore interface {
	Store
	Flag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string) error
}

// MigrateLegacyHistory imports the flat reading history at path, a JSON array
// of "<book> <chapter>" strings with the most recent entry first. Entry i
// becomes one five-minute session backdated i days. Entries the store rejects,
// such as a chapter past the end of its book, are skipped. It runs at most
// once per store and only logs failures. It returns the number of sessions written.
func MigrateLegacyHistory(ctx context.Context, st HistoryStore, path string, opts ...Option) int {
	t := New(st, opts...)
	logger := t.logger.With("path", path)

	if strings.TrimSpace(path) == "" {
		return 0
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("read legacy history", "err", err)
		}
		return 0
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.Warn("parse legacy history", "err", err)
		return 0
	}
	if len(items) == 0 {
		return 0
	}
	done, err := st.Flag(ctx, HistoryMigratedFlag)
	if err != nil {
		logger.Warn("read migration flag", "err", err)
		return 0
	}
	if done {
		return 0
	}

	logger.Info("migrating legacy history", "entries", len(items))
	now := t.clock.Now()
	written := 0
	for i, item := range items {
		book, chapter, ok := parseHistoryEntry(item)
		if !ok {
			logger.Debug("skip legacy entry", "entry", item)
			continue
		}
		start := now.AddDate(0, 0, -i)
		session := model.ReadingSession{
			Book:            book,
			Chapter:         chapter,
			SessionStart:    start,
			SessionEnd:      start.Add(legacySessionDuration),
			DurationSeconds: int(legacySessionDuration / time.Second),
			DateKey:         model.DateKey(start),
		}
		if _, err := st.AddSession(ctx, session); err != nil {
			if errors.Is(err, model.ErrInvalidRecord) {
				logger.Debug("skip legacy entry", "entry", item, "err", err)
			} else {
				logger.Error("migrate legacy entry", "entry", item, "err", err)
			}
			continue
		}
		written++
		if _, err := st.RecomputeDailyStat(ctx, session.DateKey); err != nil {
			logger.Error("migrate daily stat", "date", session.DateKey, "err", err)
		}
		if _, err := st.UpsertBookProgress(ctx, book, chapter, start); err != nil {
			logger.Error("migrate book progress", "book", book, "err", err)
		}
	}

	if err := st.SetFlag(ctx, HistoryMigratedFlag); err != nil {
		logger.Error("persist migration flag", "err", err)
	}
	logger.Info("legacy history migrated", "sessions", written)
	return written
}

// parseHistoryEntry splits "Song of Solomon 2" into its book and chapter.
func parseHistoryEntry(entry string) (string, int, bool) {
	entry = strings.TrimSpace(entry)
	idx := strings.LastIndexByte(entry, ' ')
	if idx <= 0 {
		return "", 0, false
	}
	chapter, err := strconv.Atoi(entry[idx+1:])
	if err != nil || chapter < 1 {
		return "", 0, false
	}
	book := strings.TrimSpace(entry[:idx])
	if book == "" {
		return "", 0, false
	}
	return book, chapter, true
}
