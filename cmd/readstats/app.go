package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/readstats/internal/config"
	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/stats"
	"github.com/verte-zerg/readstats/internal/store"
	"github.com/verte-zerg/readstats/internal/tracker"
)

// app holds what every command needs: config, catalog, an open store and a
// logger.
type app struct {
	cfg     config.FileConfig
	catalog *corpus.Catalog
	store   *store.Store
	logger  *slog.Logger
	logFile io.Closer
}

// openApp loads config, opens the store and runs the one-time legacy
// history migration. Full-screen commands log to a file so log lines stay
// off the alternate screen.
func openApp(ctx context.Context, fullScreen bool) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	catalog, err := fileCfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: fileCfg, catalog: catalog}
	if fullScreen {
		logger, closer, err := fileLogger(config.DefaultLogPath())
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.logFile = closer
	} else {
		a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(ctx, config.ExpandHome(path), catalog)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	a.store = st

	historyPath := fileCfg.HistoryPath(config.DefaultLegacyHistoryPath())
	if n := tracker.MigrateLegacyHistory(ctx, st, historyPath, tracker.WithLogger(a.logger)); n > 0 {
		a.logger.Info("migrated legacy reading history", "entries", n)
	}
	return a, nil
}

func fileLogger(path string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "readstats")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, nil))
	slog.SetDefault(logger)
	return logger, f, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close db", "err", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// calculator builds a stats calculator honoring config and the stats flags
// of cmd.
func (a *app) calculator(cmd *cobra.Command) (*stats.Calculator, error) {
	weekStart := statsWeekStart
	mostRead := statsMostRead
	if cmd.Flags().Lookup("week-start") != nil {
		applyStringConfig(cmd, "week-start", &weekStart, a.cfg.Stats.WeekStart)
		applyIntConfig(cmd, "most-read", &mostRead, a.cfg.Stats.MostReadLimit)
	}
	day, err := stats.ParseWeekday(weekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid --week-start: %w", err)
	}
	if mostRead <= 0 {
		return nil, fmt.Errorf("--most-read must be > 0")
	}
	return stats.New(a.store, a.catalog,
		stats.WithWeekStart(day),
		stats.WithMostReadLimit(mostRead),
	), nil
}
