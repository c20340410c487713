package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/readstats/internal/stats"
	"github.com/verte-zerg/readstats/internal/statsui"
	"github.com/verte-zerg/readstats/internal/tracker"
	"github.com/verte-zerg/readstats/internal/tui"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addStatsFlags(cmd)
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	plain := statsPlain || !term.IsTerminal(int(os.Stdout.Fd()))
	a, err := openApp(ctx, !plain)
	if err != nil {
		return err
	}
	defer a.close()

	calc, err := a.calculator(cmd)
	if err != nil {
		return err
	}
	if plain {
		return printStats(ctx, cmd, calc)
	}

	program := tea.NewProgram(statsui.NewModel(calc), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printStats(ctx context.Context, cmd *cobra.Command, calc *stats.Calculator) error {
	snap, err := calc.AllStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, snap); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderActivity(out, snap, 0, false); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderBookTable(out, snap.Patterns.BookProgress, snap.GeneratedAt, true); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <book> <chapter>",
		Short: "Read a chapter and track the session",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runReadCmd,
	}
	cmd.Flags().IntVar(&readMinSeconds, "min-seconds", int(tracker.DefaultMinDuration.Seconds()), "shortest session that is stored")
	cmd.Flags().StringVar(&readTextDir, "text-dir", "", "directory with chapter texts (<dir>/<Book>/<chapter>.txt)")
	return cmd
}

func runReadCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	book, chapter, err := parseChapterArgs(a.catalog, args)
	if err != nil {
		return err
	}
	if readMinSeconds < 0 {
		return fmt.Errorf("--min-seconds must be >= 0")
	}
	minDuration := time.Duration(readMinSeconds) * time.Second
	if !cmd.Flags().Changed("min-seconds") {
		if minDuration, err = a.cfg.MinSessionDuration(minDuration); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	textDir := readTextDir
	if !cmd.Flags().Changed("text-dir") {
		textDir = a.cfg.TextDir()
	}

	tr := tracker.New(a.store,
		tracker.WithLogger(a.logger),
		tracker.WithMinDuration(minDuration),
	)
	m, err := tui.NewModel(ctx, tui.Config{
		Session:  tr,
		Recorder: a.store,
		Catalog:  a.catalog,
		Text:     tui.DirSource{Dir: textDir},
		Logger:   a.logger,
		Book:     book,
		Chapter:  chapter,
	})
	if err != nil {
		return err
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	_, runErr := program.Run()

	// SIGINT, SIGTERM or a crash of the view still flush the open session.
	res, endErr := m.Result()
	if tr.State() != tracker.Idle {
		res, endErr = tr.EndSession(ctx)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrInterrupted) && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run reader: %w", runErr)
	}
	if endErr != nil {
		return fmt.Errorf("failed to save session: %w", endErr)
	}
	out := cmd.ErrOrStderr()
	if res.Saved {
		spent := stats.FormatDuration(res.Session.DurationSeconds)
		if res.Session.DurationSeconds < 60 {
			spent = fmt.Sprintf("%ds", res.Session.DurationSeconds)
		}
		_, _ = fmt.Fprintf(out, "Saved %s of %s %d\n", spent, res.Session.Book, res.Session.Chapter)
	}
	return nil
}
