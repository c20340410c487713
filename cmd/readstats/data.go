package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/readstats/internal/backup"
	"github.com/verte-zerg/readstats/internal/model"
	"github.com/verte-zerg/readstats/internal/stats"
)

func newEngagementCmd(kind, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind + " <book> <chapter>",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngagementCmd(cmd, model.EngagementType(kind), args)
		},
	}
	cmd.Flags().IntVar(&engageVerse, "verse", 0, "verse number")
	switch model.EngagementType(kind) {
	case model.EngagementHighlight:
		cmd.Flags().StringVar(&engageColor, "color", "yellow", "highlight color")
	case model.EngagementNote:
		cmd.Flags().IntVar(&engageLength, "length", 0, "note length in characters")
	}
	return cmd
}

func runEngagementCmd(cmd *cobra.Command, kind model.EngagementType, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	book, chapter, err := parseChapterArgs(a.catalog, args)
	if err != nil {
		return err
	}
	if engageVerse < 0 {
		return fmt.Errorf("--verse must be >= 0")
	}
	data := map[string]any{}
	switch kind {
	case model.EngagementHighlight:
		data["color"] = engageColor
	case model.EngagementNote:
		if engageLength < 0 {
			return fmt.Errorf("--length must be >= 0")
		}
		data["length"] = engageLength
	}
	event := model.EngagementEvent{
		EventType: kind,
		Book:      book,
		Chapter:   chapter,
		Verse:     engageVerse,
		Timestamp: time.Now(),
		Data:      data,
	}
	if _, err := a.store.AddEngagementEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	target := fmt.Sprintf("%s %d", book, chapter)
	if engageVerse > 0 {
		target = fmt.Sprintf("%s:%d", target, engageVerse)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", kind, target)
	return err
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export statistics as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 0 || args[0] == "-" {
		if err := backup.Export(ctx, a.store, cmd.OutOrStdout(), time.Now()); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		return nil
	}
	path := args[0]
	err = writeFileAtomic(path, func(w io.Writer) error {
		return backup.Export(ctx, a.store, w, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", path, describeCounts(counts))
	return err
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all statistics with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&confirmYes, "yes", false, "replace existing statistics without asking")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	env, err := backup.Read(f)
	if err != nil {
		return err
	}
	incoming := backup.Counts(*env.Data.Statistics)
	if !confirmYes {
		return fmt.Errorf("backup contains %s; re-run with --yes to replace all current statistics", describeCounts(incoming))
	}

	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.store.Restore(ctx, *env.Data.Statistics); err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", describeCounts(incoming))
	return err
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all reading statistics",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().BoolVar(&confirmYes, "yes", false, "confirm deletion")
	return cmd
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	counts, err := a.store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if !confirmYes {
		return fmt.Errorf("this deletes %s; re-run with --yes to confirm", describeCounts(counts))
	}
	if err := a.store.ClearAllData(ctx); err != nil {
		return fmt.Errorf("failed to clear statistics: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", describeCounts(counts))
	return err
}

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List books with reading progress",
		Args:  cobra.NoArgs,
		RunE:  runBooksCmd,
	}
	cmd.Flags().BoolVar(&booksAll, "all", false, "include books not started yet")
	return cmd
}

func runBooksCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	calc, err := a.calculator(cmd)
	if err != nil {
		return err
	}
	details, err := calc.BookProgressDetails(ctx)
	if err != nil {
		return fmt.Errorf("failed to load book progress: %w", err)
	}
	return stats.RenderBookTable(cmd.OutOrStdout(), details, time.Now(), !booksAll)
}

func describeCounts(c model.StoreCounts) string {
	return fmt.Sprintf("%d sessions, %d daily stats, %d books, %d engagement events",
		c.Sessions, c.DailyStats, c.BookProgress, c.EngagementEvents)
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".readstats-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
