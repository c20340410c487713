// Package main provides the CLI entrypoint for readstats.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/readstats/internal/config"
	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/stats"
	"github.com/verte-zerg/readstats/internal/tracker"
)

const defaultWeekStart = "sunday"

var (
	dbPath string

	statsPlain     bool
	statsWeekStart string
	statsMostRead  int

	readMinSeconds int
	readTextDir    string

	engageVerse  int
	engageColor  string
	engageLength int

	confirmYes bool
	booksAll   bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "readstats",
		Short:         "Track chapter reading and browse reading statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runStatsCmd,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: $XDG_DATA_HOME/readstats/readstats.db)")
	addStatsFlags(rootCmd)

	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newEngagementCmd("highlight", "Record a highlight"))
	rootCmd.AddCommand(newEngagementCmd("note", "Record a note"))
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newBooksCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addStatsFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print plain text instead of the dashboard")
	cmd.Flags().StringVar(&statsWeekStart, "week-start", defaultWeekStart, "first day of the week")
	cmd.Flags().IntVar(&statsMostRead, "most-read", stats.DefaultMostReadLimit, "number of most-read books to show")
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# readstats configuration
# Uncomment a value to enable it. CLI flags override config values.

[tracker]
# min-session-seconds = %d   # Shorter sessions are not stored

[stats]
# week-start = %q       # First day of the week
# most-read-limit = %d       # Books listed under "most read"

[reader]
# text-dir = "~/bible"        # Chapter texts as <dir>/<Book>/<chapter>.txt

[legacy]
# history-path = %q

# Replace the built-in book list:
# [[corpus.books]]
# name = "Genesis"
# chapters = 50
`,
		int(tracker.DefaultMinDuration.Seconds()),
		defaultWeekStart,
		stats.DefaultMostReadLimit,
		config.DefaultLegacyHistoryPath(),
	)
}

// parseChapterArgs splits "<book words...> <chapter>" and resolves the book
// against the catalog.
func parseChapterArgs(catalog *corpus.Catalog, args []string) (string, int, error) {
	if len(args) < 2 {
		return "", 0, fmt.Errorf("expected <book> <chapter>")
	}
	chapter, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return "", 0, fmt.Errorf("invalid chapter %q", args[len(args)-1])
	}
	name := strings.Join(args[:len(args)-1], " ")
	book, ok := catalog.Lookup(name)
	if !ok {
		return "", 0, fmt.Errorf("unknown book %q (see: readstats books --all)", name)
	}
	if chapter < 1 || chapter > book.Chapters {
		return "", 0, fmt.Errorf("%s has chapters 1-%d, got %d", book.Name, book.Chapters, chapter)
	}
	return book.Name, chapter, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
