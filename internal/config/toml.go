// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/readstats/internal/corpus"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Tracker TrackerConfig `toml:"tracker"`
	Stats   StatsConfig   `toml:"stats"`
	Legacy  LegacyConfig  `toml:"legacy"`
	Reader  ReaderConfig  `toml:"reader"`
	Corpus  CorpusConfig  `toml:"corpus"`
}

// TrackerConfig maps session tracking settings.
type TrackerConfig struct {
	MinSessionSeconds *int `toml:"min-session-seconds"`
}

// StatsConfig maps dashboard settings.
type StatsConfig struct {
	WeekStart     *string `toml:"week-start"`
	MostReadLimit *int    `toml:"most-read-limit"`
}

// LegacyConfig points at pre-statistics reading history.
type LegacyConfig struct {
	HistoryPath *string `toml:"history-path"`
}

// ReaderConfig maps reading view settings.
type ReaderConfig struct {
	TextDir *string `toml:"text-dir"`
}

// CorpusConfig overrides the built-in book list.
type CorpusConfig struct {
	Books []BookConfig `toml:"books"`
}

// BookConfig is one book of a custom corpus.
type BookConfig struct {
	Name     string `toml:"name"`
	Chapters int    `toml:"chapters"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// MinSessionDuration returns the configured discard threshold, or def.
func (c FileConfig) MinSessionDuration(def time.Duration) (time.Duration, error) {
	if c.Tracker.MinSessionSeconds == nil {
		return def, nil
	}
	if *c.Tracker.MinSessionSeconds < 0 {
		return 0, fmt.Errorf("min-session-seconds must be >= 0")
	}
	return time.Duration(*c.Tracker.MinSessionSeconds) * time.Second, nil
}

// Catalog returns the configured corpus, or the built-in one when no books
// are listed.
func (c FileConfig) Catalog() (*corpus.Catalog, error) {
	if len(c.Corpus.Books) == 0 {
		return corpus.Default(), nil
	}
	books := make([]corpus.Book, 0, len(c.Corpus.Books))
	for _, b := range c.Corpus.Books {
		books = append(books, corpus.Book{Name: b.Name, Chapters: b.Chapters})
	}
	cat, err := corpus.New(books)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	return cat, nil
}

// HistoryPath returns the legacy history path with "~" expanded, or def.
func (c FileConfig) HistoryPath(def string) string {
	if c.Legacy.HistoryPath == nil || *c.Legacy.HistoryPath == "" {
		return def
	}
	return ExpandHome(*c.Legacy.HistoryPath)
}

// TextDir returns the chapter text directory with "~" expanded, or "".
func (c FileConfig) TextDir() string {
	if c.Reader.TextDir == nil {
		return ""
	}
	return ExpandHome(*c.Reader.TextDir)
}
