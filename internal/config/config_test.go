package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	if cfg.Tracker.MinSessionSeconds != nil || len(cfg.Corpus.Books) != 0 {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
	cat, err := cfg.Catalog()
	if err != nil || cat.Len() != 66 {
		t.Fatalf("expected default catalog, got %v %v", cat, err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[tracker]
min-session-seconds = 10

[stats]
week-start = "monday"
most-read-limit = 3

[legacy]
history-path = "/tmp/history.json"

[reader]
text-dir = "/srv/texts"

[[corpus.books]]
name = "Mark"
chapters = 16

[[corpus.books]]
name = "Jonah"
chapters = 4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	minDur, err := cfg.MinSessionDuration(5 * time.Second)
	if err != nil || minDur != 10*time.Second {
		t.Fatalf("expected 10s, got %v %v", minDur, err)
	}
	if cfg.Stats.WeekStart == nil || *cfg.Stats.WeekStart != "monday" {
		t.Fatalf("unexpected week start: %v", cfg.Stats.WeekStart)
	}
	if cfg.Stats.MostReadLimit == nil || *cfg.Stats.MostReadLimit != 3 {
		t.Fatalf("unexpected most-read limit: %v", cfg.Stats.MostReadLimit)
	}
	if got := cfg.HistoryPath("default"); got != "/tmp/history.json" {
		t.Fatalf("unexpected history path %q", got)
	}
	if got := cfg.TextDir(); got != "/srv/texts" {
		t.Fatalf("unexpected text dir %q", got)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.Len() != 2 || cat.TotalChapters() != 20 {
		t.Fatalf("unexpected catalog: %d books, %d chapters", cat.Len(), cat.TotalChapters())
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tracker]\nmin-seconds = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	t.Setenv("XDG_CONFIG_HOME", "/config")
	if got := DefaultDBPath(); got != filepath.Join("/data", "readstats", "readstats.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "readstats", "readstats.log") {
		t.Fatalf("unexpected log path %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/config", "readstats", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/reader")
	if got := ExpandHome("~/notes/history.json"); got != "/home/reader/notes/history.json" {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path changed: %q", got)
	}
}
