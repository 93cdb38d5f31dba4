package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmks/macsweep/internal/catalog"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Categories) == 0 {
		t.Error("default config has no categories")
	}
	if len(cfg.Exclusions) == 0 {
		t.Error("default config has no exclusions")
	}
}

func TestDefaultCategoriesAreSafe(t *testing.T) {
	for _, cat := range DefaultCategories() {
		if cat.Deletable {
			if cat.RestorationHint == "" || cat.RestorationHint == catalog.RestorationNone {
				t.Errorf("deletable category %s has no restoration hint", cat.Name)
			}
		}
	}

	// Git repositories must never default to deletable.
	for _, cat := range DefaultCategories() {
		if cat.Name == "git-repository" && cat.Deletable {
			t.Error("git-repository marked deletable by default")
		}
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threads", func(c *Config) { c.Scanner.Threads = 0 }},
		{"zero progress interval", func(c *Config) { c.Scanner.ProgressInterval = 0 }},
		{"bad size", func(c *Config) { c.Scanner.DuplicateHashMinSize = "lots" }},
		{"empty category name", func(c *Config) { c.Categories[0].Name = "" }},
		{"duplicate category name", func(c *Config) { c.Categories[1].Name = c.Categories[0].Name }},
		{"category without patterns", func(c *Config) { c.Categories[0].Patterns = nil }},
		{"deletable without hint", func(c *Config) {
			c.Categories = append(c.Categories, catalog.Category{
				Name: "reckless", Patterns: []string{"**/x/**"}, Deletable: true,
			})
		}},
		{"traversal in pattern", func(c *Config) {
			c.Exclusions = append(c.Exclusions, catalog.ExclusionRule{Pattern: "**/../etc/**"})
		}},
		{"malformed protected pattern", func(c *Config) {
			c.ProtectedPatterns = append(c.ProtectedPatterns, "[unclosed")
		}},
		{"relative database path", func(c *Config) { c.Database.Path = "relative/catalog.db" }},
		{"relative trash dir", func(c *Config) { c.Trash.Dir = "relative/trash" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateFillsRestorationSentinel(t *testing.T) {
	cfg := Default()
	cfg.Categories = append(cfg.Categories, catalog.Category{
		Name:     "sacred",
		Patterns: []string{"**/sacred/**"},
	})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := cfg.Categories[len(cfg.Categories)-1]
	if got.RestorationHint != catalog.RestorationNone {
		t.Errorf("hint = %q, want sentinel %q", got.RestorationHint, catalog.RestorationNone)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scanner.Threads != Default().Scanner.Threads {
		t.Errorf("Threads = %d, want default %d", cfg.Scanner.Threads, Default().Scanner.Threads)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scanner.Threads = 3
	cfg.Scanner.DuplicateHashMinSize = "5MB"
	cfg.Trash.Dir = "/tmp/macsweep-trash"
	cfg.ProtectedPatterns = []string{"/srv/precious/**"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Scanner.Threads != 3 {
		t.Errorf("Threads = %d, want 3", loaded.Scanner.Threads)
	}
	if loaded.Scanner.DuplicateHashMinSize != "5MB" {
		t.Errorf("DuplicateHashMinSize = %q, want 5MB", loaded.Scanner.DuplicateHashMinSize)
	}
	if loaded.Trash.Dir != "/tmp/macsweep-trash" {
		t.Errorf("Trash.Dir = %q", loaded.Trash.Dir)
	}
	if len(loaded.ProtectedPatterns) != 1 || loaded.ProtectedPatterns[0] != "/srv/precious/**" {
		t.Errorf("ProtectedPatterns = %v", loaded.ProtectedPatterns)
	}
	if len(loaded.Categories) != len(cfg.Categories) {
		t.Errorf("got %d categories, want %d", len(loaded.Categories), len(cfg.Categories))
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scanner:\n  threads: 0\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error loading invalid config")
	}
}

func TestScannerConfigFallbacks(t *testing.T) {
	var zero ScannerConfig
	if got := zero.DuplicateHashMinBytes(); got != 1<<20 {
		t.Errorf("DuplicateHashMinBytes = %d, want 1MiB", got)
	}
	if got := zero.QuickHashMinBytes(); got != 100<<20 {
		t.Errorf("QuickHashMinBytes = %d, want 100MiB", got)
	}
	if got := zero.LargeDirWarnBytes(); got != 10<<30 {
		t.Errorf("LargeDirWarnBytes = %d, want 10GiB", got)
	}

	set := ScannerConfig{DuplicateHashMinSize: "1KB"}
	if got := set.DuplicateHashMinBytes(); got != 1024 {
		t.Errorf("DuplicateHashMinBytes = %d, want 1024", got)
	}
}

func TestValidatePattern(t *testing.T) {
	valid := []string{"**/node_modules/**", "*.log", "/System/**", "**/.git/**"}
	for _, p := range valid {
		if err := ValidatePattern(p); err != nil {
			t.Errorf("ValidatePattern(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{"", "   ", "**/../x/**", "[unclosed"}
	for _, p := range invalid {
		if err := ValidatePattern(p); err == nil {
			t.Errorf("ValidatePattern(%q) = nil, want error", p)
		}
	}
}
