package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/logging"
	"github.com/vmks/macsweep/pkg/utils"
)

// Config represents the application configuration
type Config struct {
	Scanner           ScannerConfig            `yaml:"scanner"`
	Database          DatabaseConfig           `yaml:"database"`
	Trash             TrashConfig              `yaml:"trash"`
	Logging           logging.Config           `yaml:"logging"`
	Categories        []catalog.Category       `yaml:"categories"`
	Exclusions        []catalog.ExclusionRule  `yaml:"exclusions"`
	ProtectedPatterns []string                 `yaml:"protected_patterns"` // added to the built-in list
}

// ScannerConfig holds scan tuning knobs
type ScannerConfig struct {
	Threads              int    `yaml:"threads"`
	DuplicateHashMinSize string `yaml:"duplicate_hash_min_size"` // e.g. "1MB"
	QuickHashMinSize     string `yaml:"quick_hash_min_size"`     // e.g. "100MB"
	LargeDirWarnSize     string `yaml:"large_dir_warn_size"`     // e.g. "10GB"
	ProgressInterval     int    `yaml:"progress_interval"`       // files between progress events
}

// DatabaseConfig holds catalog database settings
type DatabaseConfig struct {
	Path string `yaml:"path"` // empty = platform data dir
}

// TrashConfig holds trash destination settings
type TrashConfig struct {
	Dir string `yaml:"dir"` // empty = platform trash dir
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scanner.Threads < 1 {
		return fmt.Errorf("scanner threads must be >= 1")
	}
	if c.Scanner.ProgressInterval < 1 {
		return fmt.Errorf("scanner progress_interval must be >= 1")
	}

	for name, size := range map[string]string{
		"duplicate_hash_min_size": c.Scanner.DuplicateHashMinSize,
		"quick_hash_min_size":     c.Scanner.QuickHashMinSize,
		"large_dir_warn_size":     c.Scanner.LargeDirWarnSize,
	} {
		if _, err := utils.ParseSize(size); err != nil {
			return fmt.Errorf("invalid scanner %s: %w", name, err)
		}
	}

	seen := make(map[string]bool, len(c.Categories))
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Name == "" {
			return fmt.Errorf("category name must not be empty")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category name: %s", cat.Name)
		}
		seen[cat.Name] = true

		if len(cat.Patterns) == 0 {
			return fmt.Errorf("category %s has no patterns", cat.Name)
		}
		for _, p := range cat.Patterns {
			if err := ValidatePattern(p); err != nil {
				return fmt.Errorf("category %s: %w", cat.Name, err)
			}
		}

		// Deletable categories must carry a restoration hint so the cleanup
		// validator can surface it; non-deletable ones get the sentinel.
		if cat.Deletable && (cat.RestorationHint == "" || cat.RestorationHint == catalog.RestorationNone) {
			return fmt.Errorf("deletable category %s must have a restoration hint", cat.Name)
		}
		if !cat.Deletable && cat.RestorationHint == "" {
			cat.RestorationHint = catalog.RestorationNone
		}
	}

	for _, excl := range c.Exclusions {
		if err := ValidatePattern(excl.Pattern); err != nil {
			return fmt.Errorf("exclusion: %w", err)
		}
	}

	for _, p := range c.ProtectedPatterns {
		if err := ValidatePattern(p); err != nil {
			return fmt.Errorf("protected pattern: %w", err)
		}
	}

	if c.Database.Path != "" && !filepath.IsAbs(c.Database.Path) {
		return fmt.Errorf("database path must be absolute: %s", c.Database.Path)
	}
	if c.Trash.Dir != "" && !filepath.IsAbs(c.Trash.Dir) {
		return fmt.Errorf("trash dir must be absolute: %s", c.Trash.Dir)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// DuplicateHashMinBytes returns the parsed duplicate hashing threshold.
func (s ScannerConfig) DuplicateHashMinBytes() int64 {
	return mustBytes(s.DuplicateHashMinSize, 1*utils.MB)
}

// QuickHashMinBytes returns the parsed quick-hash threshold.
func (s ScannerConfig) QuickHashMinBytes() int64 {
	return mustBytes(s.QuickHashMinSize, 100*utils.MB)
}

// LargeDirWarnBytes returns the parsed large-directory warning threshold.
func (s ScannerConfig) LargeDirWarnBytes() int64 {
	return mustBytes(s.LargeDirWarnSize, 10*utils.GB)
}

// mustBytes parses a size string, falling back to a default. Validate has
// already rejected unparseable configs, so the fallback only covers the
// zero-value ScannerConfig.
func mustBytes(size string, fallback int64) int64 {
	if size == "" {
		return fallback
	}
	n, err := utils.ParseSize(size)
	if err != nil {
		return fallback
	}
	return n
}

// ValidatePattern validates a glob pattern: each segment must be valid
// filepath.Match syntax and the pattern must not contain traversal.
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("empty pattern")
	}
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("pattern contains directory traversal: %s", pattern)
	}
	for _, seg := range strings.Split(filepath.ToSlash(pattern), "/") {
		if seg == "**" || seg == "" {
			continue
		}
		if _, err := filepath.Match(seg, "x"); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "macsweep", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(Default(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
