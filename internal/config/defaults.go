package config

import (
	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/logging"
)

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Threads:              8,
			DuplicateHashMinSize: "1MB",
			QuickHashMinSize:     "100MB",
			LargeDirWarnSize:     "10GB",
			ProgressInterval:     1000,
		},
		Logging:    logging.DefaultConfig(),
		Categories: DefaultCategories(),
		Exclusions: DefaultExclusions(),
	}
}

// DefaultCategories returns the built-in category table. Priority decides
// evaluation order: higher wins when patterns overlap, so the non-deletable
// repository category outranks everything it could be nested inside of.
func DefaultCategories() []catalog.Category {
	return []catalog.Category{
		{
			Name:            "git-repository",
			Description:     "Version control metadata",
			Patterns:        []string{"**/.git/**", "**/.github/**", "**/.gitlab/**"},
			Deletable:       false,
			RestorationHint: catalog.RestorationNone,
			Priority:        100,
		},
		{
			Name:            "node-modules",
			Description:     "Node.js installed dependencies",
			Patterns:        []string{"**/node_modules/**"},
			Deletable:       true,
			RestorationHint: "npm install",
			Priority:        90,
		},
		{
			Name:            "python-venv",
			Description:     "Python virtual environments",
			Patterns:        []string{"**/.venv/**", "**/venv/**", "**/env/**"},
			Deletable:       true,
			RestorationHint: "python -m venv && pip install -r requirements.txt",
			Priority:        85,
		},
		{
			Name:        "package-cache",
			Description: "Package manager caches",
			Patterns: []string{
				"**/.npm/_npx/**",
				"**/.npm/_cacache/**",
				"**/.gem/cache/**",
				"**/.cache/go-build/**",
				"**/pkg/mod/cache/**",
			},
			Deletable:       true,
			RestorationHint: "regenerated by the package manager",
			Priority:        80,
		},
		{
			Name:        "build-output",
			Description: "Compiled build artifacts",
			Patterns: []string{
				"**/dist/**",
				"**/build/**",
				"**/.next/**",
				"**/.nuxt/**",
				"**/target/debug/**",
				"**/target/release/**",
				"**/vendor/bundle/**",
			},
			Deletable:       true,
			RestorationHint: "rebuild the project",
			Priority:        75,
		},
		{
			Name:            "python-bytecode",
			Description:     "Python compiled bytecode",
			Patterns:        []string{"**/__pycache__/**", "**/*.pyc", "**/*.pyo"},
			Deletable:       true,
			RestorationHint: "regenerated on next run",
			Priority:        70,
		},
		{
			Name:        "tool-cache",
			Description: "Development tool caches",
			Patterns: []string{
				"**/.pytest_cache/**",
				"**/.mypy_cache/**",
				"**/.ruff_cache/**",
				"**/.vscode/cache/**",
				"**/.idea/cache/**",
			},
			Deletable:       true,
			RestorationHint: "regenerated by the tool",
			Priority:        70,
		},
		{
			Name:            "cache",
			Description:     "Generic cache directories",
			Patterns:        []string{"**/cache/**", "**/.cache/**"},
			Deletable:       true,
			RestorationHint: "regenerated as needed",
			Priority:        60,
		},
		{
			Name:            "temp",
			Description:     "Temporary files",
			Patterns:        []string{"**/tmp/**", "**/temp/**", "**/.tmp/**"},
			Deletable:       true,
			RestorationHint: "transient data, no restoration needed",
			Priority:        55,
		},
		{
			Name:            "logs",
			Description:     "Log files and directories",
			Patterns:        []string{"**/*.log", "**/logs/**", "**/_logs/**"},
			Deletable:       true,
			RestorationHint: "regenerated by the producing application",
			Priority:        50,
		},
		{
			Name:            "macos-metadata",
			Description:     "Finder metadata files",
			Patterns:        []string{"**/.DS_Store", "**/.localized"},
			Deletable:       true,
			RestorationHint: "regenerated by Finder",
			Priority:        40,
		},
	}
}

// DefaultExclusions returns scan-time skip rules. Excluded subtrees are not
// walked at all; they never reach the catalog.
func DefaultExclusions() []catalog.ExclusionRule {
	return []catalog.ExclusionRule{
		{Pattern: "/System/**", Reason: "SIP-protected system files", Active: true},
		{Pattern: "/private/var/vm/**", Reason: "virtual memory swap", Active: true},
		{Pattern: "/Volumes/**", Reason: "external and network volumes", Active: true},
		{Pattern: "/dev/**", Reason: "device files", Active: true},
		{Pattern: "/proc/**", Reason: "kernel virtual filesystem", Active: true},
		{Pattern: "**/.Trash/**", Reason: "already staged for deletion", Active: true},
	}
}
