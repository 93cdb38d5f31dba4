package catalog

import (
	"strings"
	"time"
)

// ScanKind distinguishes a full traversal from an incremental one.
type ScanKind string

const (
	ScanFull        ScanKind = "full"
	ScanIncremental ScanKind = "incremental"
)

// ScanStatus tracks the lifecycle of a scan row.
type ScanStatus string

const (
	StatusRunning  ScanStatus = "running"
	StatusComplete ScanStatus = "complete"
	StatusPartial  ScanStatus = "partial"
	StatusFailed   ScanStatus = "failed"
)

// Scan is one traversal run over a root path. A scan row is created when the
// walk starts and finalized exactly once when it ends; it is never mutated
// afterward. Deleting a scan cascades to its directory, file and growth rows.
type Scan struct {
	ID              string
	RootPath        string
	Kind            ScanKind
	Status          ScanStatus
	StartedAt       time.Time
	Duration        time.Duration
	FileCount       int64
	DirCount        int64
	TotalSize       int64
	RootFingerprint string
	Exclusions      []string
}

// DirectoryRecord is one directory observed in exactly one scan. A re-scan
// produces new rows rather than mutating old ones, so (path, scan) is the
// time-series axis.
type DirectoryRecord struct {
	ScanID      string
	Path        string
	ParentPath  string
	Name        string
	SizeBytes   int64
	FileCount   int64
	SubdirCount int64
	ModTime     time.Time
	ScannedAt   time.Time
	Fingerprint string
	Category    string // empty = uncategorized
	Deletable   bool
}

// FileRecord is one file of interest (large or duplicate-eligible) in exactly
// one scan. ContentHash is empty unless the file crossed the hashing threshold.
type FileRecord struct {
	ScanID      string
	Path        string
	ParentPath  string
	Name        string
	Extension   string
	SizeBytes   int64
	ModTime     time.Time
	ContentHash string
	IsLarge     bool
	IsDuplicate bool
	Category    string
}

// RestorationNone is the sentinel hint for categories that must never be
// deleted.
const RestorationNone = "N/A"

// Category is a named, global classification rule. At most one category
// matches a given path; ordering is priority descending, then name.
type Category struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Patterns        []string `yaml:"patterns"`
	Deletable       bool     `yaml:"deletable"`
	RestorationHint string   `yaml:"restoration_hint"`
	Priority        int      `yaml:"priority"`
}

// ExclusionRule is a pattern the scanner must never descend into. Excluded
// paths are not recorded at all.
type ExclusionRule struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
	Active  bool   `yaml:"active"`
}

// CleanupAction is the kind of a cleanup history entry.
type CleanupAction string

const (
	ActionTrash    CleanupAction = "trash"
	ActionDelete   CleanupAction = "delete"
	ActionRollback CleanupAction = "rollback"
)

// CleanupEntry is an append-only audit record of one deletion (or rollback)
// attempt. Entries are never updated; a rollback appends a compensating row.
type CleanupEntry struct {
	ID           string
	CreatedAt    time.Time
	Path         string
	SizeBytes    int64
	Category     string
	Action       CleanupAction
	Success      bool
	ErrorMessage string
	TrashPath    string
	Restorable   bool
}

// GrowthSample is one (path, category, scan) size observation. Derived data;
// safe to recompute from directory history.
type GrowthSample struct {
	ScanID    string
	Path      string
	Category  string
	SizeBytes int64
	SampledAt time.Time
}

// CategoryUsage aggregates deletable bytes for one category within a scan.
type CategoryUsage struct {
	Category   string
	Priority   int
	TotalBytes int64
	Count      int64
}

// joinLines and splitLines serialize string lists into a single TEXT column.

func joinLines(items []string) string {
	return strings.Join(items, "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
