// Package reporter renders scan, analysis and cleanup results to a writer in
// table, JSON or YAML form.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/vmks/macsweep/internal/analyzer"
	"github.com/vmks/macsweep/internal/catalog"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{writer: writer, format: format}
}

// encode renders v as JSON or YAML depending on format.
func (r *Reporter) encode(v interface{}) error {
	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) structured() bool {
	return r.format == FormatJSON || r.format == FormatYAML
}

// ScanSummary reports one scan's aggregates, its largest directories and the
// per-category deletable usage.
func (r *Reporter) ScanSummary(scan *catalog.Scan, largest []catalog.DirectoryRecord, usage []catalog.CategoryUsage) error {
	if r.structured() {
		return r.encode(struct {
			ScanID    string                    `json:"scan_id" yaml:"scan_id"`
			Root      string                    `json:"root" yaml:"root"`
			Kind      string                    `json:"kind" yaml:"kind"`
			Status    string                    `json:"status" yaml:"status"`
			StartedAt string                    `json:"started_at" yaml:"started_at"`
			Duration  string                    `json:"duration" yaml:"duration"`
			Files     int64                     `json:"files" yaml:"files"`
			Dirs      int64                     `json:"dirs" yaml:"dirs"`
			TotalSize int64                     `json:"total_size" yaml:"total_size"`
			Largest   []catalog.DirectoryRecord `json:"largest_directories" yaml:"largest_directories"`
			Usage     []catalog.CategoryUsage   `json:"deletable_by_category" yaml:"deletable_by_category"`
		}{
			ScanID:    scan.ID,
			Root:      scan.RootPath,
			Kind:      string(scan.Kind),
			Status:    string(scan.Status),
			StartedAt: scan.StartedAt.Format(time.RFC3339),
			Duration:  scan.Duration.String(),
			Files:     scan.FileCount,
			Dirs:      scan.DirCount,
			TotalSize: scan.TotalSize,
			Largest:   largest,
			Usage:     usage,
		})
	}

	fmt.Fprintf(r.writer, "=== Scan %s ===\n", scan.ID)
	fmt.Fprintf(r.writer, "Root:     %s\n", scan.RootPath)
	fmt.Fprintf(r.writer, "Kind:     %s (%s)\n", scan.Kind, scan.Status)
	fmt.Fprintf(r.writer, "Started:  %s\n", scan.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(r.writer, "Duration: %s\n", scan.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.writer, "Totals:   %d files, %d dirs, %s\n",
		scan.FileCount, scan.DirCount, humanize.IBytes(uint64(scan.TotalSize)))

	if len(largest) > 0 {
		fmt.Fprintf(r.writer, "\nLargest directories:\n")
		for _, d := range largest {
			fmt.Fprintf(r.writer, "  %-10s  %s\n", humanize.IBytes(uint64(d.SizeBytes)), d.Path)
		}
	}

	if len(usage) > 0 {
		fmt.Fprintf(r.writer, "\nDeletable by category:\n")
		for _, u := range usage {
			fmt.Fprintf(r.writer, "  %-20s %8d dirs  %s\n",
				u.Category, u.Count, humanize.IBytes(uint64(u.TotalBytes)))
		}
	}
	return nil
}

// Recommendations reports cleanup recommendations with restoration hints.
func (r *Reporter) Recommendations(recs []analyzer.Recommendation, hints map[string]string) error {
	if r.structured() {
		type row struct {
			Category        string `json:"category" yaml:"category"`
			TotalBytes      int64  `json:"total_bytes" yaml:"total_bytes"`
			Count           int64  `json:"count" yaml:"count"`
			RestorationHint string `json:"restoration_hint" yaml:"restoration_hint"`
		}
		rows := make([]row, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, row{rec.Category, rec.TotalBytes, rec.Count, hints[rec.Category]})
		}
		return r.encode(rows)
	}

	if len(recs) == 0 {
		fmt.Fprintln(r.writer, "Nothing to recommend: no deletable categories found.")
		return nil
	}

	fmt.Fprintf(r.writer, "=== Cleanup Recommendations ===\n")
	for i, rec := range recs {
		fmt.Fprintf(r.writer, "%2d. %-20s %s in %d directories\n",
			i+1, rec.Category, humanize.IBytes(uint64(rec.TotalBytes)), rec.Count)
		if hint := hints[rec.Category]; hint != "" {
			fmt.Fprintf(r.writer, "    restore: %s\n", hint)
		}
	}
	return nil
}

// Changes reports the diff between two scans.
func (r *Reporter) Changes(report *analyzer.ChangeReport) error {
	if r.structured() {
		return r.encode(report)
	}

	if len(report.Changes) == 0 {
		fmt.Fprintln(r.writer, "No changes.")
		return nil
	}

	fmt.Fprintf(r.writer, "=== Changes (%d) ===\n", len(report.Changes))
	for _, c := range report.Changes {
		switch c.Kind {
		case analyzer.ChangeAdded:
			fmt.Fprintf(r.writer, "  + %-10s %s\n", humanize.IBytes(uint64(c.NewSize)), c.Path)
		case analyzer.ChangeRemoved:
			fmt.Fprintf(r.writer, "  - %-10s %s\n", humanize.IBytes(uint64(c.OldSize)), c.Path)
		default:
			fmt.Fprintf(r.writer, "  ~ %-10s -> %-10s %s\n",
				humanize.IBytes(uint64(c.OldSize)), humanize.IBytes(uint64(c.NewSize)), c.Path)
		}
	}
	return nil
}

// Duplicates reports duplicate file groups.
func (r *Reporter) Duplicates(groups []analyzer.DuplicateGroup) error {
	if r.structured() {
		return r.encode(groups)
	}

	if len(groups) == 0 {
		fmt.Fprintln(r.writer, "No duplicates found.")
		return nil
	}

	var wasted int64
	for _, g := range groups {
		wasted += g.WastedBytes
	}
	fmt.Fprintf(r.writer, "=== Duplicate Groups (%d, %s wasted) ===\n",
		len(groups), humanize.IBytes(uint64(wasted)))
	for _, g := range groups {
		fmt.Fprintf(r.writer, "%s  (%d copies, %s wasted)\n",
			shortHash(g.Hash), len(g.Files), humanize.IBytes(uint64(g.WastedBytes)))
		for _, f := range g.Files {
			fmt.Fprintf(r.writer, "  %-10s %s\n", humanize.IBytes(uint64(f.SizeBytes)), f.Path)
		}
	}
	return nil
}

// History reports cleanup audit entries, newest first.
func (r *Reporter) History(entries []catalog.CleanupEntry) error {
	if r.structured() {
		return r.encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(r.writer, "No cleanup history.")
		return nil
	}

	fmt.Fprintf(r.writer, "=== Cleanup History ===\n")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "FAILED"
		}
		fmt.Fprintf(r.writer, "%s  %-8s %-6s %-10s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, status,
			humanize.IBytes(uint64(e.SizeBytes)), e.Path)
		fmt.Fprintf(r.writer, "    id: %s\n", e.ID)
		if e.ErrorMessage != "" {
			fmt.Fprintf(r.writer, "    error: %s\n", e.ErrorMessage)
		}
	}
	return nil
}

// Categories reports the loaded category table in evaluation order.
func (r *Reporter) Categories(cats []catalog.Category) error {
	if r.structured() {
		return r.encode(cats)
	}

	fmt.Fprintf(r.writer, "%-20s %-9s %-4s %s\n", "Name", "Deletable", "Prio", "Restoration")
	for _, c := range cats {
		fmt.Fprintf(r.writer, "%-20s %-9t %-4d %s\n", c.Name, c.Deletable, c.Priority, c.RestorationHint)
	}
	return nil
}

// Growth reports the growth rate for one path.
func (r *Reporter) Growth(path string, rate *float64) error {
	if r.structured() {
		return r.encode(struct {
			Path     string   `json:"path" yaml:"path"`
			MBPerDay *float64 `json:"mb_per_day" yaml:"mb_per_day"`
		}{path, rate})
	}

	if rate == nil {
		fmt.Fprintf(r.writer, "%s: not enough samples to compute a growth rate\n", path)
		return nil
	}
	fmt.Fprintf(r.writer, "%s: %.2f MB/day\n", path, *rate)
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
