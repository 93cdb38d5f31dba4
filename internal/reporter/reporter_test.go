package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vmks/macsweep/internal/analyzer"
	"github.com/vmks/macsweep/internal/catalog"
)

func sampleScan() *catalog.Scan {
	return &catalog.Scan{
		ID:        "scan-1",
		RootPath:  "/data",
		Kind:      catalog.ScanFull,
		Status:    catalog.StatusComplete,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
		FileCount: 120,
		DirCount:  14,
		TotalSize: 5 << 20,
	}
}

func TestScanSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	largest := []catalog.DirectoryRecord{
		{Path: "/data/node_modules", SizeBytes: 4 << 20},
	}
	usage := []catalog.CategoryUsage{
		{Category: "node-modules", TotalBytes: 4 << 20, Count: 1, Priority: 90},
	}
	if err := r.ScanSummary(sampleScan(), largest, usage); err != nil {
		t.Fatalf("ScanSummary: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"scan-1", "/data", "120 files", "/data/node_modules", "node-modules"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScanSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatJSON)

	if err := r.ScanSummary(sampleScan(), nil, nil); err != nil {
		t.Fatalf("ScanSummary: %v", err)
	}

	var decoded struct {
		ScanID    string `json:"scan_id"`
		Files     int64  `json:"files"`
		TotalSize int64  `json:"total_size"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if decoded.ScanID != "scan-1" || decoded.Files != 120 || decoded.TotalSize != 5<<20 {
		t.Errorf("unexpected decoded summary: %+v", decoded)
	}
}

func TestRecommendationsTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	recs := []analyzer.Recommendation{
		{Category: "node-modules", TotalBytes: 1 << 30, Count: 4, Priority: 90},
	}
	hints := map[string]string{"node-modules": "npm install"}
	if err := r.Recommendations(recs, hints); err != nil {
		t.Fatalf("Recommendations: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "node-modules") || !strings.Contains(out, "npm install") {
		t.Errorf("hint not rendered:\n%s", out)
	}

	buf.Reset()
	if err := r.Recommendations(nil, nil); err != nil {
		t.Fatalf("Recommendations(empty): %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing to recommend") {
		t.Errorf("empty case not handled:\n%s", buf.String())
	}
}

func TestChangesTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	report := &analyzer.ChangeReport{
		OldScanID: "old",
		NewScanID: "new",
		Changes: []analyzer.Change{
			{Path: "/data/fresh", Kind: analyzer.ChangeAdded, NewSize: 100},
			{Path: "/data/gone", Kind: analyzer.ChangeRemoved, OldSize: 200},
			{Path: "/data/grew", Kind: analyzer.ChangeModified, OldSize: 100, NewSize: 300},
		},
	}
	if err := r.Changes(report); err != nil {
		t.Fatalf("Changes: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "+") || !strings.Contains(out, "/data/fresh") {
		t.Errorf("added change not rendered:\n%s", out)
	}
	if !strings.Contains(out, "/data/gone") || !strings.Contains(out, "/data/grew") {
		t.Errorf("changes missing:\n%s", out)
	}
}

func TestDuplicatesTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	groups := []analyzer.DuplicateGroup{
		{
			Hash:        "abcdef0123456789deadbeef",
			Files:       []catalog.FileRecord{{Path: "/data/a", SizeBytes: 100}, {Path: "/data/b", SizeBytes: 100}},
			TotalBytes:  200,
			WastedBytes: 100,
		},
	}
	if err := r.Duplicates(groups); err != nil {
		t.Fatalf("Duplicates: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "abcdef012345") {
		t.Errorf("hash prefix not rendered:\n%s", out)
	}
	if strings.Contains(out, "abcdef0123456789deadbeef") {
		t.Errorf("hash not shortened:\n%s", out)
	}
}

func TestHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	entries := []catalog.CleanupEntry{
		{ID: "e1", CreatedAt: time.Now().UTC(), Path: "/data/cache", Action: catalog.ActionTrash, Success: true},
		{ID: "e2", CreatedAt: time.Now().UTC(), Path: "/data/tmp", Action: catalog.ActionTrash, ErrorMessage: "disk full"},
	}
	if err := r.History(entries); err != nil {
		t.Fatalf("History: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "FAILED") || !strings.Contains(out, "disk full") {
		t.Errorf("failure not rendered:\n%s", out)
	}
	if !strings.Contains(out, "id: e1") {
		t.Errorf("entry id not rendered:\n%s", out)
	}
}

func TestGrowth(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTable)

	rate := 12.5
	if err := r.Growth("/data/logs", &rate); err != nil {
		t.Fatalf("Growth: %v", err)
	}
	if !strings.Contains(buf.String(), "12.50 MB/day") {
		t.Errorf("rate not rendered:\n%s", buf.String())
	}

	buf.Reset()
	if err := r.Growth("/data/logs", nil); err != nil {
		t.Fatalf("Growth(nil): %v", err)
	}
	if !strings.Contains(buf.String(), "not enough samples") {
		t.Errorf("nil rate not handled:\n%s", buf.String())
	}
}

func TestYAMLFormat(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatYAML)

	if err := r.Categories([]catalog.Category{{Name: "logs", Priority: 50}}); err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if !strings.Contains(buf.String(), "name: logs") {
		t.Errorf("unexpected YAML output:\n%s", buf.String())
	}
}
