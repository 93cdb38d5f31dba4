// Package analyzer answers questions over completed scans: what changed,
// what is duplicated, what is growing, and what is worth cleaning up.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/pkg/utils"
)

// Analyzer reads from the catalog. It never writes.
type Analyzer struct {
	store  *catalog.Store
	logger *slog.Logger
}

// New creates an Analyzer.
func New(store *catalog.Store, logger *slog.Logger) *Analyzer {
	return &Analyzer{store: store, logger: logger}
}

// ChangeKind classifies one path's difference between two scans.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	// ChangeModified covers any fingerprint difference: a size change, a file
	// touched in place, or a child renamed. The size delta may be zero.
	ChangeModified ChangeKind = "modified"
)

// Change is one directory that differs between two scans.
type Change struct {
	Path    string
	Kind    ChangeKind
	OldSize int64
	NewSize int64
}

// Delta returns the signed size difference.
func (c Change) Delta() int64 {
	return c.NewSize - c.OldSize
}

// ChangeReport is the result of comparing two scans of the same root.
type ChangeReport struct {
	OldScanID string
	NewScanID string
	Changes   []Change
}

// Compare diffs two scans of the same root path-by-path. An unchanged
// fingerprint at a path means the whole subtree underneath is unchanged, so
// only the top-most changed directories carry signal; unchanged descendants
// of a changed directory still appear when their own fingerprints differ.
func (a *Analyzer) Compare(ctx context.Context, oldScan, newScan *catalog.Scan) (*ChangeReport, error) {
	if oldScan.RootPath != newScan.RootPath {
		return nil, fmt.Errorf("scans cover different roots: %s vs %s", oldScan.RootPath, newScan.RootPath)
	}

	oldDirs, err := a.store.DirectoriesByScan(ctx, oldScan.ID)
	if err != nil {
		return nil, err
	}
	newDirs, err := a.store.DirectoriesByScan(ctx, newScan.ID)
	if err != nil {
		return nil, err
	}

	report := &ChangeReport{OldScanID: oldScan.ID, NewScanID: newScan.ID}

	for path, oldRec := range oldDirs {
		newRec, ok := newDirs[path]
		if !ok {
			report.Changes = append(report.Changes, Change{
				Path:    path,
				Kind:    ChangeRemoved,
				OldSize: oldRec.SizeBytes,
			})
			continue
		}
		if newRec.Fingerprint != oldRec.Fingerprint {
			report.Changes = append(report.Changes, Change{
				Path:    path,
				Kind:    ChangeModified,
				OldSize: oldRec.SizeBytes,
				NewSize: newRec.SizeBytes,
			})
		}
	}
	for path, newRec := range newDirs {
		if _, ok := oldDirs[path]; !ok {
			report.Changes = append(report.Changes, Change{
				Path:    path,
				Kind:    ChangeAdded,
				NewSize: newRec.SizeBytes,
			})
		}
	}

	sort.Slice(report.Changes, func(i, j int) bool {
		return report.Changes[i].Path < report.Changes[j].Path
	})
	return report, nil
}

// DuplicateGroup is a set of files within one scan sharing a content hash.
type DuplicateGroup struct {
	Hash        string
	Files       []catalog.FileRecord
	TotalBytes  int64
	WastedBytes int64 // every copy except the largest
}

// FindDuplicates groups a scan's hashed files by content hash, keeping only
// groups with more than one member, ordered by descending wasted bytes.
// Waste counts all copies except the largest one.
func (a *Analyzer) FindDuplicates(ctx context.Context, scanID string) ([]DuplicateGroup, error) {
	candidates, err := a.store.DuplicateCandidates(ctx, scanID)
	if err != nil {
		return nil, err
	}
	return groupDuplicates(candidates), nil
}

// FindDuplicatesUnder restricts duplicate detection to files below a path
// prefix. A group needs at least two members inside the prefix; a file whose
// only twin lives elsewhere in the scan does not count.
func (a *Analyzer) FindDuplicatesUnder(ctx context.Context, scanID, prefix string) ([]DuplicateGroup, error) {
	files, err := a.store.FilesUnder(ctx, scanID, prefix)
	if err != nil {
		return nil, err
	}

	hashed := make([]catalog.FileRecord, 0, len(files))
	for _, f := range files {
		if f.ContentHash != "" {
			hashed = append(hashed, f)
		}
	}
	return groupDuplicates(hashed), nil
}

func groupDuplicates(files []catalog.FileRecord) []DuplicateGroup {
	byHash := make(map[string][]catalog.FileRecord)
	for _, f := range files {
		byHash[f.ContentHash] = append(byHash[f.ContentHash], f)
	}

	groups := make([]DuplicateGroup, 0, len(byHash))
	for hash, members := range byHash {
		if len(members) < 2 {
			continue
		}
		g := DuplicateGroup{Hash: hash, Files: members}
		var largest int64
		for _, f := range members {
			g.TotalBytes += f.SizeBytes
			if f.SizeBytes > largest {
				largest = f.SizeBytes
			}
		}
		g.WastedBytes = g.TotalBytes - largest
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].WastedBytes != groups[j].WastedBytes {
			return groups[i].WastedBytes > groups[j].WastedBytes
		}
		return groups[i].Hash < groups[j].Hash
	})
	return groups
}

// GrowthRate computes the linear growth rate in MB/day between the oldest
// and newest of the last k size samples for a path. It returns nil when
// fewer than two samples exist or the samples share a timestamp.
func (a *Analyzer) GrowthRate(ctx context.Context, path string, k int) (*float64, error) {
	samples, err := a.store.GrowthSamples(ctx, path, k)
	if err != nil {
		return nil, err
	}
	if len(samples) < 2 {
		return nil, nil
	}

	oldest := samples[0]
	newest := samples[len(samples)-1]
	days := newest.SampledAt.Sub(oldest.SampledAt).Hours() / 24
	if days <= 0 {
		return nil, nil
	}

	rate := float64(newest.SizeBytes-oldest.SizeBytes) / float64(utils.MB) / days
	return &rate, nil
}

// Recommendation is one deletable category worth cleaning, with the bytes
// reclaimable in the given scan.
type Recommendation struct {
	Category   string
	TotalBytes int64
	Count      int64
	Priority   int
}

// Recommend ranks a scan's deletable categories by reclaimable bytes,
// tie-broken by category priority descending. Non-deletable categories never
// appear.
func (a *Analyzer) Recommend(ctx context.Context, scanID string) ([]Recommendation, error) {
	usages, err := a.store.DeletableSizeByCategory(ctx, scanID)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(usages))
	for _, u := range usages {
		recs = append(recs, Recommendation{
			Category:   u.Category,
			TotalBytes: u.TotalBytes,
			Count:      u.Count,
			Priority:   u.Priority,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].TotalBytes != recs[j].TotalBytes {
			return recs[i].TotalBytes > recs[j].TotalBytes
		}
		return recs[i].Priority > recs[j].Priority
	})
	return recs, nil
}
