// Package scanner walks a filesystem subtree in parallel, fingerprints every
// directory and persists the result to the catalog as one atomic batch.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/classify"
	"github.com/vmks/macsweep/internal/config"
	"github.com/vmks/macsweep/internal/progress"
	"github.com/vmks/macsweep/pkg/utils"
)

// quickHashChunk is the chunk size HashFileQuick reads from each end of a
// large file.
const quickHashChunk = 64 * 1024

// Options control a single scan run.
type Options struct {
	Exclusions []catalog.ExclusionRule
	Previous   *catalog.Scan // enables incremental file-record reuse when set
}

// Scanner coordinates scan runs. Safe for sequential reuse; each Scan call
// gets its own run state.
type Scanner struct {
	store      *catalog.Store
	classifier *classify.Classifier
	reporter   *progress.Reporter
	logger     *slog.Logger
	cfg        config.ScannerConfig
}

// New creates a Scanner.
func New(store *catalog.Store, classifier *classify.Classifier, reporter *progress.Reporter, logger *slog.Logger, cfg config.ScannerConfig) *Scanner {
	return &Scanner{
		store:      store,
		classifier: classifier,
		reporter:   reporter,
		logger:     logger,
		cfg:        cfg,
	}
}

// Scan runs one traversal of root and persists it. Cancellation is
// cooperative: completed subtrees are still committed and the scan row is
// marked partial instead of being rolled back.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*catalog.Scan, error) {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("scan root must be absolute: %s", root)
	}

	kind := catalog.ScanFull
	var prevDirs map[string]*catalog.DirectoryRecord
	var prevFilesByDir map[string][]catalog.FileRecord
	if opts.Previous != nil && opts.Previous.RootPath == root && opts.Previous.Status == catalog.StatusComplete {
		kind = catalog.ScanIncremental
		var err error
		prevDirs, err = s.store.DirectoriesByScan(ctx, opts.Previous.ID)
		if err != nil {
			return nil, err
		}
		prevFiles, err := s.store.FilesByScan(ctx, opts.Previous.ID)
		if err != nil {
			return nil, err
		}
		prevFilesByDir = make(map[string][]catalog.FileRecord, len(prevFiles))
		for _, f := range prevFiles {
			prevFilesByDir[f.ParentPath] = append(prevFilesByDir[f.ParentPath], f)
		}
	}

	active := make([]string, 0, len(opts.Exclusions))
	for _, rule := range opts.Exclusions {
		if rule.Active {
			active = append(active, rule.Pattern)
		}
	}

	scan := &catalog.Scan{
		ID:         uuid.NewString(),
		RootPath:   root,
		Kind:       kind,
		Status:     catalog.StatusRunning,
		StartedAt:  time.Now().UTC(),
		Exclusions: active,
	}
	if err := s.store.CreateScan(ctx, scan); err != nil {
		return nil, err
	}

	threads := int64(s.cfg.Threads)
	if threads < 1 {
		threads = 8
	}

	run := &scanRun{
		scanner:        s,
		scan:           scan,
		excluder:       classify.NewMatcher(active),
		prevDirs:       prevDirs,
		prevFilesByDir: prevFilesByDir,
		sem:            semaphore.NewWeighted(threads),
		visited:        make(map[inodeKey]bool),
		start:          time.Now(),
	}

	rootRes := run.walkDir(ctx, root)
	markDuplicates(run.files)

	// The final write and finalize must survive the walk's cancellation.
	writeCtx := context.WithoutCancel(ctx)

	if err := s.store.WriteScanBatch(writeCtx, run.dirs, run.files, run.samples); err != nil {
		scan.Status = catalog.StatusFailed
		scan.Duration = time.Since(run.start)
		if ferr := s.store.FinalizeScan(writeCtx, scan); ferr != nil {
			s.logger.Error("finalizing failed scan", "scan_id", scan.ID, "error", ferr)
		}
		return nil, err
	}

	scan.Status = catalog.StatusComplete
	if ctx.Err() != nil {
		scan.Status = catalog.StatusPartial
	}
	scan.Duration = time.Since(run.start)
	scan.DirCount = int64(len(run.dirs))
	if rootRes != nil {
		scan.FileCount = rootRes.fileCount
		scan.TotalSize = rootRes.size
		scan.RootFingerprint = rootRes.fingerprint
	} else {
		// Interrupted before the root completed; totals reflect what was
		// processed.
		scan.FileCount = run.filesSeen.Load()
		scan.TotalSize = run.bytesSeen.Load()
	}
	if err := s.store.FinalizeScan(writeCtx, scan); err != nil {
		return nil, err
	}

	run.emit(progress.PhaseComplete, root, "")
	s.logger.Info("scan finished",
		"scan_id", scan.ID,
		"kind", string(scan.Kind),
		"status", string(scan.Status),
		"files", scan.FileCount,
		"dirs", scan.DirCount,
		"size", scan.TotalSize,
		"reused", run.reused.Load(),
		"duration", scan.Duration)
	return scan, nil
}

// inodeKey guards against walking the same physical directory twice.
type inodeKey struct {
	dev uint64
	ino uint64
}

// dirResult carries a completed directory's aggregates up to its parent.
type dirResult struct {
	size        int64
	fileCount   int64
	fingerprint string
}

// localFile is a regular file waiting for its directory's reuse decision.
type localFile struct {
	path string
	info os.FileInfo
}

// scanRun is the mutable state of one Scan call.
type scanRun struct {
	scanner        *Scanner
	scan           *catalog.Scan
	excluder       *classify.Matcher
	prevDirs       map[string]*catalog.DirectoryRecord
	prevFilesByDir map[string][]catalog.FileRecord
	sem            *semaphore.Weighted
	start          time.Time

	mu      sync.Mutex
	dirs    []catalog.DirectoryRecord
	files   []catalog.FileRecord
	samples []catalog.GrowthSample
	visited map[inodeKey]bool

	filesSeen atomic.Int64
	dirsSeen  atomic.Int64
	bytesSeen atomic.Int64
	reused    atomic.Int64
}

// walkDir processes one directory post-order: children first, then this
// directory's own record. It returns nil when the directory contributed
// nothing (excluded, unreadable, already visited, or the walk was cancelled
// before it completed); a nil child is simply absent from the parent's
// aggregates.
func (r *scanRun) walkDir(ctx context.Context, path string) *dirResult {
	// Cancellation is checked between directories, never mid-directory.
	if ctx.Err() != nil {
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		r.warnSkip(path, err)
		return nil
	}
	if !r.markVisited(info) {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		r.warnSkip(path, err)
		return nil
	}

	var children []childEntry
	var subdirs []string
	var files []localFile
	var size, fileCount int64

	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		// Symlinks are never followed and never recorded.
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		if r.excluder.Match(childPath) {
			continue
		}
		if entry.IsDir() {
			subdirs = append(subdirs, childPath)
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			r.warnSkip(childPath, err)
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		size += fi.Size()
		fileCount++
		children = append(children, childEntry{
			name:        entry.Name(),
			size:        fi.Size(),
			fingerprint: fileFingerprint(entry.Name(), fi.Size(), fi.ModTime()),
		})
		r.countFile(childPath, fi)
		files = append(files, localFile{path: childPath, info: fi})
	}

	// Fan out over subdirectories while worker slots are free; recurse
	// inline otherwise so a full pool never deadlocks the post-order join.
	results := make([]*dirResult, len(subdirs))
	var wg sync.WaitGroup
	for i, child := range subdirs {
		if r.sem.TryAcquire(1) {
			wg.Add(1)
			go func(i int, p string) {
				defer wg.Done()
				defer r.sem.Release(1)
				results[i] = r.walkDir(ctx, p)
			}(i, child)
		} else {
			results[i] = r.walkDir(ctx, child)
		}
	}
	wg.Wait()

	var subdirCount int64
	for i, res := range results {
		if res == nil {
			// Skipped child: the parent reflects only what was readable.
			continue
		}
		subdirCount++
		size += res.size
		fileCount += res.fileCount
		children = append(children, childEntry{
			name:        filepath.Base(subdirs[i]),
			isDir:       true,
			size:        res.size,
			fingerprint: res.fingerprint,
		})
	}

	// A directory whose children were cut short by cancellation has
	// incomplete aggregates and is not recorded; completed subtrees below
	// it already are.
	if ctx.Err() != nil {
		return nil
	}

	fp := dirFingerprint(children)

	// Incremental reuse is decided per directory, bottom-up, from the freshly
	// computed fingerprint. Because fp already folds in the live metadata of
	// this directory's files and the just-recomputed fingerprints of its
	// subdirectories, a match against the previous scan proves the immediate
	// file set is identical; those file records (content hashes included) are
	// copied forward instead of being re-hashed. Directories themselves are
	// always re-recorded from live aggregates.
	if prev, ok := r.prevDirs[path]; ok && prev.Fingerprint == fp {
		r.reuseFileRecords(path)
		r.reused.Add(1)
	} else {
		for _, lf := range files {
			r.recordFile(lf.path, lf.info)
		}
	}

	now := time.Now().UTC()
	record := catalog.DirectoryRecord{
		ScanID:      r.scan.ID,
		Path:        path,
		ParentPath:  filepath.Dir(path),
		Name:        filepath.Base(path),
		SizeBytes:   size,
		FileCount:   fileCount,
		SubdirCount: subdirCount,
		ModTime:     info.ModTime(),
		ScannedAt:   now,
		Fingerprint: fp,
	}

	cat := r.scanner.classifier.Classify(path)
	if cat != nil {
		record.Category = cat.Name
		record.Deletable = cat.Deletable
	}

	r.dirsSeen.Add(1)
	r.mu.Lock()
	r.dirs = append(r.dirs, record)
	if cat != nil {
		r.samples = append(r.samples, catalog.GrowthSample{
			ScanID:    r.scan.ID,
			Path:      path,
			Category:  cat.Name,
			SizeBytes: size,
			SampledAt: now,
		})
	}
	r.mu.Unlock()

	if size >= r.scanner.cfg.LargeDirWarnBytes() {
		warning := fmt.Sprintf("large directory: %s (%d bytes)", path, size)
		r.scanner.logger.Warn("large directory", "path", path, "size", size)
		r.emit(progress.PhaseScanning, path, warning)
	}

	return &dirResult{size: size, fileCount: fileCount, fingerprint: fp}
}

// reuseFileRecords copies the previous scan's file records for exactly one
// directory forward into this scan, retagged with the new scan id. Only
// called when the directory's freshly computed fingerprint matched the
// previous scan's.
func (r *scanRun) reuseFileRecords(path string) {
	prev := r.prevFilesByDir[path]
	if len(prev) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range prev {
		copied := f
		copied.ScanID = r.scan.ID
		r.files = append(r.files, copied)
	}
}

// countFile updates the shared progress counters for one observed file.
func (r *scanRun) countFile(path string, fi os.FileInfo) {
	n := r.filesSeen.Add(1)
	r.bytesSeen.Add(fi.Size())

	interval := int64(r.scanner.cfg.ProgressInterval)
	if interval < 1 {
		interval = 1000
	}
	if n%interval == 0 {
		r.emit(progress.PhaseScanning, path, "")
	}
}

// recordFile hashes and records a file when it is large or eligible for
// duplicate detection.
func (r *scanRun) recordFile(path string, fi os.FileInfo) {
	dupMin := r.scanner.cfg.DuplicateHashMinBytes()
	if fi.Size() < dupMin {
		return
	}
	quickMin := r.scanner.cfg.QuickHashMinBytes()

	var hash string
	var err error
	if fi.Size() >= quickMin {
		hash, err = utils.HashFileQuick(path, quickHashChunk)
	} else {
		hash, err = utils.HashFile(path)
	}
	if err != nil {
		// Unreadable content: keep the record, skip the hash.
		r.warnSkip(path, err)
		hash = ""
	}

	record := catalog.FileRecord{
		ScanID:      r.scan.ID,
		Path:        path,
		ParentPath:  filepath.Dir(path),
		Name:        fi.Name(),
		Extension:   strings.ToLower(filepath.Ext(fi.Name())),
		SizeBytes:   fi.Size(),
		ModTime:     fi.ModTime(),
		ContentHash: hash,
		IsLarge:     fi.Size() >= quickMin,
	}
	if cat := r.scanner.classifier.Classify(path); cat != nil {
		record.Category = cat.Name
	}

	r.mu.Lock()
	r.files = append(r.files, record)
	r.mu.Unlock()
}

// markDuplicates flags every file record whose content hash appears more than
// once in this scan. Runs after the walk so carried-forward records are
// re-evaluated against the current population.
func markDuplicates(files []catalog.FileRecord) {
	counts := make(map[string]int, len(files))
	for i := range files {
		if files[i].ContentHash != "" {
			counts[files[i].ContentHash]++
		}
	}
	for i := range files {
		files[i].IsDuplicate = files[i].ContentHash != "" && counts[files[i].ContentHash] > 1
	}
}

// markVisited guards against visiting the same physical directory twice
// (firmlinks, bind mounts).
func (r *scanRun) markVisited(info os.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}
	key := inodeKey{dev: uint64(st.Dev), ino: uint64(st.Ino)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visited[key] {
		return false
	}
	r.visited[key] = true
	return true
}

func (r *scanRun) warnSkip(path string, err error) {
	r.scanner.logger.Warn("skipping entry", "path", path, "error", err)
	r.emit(progress.PhaseScanning, path, fmt.Sprintf("skipped %s: %v", path, err))
}

func (r *scanRun) emit(phase progress.Phase, path, warning string) {
	r.scanner.reporter.UpdateScan(&progress.ScanUpdate{
		Phase:       phase,
		CurrentPath: path,
		FilesSeen:   int(r.filesSeen.Load()),
		DirsSeen:    int(r.dirsSeen.Load()),
		BytesSeen:   r.bytesSeen.Load(),
		Reused:      int(r.reused.Load()),
		Warning:     warning,
		StartTime:   r.start,
	})
}
