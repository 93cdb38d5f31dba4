// Package cleaner moves approved deletion candidates to a recoverable trash
// location and keeps an append-only audit trail in the catalog.
package cleaner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/progress"
	"github.com/vmks/macsweep/internal/safety"
)

// Executor performs validated cleanups. Every Execute or Rollback call
// appends exactly one CleanupEntry, success or failure; entries are never
// updated afterwards.
type Executor struct {
	store    *catalog.Store
	trash    Trash
	reporter *progress.Reporter
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// NewExecutor creates an Executor.
func NewExecutor(store *catalog.Store, trash Trash, reporter *progress.Reporter, logger *slog.Logger) *Executor {
	return &Executor{
		store:    store,
		trash:    trash,
		reporter: reporter,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Execute moves an approved candidate to the trash. The returned entry is
// already persisted; on a move failure the entry records it and the move
// error is returned alongside. Failures are not retried here; retry is the
// caller's call.
func (e *Executor) Execute(ctx context.Context, d *safety.Decision) (*catalog.CleanupEntry, error) {
	if !d.Approved() {
		return nil, fmt.Errorf("candidate for %s is not approved (state %s)", d.Candidate.Path, d.State)
	}

	path := d.Candidate.Path
	if !e.acquire(path) {
		return nil, fmt.Errorf("cleanup already in progress for %s", path)
	}
	defer e.release(path)

	start := time.Now()
	e.reporter.UpdateClean(&progress.CleanUpdate{
		Phase:       progress.PhaseCleaning,
		CurrentPath: path,
		Total:       1,
		StartTime:   start,
	})

	// Size is measured before the move so the audit record reflects what
	// was actually reclaimed.
	size := measureSize(path)

	dest, moveErr := e.trash.Move(path)
	if moveErr != nil {
		moveErr = CategorizeError(path, moveErr)
	}

	entry := &catalog.CleanupEntry{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Path:       path,
		SizeBytes:  size,
		Category:   d.Category.Name,
		Action:     catalog.ActionTrash,
		Success:    moveErr == nil,
		TrashPath:  dest,
		Restorable: moveErr == nil,
	}
	if moveErr != nil {
		entry.ErrorMessage = moveErr.Error()
	}

	if err := e.store.AppendCleanupEntry(ctx, entry); err != nil {
		return nil, err
	}

	if moveErr != nil {
		e.reporter.UpdateClean(&progress.CleanUpdate{
			Phase:       progress.PhaseError,
			CurrentPath: path,
			Total:       1,
			Failed:      1,
			StartTime:   start,
			Error:       moveErr,
		})
		e.logger.Error("cleanup failed", "path", path, "error", moveErr)
		return entry, moveErr
	}

	e.reporter.UpdateClean(&progress.CleanUpdate{
		Phase:       progress.PhaseComplete,
		CurrentPath: path,
		Done:        1,
		Total:       1,
		FreedBytes:  size,
		StartTime:   start,
	})
	e.logger.Info("moved to trash", "path", path, "trash_path", dest, "size", size)
	return entry, nil
}

// Rollback moves a previously trashed item back to its original path and
// appends a compensating entry. The prior entry is never mutated.
func (e *Executor) Rollback(ctx context.Context, prior *catalog.CleanupEntry) (*catalog.CleanupEntry, error) {
	if prior.Action != catalog.ActionTrash {
		return nil, fmt.Errorf("entry %s is not a trash action (%s)", prior.ID, prior.Action)
	}
	if !prior.Success || !prior.Restorable {
		return nil, fmt.Errorf("entry %s is not restorable", prior.ID)
	}

	if !e.acquire(prior.Path) {
		return nil, fmt.Errorf("cleanup already in progress for %s", prior.Path)
	}
	defer e.release(prior.Path)

	start := time.Now()
	e.reporter.UpdateClean(&progress.CleanUpdate{
		Phase:       progress.PhaseCleaning,
		CurrentPath: prior.Path,
		Total:       1,
		StartTime:   start,
	})

	restoreErr := e.trash.Restore(prior.TrashPath, prior.Path)

	entry := &catalog.CleanupEntry{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Path:      prior.Path,
		SizeBytes: prior.SizeBytes,
		Category:  prior.Category,
		Action:    catalog.ActionRollback,
		Success:   restoreErr == nil,
		TrashPath: prior.TrashPath,
	}
	if restoreErr != nil {
		entry.ErrorMessage = restoreErr.Error()
	}

	if err := e.store.AppendCleanupEntry(ctx, entry); err != nil {
		return nil, err
	}

	if restoreErr != nil {
		e.reporter.UpdateClean(&progress.CleanUpdate{
			Phase:       progress.PhaseError,
			CurrentPath: prior.Path,
			Total:       1,
			Failed:      1,
			StartTime:   start,
			Error:       restoreErr,
		})
		e.logger.Error("rollback failed", "path", prior.Path, "error", restoreErr)
		return entry, restoreErr
	}

	e.reporter.UpdateClean(&progress.CleanUpdate{
		Phase:       progress.PhaseComplete,
		CurrentPath: prior.Path,
		Done:        1,
		Total:       1,
		StartTime:   start,
	})
	e.logger.Info("restored from trash", "path", prior.Path)
	return entry, nil
}

// acquire serializes cleanup per target path. Two concurrent attempts on the
// same path must not both proceed.
func (e *Executor) acquire(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[path] {
		return false
	}
	e.inflight[path] = true
	return true
}

func (e *Executor) release(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, path)
}

// measureSize sums the sizes under path, best-effort. Unreadable entries are
// skipped; a missing path measures zero (the move will fail and record why).
func measureSize(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return fs.SkipDir
		}
		if !d.IsDir() {
			if fi, err := d.Info(); err == nil {
				total += fi.Size()
			}
		}
		return nil
	})
	return total
}
