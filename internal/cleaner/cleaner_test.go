package cleaner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/progress"
	"github.com/vmks/macsweep/internal/safety"
	"github.com/vmks/macsweep/internal/testutil"
)

func approvedDecision(path string) *safety.Decision {
	return &safety.Decision{
		State: safety.StateApproved,
		Candidate: safety.Candidate{
			Path:         path,
			DryRun:       false,
			ConfirmToken: safety.ConfirmToken,
		},
		Category: &catalog.Category{
			Name:            "cache",
			Deletable:       true,
			RestorationHint: "regenerated on next use",
		},
	}
}

func TestDirTrashMoveRestore(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("victim/inner/file.bin", 100)
	victim := filepath.Join(f.RootDir, "victim")
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))

	dest, err := trash.Move(victim)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Lstat(victim); !os.IsNotExist(err) {
		t.Error("original path still exists after move")
	}
	if _, err := os.Stat(filepath.Join(dest, "inner", "file.bin")); err != nil {
		t.Errorf("moved content missing: %v", err)
	}

	if err := trash.Restore(dest, victim); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := os.Stat(filepath.Join(victim, "inner", "file.bin")); err != nil {
		t.Errorf("restored content missing: %v", err)
	}
	if _, err := os.Lstat(dest); !os.IsNotExist(err) {
		t.Error("trash item still exists after restore")
	}
}

func TestDirTrashRestoreRefusesOverwrite(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("victim/file.bin", 10)
	victim := filepath.Join(f.RootDir, "victim")
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))

	dest, err := trash.Move(victim)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	// Something new appears at the original path.
	f.CreateSizedFile("victim/other.bin", 10)

	if err := trash.Restore(dest, victim); err == nil {
		t.Fatal("expected restore to refuse overwriting the original path")
	}
}

func TestDirTrashRestoreFailsWhenTrashGone(t *testing.T) {
	f := testutil.NewFixture(t)
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))

	err := trash.Restore(filepath.Join(f.RootDir, "trash", "nothing.20240101-000000"),
		filepath.Join(f.RootDir, "victim"))
	if err == nil {
		t.Fatal("expected error restoring a missing trash item")
	}
}

func TestDirTrashNamesDoNotCollide(t *testing.T) {
	f := testutil.NewFixture(t)
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))
	// Freeze the clock so both moves would pick the same timestamped name.
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	trash.now = func() time.Time { return fixed }

	f.CreateSizedFile("one/cache/file", 10)
	f.CreateSizedFile("two/cache/file", 10)

	first, err := trash.Move(filepath.Join(f.RootDir, "one", "cache"))
	if err != nil {
		t.Fatalf("first Move: %v", err)
	}
	second, err := trash.Move(filepath.Join(f.RootDir, "two", "cache"))
	if err != nil {
		t.Fatalf("second Move: %v", err)
	}
	if first == second {
		t.Errorf("both moves landed at %s", first)
	}
}

func TestExecute(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("victim/a.bin", 100)
	f.CreateSizedFile("victim/sub/b.bin", 200)
	victim := filepath.Join(f.RootDir, "victim")

	store := testutil.OpenStore(t)
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))
	ex := NewExecutor(store, trash, progress.NewReporter(), testutil.Logger())
	ctx := context.Background()

	entry, err := ex.Execute(ctx, approvedDecision(victim))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !entry.Success || !entry.Restorable {
		t.Errorf("entry not marked successful: %+v", entry)
	}
	if entry.Action != catalog.ActionTrash {
		t.Errorf("Action = %s, want trash", entry.Action)
	}
	if entry.SizeBytes != 300 {
		t.Errorf("SizeBytes = %d, want 300", entry.SizeBytes)
	}
	if entry.TrashPath == "" {
		t.Error("TrashPath missing")
	}
	if _, err := os.Lstat(victim); !os.IsNotExist(err) {
		t.Error("victim still exists after execute")
	}

	history, err := store.CleanupHistory(ctx, 10)
	if err != nil {
		t.Fatalf("CleanupHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d history entries, want exactly 1", len(history))
	}
	if history[0].ID != entry.ID {
		t.Errorf("persisted entry id %s != returned %s", history[0].ID, entry.ID)
	}
}

func TestExecuteReportsProgress(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("victim/a.bin", 300)
	victim := filepath.Join(f.RootDir, "victim")

	store := testutil.OpenStore(t)
	prog := progress.NewReporter()
	updates := prog.Subscribe()
	ex := NewExecutor(store, NewDirTrash(filepath.Join(f.RootDir, "trash")), prog, testutil.Logger())

	if _, err := ex.Execute(context.Background(), approvedDecision(victim)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	prog.Unsubscribe(updates)

	var phases []progress.Phase
	var final *progress.CleanUpdate
	for u := range updates {
		cu, ok := u.(*progress.CleanUpdate)
		if !ok {
			t.Fatalf("received %T, want *CleanUpdate", u)
		}
		phases = append(phases, cu.Phase)
		final = cu
	}
	if len(phases) != 2 || phases[0] != progress.PhaseCleaning || phases[1] != progress.PhaseComplete {
		t.Fatalf("phases = %v, want [cleaning complete]", phases)
	}
	if final.Done != 1 || final.FreedBytes != 300 {
		t.Errorf("final update = %+v, want Done=1 FreedBytes=300", final)
	}
	if final.CurrentPath != victim {
		t.Errorf("CurrentPath = %s, want %s", final.CurrentPath, victim)
	}

	snap := prog.CleanSnapshot()
	if snap == nil || snap.Phase != progress.PhaseComplete {
		t.Errorf("snapshot = %+v, want completion", snap)
	}
	if line := progress.FormatClean(snap); !strings.Contains(line, "Cleanup complete") {
		t.Errorf("unexpected completion line: %q", line)
	}
}

func TestExecuteFailureReportsErrorPhase(t *testing.T) {
	f := testutil.NewFixture(t)
	store := testutil.OpenStore(t)
	prog := progress.NewReporter()
	updates := prog.Subscribe()
	ex := NewExecutor(store, NewDirTrash(filepath.Join(f.RootDir, "trash")), prog, testutil.Logger())

	missing := filepath.Join(f.RootDir, "never-existed")
	if _, err := ex.Execute(context.Background(), approvedDecision(missing)); err == nil {
		t.Fatal("expected move error for missing path")
	}
	prog.Unsubscribe(updates)

	var final *progress.CleanUpdate
	for u := range updates {
		if cu, ok := u.(*progress.CleanUpdate); ok {
			final = cu
		}
	}
	if final == nil || final.Phase != progress.PhaseError {
		t.Fatalf("final update = %+v, want error phase", final)
	}
	if final.Failed != 1 || final.Error == nil {
		t.Errorf("final update = %+v, want Failed=1 with an error", final)
	}
}

func TestExecuteMissingPathRecordsFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	store := testutil.OpenStore(t)
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))
	ex := NewExecutor(store, trash, progress.NewReporter(), testutil.Logger())
	ctx := context.Background()

	missing := filepath.Join(f.RootDir, "never-existed")
	entry, err := ex.Execute(ctx, approvedDecision(missing))
	if err == nil {
		t.Fatal("expected move error for missing path")
	}
	var moveErr *MoveError
	if !errors.As(err, &moveErr) {
		t.Fatalf("expected *MoveError, got %T: %v", err, err)
	}
	if moveErr.Reason != ErrorFileNotFound {
		t.Errorf("Reason = %s, want %s", moveErr.Reason, ErrorFileNotFound)
	}

	// The failure is still audited, exactly once.
	if entry == nil {
		t.Fatal("expected a persisted entry alongside the error")
	}
	if entry.Success || entry.Restorable {
		t.Errorf("failed entry marked successful: %+v", entry)
	}
	if entry.ErrorMessage == "" {
		t.Error("failed entry has no error message")
	}
	history, err := store.CleanupHistory(ctx, 10)
	if err != nil {
		t.Fatalf("CleanupHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d history entries, want exactly 1", len(history))
	}
}

func TestExecuteRejectsUnapproved(t *testing.T) {
	f := testutil.NewFixture(t)
	store := testutil.OpenStore(t)
	ex := NewExecutor(store, NewDirTrash(filepath.Join(f.RootDir, "trash")), progress.NewReporter(), testutil.Logger())
	ctx := context.Background()

	d := approvedDecision(filepath.Join(f.RootDir, "victim"))
	d.State = safety.StateRejected

	if _, err := ex.Execute(ctx, d); err == nil {
		t.Fatal("expected error for unapproved decision")
	}

	history, err := store.CleanupHistory(ctx, 10)
	if err != nil {
		t.Fatalf("CleanupHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("unapproved execution was audited: %+v", history)
	}
}

func TestRollback(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("victim/file.bin", 50)
	victim := filepath.Join(f.RootDir, "victim")

	store := testutil.OpenStore(t)
	trash := NewDirTrash(filepath.Join(f.RootDir, "trash"))
	ex := NewExecutor(store, trash, progress.NewReporter(), testutil.Logger())
	ctx := context.Background()

	prior, err := ex.Execute(ctx, approvedDecision(victim))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rollback, err := ex.Rollback(ctx, prior)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rollback.Action != catalog.ActionRollback || !rollback.Success {
		t.Errorf("unexpected rollback entry: %+v", rollback)
	}
	if rollback.ID == prior.ID {
		t.Error("rollback reused the prior entry id")
	}
	if _, err := os.Stat(filepath.Join(victim, "file.bin")); err != nil {
		t.Errorf("content not restored: %v", err)
	}

	// The prior entry is never mutated; the history grows instead.
	stored, err := store.CleanupEntryByID(ctx, prior.ID)
	if err != nil {
		t.Fatalf("CleanupEntryByID: %v", err)
	}
	if stored == nil || !stored.Success || stored.Action != catalog.ActionTrash {
		t.Errorf("prior entry mutated: %+v", stored)
	}
	history, err := store.CleanupHistory(ctx, 10)
	if err != nil {
		t.Fatalf("CleanupHistory: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("got %d history entries, want 2", len(history))
	}
}

func TestRollbackRequiresRestorableTrashEntry(t *testing.T) {
	f := testutil.NewFixture(t)
	store := testutil.OpenStore(t)
	ex := NewExecutor(store, NewDirTrash(filepath.Join(f.RootDir, "trash")), progress.NewReporter(), testutil.Logger())
	ctx := context.Background()

	failed := &catalog.CleanupEntry{
		ID:     "failed",
		Path:   "/gone",
		Action: catalog.ActionTrash,
	}
	if _, err := ex.Rollback(ctx, failed); err == nil {
		t.Error("expected error rolling back a failed entry")
	}

	rb := &catalog.CleanupEntry{
		ID:         "rb",
		Path:       "/gone",
		Action:     catalog.ActionRollback,
		Success:    true,
		Restorable: true,
	}
	if _, err := ex.Rollback(ctx, rb); err == nil {
		t.Error("expected error rolling back a rollback entry")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorReason
	}{
		{os.ErrNotExist, ErrorFileNotFound},
		{os.ErrPermission, ErrorPermissionDenied},
		{os.ErrExist, ErrorTargetExists},
	}
	for _, tt := range tests {
		err := CategorizeError("/x", tt.err)
		var moveErr *MoveError
		if !errors.As(err, &moveErr) {
			t.Fatalf("CategorizeError returned %T", err)
		}
		if moveErr.Reason != tt.want {
			t.Errorf("Reason = %s, want %s", moveErr.Reason, tt.want)
		}
		if !errors.Is(err, tt.err) {
			t.Errorf("original error not wrapped for %v", tt.err)
		}
	}
}
