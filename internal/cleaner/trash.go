package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Trash abstracts "move a path to a recoverable location". Implementations
// must never permanently delete.
type Trash interface {
	// Move relocates path into the trash and returns the new location.
	Move(path string) (string, error)
	// Restore moves a trashed item back to its original path. It fails if
	// the original path exists or the trash item is gone.
	Restore(trashPath, originalPath string) error
}

// DirTrash moves targets into a single trash directory, uniquifying names
// with a timestamp so repeated cleanups of equally-named paths do not
// collide.
type DirTrash struct {
	dir string
	now func() time.Time
}

// NewDirTrash creates a DirTrash rooted at dir.
func NewDirTrash(dir string) *DirTrash {
	return &DirTrash{dir: dir, now: time.Now}
}

// Move implements Trash.
func (t *DirTrash) Move(path string) (string, error) {
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return "", fmt.Errorf("creating trash directory: %w", err)
	}

	dest := t.destName(filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Restore implements Trash.
func (t *DirTrash) Restore(trashPath, originalPath string) error {
	if _, err := os.Lstat(originalPath); err == nil {
		return fmt.Errorf("original path already exists: %s", originalPath)
	} else if !os.IsNotExist(err) {
		return err
	}

	if _, err := os.Lstat(trashPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("trash item is gone: %s", trashPath)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(originalPath), 0755); err != nil {
		return fmt.Errorf("recreating parent directory: %w", err)
	}

	return os.Rename(trashPath, originalPath)
}

// destName picks a collision-free destination inside the trash directory.
func (t *DirTrash) destName(base string) string {
	stamp := t.now().Format("20060102-150405")
	dest := filepath.Join(t.dir, fmt.Sprintf("%s.%s", base, stamp))
	for i := 1; ; i++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = filepath.Join(t.dir, fmt.Sprintf("%s.%s.%d", base, stamp, i))
	}
}
