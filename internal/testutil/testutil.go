// Package testutil provides test helpers and fixtures for macsweep tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"crypto/rand"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/classify"
	"github.com/vmks/macsweep/internal/config"
)

// TestFixture holds paths to a standard test tree: a project with
// node_modules and .git, plus cache and log directories.
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)

	ProjectDir  string
	NodeModules string
	GitDir      string
	CacheDir    string
	LogsDir     string
}

// NewFixture creates a new test fixture with the standard directory tree
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	root := t.TempDir()

	f := &TestFixture{
		T:           t,
		RootDir:     root,
		ProjectDir:  filepath.Join(root, "project"),
		NodeModules: filepath.Join(root, "project", "node_modules"),
		GitDir:      filepath.Join(root, "project", ".git"),
		CacheDir:    filepath.Join(root, "cache"),
		LogsDir:     filepath.Join(root, "logs"),
	}

	for _, dir := range []string{f.NodeModules, f.GitDir, f.CacheDir, f.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	return f
}

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSizedFile creates a file of the given size filled with zeros
func (f *TestFixture) CreateSizedFile(relPath string, size int) string {
	f.T.Helper()
	return f.CreateFile(relPath, make([]byte, size))
}

// CreateRandomFile creates a file with random content
func (f *TestFixture) CreateRandomFile(relPath string, size int) string {
	f.T.Helper()
	content := make([]byte, size)
	rand.Read(content)
	return f.CreateFile(relPath, content)
}

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}
	return fullPath
}

// OpenStore opens an in-memory catalog store, closed when the test ends
func OpenStore(t *testing.T) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// DefaultClassifier builds a classifier from the default category table
func DefaultClassifier() *classify.Classifier {
	return classify.New(config.DefaultCategories())
}

// Logger returns a logger that discards everything
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
