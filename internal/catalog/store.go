// Package catalog is the persistent relational store behind the scanner,
// analyzer and cleanup executor. It holds scans, directory and file records,
// categories, exclusion rules, cleanup history and growth samples in SQLite.
// Pure data layer; no business logic lives here.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vmks/macsweep/internal/catalog/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// WriteError reports a failed batch write, including the path that was being
// written when the transaction failed. The whole batch is rolled back.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("catalog write failed at %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store wraps a SQLite connection holding the full catalog.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the catalog at path and migrates it to the latest
// schema. path may be ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// An in-memory database exists per connection; without this, each pooled
	// connection would see its own empty catalog.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// SQLite defaults foreign keys to OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path (or ":memory:").
func (s *Store) Path() string { return s.path }

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Scan lifecycle

// CreateScan inserts a new scan row in the running state.
func (s *Store) CreateScan(ctx context.Context, scan *Scan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, root_path, kind, status, started_at, exclusions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.RootPath, string(scan.Kind), string(StatusRunning),
		scan.StartedAt, joinLines(scan.Exclusions))
	if err != nil {
		return fmt.Errorf("creating scan: %w", err)
	}
	return nil
}

// FinalizeScan writes the scan's aggregate totals, root fingerprint, duration
// and terminal status. Called exactly once, after the walk completes or is
// interrupted.
func (s *Store) FinalizeScan(ctx context.Context, scan *Scan) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scans
		SET status = ?, duration_ms = ?, file_count = ?, dir_count = ?,
		    total_size = ?, root_fingerprint = ?
		WHERE id = ?`,
		string(scan.Status), scan.Duration.Milliseconds(), scan.FileCount,
		scan.DirCount, scan.TotalSize, scan.RootFingerprint, scan.ID)
	if err != nil {
		return fmt.Errorf("finalizing scan %s: %w", scan.ID, err)
	}
	return nil
}

// GetScan returns the scan with the given id, or nil if it does not exist.
func (s *Store) GetScan(ctx context.Context, id string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, root_path, kind, status, started_at, duration_ms,
		       file_count, dir_count, total_size, root_fingerprint, exclusions
		FROM scans WHERE id = ?`, id)
	return scanScanRow(row)
}

// LatestScan returns the most recently started scan for root, or nil.
func (s *Store) LatestScan(ctx context.Context, root string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, root_path, kind, status, started_at, duration_ms,
		       file_count, dir_count, total_size, root_fingerprint, exclusions
		FROM scans
		WHERE root_path = ?
		ORDER BY started_at DESC
		LIMIT 1`, root)
	return scanScanRow(row)
}

// ListScans returns up to limit scans, newest first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]*Scan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root_path, kind, status, started_at, duration_ms,
		       file_count, dir_count, total_size, root_fingerprint, exclusions
		FROM scans
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		sc, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

// DeleteScan removes a scan; directory, file and growth rows cascade.
func (s *Store) DeleteScan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting scan %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScanRow(row rowScanner) (*Scan, error) {
	var sc Scan
	var kind, status, exclusions string
	var durationMS int64
	err := row.Scan(&sc.ID, &sc.RootPath, &kind, &status, &sc.StartedAt,
		&durationMS, &sc.FileCount, &sc.DirCount, &sc.TotalSize,
		&sc.RootFingerprint, &exclusions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading scan row: %w", err)
	}
	sc.Kind = ScanKind(kind)
	sc.Status = ScanStatus(status)
	sc.Exclusions = splitLines(exclusions)
	return &sc, nil
}

// Batch writes

// WriteScanBatch writes one scan's worth of directory records, file records
// and growth samples in a single transaction. A failure anywhere rolls back
// the entire batch and reports the path being written, leaving the store
// exactly as it was before.
func (s *Store) WriteScanBatch(ctx context.Context, dirs []DirectoryRecord, files []FileRecord, samples []GrowthSample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting batch transaction: %w", err)
	}
	defer tx.Rollback()

	dirStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO directories (scan_id, path, parent_path, name, size_bytes,
			file_count, subdir_count, modified_at, scanned_at, fingerprint,
			category, deletable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing directory insert: %w", err)
	}
	defer dirStmt.Close()

	for i := range dirs {
		d := &dirs[i]
		_, err := dirStmt.ExecContext(ctx, d.ScanID, d.Path, d.ParentPath,
			d.Name, d.SizeBytes, d.FileCount, d.SubdirCount, d.ModTime,
			d.ScannedAt, d.Fingerprint, nullIfEmpty(d.Category), d.Deletable)
		if err != nil {
			return &WriteError{Path: d.Path, Err: err}
		}
	}

	fileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (scan_id, path, parent_path, name, extension,
			size_bytes, modified_at, content_hash, is_large, is_duplicate,
			category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing file insert: %w", err)
	}
	defer fileStmt.Close()

	for i := range files {
		f := &files[i]
		_, err := fileStmt.ExecContext(ctx, f.ScanID, f.Path, f.ParentPath,
			f.Name, f.Extension, f.SizeBytes, f.ModTime, f.ContentHash,
			f.IsLarge, f.IsDuplicate, nullIfEmpty(f.Category))
		if err != nil {
			return &WriteError{Path: f.Path, Err: err}
		}
	}

	sampleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO growth_samples (scan_id, path, category, size_bytes, sampled_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing growth sample insert: %w", err)
	}
	defer sampleStmt.Close()

	for i := range samples {
		g := &samples[i]
		_, err := sampleStmt.ExecContext(ctx, g.ScanID, g.Path, g.Category,
			g.SizeBytes, g.SampledAt)
		if err != nil {
			return &WriteError{Path: g.Path, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Directory and file queries

// DirectoriesByScan returns every directory record of a scan keyed by path.
func (s *Store) DirectoriesByScan(ctx context.Context, scanID string) (map[string]*DirectoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, path, parent_path, name, size_bytes, file_count,
		       subdir_count, modified_at, scanned_at, fingerprint,
		       COALESCE(category, ''), deletable
		FROM directories WHERE scan_id = ?`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying directories for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	dirs := make(map[string]*DirectoryRecord)
	for rows.Next() {
		var d DirectoryRecord
		if err := rows.Scan(&d.ScanID, &d.Path, &d.ParentPath, &d.Name,
			&d.SizeBytes, &d.FileCount, &d.SubdirCount, &d.ModTime,
			&d.ScannedAt, &d.Fingerprint, &d.Category, &d.Deletable); err != nil {
			return nil, fmt.Errorf("reading directory row: %w", err)
		}
		dirs[d.Path] = &d
	}
	return dirs, rows.Err()
}

// FilesByScan returns every file record of a scan.
func (s *Store) FilesByScan(ctx context.Context, scanID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, path, parent_path, name, extension, size_bytes,
		       modified_at, content_hash, is_large, is_duplicate,
		       COALESCE(category, '')
		FROM files WHERE scan_id = ?`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying files for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ScanID, &f.Path, &f.ParentPath, &f.Name,
			&f.Extension, &f.SizeBytes, &f.ModTime, &f.ContentHash,
			&f.IsLarge, &f.IsDuplicate, &f.Category); err != nil {
			return nil, fmt.Errorf("reading file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FilesUnder returns the file records of a scan whose path lies under prefix.
func (s *Store) FilesUnder(ctx context.Context, scanID, prefix string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, path, parent_path, name, extension, size_bytes,
		       modified_at, content_hash, is_large, is_duplicate,
		       COALESCE(category, '')
		FROM files
		WHERE scan_id = ? AND (path = ? OR path LIKE ?)`,
		scanID, prefix, prefix+"/%")
	if err != nil {
		return nil, fmt.Errorf("querying files under %s: %w", prefix, err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ScanID, &f.Path, &f.ParentPath, &f.Name,
			&f.Extension, &f.SizeBytes, &f.ModTime, &f.ContentHash,
			&f.IsLarge, &f.IsDuplicate, &f.Category); err != nil {
			return nil, fmt.Errorf("reading file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DirectoryByPath returns one directory record, or nil if absent.
func (s *Store) DirectoryByPath(ctx context.Context, scanID, path string) (*DirectoryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT scan_id, path, parent_path, name, size_bytes, file_count,
		       subdir_count, modified_at, scanned_at, fingerprint,
		       COALESCE(category, ''), deletable
		FROM directories WHERE scan_id = ? AND path = ?`, scanID, path)

	var d DirectoryRecord
	err := row.Scan(&d.ScanID, &d.Path, &d.ParentPath, &d.Name, &d.SizeBytes,
		&d.FileCount, &d.SubdirCount, &d.ModTime, &d.ScannedAt,
		&d.Fingerprint, &d.Category, &d.Deletable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding directory %s: %w", path, err)
	}
	return &d, nil
}

// LargestDirectories returns the n largest directories of a scan.
func (s *Store) LargestDirectories(ctx context.Context, scanID string, n int) ([]DirectoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, path, parent_path, name, size_bytes, file_count,
		       subdir_count, modified_at, scanned_at, fingerprint,
		       COALESCE(category, ''), deletable
		FROM directories
		WHERE scan_id = ?
		ORDER BY size_bytes DESC
		LIMIT ?`, scanID, n)
	if err != nil {
		return nil, fmt.Errorf("querying largest directories: %w", err)
	}
	defer rows.Close()

	var dirs []DirectoryRecord
	for rows.Next() {
		var d DirectoryRecord
		if err := rows.Scan(&d.ScanID, &d.Path, &d.ParentPath, &d.Name,
			&d.SizeBytes, &d.FileCount, &d.SubdirCount, &d.ModTime,
			&d.ScannedAt, &d.Fingerprint, &d.Category, &d.Deletable); err != nil {
			return nil, fmt.Errorf("reading directory row: %w", err)
		}
		dirs = append(dirs, d)
	}
	return dirs, rows.Err()
}

// DeletableSizeByCategory aggregates deletable directory bytes per category
// for one scan, largest first.
func (s *Store) DeletableSizeByCategory(ctx context.Context, scanID string) ([]CategoryUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.category, COALESCE(c.priority, 0),
		       SUM(d.size_bytes), COUNT(*)
		FROM directories d
		LEFT JOIN categories c ON c.name = d.category
		WHERE d.scan_id = ? AND d.deletable = 1 AND d.category IS NOT NULL
		GROUP BY d.category
		ORDER BY SUM(d.size_bytes) DESC`, scanID)
	if err != nil {
		return nil, fmt.Errorf("aggregating deletable size by category: %w", err)
	}
	defer rows.Close()

	var usages []CategoryUsage
	for rows.Next() {
		var u CategoryUsage
		if err := rows.Scan(&u.Category, &u.Priority, &u.TotalBytes, &u.Count); err != nil {
			return nil, fmt.Errorf("reading category usage row: %w", err)
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// DuplicateCandidates returns the hashed file records of a scan whose content
// hash appears more than once, grouped for the analyzer.
func (s *Store) DuplicateCandidates(ctx context.Context, scanID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.scan_id, f.path, f.parent_path, f.name, f.extension,
		       f.size_bytes, f.modified_at, f.content_hash, f.is_large,
		       f.is_duplicate, COALESCE(f.category, '')
		FROM files f
		WHERE f.scan_id = ? AND f.content_hash != '' AND f.content_hash IN (
			SELECT content_hash FROM files
			WHERE scan_id = ? AND content_hash != ''
			GROUP BY content_hash
			HAVING COUNT(*) > 1
		)
		ORDER BY f.content_hash, f.size_bytes DESC`, scanID, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying duplicate candidates: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ScanID, &f.Path, &f.ParentPath, &f.Name,
			&f.Extension, &f.SizeBytes, &f.ModTime, &f.ContentHash,
			&f.IsLarge, &f.IsDuplicate, &f.Category); err != nil {
			return nil, fmt.Errorf("reading duplicate row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GrowthSamples returns up to k samples for a path, oldest first.
func (s *Store) GrowthSamples(ctx context.Context, path string, k int) ([]GrowthSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, path, category, size_bytes, sampled_at
		FROM (
			SELECT scan_id, path, category, size_bytes, sampled_at
			FROM growth_samples
			WHERE path = ?
			ORDER BY sampled_at DESC
			LIMIT ?
		)
		ORDER BY sampled_at ASC`, path, k)
	if err != nil {
		return nil, fmt.Errorf("querying growth samples for %s: %w", path, err)
	}
	defer rows.Close()

	var samples []GrowthSample
	for rows.Next() {
		var g GrowthSample
		if err := rows.Scan(&g.ScanID, &g.Path, &g.Category, &g.SizeBytes, &g.SampledAt); err != nil {
			return nil, fmt.Errorf("reading growth sample row: %w", err)
		}
		samples = append(samples, g)
	}
	return samples, rows.Err()
}

// Categories and exclusions

// ReplaceCategories swaps the full category table for the given set in a
// single transaction. Categories are global configuration, not per-scan data.
func (s *Store) ReplaceCategories(ctx context.Context, cats []Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting category transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clearing categories: %w", err)
	}

	for _, c := range cats {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, description, patterns, deletable,
				restoration_hint, priority)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.Name, c.Description, joinLines(c.Patterns), c.Deletable,
			c.RestorationHint, c.Priority)
		if err != nil {
			return fmt.Errorf("inserting category %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing categories: %w", err)
	}
	return nil
}

// Categories returns all categories ordered by priority descending then name.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, patterns, deletable, restoration_hint, priority
		FROM categories
		ORDER BY priority DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		var patterns string
		if err := rows.Scan(&c.Name, &c.Description, &patterns, &c.Deletable,
			&c.RestorationHint, &c.Priority); err != nil {
			return nil, fmt.Errorf("reading category row: %w", err)
		}
		c.Patterns = splitLines(patterns)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryByName returns one category, or nil if absent.
func (s *Store) CategoryByName(ctx context.Context, name string) (*Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, description, patterns, deletable, restoration_hint, priority
		FROM categories WHERE name = ?`, name)

	var c Category
	var patterns string
	err := row.Scan(&c.Name, &c.Description, &patterns, &c.Deletable,
		&c.RestorationHint, &c.Priority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding category %s: %w", name, err)
	}
	c.Patterns = splitLines(patterns)
	return &c, nil
}

// ReplaceExclusions swaps the exclusion table for the given set.
func (s *Store) ReplaceExclusions(ctx context.Context, rules []ExclusionRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting exclusion transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM exclusions`); err != nil {
		return fmt.Errorf("clearing exclusions: %w", err)
	}

	for _, r := range rules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exclusions (pattern, reason, active) VALUES (?, ?, ?)`,
			r.Pattern, r.Reason, r.Active)
		if err != nil {
			return fmt.Errorf("inserting exclusion %s: %w", r.Pattern, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing exclusions: %w", err)
	}
	return nil
}

// Exclusions returns all exclusion rules.
func (s *Store) Exclusions(ctx context.Context) ([]ExclusionRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, reason, active FROM exclusions ORDER BY pattern`)
	if err != nil {
		return nil, fmt.Errorf("querying exclusions: %w", err)
	}
	defer rows.Close()

	var rules []ExclusionRule
	for rows.Next() {
		var r ExclusionRule
		if err := rows.Scan(&r.Pattern, &r.Reason, &r.Active); err != nil {
			return nil, fmt.Errorf("reading exclusion row: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// Cleanup history

// AppendCleanupEntry inserts one audit row. Always a single-row atomic
// append, never batched with other writes, so the record is durable
// independent of any unrelated transaction.
func (s *Store) AppendCleanupEntry(ctx context.Context, e *CleanupEntry) error {
	var errMsg any
	if e.ErrorMessage != "" {
		errMsg = e.ErrorMessage
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cleanup_history (id, created_at, path, size_bytes,
			category, action, success, error_message, trash_path, restorable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt, e.Path, e.SizeBytes, e.Category, string(e.Action),
		e.Success, errMsg, e.TrashPath, e.Restorable)
	if err != nil {
		return fmt.Errorf("appending cleanup entry for %s: %w", e.Path, err)
	}
	return nil
}

// CleanupHistory returns up to limit entries, newest first.
func (s *Store) CleanupHistory(ctx context.Context, limit int) ([]CleanupEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, path, size_bytes, category, action, success,
		       COALESCE(error_message, ''), trash_path, restorable
		FROM cleanup_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cleanup history: %w", err)
	}
	defer rows.Close()

	var entries []CleanupEntry
	for rows.Next() {
		var e CleanupEntry
		var action string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Path, &e.SizeBytes,
			&e.Category, &action, &e.Success, &e.ErrorMessage, &e.TrashPath,
			&e.Restorable); err != nil {
			return nil, fmt.Errorf("reading cleanup history row: %w", err)
		}
		e.Action = CleanupAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CleanupEntryByID returns one history entry, or nil if absent.
func (s *Store) CleanupEntryByID(ctx context.Context, id string) (*CleanupEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, path, size_bytes, category, action, success,
		       COALESCE(error_message, ''), trash_path, restorable
		FROM cleanup_history WHERE id = ?`, id)

	var e CleanupEntry
	var action string
	err := row.Scan(&e.ID, &e.CreatedAt, &e.Path, &e.SizeBytes, &e.Category,
		&action, &e.Success, &e.ErrorMessage, &e.TrashPath, &e.Restorable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding cleanup entry %s: %w", id, err)
	}
	e.Action = CleanupAction(action)
	return &e, nil
}
