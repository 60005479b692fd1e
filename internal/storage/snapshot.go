package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Snapshot errors.
var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrSnapshotCorrupted = errors.New("snapshot integrity check failed")
	ErrSnapshotExists    = errors.New("snapshot already exists")
	ErrInvalidSnapshotID = errors.New("invalid snapshot ID")
)

// maxAutoSnapshots is how many automatic snapshots are kept.
const maxAutoSnapshots = 5

// SnapshotInfo describes one saved copy of the database.
type SnapshotInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	Documents     map[string]int `json:"documents"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Total is the number of documents in the snapshot.
func (i SnapshotInfo) Total() int {
	n := 0
	for _, c := range i.Documents {
		n += c
	}
	return n
}

// Snapshots saves and restores whole-database copies next to the database
// file, in a "snapshots" directory.
type Snapshots struct {
	store *SQLiteStorage
	dir   string
}

// Snapshots returns the snapshot manager of an on-disk store.
func (s *SQLiteStorage) Snapshots() (*Snapshots, error) {
	if s.dbPath == ":memory:" {
		return nil, fmt.Errorf("snapshots need an on-disk database")
	}
	path, err := filepath.Abs(s.dbPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(filepath.Dir(path), "snapshots")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}
	return &Snapshots{store: s, dir: dir}, nil
}

// Create copies the database under id. An empty id is generated from the time.
func (m *Snapshots) Create(ctx context.Context, id, description string) (*SnapshotInfo, error) {
	return m.create(ctx, id, description, false)
}

// Auto takes an automatic snapshot before an operation named reason and prunes
// the oldest automatic ones.
func (m *Snapshots) Auto(ctx context.Context, reason string) (*SnapshotInfo, error) {
	id := fmt.Sprintf("auto-%s-%s", reason, time.Now().Format("20060102-150405.000000"))
	info, err := m.create(ctx, id, "Automatic snapshot before "+reason, true)
	if err != nil {
		return nil, fmt.Errorf("failed to take automatic snapshot: %w", err)
	}
	if err := m.pruneAuto(ctx); err != nil {
		slog.Warn("Failed to prune automatic snapshots", "error", err)
	}
	return info, nil
}

func (m *Snapshots) create(ctx context.Context, id, description string, auto bool) (*SnapshotInfo, error) {
	if id == "" {
		id = "snapshot-" + time.Now().Format("20060102-150405")
	}
	if err := validateSnapshotID(id); err != nil {
		return nil, err
	}

	dbFile := m.path(id, ".db")
	if _, err := os.Stat(dbFile); err == nil {
		return nil, ErrSnapshotExists
	}

	version, err := m.store.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := m.countDocuments(ctx)
	if err != nil {
		return nil, err
	}

	// VACUUM INTO writes a consistent copy even while the WAL holds changes.
	if _, err := m.store.db.ExecContext(ctx, "VACUUM INTO ?", dbFile); err != nil {
		return nil, fmt.Errorf("failed to copy database: %w", err)
	}
	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	info := &SnapshotInfo{
		ID:            id,
		CreatedAt:     time.Now(),
		Description:   description,
		FileSize:      stat.Size(),
		Documents:     counts,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := writeJSONFile(m.path(id, ".meta.json"), info); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("Failed to remove snapshot after metadata error", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save snapshot metadata: %w", err)
	}

	slog.Info("Created snapshot", "id", id, "documents", info.Total())
	return info, nil
}

// List returns every snapshot, newest first. Snapshots with unreadable
// metadata are skipped.
func (m *Snapshots) List(_ context.Context) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	var out []SnapshotInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readSnapshotInfo(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		out = append(out, *info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Restore replaces the database with snapshot id. The store is closed
// afterwards and must be reopened.
func (m *Snapshots) Restore(_ context.Context, id string) error {
	if err := validateSnapshotID(id); err != nil {
		return err
	}
	dbFile := m.path(id, ".db")
	if _, err := os.Stat(dbFile); err != nil {
		if os.IsNotExist(err) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("failed to access snapshot: %w", err)
	}
	if err := verifyIntegrity(dbFile); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotCorrupted, err)
	}

	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	target := m.store.dbPath
	backup := target + ".restore-backup"
	if err := copyFile(target, backup); err != nil {
		return fmt.Errorf("failed to back up current database: %w", err)
	}
	if err := copyFile(dbFile, target); err != nil {
		if restoreErr := copyFile(backup, target); restoreErr != nil {
			slog.Error("Failed to put the database back after a failed restore", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	// Stale WAL files from the replaced database must not be replayed.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(target + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove journal file", "file", target+suffix, "error", err)
		}
	}
	if err := os.Remove(backup); err != nil {
		slog.Warn("Failed to remove restore backup", "error", err)
	}

	slog.Info("Restored snapshot", "id", id)
	return nil
}

// Delete removes snapshot id.
func (m *Snapshots) Delete(_ context.Context, id string) error {
	if err := validateSnapshotID(id); err != nil {
		return err
	}
	if err := os.Remove(m.path(id, ".db")); err != nil {
		if os.IsNotExist(err) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	if err := os.Remove(m.path(id, ".meta.json")); err != nil && !os.IsNotExist(err) {
		slog.Debug("Failed to remove snapshot metadata", "id", id, "error", err)
	}
	return nil
}

func (m *Snapshots) pruneAuto(ctx context.Context) error {
	snapshots, err := m.List(ctx)
	if err != nil {
		return err
	}
	kept := 0
	for _, s := range snapshots {
		if !s.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoSnapshots {
			if err := m.Delete(ctx, s.ID); err != nil {
				slog.Debug("Failed to delete old snapshot", "id", s.ID, "error", err)
			}
		}
	}
	return nil
}

func (m *Snapshots) countDocuments(ctx context.Context) (map[string]int, error) {
	rows, err := m.store.db.QueryContext(ctx, "SELECT collection, COUNT(*) FROM documents GROUP BY collection")
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			collection string
			n          int
		)
		if err := rows.Scan(&collection, &n); err != nil {
			return nil, fmt.Errorf("failed to count documents: %w", err)
		}
		counts[collection] = n
	}
	return counts, rows.Err()
}

func (m *Snapshots) path(id, ext string) string {
	return filepath.Join(m.dir, id+ext)
}

func validateSnapshotID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	return nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// copyFile writes src to dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer source.Close()

	tmp := dst + ".tmp"
	destination, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSnapshotInfo(path string) (*SnapshotInfo, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var info SnapshotInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
