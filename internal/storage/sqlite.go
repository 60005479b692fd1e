// Package storage provides the per-user document store backed by SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements service.Store using SQLite. Documents are laid out as
// users/{uid}/{collection}/{docID} within an application namespace.
type SQLiteStorage struct {
	db     *sql.DB
	feed   *changeFeed
	dbPath string
}

var _ service.Store = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (and creates if needed) the database at dbPath.
// Failures wrap common.ErrStoreInit.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreInit, err)
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %w", common.ErrStoreInit, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", common.ErrStoreInit, err)
	}

	// SQLite doesn't benefit from multiple connections, and :memory: needs exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", common.ErrStoreInit, err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		feed:   newChangeFeed(),
	}, nil
}

// Open creates the storage and applies pending migrations.
func Open(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrStoreInit, err)
	}
	return store, nil
}

// Close stops every watcher and closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.feed.closeAll()
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// User returns the store bound to one user's documents.
func (s *SQLiteStorage) User(namespace, userID string) service.UserStore {
	return &userStore{
		s:     s,
		scope: service.Scope{Namespace: namespace, UserID: userID},
	}
}

// Watch subscribes to change notifications for a scope.
func (s *SQLiteStorage) Watch(scope service.Scope) (<-chan service.Change, func()) {
	return s.feed.watch(scope)
}
