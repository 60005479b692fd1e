package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/service"
)

// putDocument inserts or replaces a document and notifies watchers.
func (s *SQLiteStorage) putDocument(ctx context.Context, scope service.Scope, col service.Collection, id string, doc any) error {
	if err := validateDocument(ctx, scope, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", col, id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (namespace, user_id, collection, doc_id, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, user_id, collection, doc_id) DO UPDATE SET data = excluded.data
	`, scope.Namespace, scope.UserID, string(col), id, string(data))
	if err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", col, id, err)
	}

	s.feed.publish(service.Change{Scope: scope, Collection: col})
	return nil
}

// createDocument inserts a document only when its ID is free. It reports whether
// the document was written; an existing document is left untouched.
func (s *SQLiteStorage) createDocument(ctx context.Context, scope service.Scope, col service.Collection, id string, doc any) (bool, error) {
	if err := validateDocument(ctx, scope, id); err != nil {
		return false, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s/%s: %w", col, id, err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO documents (namespace, user_id, collection, doc_id, data)
		VALUES (?, ?, ?, ?, ?)
	`, scope.Namespace, scope.UserID, string(col), id, string(data))
	if err != nil {
		return false, fmt.Errorf("failed to create %s/%s: %w", col, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert of %s/%s: %w", col, id, err)
	}
	if affected == 0 {
		return false, nil
	}

	s.feed.publish(service.Change{Scope: scope, Collection: col})
	return true, nil
}

// getDocument decodes a single document into out.
func (s *SQLiteStorage) getDocument(ctx context.Context, scope service.Scope, col service.Collection, id string, out any) error {
	if err := validateDocument(ctx, scope, id); err != nil {
		return err
	}

	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM documents
		WHERE namespace = ? AND user_id = ? AND collection = ? AND doc_id = ?
	`, scope.Namespace, scope.UserID, string(col), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", col, id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %w", common.ErrRead, col, id, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("%w: failed to decode %s/%s: %w", common.ErrRead, col, id, err)
	}
	return nil
}

// deleteDocument removes a document. Deleting a missing document returns ErrNotFound.
func (s *SQLiteStorage) deleteDocument(ctx context.Context, scope service.Scope, col service.Collection, id string) error {
	if err := validateDocument(ctx, scope, id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE namespace = ? AND user_id = ? AND collection = ? AND doc_id = ?
	`, scope.Namespace, scope.UserID, string(col), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", col, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of %s/%s: %w", col, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s/%s: %w", col, id, common.ErrNotFound)
	}

	s.feed.publish(service.Change{Scope: scope, Collection: col})
	return nil
}

// listDocuments decodes every document of a collection in insertion order.
func listDocuments[T any](ctx context.Context, s *SQLiteStorage, scope service.Scope, col service.Collection) ([]T, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, data FROM documents
		WHERE namespace = ? AND user_id = ? AND collection = ?
		ORDER BY rowid
	`, scope.Namespace, scope.UserID, string(col))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query %s: %w", common.ErrRead, col, err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]T, 0)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("%w: failed to scan %s: %w", common.ErrRead, col, err)
		}
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s/%s: %w", common.ErrRead, col, id, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate %s: %w", common.ErrRead, col, err)
	}
	return docs, nil
}
