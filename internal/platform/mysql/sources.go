package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
)

// CreateSource stores a new import source
func (s *Store) CreateSource(ctx context.Context, src *source.ImportSource) (*source.ImportSource, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_sources (source_id, name, provider, created_at) VALUES (?, ?, ?, ?)`,
		src.SourceID, src.Name, src.Provider, src.CreatedAt)
	if err != nil {
		return nil, translate(err, "insert import source", fmt.Sprintf("import source %s already exists", src.SourceID))
	}
	return src, nil
}

// GetSource retrieves an import source
func (s *Store) GetSource(ctx context.Context, sourceID string) (*source.ImportSource, error) {
	var src source.ImportSource
	err := s.db.QueryRowContext(ctx,
		`SELECT source_id, name, provider, created_at FROM import_sources WHERE source_id = ?`, sourceID).
		Scan(&src.SourceID, &src.Name, &src.Provider, &src.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("import source %s not found", sourceID))
	}
	if err != nil {
		return nil, storageError("get import source", err)
	}
	return &src, nil
}

// ListSources lists every import source by ID
func (s *Store) ListSources(ctx context.Context) ([]*source.ImportSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, name, provider, created_at FROM import_sources ORDER BY source_id`)
	if err != nil {
		return nil, storageError("list import sources", err)
	}
	defer rows.Close()

	sources := make([]*source.ImportSource, 0)
	for rows.Next() {
		var src source.ImportSource
		if err := rows.Scan(&src.SourceID, &src.Name, &src.Provider, &src.CreatedAt); err != nil {
			return nil, storageError("scan import source", err)
		}
		sources = append(sources, &src)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list import sources", err)
	}
	return sources, nil
}

// SourceExists reports whether an import source exists
func (s *Store) SourceExists(ctx context.Context, sourceID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM import_sources WHERE source_id = ?`, sourceID).Scan(&n)
	if err != nil {
		return false, storageError("check import source", err)
	}
	return n > 0, nil
}
