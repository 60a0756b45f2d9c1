package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/xsltmap/internal/document"
)

// LatestMapping returns the most recent snapshot of name.
// Returns ErrNotFound if nothing was saved under name.
func (s *Store) LatestMapping(ctx context.Context, name string) (Snapshot, error) {
	snap := Snapshot{Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, content_hash, xslt FROM mappings
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name).Scan(&snap.Seq, &snap.ContentHash, &snap.XSLT)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("mapping %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query latest mapping: %w", err)
	}
	return snap, nil
}

// MappingHistory returns every snapshot of name, oldest first.
//
// Returns an empty slice (not nil) if nothing was saved under name.
func (s *Store) MappingHistory(ctx context.Context, name string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, content_hash, xslt FROM mappings
		WHERE name = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query mapping history: %w", err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		snap := Snapshot{Name: name}
		if err := rows.Scan(&snap.Seq, &snap.ContentHash, &snap.XSLT); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}
	return history, nil
}

// LoadDefinition returns the stored definition of the document with the
// given identity. Returns ErrNotFound if none was saved.
func (s *Store) LoadDefinition(ctx context.Context, documentType document.Type, documentID string) (*document.Definition, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT definition FROM documents
		WHERE document_type = ? AND document_id = ?
	`, string(documentType), documentID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s:%s: %w", documentType, documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query definition: %w", err)
	}

	def, err := document.ParseDefinition([]byte(data), document.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("decode definition %s:%s: %w", documentType, documentID, err)
	}
	return def, nil
}
