package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/xsltmap/internal/document"
)

// DomainMapping prefixes the content hash of a mapping snapshot.
// Version suffix enables future algorithm migration.
const DomainMapping = "xsltmap/mapping/v1"

// Snapshot is one saved version of a named mapping.
type Snapshot struct {
	Name        string `json:"name"`
	Seq         int64  `json:"seq"`
	ContentHash string `json:"content_hash"`
	XSLT        string `json:"-"`
}

// ContentHash computes the content address of a stylesheet.
// Format: SHA256(domain + 0x00 + data)
func ContentHash(xslt string) string {
	h := sha256.New()
	h.Write([]byte(DomainMapping))
	h.Write([]byte{0x00})
	h.Write([]byte(xslt))
	return hex.EncodeToString(h.Sum(nil))
}

// SaveMapping appends xslt to the history of name and returns the snapshot.
// When xslt matches the latest snapshot nothing is written and that snapshot
// is returned with inserted=false.
func (s *Store) SaveMapping(ctx context.Context, name, xslt string) (snap Snapshot, inserted bool, err error) {
	if name == "" {
		return Snapshot{}, false, errors.New("save mapping: empty name")
	}
	hash := ContentHash(xslt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save mapping: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var latestSeq int64
	var latestHash string
	err = tx.QueryRowContext(ctx, `
		SELECT seq, content_hash FROM mappings
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name).Scan(&latestSeq, &latestHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Snapshot{}, false, fmt.Errorf("save mapping: query latest: %w", err)
	case latestHash == hash:
		return Snapshot{Name: name, Seq: latestSeq, ContentHash: hash, XSLT: xslt}, false, nil
	}

	snap = Snapshot{Name: name, Seq: latestSeq + 1, ContentHash: hash, XSLT: xslt}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO mappings (name, seq, content_hash, xslt)
		VALUES (?, ?, ?, ?)
	`, snap.Name, snap.Seq, snap.ContentHash, snap.XSLT)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save mapping: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, false, fmt.Errorf("save mapping: commit: %w", err)
	}
	return snap, true, nil
}

// SaveDefinition stores the definition of doc, replacing any previous one
// with the same identity.
func (s *Store) SaveDefinition(ctx context.Context, doc document.Document) error {
	data, err := yaml.Marshal(document.DefinitionOf(doc))
	if err != nil {
		return fmt.Errorf("save definition: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (document_type, document_id, definition)
		VALUES (?, ?, ?)
		ON CONFLICT(document_type, document_id) DO UPDATE SET definition = excluded.definition
	`, string(doc.DocumentType()), doc.DocumentID(), string(data))
	if err != nil {
		return fmt.Errorf("save definition: %w", err)
	}
	return nil
}
