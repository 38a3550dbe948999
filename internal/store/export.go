package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/ir"
)

// ExportRecord is a saved workout document.
type ExportRecord struct {
	ID         int64     `json:"id"`
	ScriptHash string    `json:"script_hash"`
	Document   string    `json:"document"`
	Keys       int       `json:"keys"`
	CreatedAt  time.Time `json:"created_at"`
}

// Export stores the document a save produces. It satisfies
// engine.Exporter.
func (s *Store) Export(ctx context.Context, source string, history []string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exports (script_hash, document, keys, created_at)
		VALUES (?, ?, ?, ?)
	`, ir.ScriptHash(source), engine.ExportDocument(source, history), len(history), s.timestamp())
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// Exports returns saved documents for a script hash, oldest first. An empty
// hash returns every export.
func (s *Store) Exports(ctx context.Context, scriptHash string) ([]ExportRecord, error) {
	query := `SELECT id, script_hash, document, keys, created_at FROM exports`
	var args []any
	if scriptHash != "" {
		query += ` WHERE script_hash = ?`
		args = append(args, scriptHash)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var (
			rec     ExportRecord
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.ScriptHash, &rec.Document, &rec.Keys, &created); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}

var _ engine.Exporter = (*Store)(nil)
