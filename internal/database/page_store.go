package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PageStore reads and writes the page ledger.
type PageStore struct {
	db *DB
}

// NewPageStore creates a new PageStore.
func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

// LastDigest returns the digest recorded for path, or "" if there is none.
func (s *PageStore) LastDigest(ctx context.Context, path string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM pages WHERE path = ?`, path).Scan(&digest)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("LastDigest scan: %w", err)
	}
	return digest, nil
}

// Record inserts or replaces the ledger entry of rec.Path.
func (s *PageStore) Record(ctx context.Context, rec *PageRecord) error {
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (path, digest, links, rewritten, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			digest = excluded.digest,
			links = excluded.links,
			rewritten = excluded.rewritten,
			processed_at = excluded.processed_at`,
		rec.Path, rec.Digest, rec.Links, rec.Rewritten, rec.ProcessedAt)
	if err != nil {
		return fmt.Errorf("Record exec: %w", err)
	}
	return nil
}

// GetPage returns the ledger entry of path, or nil if there is none.
func (s *PageStore) GetPage(ctx context.Context, path string) (*PageRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, digest, links, rewritten, processed_at FROM pages WHERE path = ?`, path)
	rec := &PageRecord{}
	if err := row.Scan(&rec.Path, &rec.Digest, &rec.Links, &rec.Rewritten, &rec.ProcessedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("GetPage scan: %w", err)
	}
	return rec, nil
}

// ListPages returns up to limit entries, most recently processed first.
// A non-positive limit returns every entry.
func (s *PageStore) ListPages(ctx context.Context, limit int) ([]*PageRecord, error) {
	query := `SELECT path, digest, links, rewritten, processed_at FROM pages ORDER BY processed_at DESC, path`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListPages query: %w", err)
	}
	defer rows.Close()

	var pages []*PageRecord
	for rows.Next() {
		rec := &PageRecord{}
		if err := rows.Scan(&rec.Path, &rec.Digest, &rec.Links, &rec.Rewritten, &rec.ProcessedAt); err != nil {
			return nil, fmt.Errorf("ListPages scan: %w", err)
		}
		pages = append(pages, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPages rows error: %w", err)
	}
	return pages, nil
}

// Forget removes the ledger entry of path so the next pass reprocesses it.
func (s *PageStore) Forget(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("Forget exec: %w", err)
	}
	return nil
}
