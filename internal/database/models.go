package database

import "time"

// PageRecord is the ledger entry of one page after its most recent pass.
type PageRecord struct {
	Path        string    `db:"path"`
	Digest      string    `db:"digest"` // sha256 of the page bytes on disk after the pass
	Links       int       `db:"links"`
	Rewritten   int       `db:"rewritten"`
	ProcessedAt time.Time `db:"processed_at"`
}
