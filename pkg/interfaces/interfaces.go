package interfaces

import (
	"context"
	"time"

	"github.com/haytac/tocstrip/internal/database"
	"github.com/haytac/tocstrip/internal/toc"
)

// PageReport describes the outcome of one pass over one page.
type PageReport struct {
	Path    string
	Result  toc.Result
	Changed bool // at least one label was rewritten
	Written bool // the page on disk was replaced
	Skipped bool // the ledger already holds this exact page
}

// Summary aggregates the reports of a tree pass.
type Summary struct {
	Pages   int
	Changed int
	Written int
	Skipped int
	Failed  int
	Result  toc.Result
}

// Add folds a page report into the summary.
func (s *Summary) Add(rep PageReport) {
	s.Pages++
	s.Result.Add(rep.Result)
	if rep.Changed {
		s.Changed++
	}
	if rep.Written {
		s.Written++
	}
	if rep.Skipped {
		s.Skipped++
	}
}

// Merge folds another summary into s.
func (s *Summary) Merge(o Summary) {
	s.Pages += o.Pages
	s.Changed += o.Changed
	s.Written += o.Written
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Result.Add(o.Result)
}

// Job is a periodic rescan of one site root.
type Job struct {
	Name     string
	Root     string
	Interval time.Duration
	LastRun  *time.Time
}

// PageLedger remembers the digest of every page after its last pass so
// unchanged pages can be skipped.
type PageLedger interface {
	// LastDigest returns "" when the page has never been recorded.
	LastDigest(ctx context.Context, path string) (string, error)
	Record(ctx context.Context, rec *database.PageRecord) error
}

// SiteProcessor runs sanitizing passes over pages on disk.
type SiteProcessor interface {
	ProcessFile(ctx context.Context, path string) (PageReport, error)
	ProcessTree(ctx context.Context, root string) (Summary, error)
}

// Scheduler manages periodic rescans.
type Scheduler interface {
	Add(job *Job, task func(ctx context.Context, j *Job)) error
	Start(ctx context.Context)
	Stop()
}
