package site

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/haytac/tocstrip/internal/database"
	"github.com/haytac/tocstrip/internal/metrics"
	"github.com/haytac/tocstrip/internal/toc"
	"github.com/haytac/tocstrip/pkg/interfaces"
)

const defaultWorkers = 4

// Options tunes a Processor.
type Options struct {
	Selector string
	Workers  int
	DryRun   bool
	Audit    bool
}

// Processor runs TOC sanitizing passes over pages on disk.
type Processor struct {
	sanitizer *toc.Sanitizer
	ledger    interfaces.PageLedger
	opts      Options
}

// NewProcessor creates a Processor. ledger may be nil.
func NewProcessor(sanitizer *toc.Sanitizer, ledger interfaces.PageLedger, opts Options) *Processor {
	if sanitizer == nil {
		sanitizer = toc.NewSanitizer(nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Processor{sanitizer: sanitizer, ledger: ledger, opts: opts}
}

// ProcessFile runs one pass over a single page.
func (p *Processor) ProcessFile(ctx context.Context, path string) (interfaces.PageReport, error) {
	rep := interfaces.PageReport{Path: path}
	if abs, err := filepath.Abs(path); err == nil {
		rep.Path = abs
	}
	l := log.With().Str("path", rep.Path).Logger()

	data, err := os.ReadFile(rep.Path)
	if err != nil {
		metrics.PagesProcessed.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("read %s: %w", rep.Path, err)
	}
	digest := digestOf(data)

	if p.ledger != nil {
		last, errL := p.ledger.LastDigest(ctx, rep.Path)
		if errL != nil {
			l.Warn().Err(errL).Msg("Failed to read page ledger, processing anyway")
		} else if last == digest {
			l.Debug().Msg("Page unchanged since last pass, skipping")
			rep.Skipped = true
			metrics.PagesProcessed.WithLabelValues("skipped").Inc()
			return rep, nil
		}
	}

	out, res, err := p.Rewrite(data)
	rep.Result = res
	if err != nil {
		metrics.PagesProcessed.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("rewrite %s: %w", rep.Path, err)
	}
	rep.Changed = res.Rewritten > 0

	switch {
	case !rep.Changed:
		metrics.PagesProcessed.WithLabelValues("unchanged").Inc()
	case p.opts.DryRun:
		l.Info().Int("labels", res.Rewritten).Msg("[DRY RUN] Would rewrite TOC labels")
		metrics.PagesProcessed.WithLabelValues("dry_run").Inc()
		return rep, nil
	default:
		// The generator may still be writing the page; a later event or
		// rescan picks it up once it settles.
		if cur, errR := os.ReadFile(rep.Path); errR == nil && !bytes.Equal(cur, data) {
			l.Debug().Msg("Page changed during pass, leaving it for the next one")
			rep.Changed = false
			metrics.PagesProcessed.WithLabelValues("unchanged").Inc()
			return rep, nil
		}
		if err := writeAtomic(rep.Path, out); err != nil {
			metrics.PagesProcessed.WithLabelValues("error").Inc()
			return rep, err
		}
		rep.Written = true
		digest = digestOf(out)
		metrics.PagesProcessed.WithLabelValues("rewritten").Inc()
		metrics.LabelsRewritten.Add(float64(res.Rewritten))
		l.Info().Int("labels", res.Rewritten).Msg("Rewrote TOC labels")
	}

	if p.ledger != nil && !p.opts.DryRun {
		rec := &database.PageRecord{
			Path:        rep.Path,
			Digest:      digest,
			Links:       res.Links,
			Rewritten:   res.Rewritten,
			ProcessedAt: time.Now().UTC(),
		}
		if err := p.ledger.Record(ctx, rec); err != nil {
			l.Warn().Err(err).Msg("Failed to record page in ledger")
		}
	}
	return rep, nil
}

// ProcessTree runs one pass over every page below root. root may also name
// a single page. Per-page failures are logged and counted, not returned.
func (p *Processor) ProcessTree(ctx context.Context, root string) (interfaces.Summary, error) {
	var sum interfaces.Summary

	info, err := os.Stat(root)
	if err != nil {
		return sum, fmt.Errorf("site root %s: %w", root, err)
	}
	if !info.IsDir() {
		rep, err := p.ProcessFile(ctx, root)
		if err != nil {
			sum.Failed++
			return sum, err
		}
		sum.Add(rep)
		return sum, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !IsPage(path) {
			return nil
		}
		g.Go(func() error {
			rep, err := p.ProcessFile(gctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to process page")
				sum.Failed++
				return nil
			}
			sum.Add(rep)
			return nil
		})
		return nil
	})
	_ = g.Wait()

	if walkErr != nil {
		return sum, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	log.Debug().Str("root", root).Int("pages", sum.Pages).Int("failed", sum.Failed).Msg("Tree walked")
	return sum, nil
}

func digestOf(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// writeAtomic replaces path through a temp file in the same directory,
// keeping the original permission bits.
func writeAtomic(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tocstrip-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
