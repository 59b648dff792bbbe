// Package watch re-runs page passes whenever the site generator rewrites
// an HTML page, the on-disk counterpart of a client-side navigation swap.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/haytac/tocstrip/internal/metrics"
	"github.com/haytac/tocstrip/internal/site"
	"github.com/haytac/tocstrip/pkg/interfaces"
)

// Watcher feeds filesystem events for HTML pages to a processor.
type Watcher struct {
	processor interfaces.SiteProcessor
	fsw       *fsnotify.Watcher
	roots     []string
	events    chan<- interfaces.PageReport
}

// New creates a Watcher over roots. Callers treat an error as "no swap
// source available" and fall back to one-shot passes.
func New(processor interfaces.SiteProcessor, roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	w := &Watcher{processor: processor, fsw: fsw}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
		w.roots = append(w.roots, root)
	}
	return w, nil
}

// Notify makes the watcher publish every report it produces to ch. Sends
// never block; reports are dropped when ch is full.
func (w *Watcher) Notify(ch chan<- interfaces.PageReport) {
	w.events = ch
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done. It closes the underlying watcher
// on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	log.Info().Strs("roots", w.roots).Msg("Watching site roots for page changes")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Watcher stopping")
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Filesystem watcher error")
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".tocstrip-") {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Removed again before we got to it.
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(ev.Name); err != nil {
				log.Warn().Err(err).Str("path", ev.Name).Msg("Failed to watch new directory")
				return
			}
			// Pages may have landed before the watch was in place.
			if _, err := w.processor.ProcessTree(ctx, ev.Name); err != nil {
				log.Warn().Err(err).Str("path", ev.Name).Msg("Failed to process new directory")
			}
		}
		return
	}
	if !site.IsPage(ev.Name) {
		return
	}

	metrics.Passes.WithLabelValues("watch").Inc()
	rep, err := w.processor.ProcessFile(ctx, ev.Name)
	if err != nil {
		log.Warn().Err(err).Str("path", ev.Name).Msg("Failed to process changed page")
		return
	}
	if w.events != nil {
		select {
		case w.events <- rep:
		default:
		}
	}
}
