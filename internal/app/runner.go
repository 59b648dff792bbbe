package app

import (
	"context"
	"time"

	"github.com/haytac/tocstrip/internal/logging"
	"github.com/haytac/tocstrip/internal/metrics"
	"github.com/haytac/tocstrip/pkg/interfaces"
)

const rescanTimeout = 5 * time.Minute

// SiteRunner runs whole-site passes on behalf of a trigger.
type SiteRunner struct {
	processor interfaces.SiteProcessor
	timeout   time.Duration
}

// NewSiteRunner creates a SiteRunner.
func NewSiteRunner(processor interfaces.SiteProcessor) *SiteRunner {
	return &SiteRunner{processor: processor, timeout: rescanTimeout}
}

// Pass sanitizes every page below root. trigger names what caused the pass
// and ends up in logs and metrics.
func (r *SiteRunner) Pass(ctx context.Context, root, trigger string) (interfaces.Summary, error) {
	metrics.ActivePasses.Inc()
	defer metrics.ActivePasses.Dec()
	metrics.Passes.WithLabelValues(trigger).Inc()

	l := logging.ContextualLogger(map[string]interface{}{"site": root, "trigger": trigger})
	l.Debug().Msg("Starting site pass")
	start := time.Now()

	sum, err := r.processor.ProcessTree(ctx, root)
	if err != nil {
		l.Error().Err(err).Msg("Site pass failed")
		return sum, err
	}

	ev := l.Info()
	if sum.Failed > 0 {
		ev = l.Warn()
	}
	ev.Int("pages", sum.Pages).
		Int("changed", sum.Changed).
		Int("written", sum.Written).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Int("labels_rewritten", sum.Result.Rewritten).
		Dur("took", time.Since(start)).
		Msg("Site pass finished")
	return sum, nil
}

// Rescan is the scheduler task for a periodic rescan job. ctx is cancelled
// when the scheduler stops.
func (r *SiteRunner) Rescan(ctx context.Context, job *interfaces.Job) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	r.Pass(ctx, job.Root, "rescan")
}
