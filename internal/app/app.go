package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/tocstrip/internal/config"
	"github.com/haytac/tocstrip/internal/database"
	"github.com/haytac/tocstrip/internal/emoji"
	"github.com/haytac/tocstrip/internal/metrics"
	"github.com/haytac/tocstrip/internal/scheduler"
	"github.com/haytac/tocstrip/internal/server"
	"github.com/haytac/tocstrip/internal/site"
	"github.com/haytac/tocstrip/internal/toc"
	"github.com/haytac/tocstrip/internal/watch"
	"github.com/haytac/tocstrip/pkg/interfaces"
)

const shutdownTimeout = 10 * time.Second

// Application holds all dependencies for the app.
type Application struct {
	Config    *config.AppConfig
	DB        *database.DB        // nil when the page ledger is disabled
	PageStore *database.PageStore // nil when the page ledger is disabled
	Processor *site.Processor
	Runner    *SiteRunner
	Scheduler interfaces.Scheduler
}

// NewApplication creates and initializes a new application instance.
func NewApplication(cfg *config.AppConfig) (*Application, error) {
	app := &Application{Config: cfg}

	var ledger interfaces.PageLedger
	if cfg.DatabasePath != "" {
		db, err := database.Connect(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db
		app.PageStore = database.NewPageStore(db)
		ledger = app.PageStore
	} else {
		log.Debug().Msg("No database_path configured, page ledger disabled")
	}

	stripper := emoji.NewStripper(emoji.WithShortcodes(cfg.ExpandShortcodes))
	app.Processor = site.NewProcessor(toc.NewSanitizer(stripper), ledger, site.Options{
		Selector: cfg.Selector,
		Workers:  cfg.Workers,
		DryRun:   cfg.DryRun,
		Audit:    cfg.Audit,
	})
	app.Runner = NewSiteRunner(app.Processor)
	app.Scheduler = scheduler.NewRescanScheduler()
	return app, nil
}

// Close releases the database, if any.
func (app *Application) Close() error {
	if app.DB == nil {
		return nil
	}
	return app.DB.Close()
}

// StripOnce runs a single "content ready" pass over each root and returns
// the combined summary. Every root is attempted even when one fails.
func (app *Application) StripOnce(ctx context.Context, roots ...string) (interfaces.Summary, error) {
	var total interfaces.Summary
	var errs []error
	for _, root := range roots {
		sum, err := app.Runner.Pass(ctx, root, "ready")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total.Merge(sum)
	}
	return total, errors.Join(errs...)
}

// NewServer returns an HTTP server for root using the configured limits.
func (app *Application) NewServer(root string) *server.Server {
	return server.New(app.Processor, server.Config{
		Root:         root,
		RateLimit:    app.Config.Server.RateLimit,
		Burst:        app.Config.Server.Burst,
		MaxBodyBytes: app.Config.Server.MaxBodyBytes,
	})
}

// Serve serves root on the configured address until ctx is done.
func (app *Application) Serve(ctx context.Context, root string) error {
	srv := app.startHTTP(root)
	<-ctx.Done()
	return app.shutdownHTTP(srv)
}

func (app *Application) startHTTP(root string) *http.Server {
	srv := &http.Server{
		Addr:              app.Config.Server.Addr,
		Handler:           app.NewServer(root),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("address", srv.Addr).Str("root", root).Msg("Serving site with on-the-fly TOC stripping")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()
	return srv
}

func (app *Application) shutdownHTTP(srv *http.Server) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown %s: %w", srv.Addr, err)
	}
	return nil
}

// Run starts the long-running service: an initial pass over every site,
// then the watcher, periodic rescans, the metrics endpoint and optional
// serving. With no swap source configured it returns after the initial pass.
func (app *Application) Run(ctx context.Context) error {
	log.Info().Msg("Starting application...")
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	if len(app.Config.Sites) == 0 && app.Config.Server.Root == "" {
		return errors.New("no sites configured")
	}

	roots := make([]string, 0, len(app.Config.Sites))
	for _, s := range app.Config.Sites {
		roots = append(roots, s.Root)
	}
	if _, err := app.StripOnce(ctx, roots...); err != nil {
		return fmt.Errorf("initial pass: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var watchDone chan struct{}
	if !app.Config.Watch {
		log.Info().Msg("Watching disabled")
	} else if len(roots) > 0 {
		w, err := watch.New(app.Processor, roots...)
		if err != nil {
			log.Warn().Err(err).Msg("Filesystem watcher unavailable, pages will not be re-processed on change")
		} else {
			watchDone = make(chan struct{})
			go func() {
				defer close(watchDone)
				w.Run(runCtx)
			}()
		}
	}
	watching := watchDone != nil

	rescans := 0
	for _, s := range app.Config.Sites {
		if s.RescanInterval <= 0 {
			continue
		}
		job := &interfaces.Job{Name: s.Root, Root: s.Root, Interval: s.RescanInterval}
		if err := app.Scheduler.Add(job, app.Runner.Rescan); err != nil {
			log.Error().Err(err).Str("site", s.Root).Msg("Failed to schedule rescan")
			continue
		}
		rescans++
	}

	var srv *http.Server
	if app.Config.Server.Root != "" {
		srv = app.startHTTP(app.Config.Server.Root)
	}

	if !watching && rescans == 0 && srv == nil {
		log.Info().Msg("No swap source available, pages were processed once")
		return nil
	}

	metricsSrv := metrics.StartServer(app.Config.MetricsPort)
	app.Scheduler.Start(runCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		log.Info().Str("signal", s.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Application context done, shutting down")
	}

	cancel()
	log.Info().Msg("Shutting down scheduler...")
	app.Scheduler.Stop()
	if watching {
		// The watcher may still be recording a page in the ledger.
		<-watchDone
	}
	if err := app.shutdownHTTP(srv); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}
	if err := app.shutdownHTTP(metricsSrv); err != nil {
		log.Error().Err(err).Msg("Error stopping metrics server")
	}

	log.Info().Msg("Application shut down gracefully.")
	return nil
}
