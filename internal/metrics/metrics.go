package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// PagesProcessed counts page passes by outcome.
	PagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocstrip_pages_processed_total",
			Help: "Total number of pages passed through the TOC sanitizer.",
		},
		[]string{"status"}, // status: rewritten, unchanged, skipped, dry_run, error
	)

	// LabelsRewritten counts text nodes whose emoji were removed.
	LabelsRewritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tocstrip_labels_rewritten_total",
			Help: "Total number of TOC label text nodes rewritten.",
		},
	)

	// Passes counts tree passes by trigger.
	Passes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocstrip_passes_total",
			Help: "Total number of sanitizing passes by trigger.",
		},
		[]string{"trigger"}, // trigger: ready, watch, rescan, serve
	)

	// HTTPRequests counts requests handled in serve mode.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocstrip_http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"kind", "status"}, // kind: page, asset, api
	)

	// ActivePasses reports tree passes currently running.
	ActivePasses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tocstrip_active_passes",
			Help: "Number of tree passes currently running.",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer starts the Prometheus metrics HTTP server and returns it so
// callers can shut it down. It returns nil when addr is empty.
func StartServer(addr string) *http.Server {
	if addr == "" {
		log.Info().Msg("Metrics address not configured, Prometheus endpoint will not be available.")
		return nil
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("address", addr).Msg("Starting Prometheus metrics server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Prometheus metrics server failed")
		}
	}()
	return srv
}
