// Package server serves a built documentation site, stripping TOC emoji
// from every HTML page as it goes out.
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/haytac/tocstrip/internal/metrics"
	"github.com/haytac/tocstrip/internal/site"
)

// Config controls a Server.
type Config struct {
	Root         string
	RateLimit    float64 // requests per second, 0 disables limiting
	Burst        int
	MaxBodyBytes int64
}

// Server is the HTTP front of a built site.
type Server struct {
	router    chi.Router
	processor *site.Processor
	policy    *bluemonday.Policy
	limiter   *rate.Limiter
	cfg       Config
}

// New creates and configures the HTTP server.
func New(processor *site.Processor, cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		processor: processor,
		policy:    fragmentPolicy(),
		cfg:       cfg,
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	s.setupRoutes()
	return s
}

// fragmentPolicy keeps user supplied fragments safe to echo back while
// retaining the class attributes the TOC selector relies on.
func fragmentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowElements("nav", "aside", "header", "footer", "section", "label", "span", "div")
	return p
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(RateLimit(s.limiter))
		}
		r.Post("/api/strip", s.handleStrip)
		r.Get("/*", s.handleSite)
		r.Head("/*", s.handleSite)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleStrip sanitizes an HTML fragment posted by a client and returns it
// with TOC labels stripped.
func (s *Server) handleStrip(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.HTTPRequests.WithLabelValues("api", "413").Inc()
			http.Error(w, `{"error":"body too large"}`, http.StatusRequestEntityTooLarge)
			return
		}
		metrics.HTTPRequests.WithLabelValues("api", "400").Inc()
		http.Error(w, `{"error":"read body"}`, http.StatusBadRequest)
		return
	}

	clean := s.policy.SanitizeBytes(body)
	out, res, err := s.processor.Rewrite(clean)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues("api", "422").Inc()
		http.Error(w, `{"error":"unparseable html"}`, http.StatusUnprocessableEntity)
		return
	}
	if res.Rewritten > 0 {
		out = fragmentBody(out)
	}

	metrics.HTTPRequests.WithLabelValues("api", "200").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Tocstrip-Rewritten", strconv.Itoa(res.Rewritten))
	w.Write(out)
}

// fragmentBody extracts the body contents from a rendered document, since
// parsing a fragment wraps it in html/head/body.
func fragmentBody(doc []byte) []byte {
	start := bytes.Index(doc, []byte("<body>"))
	end := bytes.LastIndex(doc, []byte("</body>"))
	if start < 0 || end < start {
		return doc
	}
	return doc[start+len("<body>") : end]
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resolve(r.URL.Path)
	if !ok {
		metrics.HTTPRequests.WithLabelValues("asset", "404").Inc()
		http.NotFound(w, r)
		return
	}

	if !site.IsPage(name) {
		metrics.HTTPRequests.WithLabelValues("asset", "200").Inc()
		http.ServeFile(w, r, name)
		return
	}

	data, err := os.ReadFile(name)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues("page", "500").Inc()
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	metrics.Passes.WithLabelValues("serve").Inc()
	out, res, err := s.processor.Rewrite(data)
	if err != nil {
		// Serve what we have rather than failing the page.
		log.Warn().Err(err).Str("path", name).Msg("Failed to sanitize page, serving original")
		out = data
	}

	var modTime time.Time
	if info, err := os.Stat(name); err == nil {
		modTime = info.ModTime()
	}
	metrics.HTTPRequests.WithLabelValues("page", "200").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Tocstrip-Rewritten", strconv.Itoa(res.Rewritten))
	http.ServeContent(w, r, filepath.Base(name), modTime, bytes.NewReader(out))
}

// resolve maps a URL path to a file below the root, serving index.html for
// directories. Paths escaping the root are rejected.
func (s *Server) resolve(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	name := filepath.Join(s.cfg.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	rel, err := filepath.Rel(s.cfg.Root, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	info, err := os.Stat(name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		name = filepath.Join(name, "index.html")
		if info, err = os.Stat(name); err != nil || !info.Mode().IsRegular() {
			return "", false
		}
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}
