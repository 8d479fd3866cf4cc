// Package tileserver implements the tile proxy daemon. It serves the
// registry's imagery layers over HTTP at stable local URLs, reading
// through the shared tile cache, and exposes health and metrics.
//
// Architecture:
//
//	Client → chi router → registry lookup → Fetcher (cache, rate limit) → upstream
package tileserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mr-Dark-debug/areo/internal/globe"
	"github.com/Mr-Dark-debug/areo/internal/layers"
	"github.com/Mr-Dark-debug/areo/internal/metrics"
)

// maxZoom bounds the zoom level accepted on tile routes.
const maxZoom = 24

// Fetcher retrieves tile bytes for an expanded URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Config holds configuration for the daemon.
type Config struct {
	// ListenAddr is the TCP address to serve on. Port 0 picks a free port.
	ListenAddr string `json:"listen_addr"`
}

// Metrics tracks request outcomes since start.
type Metrics struct {
	TilesServed   int64 `json:"tiles_served"`
	NotFound      int64 `json:"not_found"`
	BadRequests   int64 `json:"bad_requests"`
	UpstreamError int64 `json:"upstream_errors"`
	Layers        int   `json:"layers"`
	Uptime        int64 `json:"uptime_seconds"`
}

// Server is the tile proxy daemon.
type Server struct {
	config   Config
	registry *layers.Registry
	fetcher  Fetcher
	logger   *log.Logger

	served   atomic.Int64
	notFound atomic.Int64
	bad      atomic.Int64
	upstream atomic.Int64

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  time.Time
}

// New creates a daemon serving the layers of reg through f.
func New(config Config, reg *layers.Registry, f Fetcher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		config:   config,
		registry: reg,
		fetcher:  f,
		logger:   logger,
		started:  time.Now(),
	}
}

// Handler returns the daemon's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withRegistry)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/metrics", s.handleMetrics)
	r.Get("/api/layers", s.handleLayers)
	r.Get("/tiles/{layer}/{z}/{x}/{y}", s.handleTile)
	return r
}

// Start listens on the configured address and serves until ctx is
// cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.ListenAddr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.started = time.Now()
	ctx, s.cancel = context.WithCancel(ctx)
	server := s.server
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("tile server shutdown", "err", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("tile server", "err", err)
		}
	}()

	s.logger.Info("tile server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and waits for its goroutines.
func (s *Server) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("tile server stopped")
	return nil
}

// Metrics returns a snapshot of the request counters.
func (s *Server) Metrics() Metrics {
	return Metrics{
		TilesServed:   s.served.Load(),
		NotFound:      s.notFound.Load(),
		BadRequests:   s.bad.Load(),
		UpstreamError: s.upstream.Load(),
		Layers:        len(s.registry.Layers()),
		Uptime:        int64(time.Since(s.started).Seconds()),
	}
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) withRegistry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(layers.WithRegistry(r.Context(), s.registry)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Metrics())
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	reg, err := layers.FromContext(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	descs, rev := reg.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"revision": rev,
		"layers":   descs,
	})
}

// unknownLayerLabel is the metric label for every id missing from the registry.
const unknownLayerLabel = "unknown"

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "layer")

	reg, err := layers.FromContext(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	desc, ok := reg.Get(id)
	if !ok || desc.SourceURL == "" {
		s.notFound.Add(1)
		metrics.TilesServed.WithLabelValues(unknownLayerLabel, "404").Inc()
		http.Error(w, fmt.Sprintf("unknown layer %q", id), http.StatusNotFound)
		return
	}

	z, x, y, err := parseTile(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		s.bad.Add(1)
		metrics.TilesServed.WithLabelValues(id, "400").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	url := globe.ExpandTemplate(desc.SourceURL, z, x, y)
	data, contentType, err := s.fetcher.Fetch(r.Context(), url)
	if err != nil {
		s.upstream.Add(1)
		metrics.TilesServed.WithLabelValues(id, "502").Inc()
		s.logger.Debug("tile fetch failed", "layer", id, "url", url, "err", err)
		http.Error(w, "upstream tile unavailable", http.StatusBadGateway)
		return
	}

	s.served.Add(1)
	metrics.TilesServed.WithLabelValues(id, "200").Inc()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseTile validates tile coordinates. The y segment may carry an image
// extension, as in "5.png".
func parseTile(zs, xs, ys string) (z, x, y int, err error) {
	ys = ys[:len(ys)-len(path.Ext(ys))]

	if z, err = strconv.Atoi(zs); err != nil || z < 0 || z > maxZoom {
		return 0, 0, 0, fmt.Errorf("bad zoom %q", zs)
	}
	n := 1 << z
	if x, err = strconv.Atoi(xs); err != nil || x < 0 || x >= n {
		return 0, 0, 0, fmt.Errorf("bad column %q at zoom %d", xs, z)
	}
	if y, err = strconv.Atoi(ys); err != nil || y < 0 || y >= n {
		return 0, 0, 0, fmt.Errorf("bad row %q at zoom %d", ys, z)
	}
	return z, x, y, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
