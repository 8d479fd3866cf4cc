// Package tiles fetches imagery tiles over HTTP through a persistent cache.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/Mr-Dark-debug/areo/internal/database"
	"github.com/Mr-Dark-debug/areo/internal/metrics"
)

// ErrUpstreamStatus is returned when the tile server answers with a
// non-2xx status.
var ErrUpstreamStatus = errors.New("upstream tile status")

// ErrTileTooLarge is returned when a tile body exceeds maxTileBytes.
var ErrTileTooLarge = errors.New("tile body too large")

// maxTileBytes caps how much of a response body is read.
const maxTileBytes = 8 << 20

// Cache is the subset of the store the fetcher reads through.
type Cache interface {
	GetTile(url string) (*database.Tile, error)
	PutTile(tile *database.Tile) error
}

// Config configures a Fetcher.
type Config struct {
	// RequestsPerSecond and Burst bound upstream requests. A zero rate
	// disables limiting.
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	// MaxAge is how long a cached tile counts as fresh. Zero keeps tiles
	// fresh forever.
	MaxAge    time.Duration
	UserAgent string

	Client *http.Client
	Cache  Cache
	Clock  clockwork.Clock
	Logger *log.Logger
}

// Fetcher retrieves tiles, preferring fresh cache entries over upstream.
// It is safe for concurrent use.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	clock   clockwork.Clock
	logger  *log.Logger
}

// NewFetcher creates a Fetcher. A nil Cache disables caching.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "areo"
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Fetcher{
		cfg:     cfg,
		client:  cfg.Client,
		limiter: rate.NewLimiter(limit, burst),
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
}

// Fetch returns the tile bytes and content type for an expanded tile URL.
// A stale cache entry is returned only when the upstream request fails.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	cached := f.cached(url)
	if cached != nil && f.fresh(cached) {
		metrics.TileFetches.WithLabelValues("hit").Inc()
		return cached.Data, cached.ContentType, nil
	}

	data, contentType, err := f.fetchUpstream(ctx, url)
	if err != nil {
		if cached != nil && ctx.Err() == nil {
			metrics.TileFetches.WithLabelValues("stale").Inc()
			f.logger.Warn("serving stale tile", "url", url, "err", err)
			return cached.Data, cached.ContentType, nil
		}
		metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, "", err
	}
	metrics.TileFetches.WithLabelValues("miss").Inc()

	if f.cfg.Cache != nil {
		tile := &database.Tile{
			URL:         url,
			Data:        data,
			ContentType: contentType,
			FetchedAt:   f.clock.Now().UnixNano(),
		}
		if err := f.cfg.Cache.PutTile(tile); err != nil {
			f.logger.Warn("caching tile", "url", url, "err", err)
		}
	}
	return data, contentType, nil
}

// LoadTile fetches and decodes a PNG or JPEG tile.
func (f *Fetcher) LoadTile(ctx context.Context, url string) (image.Image, error) {
	data, _, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding tile %s: %w", url, err)
	}
	return img, nil
}

func (f *Fetcher) cached(url string) *database.Tile {
	if f.cfg.Cache == nil {
		return nil
	}
	t, err := f.cfg.Cache.GetTile(url)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			f.logger.Warn("reading tile cache", "url", url, "err", err)
		}
		return nil
	}
	return t
}

func (f *Fetcher) fresh(t *database.Tile) bool {
	if f.cfg.MaxAge <= 0 {
		return true
	}
	return f.clock.Since(time.Unix(0, t.FetchedAt)) < f.cfg.MaxAge
}

func (f *Fetcher) fetchUpstream(ctx context.Context, url string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("waiting for tile rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building tile request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.TileFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, "", fmt.Errorf("fetching tile %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetching tile %s: %w: %d", url, ErrUpstreamStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading tile %s: %w", url, err)
	}
	if len(data) > maxTileBytes {
		return nil, "", fmt.Errorf("reading tile %s: %w", url, ErrTileTooLarge)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	f.logger.Debug("fetched tile", "url", url, "bytes", len(data))
	return data, contentType, nil
}
