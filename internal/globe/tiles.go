package globe

import (
	"context"
	"image"
	"time"
)

// TileLoader fetches and decodes one tile image.
type TileLoader interface {
	LoadTile(ctx context.Context, url string) (image.Image, error)
}

// TileLoaderFunc adapts a function to TileLoader.
type TileLoaderFunc func(ctx context.Context, url string) (image.Image, error)

func (f TileLoaderFunc) LoadTile(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// failedTileCooldown is how long a failed tile is left alone before the
// next frame that needs it requests it again.
const failedTileCooldown = 30 * time.Second

type tileEntry struct {
	img      image.Image
	failedAt time.Time
}

// tile returns the decoded image for url if it is in memory. Otherwise it
// schedules a load and returns nil; Updates fires once the load finishes.
func (v *Viewer) tile(url string) image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return nil
	}
	if e, ok := v.tiles[url]; ok {
		if e.img != nil {
			return e.img
		}
		if v.clock.Since(e.failedAt) < failedTileCooldown {
			return nil
		}
	}
	if v.inflight[url] || v.opts.Loader == nil {
		return nil
	}
	v.inflight[url] = true
	go v.loadTile(url)
	return nil
}

func (v *Viewer) loadTile(url string) {
	img, err := v.opts.Loader.LoadTile(v.ctx, url)

	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.inflight, url)
	if v.destroyed {
		return
	}
	if err != nil {
		v.logger.Debug("tile load failed", "url", url, "err", err)
		v.storeTile(url, &tileEntry{failedAt: v.clock.Now()})
	} else {
		v.storeTile(url, &tileEntry{img: img})
	}

	select {
	case v.updates <- struct{}{}:
	default:
	}
}

// storeTile must be called with mu held. The oldest entry is evicted once
// the cache is full.
func (v *Viewer) storeTile(url string, e *tileEntry) {
	if _, ok := v.tiles[url]; !ok {
		v.tileOrder = append(v.tileOrder, url)
	}
	v.tiles[url] = e
	for len(v.tileOrder) > v.opts.MaxCachedTiles {
		delete(v.tiles, v.tileOrder[0])
		v.tileOrder = v.tileOrder[1:]
	}
}

// CachedTiles returns the number of tiles held in memory, failures included.
func (v *Viewer) CachedTiles() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tiles)
}
