package tiles

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/areo/internal/database"
)

func pngTile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type upstream struct {
	*httptest.Server
	hits   atomic.Int32
	status atomic.Int32
	agent  atomic.Value
}

func newUpstream(t *testing.T, body []byte) *upstream {
	t.Helper()
	u := &upstream{}
	u.status.Store(http.StatusOK)
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.agent.Store(r.Header.Get("User-Agent"))
		if code := int(u.status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(u.Close)
	return u
}

func newCache(t *testing.T) *database.DBService {
	t.Helper()
	db, err := database.NewDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFetchCachesUpstream(t *testing.T) {
	body := pngTile(t)
	up := newUpstream(t, body)
	f := NewFetcher(Config{Cache: newCache(t), UserAgent: "areo-test"})

	url := up.URL + "/0/0/0.png"
	data, ct, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "areo-test", up.agent.Load())

	data, _, err = f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, int32(1), up.hits.Load())
}

func TestFetchWithoutCacheAlwaysHitsUpstream(t *testing.T) {
	up := newUpstream(t, pngTile(t))
	f := NewFetcher(Config{})

	for i := 0; i < 2; i++ {
		_, _, err := f.Fetch(context.Background(), up.URL+"/t")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestFetchRejectsNon2xx(t *testing.T) {
	up := newUpstream(t, nil)
	up.status.Store(http.StatusNotFound)
	f := NewFetcher(Config{Cache: newCache(t)})

	_, _, err := f.Fetch(context.Background(), up.URL+"/missing")
	assert.ErrorIs(t, err, ErrUpstreamStatus)
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	up := newUpstream(t, bytes.Repeat([]byte{0xaa}, maxTileBytes+1))
	cache := newCache(t)
	f := NewFetcher(Config{Cache: cache})

	url := up.URL + "/0/0/0.png"
	_, _, err := f.Fetch(context.Background(), url)
	assert.ErrorIs(t, err, ErrTileTooLarge)

	_, err = cache.GetTile(url)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestFetchRefreshesStaleEntries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	up := newUpstream(t, pngTile(t))
	f := NewFetcher(Config{Cache: newCache(t), MaxAge: time.Hour, Clock: clock})
	url := up.URL + "/1/0/0.png"

	_, _, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	_, _, err = f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int32(1), up.hits.Load())

	clock.Advance(time.Hour)
	_, _, err = f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestFetchServesStaleOnUpstreamFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	body := pngTile(t)
	up := newUpstream(t, body)
	f := NewFetcher(Config{Cache: newCache(t), MaxAge: time.Minute, Clock: clock})
	url := up.URL + "/2/1/1.png"

	_, _, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	up.status.Store(http.StatusBadGateway)
	data, _, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestLoadTileDecodes(t *testing.T) {
	up := newUpstream(t, pngTile(t))
	f := NewFetcher(Config{})

	img, err := f.LoadTile(context.Background(), up.URL+"/0/0/0.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	r, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
}

func TestLoadTileRejectsGarbage(t *testing.T) {
	up := newUpstream(t, []byte("not an image"))
	f := NewFetcher(Config{})

	_, err := f.LoadTile(context.Background(), up.URL+"/x")
	assert.Error(t, err)
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	up := newUpstream(t, pngTile(t))
	f := NewFetcher(Config{RequestsPerSecond: 1, Burst: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := f.Fetch(ctx, up.URL+"/x")
	assert.Error(t, err)
	assert.Equal(t, int32(0), up.hits.Load())
}
