package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/areo/internal/globe"
	"github.com/Mr-Dark-debug/areo/internal/layers"
)

func newEngine(t *testing.T) *globe.Viewer {
	t.Helper()
	v := globe.NewViewer(globe.Surface{Width: 20, Height: 10}, globe.Options{})
	v.AddBaseImagerySource(globe.NewURLTemplateProvider(globe.URLTemplateOptions{
		URL:          layers.VikingURL,
		MaximumLevel: 10,
		Credit:       "NASA/MOLA Science Team",
	}))
	t.Cleanup(func() { _ = v.Destroy() })
	return v
}

func templates(stack []*globe.ImageryLayer) []string {
	var out []string
	for _, l := range stack {
		if p, ok := l.Provider.(*globe.URLTemplateProvider); ok {
			out = append(out, p.Template())
		}
	}
	return out
}

func TestReconcileDefaults(t *testing.T) {
	engine := newEngine(t)
	reg := layers.NewRegistry(layers.Defaults())
	r := New(nil)

	require.True(t, r.Sync(engine, reg))

	stack := engine.ImageryLayers()
	// permanent base + viking + mola; hirise is hidden
	require.Len(t, stack, 3)
	assert.True(t, stack[0].IsBaseLayer())
	assert.Equal(t, []string{layers.VikingURL, layers.VikingURL, layers.MOLAURL}, templates(stack))

	mola, ok := r.Handle("mars-mola")
	require.True(t, ok)
	assert.Equal(t, 0.7, mola.Alpha)
	assert.True(t, mola.Show)
	assert.Equal(t, "NASA/MOLA Topography", mola.Provider.Credit())
	minZ, maxZ := mola.Provider.Levels()
	assert.Equal(t, 0, minZ)
	assert.Equal(t, 10, maxZ)

	_, ok = r.Handle("mars-hirise")
	assert.False(t, ok)
}

func TestReconcileAfterToggleAndOpacity(t *testing.T) {
	engine := newEngine(t)
	reg := layers.NewRegistry(layers.Defaults())
	r := New(nil)
	r.Sync(engine, reg)

	reg.ToggleVisibility("mars-mola")
	require.True(t, r.Sync(engine, reg))
	_, ok := r.Handle("mars-mola")
	assert.False(t, ok)
	assert.Len(t, engine.ImageryLayers(), 2)

	reg.ToggleVisibility("mars-mola")
	reg.SetOpacity("mars-mola", 0.25)
	require.True(t, r.Sync(engine, reg))
	mola, ok := r.Handle("mars-mola")
	require.True(t, ok)
	assert.Equal(t, 0.25, mola.Alpha)
}

func TestReconcileSwitchBase(t *testing.T) {
	engine := newEngine(t)
	reg := layers.NewRegistry(layers.Defaults())
	r := New(nil)

	require.NoError(t, reg.SetActiveBase("mars-hirise"))
	r.Sync(engine, reg)

	assert.Equal(t, []string{layers.VikingURL, layers.HiRISEURL, layers.MOLAURL}, templates(engine.ImageryLayers()))
	_, ok := r.Handle("mars-viking")
	assert.False(t, ok)
}

func TestReconcileIsIdempotent(t *testing.T) {
	engine := newEngine(t)
	descs := layers.Defaults()
	r := New(nil)

	r.Reconcile(engine, descs)
	first := templates(engine.ImageryLayers())
	r.Reconcile(engine, descs)

	assert.Equal(t, first, templates(engine.ImageryLayers()))
}

func TestReconcileSkipsLayersWithoutURL(t *testing.T) {
	engine := newEngine(t)
	r := New(nil)

	r.Reconcile(engine, []layers.Descriptor{
		{ID: "blank", Name: "Blank", Kind: layers.KindOverlay, Visible: true, Opacity: 1},
	})

	assert.Len(t, engine.ImageryLayers(), 1)
	_, ok := r.Handle("blank")
	assert.False(t, ok)
}

func TestReconcileKeepsPermanentBase(t *testing.T) {
	engine := newEngine(t)
	r := New(nil)

	r.Reconcile(engine, nil)

	stack := engine.ImageryLayers()
	require.Len(t, stack, 1)
	assert.True(t, stack[0].IsBaseLayer())
	assert.Equal(t, "NASA/MOLA Science Team", stack[0].Provider.Credit())
}

func TestSyncSkipsUnchangedRevision(t *testing.T) {
	engine := newEngine(t)
	reg := layers.NewRegistry(layers.Defaults())
	r := New(nil)

	assert.True(t, r.Sync(engine, reg))
	assert.False(t, r.Sync(engine, reg))

	reg.SetOpacity("mars-mola", 0.5)
	assert.True(t, r.Sync(engine, reg))
}

func TestSyncRerunsForNewRegistry(t *testing.T) {
	engine := newEngine(t)
	r := New(nil)

	require.True(t, r.Sync(engine, layers.NewRegistry(layers.Defaults())))
	require.Len(t, engine.ImageryLayers(), 3)

	// Same revision, different collection.
	empty := layers.NewRegistry(nil)
	assert.True(t, r.Sync(engine, empty))
	assert.Len(t, engine.ImageryLayers(), 1)
	assert.False(t, r.Sync(engine, empty))
}

func TestSyncRerunsForNewEngine(t *testing.T) {
	reg := layers.NewRegistry(layers.Defaults())
	r := New(nil)

	assert.True(t, r.Sync(newEngine(t), reg))
	assert.False(t, r.Sync(nil, reg))

	second := newEngine(t)
	assert.True(t, r.Sync(second, reg))
	assert.Len(t, second.ImageryLayers(), 3)
}
