package layers

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visibleBases(ls []Descriptor) []string {
	var ids []string
	for _, l := range ls {
		if l.Kind == KindBase && l.Visible {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func TestDefaultsHaveOneVisibleBase(t *testing.T) {
	r := NewRegistry(Defaults())
	assert.Equal(t, []string{"mars-viking"}, visibleBases(r.Layers()))
	assert.Equal(t, "mars-viking", r.ActiveBase())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
	require.NoError(t, Validate(nil))

	base := func(id string, visible bool) Descriptor {
		return Descriptor{ID: id, Name: id, Kind: KindBase, Visible: visible, Opacity: 1}
	}
	tests := []struct {
		name string
		seed []Descriptor
		want error
	}{
		{"duplicate id", []Descriptor{base("a", true), base("a", false)}, ErrDuplicateLayer},
		{"two visible bases", []Descriptor{base("a", true), base("b", true)}, ErrInvalidLayer},
		{"empty id", []Descriptor{base("", false)}, ErrInvalidLayer},
		{"unknown kind", []Descriptor{{ID: "a", Kind: "tint", Opacity: 1}}, ErrInvalidLayer},
		{"opacity above one", []Descriptor{{ID: "a", Kind: KindOverlay, Opacity: 1.5}}, ErrInvalidLayer},
		{"opacity NaN", []Descriptor{{ID: "a", Kind: KindOverlay, Opacity: math.NaN()}}, ErrInvalidLayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.seed), tt.want)
		})
	}
}

func TestAddDefaultsVisibleAndOpaque(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(NewLayer{ID: "ctx", Name: "CTX", Kind: KindOverlay, SourceURL: "https://x/{z}/{x}/{y}.png"}))

	ls := r.Layers()
	require.Len(t, ls, 1)
	assert.True(t, ls[0].Visible)
	assert.Equal(t, 1.0, ls[0].Opacity)
	assert.Equal(t, uint64(1), r.Revision())
}

func TestAddAppendsInOrder(t *testing.T) {
	r := NewRegistry(Defaults())
	require.NoError(t, r.Add(NewLayer{ID: "a", Kind: KindOverlay}))
	require.NoError(t, r.Add(NewLayer{ID: "b", Kind: KindOverlay}))

	ls := r.Layers()
	assert.Equal(t, "a", ls[len(ls)-2].ID)
	assert.Equal(t, "b", ls[len(ls)-1].ID)
	assert.Equal(t, "a", ls[len(ls)-2].Name, "name defaults to id")
}

func TestAddRejectsDuplicateID(t *testing.T) {
	r := NewRegistry(Defaults())
	before, rev := r.Snapshot()

	err := r.Add(NewLayer{ID: "mars-mola", Kind: KindOverlay})
	require.ErrorIs(t, err, ErrDuplicateLayer)
	assert.Equal(t, before, r.Layers())
	assert.Equal(t, rev, r.Revision())
}

func TestAddRejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)
	assert.ErrorIs(t, r.Add(NewLayer{Kind: KindOverlay}), ErrInvalidLayer)
	assert.ErrorIs(t, r.Add(NewLayer{ID: "x", Kind: "terrain"}), ErrInvalidLayer)
	assert.Empty(t, r.Layers())
}

func TestAddBaseBecomesActive(t *testing.T) {
	r := NewRegistry(Defaults())
	require.NoError(t, r.Add(NewLayer{ID: "themis", Kind: KindBase}))
	assert.Equal(t, []string{"themis"}, visibleBases(r.Layers()))
}

func TestNoDuplicateIDsAcrossAddRemove(t *testing.T) {
	r := NewRegistry(Defaults())
	ids := []string{"a", "b", "a", "mars-mola", "c", "b"}
	for i, id := range ids {
		_ = r.Add(NewLayer{ID: id, Kind: KindOverlay})
		if i%2 == 1 {
			r.Remove(ids[i-1])
		}

		seen := map[string]bool{}
		for _, l := range r.Layers() {
			require.False(t, seen[l.ID], "duplicate id %s after step %d", l.ID, i)
			seen[l.ID] = true
		}
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry(Defaults())
	r.Remove("mars-hirise")
	_, ok := r.Get("mars-hirise")
	assert.False(t, ok)
	assert.Len(t, r.Layers(), 2)

	rev := r.Revision()
	r.Remove("does-not-exist")
	assert.Equal(t, rev, r.Revision(), "removing an unknown id is a no-op")
}

func TestToggleVisibilityIsInvolution(t *testing.T) {
	for _, id := range []string{"mars-viking", "mars-hirise", "mars-mola"} {
		t.Run(id, func(t *testing.T) {
			r := NewRegistry(Defaults())
			before, _ := r.Get(id)

			r.ToggleVisibility(id)
			mid, _ := r.Get(id)
			assert.NotEqual(t, before.Visible, mid.Visible)

			r.ToggleVisibility(id)
			after, _ := r.Get(id)
			assert.Equal(t, before.Visible, after.Visible)
		})
	}
}

func TestToggleVisibilityTouchesOnlyTarget(t *testing.T) {
	r := NewRegistry(Defaults())
	r.ToggleVisibility("mars-mola")

	mola, _ := r.Get("mars-mola")
	viking, _ := r.Get("mars-viking")
	assert.False(t, mola.Visible)
	assert.True(t, viking.Visible)
}

func TestToggleHiddenBaseKeepsSingleBase(t *testing.T) {
	r := NewRegistry(Defaults())
	r.ToggleVisibility("mars-hirise")
	assert.Equal(t, []string{"mars-hirise"}, visibleBases(r.Layers()))
}

func TestToggleUnknownIsNoop(t *testing.T) {
	r := NewRegistry(Defaults())
	r.ToggleVisibility("nope")
	assert.Equal(t, uint64(0), r.Revision())
}

func TestSetOpacityClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.35, 0.35},
		{-1, 0},
		{1.5, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			r := NewRegistry(Defaults())
			r.SetOpacity("mars-mola", tt.in)
			got, _ := r.Get("mars-mola")
			assert.Equal(t, tt.want, got.Opacity)
		})
	}
}

func TestSetActiveBase(t *testing.T) {
	r := NewRegistry(Defaults())
	molaBefore, _ := r.Get("mars-mola")

	require.NoError(t, r.SetActiveBase("mars-hirise"))

	viking, _ := r.Get("mars-viking")
	hirise, _ := r.Get("mars-hirise")
	mola, _ := r.Get("mars-mola")
	assert.False(t, viking.Visible)
	assert.True(t, hirise.Visible)
	assert.Equal(t, molaBefore.Visible, mola.Visible, "overlays are untouched")
	assert.Equal(t, "mars-hirise", r.ActiveBase())
	assert.Equal(t, uint64(1), r.Revision(), "one transition, one revision")
}

func TestSetActiveBaseLeavesHiddenOverlaysHidden(t *testing.T) {
	r := NewRegistry(Defaults())
	r.ToggleVisibility("mars-mola")
	require.NoError(t, r.SetActiveBase("mars-hirise"))
	mola, _ := r.Get("mars-mola")
	assert.False(t, mola.Visible)
}

func TestSetActiveBaseRejectsOverlayAndUnknown(t *testing.T) {
	r := NewRegistry(Defaults())
	assert.ErrorIs(t, r.SetActiveBase("mars-mola"), ErrNotBaseLayer)
	assert.ErrorIs(t, r.SetActiveBase("missing"), ErrNotBaseLayer)
	assert.Equal(t, "mars-viking", r.ActiveBase())
}

func TestMutatorsDoNotAliasPreviousSnapshot(t *testing.T) {
	r := NewRegistry(Defaults())
	before := r.Layers()

	r.SetOpacity("mars-mola", 0.1)
	r.ToggleVisibility("mars-viking")
	require.NoError(t, r.SetActiveBase("mars-hirise"))

	assert.Equal(t, Defaults(), before)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("overlay")
	require.NoError(t, err)
	assert.Equal(t, KindOverlay, k)

	_, err = ParseKind("terrain")
	assert.ErrorIs(t, err, ErrInvalidLayer)
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoRegistry)

	r := NewRegistry(nil)
	got, err := FromContext(WithRegistry(context.Background(), r))
	require.NoError(t, err)
	assert.Same(t, r, got)
}
