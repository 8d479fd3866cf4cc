// Package layers holds the declarative imagery layer registry.
//
// The Registry is the single source of truth for which layers exist, in
// what order, and how they should be displayed. It never talks to the
// rendering engine; the reconcile package turns registry snapshots into
// engine state.
package layers

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Kind discriminates full-coverage base imagery from overlays.
type Kind string

const (
	KindBase    Kind = "base"
	KindOverlay Kind = "overlay"
)

// ParseKind converts a config or prompt string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBase, KindOverlay:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown layer kind %q", ErrInvalidLayer, s)
	}
}

var (
	// ErrDuplicateLayer is returned by Add when the id is already registered.
	ErrDuplicateLayer = errors.New("layer id already registered")
	// ErrInvalidLayer is returned by Add for a malformed layer definition.
	ErrInvalidLayer = errors.New("invalid layer")
	// ErrNotBaseLayer is returned by SetActiveBase when no base layer has the id.
	ErrNotBaseLayer = errors.New("not a base layer")
)

// Descriptor describes one imagery layer.
type Descriptor struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      Kind    `json:"kind"`
	Visible   bool    `json:"visible"`
	Opacity   float64 `json:"opacity"`
	SourceURL string  `json:"source_url,omitempty"`
}

// Renderable reports whether the reconciler should hand this layer to the engine.
func (d Descriptor) Renderable() bool {
	return d.Visible && d.SourceURL != ""
}

// NewLayer is the caller-supplied part of a descriptor for Add.
// Visibility and opacity are always initialized by the registry.
type NewLayer struct {
	ID        string
	Name      string
	Kind      Kind
	SourceURL string
}

// Registry is the ordered descriptor collection. Every mutation swaps in a
// freshly built slice, so a slice returned by Layers is never modified.
type Registry struct {
	mu       sync.RWMutex
	layers   []Descriptor
	revision uint64
}

// NewRegistry creates a registry seeded with a copy of seed. The seed is
// taken as is; callers building one by hand should check it with Validate
// first, since the mutators assume unique ids and at most one visible base.
func NewRegistry(seed []Descriptor) *Registry {
	return &Registry{layers: append([]Descriptor(nil), seed...)}
}

// Layers returns a copy of the ordered collection.
func (r *Registry) Layers() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Descriptor(nil), r.layers...)
}

// Snapshot returns the collection together with the revision it belongs to.
func (r *Registry) Snapshot() ([]Descriptor, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Descriptor(nil), r.layers...), r.revision
}

// Revision increases by one for every mutation that changed the collection.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Get returns the descriptor with the given id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := indexOf(r.layers, id); i >= 0 {
		return r.layers[i], true
	}
	return Descriptor{}, false
}

// ActiveBase returns the id of the visible base layer, or "" if none is visible.
func (r *Registry) ActiveBase() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.layers {
		if l.Kind == KindBase && l.Visible {
			return l.ID
		}
	}
	return ""
}

// Add appends a new visible, fully opaque layer. A base layer added this way
// becomes the active base.
func (r *Registry) Add(nl NewLayer) error {
	if nl.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidLayer)
	}
	if nl.Kind != KindBase && nl.Kind != KindOverlay {
		return fmt.Errorf("%w: unknown layer kind %q", ErrInvalidLayer, nl.Kind)
	}
	if nl.Name == "" {
		nl.Name = nl.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.layers, nl.ID) >= 0 {
		return fmt.Errorf("adding layer %q: %w", nl.ID, ErrDuplicateLayer)
	}

	next := make([]Descriptor, 0, len(r.layers)+1)
	for _, l := range r.layers {
		if nl.Kind == KindBase && l.Kind == KindBase {
			l.Visible = false
		}
		next = append(next, l)
	}
	next = append(next, Descriptor{
		ID:        nl.ID,
		Name:      nl.Name,
		Kind:      nl.Kind,
		Visible:   true,
		Opacity:   1,
		SourceURL: nl.SourceURL,
	})
	r.commit(next)
	return nil
}

// Remove deletes the layer with the given id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.layers, id)
	if i < 0 {
		return
	}
	next := make([]Descriptor, 0, len(r.layers)-1)
	next = append(next, r.layers[:i]...)
	next = append(next, r.layers[i+1:]...)
	r.commit(next)
}

// ToggleVisibility flips the visibility of one layer. Showing a hidden base
// layer hides the other bases in the same transition.
func (r *Registry) ToggleVisibility(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.layers, id)
	if i < 0 {
		return
	}
	target := r.layers[i]
	if target.Kind == KindBase && !target.Visible {
		r.commit(withActiveBase(r.layers, id))
		return
	}
	next := append([]Descriptor(nil), r.layers...)
	next[i].Visible = !target.Visible
	r.commit(next)
}

// SetOpacity sets a layer's opacity, clamped to [0,1]. NaN is treated as 0.
func (r *Registry) SetOpacity(id string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.layers, id)
	if i < 0 {
		return
	}
	next := append([]Descriptor(nil), r.layers...)
	next[i].Opacity = ClampOpacity(value)
	r.commit(next)
}

// SetActiveBase shows the base layer with the given id and hides every other
// base layer. Overlays keep their visibility.
func (r *Registry) SetActiveBase(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.layers, id)
	if i < 0 || r.layers[i].Kind != KindBase {
		return fmt.Errorf("activating %q: %w", id, ErrNotBaseLayer)
	}
	r.commit(withActiveBase(r.layers, id))
	return nil
}

// ClampOpacity restricts v to [0,1].
func ClampOpacity(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// commit must be called with mu held.
func (r *Registry) commit(next []Descriptor) {
	r.layers = next
	r.revision++
}

func withActiveBase(in []Descriptor, id string) []Descriptor {
	next := make([]Descriptor, len(in))
	for i, l := range in {
		if l.Kind == KindBase {
			l.Visible = l.ID == id
		}
		next[i] = l
	}
	return next
}

// Validate checks a descriptor list against the registry invariants: non-empty
// unique ids, a known kind, opacity in [0,1] and at most one visible base.
func Validate(descs []Descriptor) error {
	seen := make(map[string]struct{}, len(descs))
	activeBase := ""
	for _, d := range descs {
		if d.ID == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidLayer)
		}
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("layer %q: %w", d.ID, ErrDuplicateLayer)
		}
		seen[d.ID] = struct{}{}
		if d.Kind != KindBase && d.Kind != KindOverlay {
			return fmt.Errorf("%w: layer %q has unknown kind %q", ErrInvalidLayer, d.ID, d.Kind)
		}
		if !(d.Opacity >= 0 && d.Opacity <= 1) {
			return fmt.Errorf("%w: layer %q opacity %v outside [0,1]", ErrInvalidLayer, d.ID, d.Opacity)
		}
		if d.Kind == KindBase && d.Visible {
			if activeBase != "" {
				return fmt.Errorf("%w: bases %q and %q are both visible", ErrInvalidLayer, activeBase, d.ID)
			}
			activeBase = d.ID
		}
	}
	return nil
}

func indexOf(ls []Descriptor, id string) int {
	for i, l := range ls {
		if l.ID == id {
			return i
		}
	}
	return -1
}
