// Package reconcile keeps a rendering engine's live imagery stack in line
// with the layer registry.
package reconcile

import (
	"github.com/charmbracelet/log"

	"github.com/Mr-Dark-debug/areo/internal/globe"
	"github.com/Mr-Dark-debug/areo/internal/layers"
	"github.com/Mr-Dark-debug/areo/internal/metrics"
)

// Provider settings for every registry layer handed to the engine.
const (
	MinimumLevel = 0
	MaximumLevel = 10
	CreditPrefix = "NASA/"
)

// LayerStack is the part of the engine the reconciler drives.
type LayerStack interface {
	ImageryLayers() []*globe.ImageryLayer
	AddImagerySource(p globe.ImageryProvider, index int) *globe.ImageryLayer
	RemoveImagerySource(l *globe.ImageryLayer) bool
}

// Reconciler rebuilds the engine's non-permanent layers from registry
// snapshots. It is not safe for concurrent use; it runs on the UI goroutine
// alongside the engine it drives.
type Reconciler struct {
	logger  *log.Logger
	handles map[string]*globe.ImageryLayer

	lastStack    LayerStack
	lastRegistry *layers.Registry
	lastRevision uint64
}

// New creates a Reconciler. A nil logger uses log.Default().
func New(logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		logger:  logger,
		handles: make(map[string]*globe.ImageryLayer),
	}
}

// Sync reconciles when the registry, its revision or the engine instance
// changed since the previous pass. A nil stack means no engine exists yet; nothing
// happens and the next non-nil stack is always reconciled. Sync reports
// whether a pass ran.
func (r *Reconciler) Sync(stack LayerStack, reg *layers.Registry) bool {
	if stack == nil {
		r.lastStack = nil
		r.handles = make(map[string]*globe.ImageryLayer)
		return false
	}
	descs, rev := reg.Snapshot()
	if stack == r.lastStack && reg == r.lastRegistry && rev == r.lastRevision {
		return false
	}
	r.Reconcile(stack, descs)
	r.lastStack = stack
	r.lastRegistry = reg
	r.lastRevision = rev
	return true
}

// Reconcile removes every layer not flagged as a permanent base, then adds
// one layer per visible descriptor with a source URL, in descriptor order.
// Later descriptors end up on top.
func (r *Reconciler) Reconcile(stack LayerStack, descs []layers.Descriptor) {
	for _, l := range stack.ImageryLayers() {
		if !l.IsBaseLayer() {
			stack.RemoveImagerySource(l)
		}
	}

	handles := make(map[string]*globe.ImageryLayer, len(descs))
	for _, d := range descs {
		if !d.Renderable() {
			continue
		}
		p := globe.NewURLTemplateProvider(globe.URLTemplateOptions{
			URL:          d.SourceURL,
			MinimumLevel: MinimumLevel,
			MaximumLevel: MaximumLevel,
			Credit:       CreditPrefix + d.Name,
		})
		l := stack.AddImagerySource(p, -1)
		if l == nil {
			r.logger.Debug("engine rejected imagery source", "layer", d.ID)
			continue
		}
		l.Alpha = d.Opacity
		l.Show = d.Visible
		handles[d.ID] = l
	}
	r.handles = handles

	metrics.ReconcilePasses.Inc()
	metrics.LiveLayers.Set(float64(len(handles)))
	r.logger.Debug("reconciled layers", "live", len(handles))
}

// Handle returns the engine layer installed for a descriptor id by the
// most recent pass.
func (r *Reconciler) Handle(id string) (*globe.ImageryLayer, bool) {
	l, ok := r.handles[id]
	return l, ok
}
