package globe

// ImageryProvider supplies tile URLs for one imagery source.
type ImageryProvider interface {
	// TileURL returns the URL of tile (x, y) at zoom level z.
	TileURL(z, x, y int) string
	// Levels returns the inclusive zoom range the source serves.
	Levels() (minimum, maximum int)
	// Credit is the attribution shown by the credit display.
	Credit() string
}

// URLTemplateOptions configures a URLTemplateProvider.
type URLTemplateOptions struct {
	URL          string
	MinimumLevel int
	MaximumLevel int
	Credit       string
}

// URLTemplateProvider serves tiles from a {z}/{x}/{y}-style URL template.
type URLTemplateProvider struct {
	opts URLTemplateOptions
}

// NewURLTemplateProvider creates a provider. A maximum level below the
// minimum is raised to the minimum.
func NewURLTemplateProvider(opts URLTemplateOptions) *URLTemplateProvider {
	if opts.MinimumLevel < 0 {
		opts.MinimumLevel = 0
	}
	if opts.MaximumLevel < opts.MinimumLevel {
		opts.MaximumLevel = opts.MinimumLevel
	}
	return &URLTemplateProvider{opts: opts}
}

func (p *URLTemplateProvider) TileURL(z, x, y int) string {
	return ExpandTemplate(p.opts.URL, z, x, y)
}

func (p *URLTemplateProvider) Levels() (int, int) {
	return p.opts.MinimumLevel, p.opts.MaximumLevel
}

func (p *URLTemplateProvider) Credit() string { return p.opts.Credit }

// Template returns the unexpanded URL template.
func (p *URLTemplateProvider) Template() string { return p.opts.URL }

// ImageryLayer is a provider placed in a viewer's layer stack.
// Alpha and Show may be changed at any time; the next Render uses them.
type ImageryLayer struct {
	Provider ImageryProvider
	Alpha    float64
	Show     bool

	base bool
}

// IsBaseLayer reports whether the layer was installed as a permanent base.
func (l *ImageryLayer) IsBaseLayer() bool { return l.base }

// AddImagerySource inserts a layer for p at index. An index outside the
// stack appends, which puts the layer on top. Returns nil once the viewer
// is destroyed.
func (v *Viewer) AddImagerySource(p ImageryProvider, index int) *ImageryLayer {
	if v.IsDestroyed() {
		return nil
	}
	l := &ImageryLayer{Provider: p, Alpha: 1, Show: true}
	if index < 0 || index >= len(v.layers) {
		v.layers = append(v.layers, l)
		return l
	}
	v.layers = append(v.layers, nil)
	copy(v.layers[index+1:], v.layers[index:])
	v.layers[index] = l
	return l
}

// AddBaseImagerySource installs p as a permanent base layer underneath
// every non-base layer.
func (v *Viewer) AddBaseImagerySource(p ImageryProvider) *ImageryLayer {
	if v.IsDestroyed() {
		return nil
	}
	idx := 0
	for idx < len(v.layers) && v.layers[idx].base {
		idx++
	}
	l := v.AddImagerySource(p, idx)
	l.base = true
	return l
}

// RemoveImagerySource removes l from the stack. It reports whether l was found.
func (v *Viewer) RemoveImagerySource(l *ImageryLayer) bool {
	for i, cur := range v.layers {
		if cur == l {
			v.layers = append(v.layers[:i:i], v.layers[i+1:]...)
			return true
		}
	}
	return false
}

// ImageryLayers returns the stack from bottom to top.
func (v *Viewer) ImageryLayers() []*ImageryLayer {
	return append([]*ImageryLayer(nil), v.layers...)
}
