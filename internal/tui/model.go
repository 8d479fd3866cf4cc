package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/Mr-Dark-debug/areo/internal/config"
	"github.com/Mr-Dark-debug/areo/internal/database"
	"github.com/Mr-Dark-debug/areo/internal/layers"
	"github.com/Mr-Dark-debug/areo/internal/reconcile"
	"github.com/Mr-Dark-debug/areo/internal/viewer"
)

// ────────────────────────────────────────────────────────────
// Pane focuses
// ────────────────────────────────────────────────────────────

// Pane represents which UI pane currently has keyboard focus.
type Pane int

const (
	PaneLayers Pane = iota
	PanePlaces
	PaneMap
)

const frameInterval = time.Second / 30

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Options wires the model to the rest of the application. Only Registry
// and Manager are required for a useful map; a nil Store disables saved
// places.
type Options struct {
	Registry   *layers.Registry
	Manager    *viewer.Manager
	Reconciler *reconcile.Reconciler
	Store      database.Store
	Gazetteer  []config.PlaceConfig
	Clock      clockwork.Clock
	Logger     *log.Logger
}

// Model is the root BubbleTea model for the Areo map viewer.
// State is organized by concern; rendering is delegated
// to component functions in separate files.
type Model struct {
	registry   *layers.Registry
	manager    *viewer.Manager
	reconciler *reconcile.Reconciler
	store      database.Store
	clock      clockwork.Clock
	logger     *log.Logger

	// Data
	gazetteer []place
	saved     []place
	query     string

	// UI state
	keys          keyMap
	help          help.Model
	input         textinput.Model
	prompt        promptKind
	activePane    Pane
	selectedLayer int
	selectedPlace int
	showSidebar   bool
	flying        bool
	width         int
	height        int

	// Status
	statusMsg string
	err       error
}

// NewModel creates a new TUI model. The viewer itself is created on the
// first window size message.
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Registry == nil {
		opts.Registry = layers.NewRegistry(layers.Defaults())
	}
	if opts.Manager == nil {
		opts.Manager = viewer.NewManager(viewer.Config{Logger: opts.Logger})
	}
	if opts.Reconciler == nil {
		opts.Reconciler = reconcile.New(opts.Logger)
	}

	h := help.New()
	h.Styles.ShortKey = hintKeyStyle
	h.Styles.ShortDesc = hintDescStyle
	h.Styles.ShortSeparator = hintDescStyle

	return Model{
		registry:    opts.Registry,
		manager:     opts.Manager,
		reconciler:  opts.Reconciler,
		store:       opts.Store,
		clock:       opts.Clock,
		logger:      opts.Logger,
		gazetteer:   gazetteerPlaces(opts.Gazetteer),
		keys:        defaultKeyMap(),
		help:        h,
		activePane:  PaneLayers,
		showSidebar: true,
		statusMsg:   "Loading map...",
	}
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type placesLoadedMsg []*database.Place
type placeSavedMsg struct{ place *database.Place }
type placeDeletedMsg struct{ id string }
type tilesReadyMsg struct{}
type frameMsg time.Time
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return m.loadPlaces()
}

// waitForTiles blocks until the engine reports finished tile loads. It
// yields nothing once the engine is destroyed.
func waitForTiles(e viewer.Engine) tea.Cmd {
	if e == nil {
		return nil
	}
	updates := e.Updates()
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return tilesReadyMsg{}
	}
}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

// Update handles msg and then brings the engine's layer stack in line with
// the registry.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncLayers()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m.resizeViewer()

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case tilesReadyMsg:
		return m, waitForTiles(m.manager.Viewer())

	case frameMsg:
		return m.advanceFlight()

	case placesLoadedMsg:
		m.saved = savedPlaces(msg)
		m.selectedPlace = clamp(m.selectedPlace, 0, maxInt(len(m.visiblePlaces())-1, 0))
		return m, nil

	case placeSavedMsg:
		m.statusMsg = "Saved " + msg.place.Name
		return m, m.reloadPlaces()

	case placeDeletedMsg:
		m.statusMsg = "Place deleted"
		return m, m.reloadPlaces()

	case errMsg:
		m.err = msg.err
		m.logger.Warn("tui", "err", msg.err)
		return m, nil
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// syncLayers reconciles only when the registry revision or the engine changed.
func (m *Model) syncLayers() {
	var stack reconcile.LayerStack
	if e := m.manager.Viewer(); e != nil {
		stack = e
	}
	if m.reconciler.Sync(stack, m.registry) {
		m.logger.Debug("layers reconciled", "revision", m.registry.Revision())
	}
}

// resizeViewer creates the viewer on first use and keeps its surface in
// step with the map pane afterwards.
func (m Model) resizeViewer() (Model, tea.Cmd) {
	surface := m.mapSurface()
	if e := m.manager.Viewer(); e != nil {
		e.Resize(surface)
		return m, nil
	}

	e, err := m.manager.InitViewer(surface)
	if err != nil {
		if !errors.Is(err, viewer.ErrNoSurface) {
			m.err = err
		}
		return m, nil
	}
	m.statusMsg = ""
	return m, waitForTiles(e)
}

func (m Model) advanceFlight() (Model, tea.Cmd) {
	e := m.manager.Viewer()
	if e == nil || !e.Tick() {
		m.flying = false
		return m, nil
	}
	return m, nextFrame()
}

// flyTo starts a flight unless one is already being animated.
func (m Model) flyTo(lon, lat, height float64) (Model, tea.Cmd) {
	if m.manager.Viewer() == nil {
		return m, nil
	}
	m.manager.FlyToLocation(lon, lat, height)
	if m.flying {
		return m, nil
	}
	m.flying = true
	return m, nextFrame()
}

// ────────────────────────────────────────────────────────────
// Key handling
// ────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys

	// ── Global ──
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Focus):
		m.cycleFocus(msg.String() == "shift+tab")
		return m, nil

	case key.Matches(msg, k.Search):
		return m.openPrompt(promptSearch)

	case key.Matches(msg, k.Sidebar):
		m.showSidebar = !m.showSidebar
		if !m.showSidebar {
			m.activePane = PaneMap
		}
		return m.resizeViewer()
	}

	m.err = nil

	// ── Pane-specific ──
	switch m.activePane {
	case PaneLayers:
		return m.handleLayersKey(msg)
	case PanePlaces:
		return m.handlePlacesKey(msg)
	default:
		return m.handleMapKey(msg)
	}
}

func (m *Model) cycleFocus(reverse bool) {
	if !m.sidebarVisible() {
		m.activePane = PaneMap
		return
	}
	step := 1
	if reverse {
		step = 2
	}
	m.activePane = (m.activePane + Pane(step)) % 3
}

// ────────────────────────────────────────────────────────────
// Layout
// ────────────────────────────────────────────────────────────

func (m Model) sidebarVisible() bool {
	return m.showSidebar && m.width >= 60
}

func (m Model) sidebarWidth() int {
	if !m.sidebarVisible() {
		return 0
	}
	return clamp(m.width/3, 28, 40)
}

func (m Model) bodyHeight() int {
	return maxInt(m.height-2, 0)
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)

	var body string
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			renderSidebar(&m),
			renderMap(&m),
		)
	} else {
		body = renderMap(&m)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
