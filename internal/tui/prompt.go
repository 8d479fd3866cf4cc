package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-Dark-debug/areo/internal/database"
	"github.com/Mr-Dark-debug/areo/internal/layers"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptAddLayer
	promptGoto
	promptSearch
	promptSavePlace
)

func (k promptKind) label() string {
	switch k {
	case promptAddLayer:
		return "Add layer"
	case promptGoto:
		return "Go to"
	case promptSearch:
		return "Search"
	case promptSavePlace:
		return "Save view"
	default:
		return ""
	}
}

var errBadInput = errors.New("bad input")

func (m Model) openPrompt(kind promptKind) (Model, tea.Cmd) {
	ti := textinput.New()
	ti.Width = clamp(m.width-20, 10, 60)
	switch kind {
	case promptAddLayer:
		ti.Placeholder = "id|name|base or overlay|url"
	case promptGoto:
		ti.Placeholder = "lon lat [height m]"
	case promptSearch:
		ti.Placeholder = "place name"
		ti.SetValue(m.query)
	case promptSavePlace:
		ti.Placeholder = "name for this view"
	}
	ti.Focus()

	m.input = ti
	m.prompt = kind
	m.err = nil
	return m, textinput.Blink
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompt = promptNone
		return m, nil
	case tea.KeyEnter:
		kind := m.prompt
		m.prompt = promptNone
		return m.submitPrompt(kind, strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt(kind promptKind, value string) (Model, tea.Cmd) {
	switch kind {
	case promptAddLayer:
		nl, err := parseNewLayer(value)
		if err == nil {
			err = m.registry.Add(nl)
		}
		if err != nil {
			m.err = fmt.Errorf("add layer: %w", err)
			return m, nil
		}
		m.selectedLayer = len(m.registry.Layers()) - 1
		m.statusMsg = "Added " + nl.Name

	case promptGoto:
		e := m.manager.Viewer()
		if e == nil || value == "" {
			return m, nil
		}
		lon, lat, height, err := parseGoto(value, e.Camera().Position().Height)
		if err != nil {
			m.err = fmt.Errorf("go to: %w", err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Flying to %.2f, %.2f", lon, lat)
		return m.flyTo(lon, lat, height)

	case promptSearch:
		m.query = value
		m.selectedPlace = 0
		if m.sidebarVisible() {
			m.activePane = PanePlaces
		}
		return m, m.reloadPlaces()

	case promptSavePlace:
		e := m.manager.Viewer()
		if e == nil || value == "" || m.store == nil {
			return m, nil
		}
		pos := e.Camera().Position()
		return m, m.savePlace(&database.Place{
			Name:      value,
			Longitude: pos.Longitude,
			Latitude:  pos.Latitude,
			Height:    pos.Height,
			CreatedAt: m.clock.Now().UnixNano(),
		})
	}
	return m, nil
}

// parseNewLayer reads "id|name|kind|url". The url may be left off for a
// layer that only occupies a slot in the list.
func parseNewLayer(s string) (layers.NewLayer, error) {
	parts := strings.SplitN(s, "|", 4)
	if len(parts) < 3 {
		return layers.NewLayer{}, fmt.Errorf("%w: want id|name|kind|url", errBadInput)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	kind, err := layers.ParseKind(strings.ToLower(parts[2]))
	if err != nil {
		return layers.NewLayer{}, err
	}
	nl := layers.NewLayer{ID: parts[0], Name: parts[1], Kind: kind}
	if nl.Name == "" {
		nl.Name = nl.ID
	}
	if len(parts) == 4 {
		nl.SourceURL = parts[3]
	}
	return nl, nil
}

// parseGoto reads "lon lat [height]", keeping height when it is omitted.
func parseGoto(s string, height float64) (lon, lat, h float64, err error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 {
		return 0, 0, 0, fmt.Errorf("%w: want lon lat [height]", errBadInput)
	}

	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, ","), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q is not a number", errBadInput, f)
		}
		vals[i] = v
	}

	lon, lat, h = vals[0], vals[1], height
	if len(vals) == 3 {
		h = vals[2]
	}
	switch {
	case lat < -90 || lat > 90:
		return 0, 0, 0, fmt.Errorf("%w: latitude %.2f out of range", errBadInput, lat)
	case lon < -360 || lon > 360:
		return 0, 0, 0, fmt.Errorf("%w: longitude %.2f out of range", errBadInput, lon)
	case h <= 0:
		return 0, 0, 0, fmt.Errorf("%w: height must be positive", errBadInput)
	}
	return lon, lat, h, nil
}
