package tui

import (
	"math"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/areo/internal/globe"
)

// mapSurface is the area left for the map once header, footer and sidebar
// are laid out.
func (m Model) mapSurface() globe.Surface {
	return globe.Surface{
		Width:  maxInt(m.width-m.sidebarWidth(), 0),
		Height: m.bodyHeight(),
	}
}

// renderMap draws the engine frame, or a placeholder before the engine exists.
func renderMap(m *Model) string {
	s := m.mapSurface()
	if e := m.manager.Viewer(); e != nil {
		if frame := e.Render(); frame != "" {
			return frame
		}
	}
	return mapPlaceholderStyle.
		Width(s.Width).
		Height(s.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Render("No map")
}

func (m Model) handleMapKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys
	if key.Matches(msg, k.Goto) {
		return m.openPrompt(promptGoto)
	}

	e := m.manager.Viewer()
	if e == nil {
		return m, nil
	}
	cam := e.Camera()
	pos := cam.Position()
	step := panStep(pos.Height)

	switch {
	case key.Matches(msg, k.PanUp):
		pos.Latitude += step
	case key.Matches(msg, k.PanDown):
		pos.Latitude -= step
	case key.Matches(msg, k.PanLeft):
		pos.Longitude -= step / math.Max(math.Cos(pos.Latitude*math.Pi/180), 0.1)
	case key.Matches(msg, k.PanRight):
		pos.Longitude += step / math.Max(math.Cos(pos.Latitude*math.Pi/180), 0.1)
	case key.Matches(msg, k.ZoomIn):
		pos.Height /= 2
	case key.Matches(msg, k.ZoomOut):
		pos.Height *= 2
	default:
		return m, nil
	}

	cam.SetView(pos, globe.TopDown)
	m.flying = false
	return m, nil
}

// panStep is a quarter of the visible ground width, in degrees of arc.
func panStep(height float64) float64 {
	return globe.GroundWidth(height) / 4 / (globe.MarsRadius * math.Pi / 180)
}
