package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-Dark-debug/areo/internal/layers"
)

const opacityStep = 0.1

// ────────────────────────────────────────────────────────────
// Layers pane keys
// ────────────────────────────────────────────────────────────

func (m Model) handleLayersKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys
	descs := m.registry.Layers()
	last := maxInt(len(descs)-1, 0)

	switch {
	case key.Matches(msg, k.Up):
		m.selectedLayer = clamp(m.selectedLayer-1, 0, last)
		return m, nil
	case key.Matches(msg, k.Down):
		m.selectedLayer = clamp(m.selectedLayer+1, 0, last)
		return m, nil
	case key.Matches(msg, k.Add):
		return m.openPrompt(promptAddLayer)
	}

	if len(descs) == 0 {
		return m, nil
	}
	d := descs[clamp(m.selectedLayer, 0, last)]

	switch {
	case key.Matches(msg, k.Toggle):
		m.registry.ToggleVisibility(d.ID)

	case key.Matches(msg, k.SetBase):
		if err := m.registry.SetActiveBase(d.ID); err != nil {
			m.err = fmt.Errorf("%s: %w", d.Name, err)
			return m, nil
		}
		m.statusMsg = "Base: " + d.Name

	case key.Matches(msg, k.OpacityUp):
		m.registry.SetOpacity(d.ID, d.Opacity+opacityStep)

	case key.Matches(msg, k.OpacityDown):
		m.registry.SetOpacity(d.ID, d.Opacity-opacityStep)

	case key.Matches(msg, k.Remove):
		m.registry.Remove(d.ID)
		m.selectedLayer = clamp(m.selectedLayer, 0, maxInt(len(descs)-2, 0))
		m.statusMsg = "Removed " + d.Name
	}
	return m, nil
}

// ────────────────────────────────────────────────────────────
// Layers panel
// ────────────────────────────────────────────────────────────

// renderLayers lists the registry in stack order:
//
//	[x] base    Viking MDIM 2.1   ██████████
//	[ ] overlay MOLA Topography   ███████░░░
func renderLayers(m *Model, width int, maxRows int) []string {
	descs := m.registry.Layers()
	if len(descs) == 0 {
		return []string{emptyStateStyle.Render("No layers. Press a to add one.")}
	}

	start := 0
	if maxRows > 0 && m.selectedLayer >= maxRows {
		start = m.selectedLayer - maxRows + 1
	}
	end := len(descs)
	if maxRows > 0 {
		end = minInt(end, start+maxRows)
	}

	nameWidth := maxInt(width-22, 6)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		d := descs[i]
		check := checkOffStyle.Render("[ ]")
		if d.Visible {
			check = checkOnStyle.Render("[x]")
		}
		tag := kindOverlayStyle.Render("overlay")
		if d.Kind == layers.KindBase {
			tag = kindBaseStyle.Render("base   ")
		}

		name := fmt.Sprintf("%-*s", nameWidth, truncate(d.Name, nameWidth))
		if i == m.selectedLayer && m.activePane == PaneLayers {
			name = itemSelectedStyle.Render(name)
		} else if d.SourceURL == "" {
			name = itemDimStyle.Render(name)
		} else {
			name = itemStyle.Render(name)
		}

		lines = append(lines, fmt.Sprintf("%s %s %s %s", check, tag, name, opacityBar(d.Opacity, 8)))
	}
	return lines
}

// opacityBar renders opacity as a fixed-width gauge.
func opacityBar(opacity float64, width int) string {
	filled := clamp(int(opacity*float64(width)+0.5), 0, width)
	return opacityFillStyle.Render(strings.Repeat("█", filled)) +
		opacityEmptyStyle.Render(strings.Repeat("░", width-filled))
}
