package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/areo/internal/globe"
)

// renderHeader produces the top bar:
//
//	AREO │ 137.80°E 5.40°S · 400 km │ Viking MDIM 2.1
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render("AREO")
	sep := headerSepStyle.Render(" │ ")

	parts := []string{brand}

	if e := m.manager.Viewer(); e != nil {
		parts = append(parts, sep, headerMetaStyle.Render(formatPosition(e.Camera().Position())))
	} else {
		parts = append(parts, sep, headerMetaStyle.Render("Mars"))
	}

	base := "no base"
	if id := m.registry.ActiveBase(); id != "" {
		if d, ok := m.registry.Get(id); ok {
			base = d.Name
		}
	}
	parts = append(parts, sep, headerMetaStyle.Render(base))

	if m.flying {
		parts = append(parts, sep, headerFlyingStyle.Render("flying"))
	}

	return headerBarStyle.Width(m.width).MaxHeight(1).Render(strings.Join(parts, ""))
}

// renderFooter produces the bottom bar: the open prompt, or status on the
// left and key hints for the focused pane on the right.
func renderFooter(m *Model) string {
	if m.prompt != promptNone {
		label := promptLabelStyle.Render(m.prompt.label())
		return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", m.input.View())
	}

	var left string
	switch {
	case m.err != nil:
		left = statusErrStyle.Render(m.err.Error())
	case m.statusMsg != "":
		left = statusStyle.Render(m.statusMsg)
	}

	h := m.help
	h.Width = maxInt(m.width-lipgloss.Width(left)-1, 0)
	right := h.View(paneHelp{keys: m.keys, pane: m.activePane})

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderSidebar stacks the layers and places panels.
func renderSidebar(m *Model) string {
	w := m.sidebarWidth()
	h := m.bodyHeight()
	inner := maxInt(w-2, 1)

	var lines []string
	lines = append(lines, paneTitle(m, PaneLayers, "Layers"))
	// Layers get at most half the sidebar; places take the rest.
	lines = append(lines, renderLayers(m, inner, maxInt((h-3)/2, 1))...)
	lines = append(lines, panelDividerStyle.Render(strings.Repeat("─", inner)))

	title := "Places"
	if m.query != "" {
		title = fmt.Sprintf("Places /%s", truncate(m.query, inner-10))
	}
	lines = append(lines, paneTitle(m, PanePlaces, title))
	lines = append(lines, renderPlaces(m, inner, h-len(lines))...)

	return sidebarStyle.
		Width(w).
		Height(h).
		MaxHeight(h).
		Render(strings.Join(lines, "\n"))
}

func paneTitle(m *Model, pane Pane, title string) string {
	if m.activePane == pane {
		return panelTitleStyle.Render(title)
	}
	return panelTitleDimStyle.Render(title)
}

// formatPosition renders a camera position as "137.80°E 5.40°S · 400 km".
func formatPosition(p globe.Cartographic) string {
	ew := "E"
	if p.Longitude < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s · %s",
		math.Abs(p.Longitude), ew,
		math.Abs(p.Latitude), hemisphere(p.Latitude),
		formatHeight(p.Height))
}

func formatHeight(h float64) string {
	if h < 10_000 {
		return fmt.Sprintf("%.0f m", h)
	}
	return fmt.Sprintf("%.0f km", h/1000)
}
