package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-Dark-debug/areo/internal/config"
	"github.com/Mr-Dark-debug/areo/internal/database"
	"github.com/Mr-Dark-debug/areo/pkg/timeutil"
)

// searchLimit caps how many saved places a search returns.
const searchLimit = 50

// place is a gazetteer entry or a saved view, flattened for listing.
type place struct {
	id        string // empty for gazetteer entries
	name      string
	note      string
	longitude float64
	latitude  float64
	height    float64
	createdAt int64
}

func (p place) saved() bool { return p.id != "" }

func gazetteerPlaces(cfg []config.PlaceConfig) []place {
	out := make([]place, 0, len(cfg))
	for _, c := range cfg {
		out = append(out, place{
			name:      c.Name,
			note:      c.Note,
			longitude: c.Longitude,
			latitude:  c.Latitude,
			height:    c.Height,
		})
	}
	return out
}

func savedPlaces(rows []*database.Place) []place {
	out := make([]place, 0, len(rows))
	for _, r := range rows {
		out = append(out, place{
			id:        r.ID,
			name:      r.Name,
			note:      r.Note,
			longitude: r.Longitude,
			latitude:  r.Latitude,
			height:    r.Height,
			createdAt: r.CreatedAt,
		})
	}
	return out
}

// visiblePlaces is the gazetteer filtered by the current query, followed
// by the saved places the store returned for it.
func (m Model) visiblePlaces() []place {
	q := strings.ToLower(m.query)
	out := make([]place, 0, len(m.gazetteer)+len(m.saved))
	for _, p := range m.gazetteer {
		if q == "" || strings.Contains(strings.ToLower(p.name), q) || strings.Contains(strings.ToLower(p.note), q) {
			out = append(out, p)
		}
	}
	return append(out, m.saved...)
}

// ────────────────────────────────────────────────────────────
// Commands
// ────────────────────────────────────────────────────────────

func (m Model) loadPlaces() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		places, err := store.ListPlaces()
		if err != nil {
			return errMsg{err}
		}
		return placesLoadedMsg(places)
	}
}

func (m Model) searchPlaces(query string) tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		places, err := store.SearchPlaces(query, searchLimit)
		if err != nil {
			return errMsg{err}
		}
		return placesLoadedMsg(places)
	}
}

// reloadPlaces refreshes saved places under the active query.
func (m Model) reloadPlaces() tea.Cmd {
	if m.query != "" {
		return m.searchPlaces(m.query)
	}
	return m.loadPlaces()
}

func (m Model) savePlace(p *database.Place) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if err := store.InsertPlace(p); err != nil {
			return errMsg{err}
		}
		return placeSavedMsg{place: p}
	}
}

func (m Model) deletePlace(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if err := store.DeletePlace(id); err != nil {
			return errMsg{err}
		}
		return placeDeletedMsg{id: id}
	}
}

// ────────────────────────────────────────────────────────────
// Places pane keys
// ────────────────────────────────────────────────────────────

func (m Model) handlePlacesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys
	places := m.visiblePlaces()
	last := maxInt(len(places)-1, 0)

	switch {
	case key.Matches(msg, k.Up):
		m.selectedPlace = clamp(m.selectedPlace-1, 0, last)

	case key.Matches(msg, k.Down):
		m.selectedPlace = clamp(m.selectedPlace+1, 0, last)

	case key.Matches(msg, k.Save):
		if m.store == nil {
			m.statusMsg = "Saving places needs a database"
			return m, nil
		}
		if m.manager.Viewer() == nil {
			return m, nil
		}
		return m.openPrompt(promptSavePlace)

	case key.Matches(msg, k.Fly):
		if len(places) == 0 {
			return m, nil
		}
		p := places[clamp(m.selectedPlace, 0, last)]
		m.statusMsg = "Flying to " + p.name
		return m.flyTo(p.longitude, p.latitude, p.height)

	case key.Matches(msg, k.Delete):
		if len(places) == 0 || m.store == nil {
			return m, nil
		}
		p := places[clamp(m.selectedPlace, 0, last)]
		if !p.saved() {
			m.statusMsg = p.name + " is built in"
			return m, nil
		}
		return m, m.deletePlace(p.id)
	}
	return m, nil
}

// ────────────────────────────────────────────────────────────
// Places panel
// ────────────────────────────────────────────────────────────

func renderPlaces(m *Model, width int, maxRows int) []string {
	places := m.visiblePlaces()
	if len(places) == 0 {
		if m.query != "" {
			return []string{emptyStateStyle.Render(fmt.Sprintf("Nothing matches %q", m.query))}
		}
		return []string{emptyStateStyle.Render("No places")}
	}

	// Keep the selection on screen.
	start := 0
	if maxRows > 0 && m.selectedPlace >= maxRows {
		start = m.selectedPlace - maxRows + 1
	}
	end := len(places)
	if maxRows > 0 {
		end = minInt(end, start+maxRows)
	}

	now := m.clock.Now()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		p := places[i]
		marker := placeBuiltinStyle.Render("·")
		meta := fmt.Sprintf("%5.1f°%s", math.Abs(p.latitude), hemisphere(p.latitude))
		if p.saved() {
			marker = placeSavedStyle.Render("★")
			meta = timeutil.RelativeTimeFrom(p.createdAt, now)
		}

		nameWidth := maxInt(width-len([]rune(meta))-3, 6)
		name := fmt.Sprintf("%-*s", nameWidth, truncate(p.name, nameWidth))
		if i == m.selectedPlace && m.activePane == PanePlaces {
			name = itemSelectedStyle.Render(name)
		} else {
			name = itemStyle.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", marker, name, itemDimStyle.Render(meta)))
	}
	return lines
}

func hemisphere(lat float64) string {
	if lat < 0 {
		return "S"
	}
	return "N"
}
