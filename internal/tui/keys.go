package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds every binding. Which ones apply depends on the focused pane.
type keyMap struct {
	// Global
	Focus   key.Binding
	Search  key.Binding
	Sidebar key.Binding
	Quit    key.Binding

	// Lists
	Up   key.Binding
	Down key.Binding

	// Layers pane
	Toggle      key.Binding
	SetBase     key.Binding
	OpacityUp   key.Binding
	OpacityDown key.Binding
	Remove      key.Binding
	Add         key.Binding

	// Map pane
	PanUp    key.Binding
	PanDown  key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Goto     key.Binding

	// Places pane
	Fly    key.Binding
	Save   key.Binding
	Delete key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Focus:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "focus")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search places")),
		Sidebar: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "sidebar")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),

		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "show/hide")),
		SetBase:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "set base")),
		OpacityUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "opacity")),
		OpacityDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "opacity")),
		Remove:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),

		PanUp:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("←↑→↓", "pan")),
		PanDown:  key.NewBinding(key.WithKeys("down", "j")),
		PanLeft:  key.NewBinding(key.WithKeys("left", "h")),
		PanRight: key.NewBinding(key.WithKeys("right", "l")),
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:  key.NewBinding(key.WithKeys("-")),
		Goto:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to")),

		Fly:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "fly")),
		Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save view")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	}
}

// paneHelp adapts the key map to help.KeyMap for one pane.
type paneHelp struct {
	keys keyMap
	pane Pane
}

func (h paneHelp) ShortHelp() []key.Binding {
	k := h.keys
	var b []key.Binding
	switch h.pane {
	case PaneLayers:
		b = []key.Binding{k.Up, k.Toggle, k.SetBase, k.OpacityUp, k.Remove, k.Add}
	case PanePlaces:
		b = []key.Binding{k.Up, k.Fly, k.Save, k.Delete}
	case PaneMap:
		b = []key.Binding{k.PanUp, k.ZoomIn, k.Goto}
	}
	return append(b, k.Focus, k.Search, k.Sidebar, k.Quit)
}

func (h paneHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
