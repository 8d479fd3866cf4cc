// Package tui implements the Areo terminal map viewer.
//
// Built with Charmbracelet's BubbleTea, Lipgloss, and Bubbles libraries.
// The map itself is drawn by the viewer engine; this package owns the
// chrome around it and turns keys into registry mutations and flights.
//
// Component architecture:
//
//	model.go     : root model, message routing, Init/Update/View
//	keys.go      : key bindings and per-pane help
//	theme.go     : centralized color + style definitions
//	header.go    : top bar, sidebar frame, footer with hints
//	layerlist.go : layer panel and its keys
//	places.go    : gazetteer and saved places
//	mapview.go   : map pane, pan and zoom
//	prompt.go    : text prompts (add layer, go to, search, save)
//	helpers.go   : truncation and int helpers
package tui
