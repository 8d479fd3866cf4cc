package tui

import "github.com/charmbracelet/lipgloss"

// ────────────────────────────────────────────────────────────
// Color Palette
// ────────────────────────────────────────────────────────────
//
// All chrome colors are defined here. Map pixels come from the
// imagery itself and never use this palette.

var (
	// Base
	colorBg        = lipgloss.Color("#0d1117")
	colorBgPanel   = lipgloss.Color("#161b22")
	colorBgSurface = lipgloss.Color("#1c2128")

	// Text
	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#484f58")

	// Accents
	colorRust   = lipgloss.Color("#e0704a")
	colorBlue   = lipgloss.Color("#58a6ff")
	colorGreen  = lipgloss.Color("#3fb950")
	colorRed    = lipgloss.Color("#f85149")
	colorYellow = lipgloss.Color("#d29922")
	colorPurple = lipgloss.Color("#bc8cff")

	// Structural
	colorDivider   = lipgloss.Color("#30363d")
	colorHighlight = lipgloss.Color("#1f6feb")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorRust)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	headerFlyingStyle = lipgloss.NewStyle().
				Foreground(colorYellow)
)

// Sidebar chrome
var (
	sidebarStyle = lipgloss.NewStyle().
			Background(colorBgPanel).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	panelTitleDimStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Bold(true)

	panelDividerStyle = lipgloss.NewStyle().
				Foreground(colorDivider)
)

// Layer list
var (
	itemStyle = lipgloss.NewStyle().
			Foreground(colorText)

	itemSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Foreground(colorText).
				Bold(true)

	itemDimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	kindBaseStyle = lipgloss.NewStyle().
			Foreground(colorRust)

	kindOverlayStyle = lipgloss.NewStyle().
				Foreground(colorPurple)

	checkOnStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	checkOffStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	opacityFillStyle = lipgloss.NewStyle().
				Foreground(colorBlue)

	opacityEmptyStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted)
)

// Places
var (
	placeSavedStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	placeBuiltinStyle = lipgloss.NewStyle().
				Foreground(colorTextDim)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// Map pane
var (
	mapPlaceholderStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Background(colorBg)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Background(colorBgSurface).
			Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// Prompt bar
var (
	promptLabelStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Background(colorBgSurface).
				Bold(true).
				Padding(0, 1)
)
