package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#00BFFF") // focus
	colorAccent  = lipgloss.Color("#FFD700") // central body
	colorDanger  = lipgloss.Color("#FF5252") // errors
	colorMuted   = lipgloss.Color("#636363") // orbits and help
	colorWhite   = lipgloss.Color("#EEEEEE")
	colorSurface = lipgloss.Color("#1E1E2E")
)

const (
	glyphOrbit  = "·"
	glyphCamera = "@"
	glyphEmpty  = " "
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleMap = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted)

	styleOrbit    = lipgloss.NewStyle().Foreground(colorMuted)
	styleBody     = lipgloss.NewStyle().Foreground(colorWhite)
	styleCentral  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true)
	styleCamera   = lipgloss.NewStyle().Foreground(colorPrimary)
	styleInfo     = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleError    = lipgloss.NewStyle().Foreground(colorDanger)
	styleHelp     = lipgloss.NewStyle().Foreground(colorMuted)
)
