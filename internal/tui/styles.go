package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed     = lipgloss.Color("#F38BA8")
	colorGreen   = lipgloss.Color("#A6E3A1")
	colorYellow  = lipgloss.Color("#F9E2AF")
	colorBlue    = lipgloss.Color("#89B4FA")
	colorMauve   = lipgloss.Color("#CBA6F7")
	colorGray    = lipgloss.Color("#6C7086")
	colorDimGray = lipgloss.Color("#45475A")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	headingStyle = lipgloss.NewStyle().
			Bold(true)

	textStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray)

	placeholderStyle = lipgloss.NewStyle().
				Italic(true).
				Foreground(colorGray)

	recordingStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	busyStyle = lipgloss.NewStyle().
			Foreground(colorMauve)

	idleStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	scoreStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	keyDisabledStyle = lipgloss.NewStyle().
				Foreground(colorDimGray)

	descStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
