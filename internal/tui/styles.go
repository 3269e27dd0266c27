package tui

import "github.com/charmbracelet/lipgloss"

// Palette: teal accent for the docsense branding, muted grays for chrome.
var (
	accentColor = lipgloss.Color("43")
	textColor   = lipgloss.Color("252")
	mutedColor  = lipgloss.Color("243")
	okColor     = lipgloss.Color("77")
	warnColor   = lipgloss.Color("215")
	dangerColor = lipgloss.Color("203")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	successStyle  = lipgloss.NewStyle().Foreground(okColor)
	errorStyle    = lipgloss.NewStyle().Foreground(dangerColor)
	warnStyle     = lipgloss.NewStyle().Foreground(warnColor)
	dimStyle      = lipgloss.NewStyle().Foreground(mutedColor)

	userMsgStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("117"))

	assistantMsgStyle = lipgloss.NewStyle().Foreground(textColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	listItemStyle = lipgloss.NewStyle().Foreground(textColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor)
)
