package ui

import "charm.land/lipgloss/v2"

// Color palette shared by the TUI and the prompt helpers.
var (
	// Primary is the main accent color (cyan/teal).
	Primary = lipgloss.Color("62")

	// Accent is the highlight color for selected items (pink).
	Accent = lipgloss.Color("212")

	// Success is used for positive outcomes (green).
	Success = lipgloss.Color("82")

	// Error is used for error messages (red).
	Error = lipgloss.Color("196")

	// Muted is used for secondary text (gray).
	Muted = lipgloss.Color("240")

	// Normal is the standard text color (light gray).
	Normal = lipgloss.Color("252")

	// Info is used for informational text (gray).
	Info = lipgloss.Color("244")

	// Warning is used for stale/offline indicators (orange).
	Warning = lipgloss.Color("214")
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(Normal)
	mutedStyle    = lipgloss.NewStyle().Foreground(Muted)
	errorStyle    = lipgloss.NewStyle().Foreground(Error)
	successStyle  = lipgloss.NewStyle().Foreground(Success)
	warningStyle  = lipgloss.NewStyle().Foreground(Warning)
	helpStyle     = lipgloss.NewStyle().Foreground(Info).Italic(true)

	// highlightStyle marks filter-matched characters.
	highlightStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			Underline(true)

	filterLabelStyle = lipgloss.NewStyle().Foreground(Info)
	filterStyle      = lipgloss.NewStyle().Foreground(Accent)
)
