package tui

import "github.com/charmbracelet/lipgloss"

// Styles for the card room terminal interface
var (
	// Header style for the room banner
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	// ChatStyle renders plain chat messages
	ChatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// GameStyle renders game action announcements
	GameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4"))

	// SystemStyle renders connection and presence notices
	SystemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true)

	// ErrorStyle for command errors
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	// StaleStyle marks card listings that no longer reflect the pile
	StaleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Faint(true)

	// SidebarTitleStyle for the pile and player headings
	SidebarTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFEAA7")).
				Bold(true)

	// SidebarEntryStyle for pile counts and player names
	SidebarEntryStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	// PromptStyle for the input prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)
)
