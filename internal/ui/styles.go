package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
// - Default (white/black): primary text
// - Accent (soft blue #89B4FA): ids, paths, highlights
// - Muted (gray): secondary info, hints
// - No colored success/error; unicode symbols carry the meaning

var (
	// Accent style for record ids, file paths, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")).Bold(true)
)
