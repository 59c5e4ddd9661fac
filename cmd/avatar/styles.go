package main

import "github.com/charmbracelet/lipgloss"

// Color palette for terminal output.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for section headers in `avatar status`.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is for the left column of key/value lines.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(14)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for the one-line failure message.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// HintStyle is for the remediation line under an error.
	HintStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	// CmdStyle is for command names and image references.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)
