package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7C3AED")
	accentColor  = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	warnColor    = lipgloss.Color("#EAB308")
	mutedColor   = lipgloss.Color("#6C7086")
	fgColor      = lipgloss.Color("#CDD6F4")
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(primaryColor).
	MarginBottom(1)

var locationStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Italic(true)

var bookTitleStyle = lipgloss.NewStyle().
	Foreground(fgColor).
	Bold(true)

var authorStyle = lipgloss.NewStyle().
	Foreground(mutedColor)

var indexStyle = lipgloss.NewStyle().
	Foreground(accentColor).
	Width(5)

var statusStyle = lipgloss.NewStyle().
	Foreground(accentColor)

var errorStyle = lipgloss.NewStyle().
	Foreground(errorColor).
	Bold(true)

var warningStyle = lipgloss.NewStyle().
	Foreground(warnColor)

var helpStyle = lipgloss.NewStyle().
	MarginTop(1)
