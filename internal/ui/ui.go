// Package ui holds the terminal styles shared by the kbsync commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorGreen  = lipgloss.Color("#00D787")
	ColorYellow = lipgloss.Color("#FFD75F")
	ColorRed    = lipgloss.Color("#FF5F5F")
	ColorCyan   = lipgloss.Color("#5FD7FF")
	ColorGray   = lipgloss.Color("#8A8A8A")
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(ColorCyan)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorGray)

	HeaderStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
)

// RenderPass styles success markers.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn styles warnings.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderErr styles errors.
func RenderErr(s string) string { return errStyle.Render(s) }

// RenderAccent styles informational highlights.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderDim styles secondary detail.
func RenderDim(s string) string { return dimStyle.Render(s) }
