package ux

import "github.com/charmbracelet/lipgloss"

// Styles groups the text styles used for terminal output
type Styles struct {
	Title lipgloss.Style
	Pass  lipgloss.Style
	Fail  lipgloss.Style
	Error lipgloss.Style
	Warn  lipgloss.Style
	Muted lipgloss.Style
	Label lipgloss.Style
}

// NewStyles returns the color styles, or unstyled ones when color is false
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{Title: plain, Pass: plain, Fail: plain, Error: plain, Warn: plain, Muted: plain, Label: plain}
	}
	return Styles{
		Title: lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		Pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Label: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	}
}
