package cli

import "github.com/charmbracelet/lipgloss"

// Styles holds the console styles shared by the commands.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Good  lipgloss.Style
	Warn  lipgloss.Style
	Err   lipgloss.Style
	Key   lipgloss.Style
	Dim   lipgloss.Style
}

// ANSI colors: 1 red, 2 green, 3 yellow, 4 blue, 5 magenta, 6 cyan,
// 7 white, 8 gray.

// NewStyles builds the shared styles.
func NewStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		Label: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)).Width(14),
		Value: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)),
		Good:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3)),
		Err:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
		Key:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(0)).Background(lipgloss.ANSIColor(3)).Padding(0, 1),
		Dim:   lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
	}
}

// Field renders a "label value" line.
func (s Styles) Field(label string, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}
