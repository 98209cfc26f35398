package workspace

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	plan      lipgloss.Style
	active    lipgloss.Style
	detail    lipgloss.Style
	status    lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	user      lipgloss.Style
	ai        lipgloss.Style
	timestamp lipgloss.Style
	failed    lipgloss.Style
	outline   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		plan:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		active:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("120")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		ai:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("140")),
		timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		failed:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		outline:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}
