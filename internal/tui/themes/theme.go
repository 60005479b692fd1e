// Package themes defines the dashboard color themes.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Tab           lipgloss.Style
	ActiveTab     lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	Income        lipgloss.Style
	Expense       lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

type palette struct {
	primary, foreground, subtle, muted, border, onPrimary lipgloss.Color
	success, errorC, info                                 lipgloss.Color
}

func build(p palette) Theme {
	return Theme{
		Primary: p.primary,
		Muted:   p.muted,
		Border:  p.border,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),

		Tab: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.onPrimary).
			Bold(true).
			Padding(0, 1),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.errorC).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info).
			Bold(true),

		Income: lipgloss.NewStyle().
			Foreground(p.success),
		Expense: lipgloss.NewStyle().
			Foreground(p.errorC),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:    lipgloss.Color("#7c3aed"),
	foreground: lipgloss.Color("#fafafa"),
	subtle:     lipgloss.Color("#a3a3a3"),
	muted:      lipgloss.Color("#737373"),
	border:     lipgloss.Color("#404040"),
	onPrimary:  lipgloss.Color("#fafafa"),
	success:    lipgloss.Color("#10b981"),
	errorC:     lipgloss.Color("#ef4444"),
	info:       lipgloss.Color("#3b82f6"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:    lipgloss.Color("#cba6f7"),
	foreground: lipgloss.Color("#cdd6f4"),
	subtle:     lipgloss.Color("#a6adc8"),
	muted:      lipgloss.Color("#6c7086"),
	border:     lipgloss.Color("#45475a"),
	onPrimary:  lipgloss.Color("#1e1e2e"),
	success:    lipgloss.Color("#a6e3a1"),
	errorC:     lipgloss.Color("#f38ba8"),
	info:       lipgloss.Color("#89dceb"),
})

// ByName returns the named theme, or Default for unknown names.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
