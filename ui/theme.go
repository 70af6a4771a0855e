package ui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Fg, Muted, Border, Accent lipgloss.Color
	Bar, Surface              lipgloss.Color
	Success, Error, Warning   lipgloss.Color
}

var DarkTheme = Theme{
	Fg:      "#cdd6f4",
	Muted:   "#7f849c",
	Border:  "#585b70",
	Accent:  "#89b4fa",
	Bar:     "#181825",
	Surface: "#313244",
	Success: "#a6e3a1",
	Error:   "#f38ba8",
	Warning: "#f9e2af",
}

var LightTheme = Theme{
	Fg:      "#4c4f69",
	Muted:   "#8c8fa1",
	Border:  "#9ca0b0",
	Accent:  "#1e66f5",
	Bar:     "#e6e9ef",
	Surface: "#ccd0da",
	Success: "#40a02b",
	Error:   "#d20f39",
	Warning: "#df8e1d",
}

var Themes = map[string]Theme{
	"dark":  DarkTheme,
	"light": LightTheme,
}

type styles struct {
	app       lipgloss.Style
	appName   lipgloss.Style
	bar       lipgloss.Style
	tabOn     lipgloss.Style
	tabOff    lipgloss.Style
	account   lipgloss.Style
	box       lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	input     lipgloss.Style
	button    lipgloss.Style
	buttonOff lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	muted     lipgloss.Style
	modal     lipgloss.Style
}

// newStyles builds the styles of a theme. Unknown names fall back to dark.
func newStyles(name string) styles {
	t, ok := Themes[name]
	if !ok {
		t = DarkTheme
	}
	return styles{
		app:     lipgloss.NewStyle().Foreground(t.Fg),
		appName: lipgloss.NewStyle().Foreground(t.Accent).Background(t.Bar).Bold(true).Padding(0, 1),
		bar:     lipgloss.NewStyle().Foreground(t.Fg).Background(t.Bar),
		tabOn: lipgloss.NewStyle().
			Foreground(t.Accent).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1),
		tabOff: lipgloss.NewStyle().
			Foreground(t.Muted).
			Background(t.Bar).
			Padding(0, 1),
		account: lipgloss.NewStyle().
			Foreground(t.Bar).
			Background(t.Accent).
			Padding(0, 1),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		label:     lipgloss.NewStyle().Foreground(t.Muted),
		value:     lipgloss.NewStyle().Foreground(t.Fg).Bold(true),
		input:     lipgloss.NewStyle().Foreground(t.Fg).Background(t.Surface).Padding(0, 1),
		button:    lipgloss.NewStyle().Foreground(t.Bar).Background(t.Accent).Bold(true).Padding(0, 2),
		buttonOff: lipgloss.NewStyle().Foreground(t.Muted).Background(t.Surface).Padding(0, 2),
		ok:        lipgloss.NewStyle().Foreground(t.Success),
		err:       lipgloss.NewStyle().Foreground(t.Error),
		warn:      lipgloss.NewStyle().Foreground(t.Warning),
		muted:     lipgloss.NewStyle().Foreground(t.Muted),
		modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(t.Warning).
			Padding(1, 2),
	}
}
