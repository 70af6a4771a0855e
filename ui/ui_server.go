package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

// Run shows the shell until the user quits or d.Context is done.
func Run(d Deps) error {
	var current *Model
	b := NewBoundary(func() tea.Model {
		current = New(d)
		return current
	})
	defer func() {
		if current != nil {
			current.Close()
		}
	}()

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if d.Context != nil {
		opts = append(opts, tea.WithContext(d.Context))
	}

	log.Info().Msg("ui: started")
	_, err := tea.NewProgram(b, opts...).Run()
	log.Info().Err(err).Msg("ui: stopped")
	return err
}
