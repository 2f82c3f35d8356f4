package tui

import (
	"docchat/internal/chat"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive UI and blocks until the user quits.
func Run(ctrl *chat.Controller, themeName string, events chan chat.Event) error {
	model := NewMainModel(ctrl, themeName, events)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
