// Package tui provides the interactive terminal chat over the query pipeline.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the top-level Bubble Tea model.
type Model struct {
	chat chatModel
}

// New creates the chat model over an already-wired engine. docCount is shown
// in the status bar so the user can tell an empty index apart from a quiet one.
func New(engine Answerer, docCount int) Model {
	return Model{chat: newChatModel(engine, docCount)}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.chat.View()
}

// Run starts the TUI program.
func Run(engine Answerer, docCount int) error {
	p := tea.NewProgram(New(engine, docCount), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
