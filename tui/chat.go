// Package tui provides a terminal chat front end for an agent, built on
// Bubble Tea. The agent must have learned the Chat task before Run is called.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DosakuNet/dosaku/agent"
	"github.com/DosakuNet/dosaku/core"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

type entry struct {
	input  string
	output string
	isErr  bool
}

type replyMsg struct {
	input string
	text  string
	err   error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	textInput textinput.Model
	agent     *agent.Agent
	history   []entry
	waiting   bool
	quitting  bool
}

// New constructs a chat model around an agent.
func New(a *agent.Agent) Model {
	ti := textinput.New()
	ti.Placeholder = "say something..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "you> "
	return Model{textInput: ti, agent: a}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textInput.Value()
			if input == "" || m.waiting {
				return m, nil
			}
			m.textInput.Reset()
			m.waiting = true
			return m, ask(m.agent, input)
		}

	case replyMsg:
		m.waiting = false
		e := entry{input: msg.input, output: msg.text}
		if msg.err != nil {
			e.output = msg.err.Error()
			e.isErr = true
		}
		m.history = append(m.history, e)
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}
	var b []byte
	for _, e := range m.history {
		b = append(b, userStyle.Render("you> "+e.input)...)
		b = append(b, '\n')
		style := replyStyle
		if e.isErr {
			style = errorStyle
		}
		b = append(b, style.Render(e.output)...)
		b = append(b, '\n')
	}
	if m.waiting {
		b = append(b, helpStyle.Render("thinking...")...)
		b = append(b, '\n')
	}
	b = append(b, m.textInput.View()...)
	b = append(b, '\n')
	b = append(b, helpStyle.Render("enter: send • ctrl+c: quit")...)
	b = append(b, '\n')
	return string(b)
}

func ask(a *agent.Agent, input string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.Call(context.Background(), "Chat", "message",
			map[string]any{"message": input})
		if err != nil {
			return replyMsg{input: input, err: err}
		}
		text, err := core.AsText(result)
		return replyMsg{input: input, text: text, err: err}
	}
}

// Run starts the chat session and blocks until the user quits.
func Run(a *agent.Agent) error {
	_, err := tea.NewProgram(New(a)).Run()
	return err
}
