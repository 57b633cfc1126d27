package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"webhook-chat/internal/domain"
	"webhook-chat/internal/usecase"
)

const (
	title        = "webhook chat"
	overviewText = "Ask anything. Your message is forwarded to the configured webhook\nand its reply shows up here.\n\nenter: send   esc/ctrl+c: quit"
)

// replyMsg carries a settled dispatch back onto the UI goroutine.
type replyMsg struct {
	pending *usecase.Pending
	outcome usecase.Outcome
}

// Model renders a Conversation. All state mutation happens in Update; the
// only work done elsewhere is the network call inside dispatchCmd.
type Model struct {
	ctx     context.Context
	conv    *usecase.Conversation
	input   textinput.Model
	spinner spinner.Model
	width   int
	height  int
}

func NewModel(ctx context.Context, conv *usecase.Conversation) Model {
	ti := textinput.New()
	ti.Placeholder = "Send a message..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	return Model{
		ctx:     ctx,
		conv:    conv,
		input:   ti,
		spinner: sp,
		width:   80,
		height:  24,
	}
}

func dispatchCmd(ctx context.Context, p *usecase.Pending) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{pending: p, outcome: p.Run(ctx)}
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		}

	case replyMsg:
		msg.pending.Settle(msg.outcome)
		return m, m.input.Focus()

	case spinner.TickMsg:
		if !m.conv.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.conv.SetDraft(m.input.Value())
	return m, cmd
}

// submit hands the draft to the conversation. Rejected submissions (empty
// text, dispatch in flight) are ignored without feedback.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.conv.SetDraft(m.input.Value())
	p, err := m.conv.Begin(m.conv.Draft())
	if err != nil {
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	return m, tea.Batch(dispatchCmd(m.ctx, p), m.spinner.Tick)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		b.WriteString(overviewStyle.Render(overviewText))
		b.WriteString("\n")
	}
	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if m.conv.Busy() {
		b.WriteString(m.spinner.View())
		b.WriteString(dimStyle.Render(" thinking..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) renderMessage(msg domain.Message) string {
	label := userLabel.Render("you")
	if msg.Role == domain.RoleAssistant {
		label = assistantLabel.Render("bot")
	}
	body := bubbleStyle.Width(max(10, m.width-2)).Render(msg.Content)
	return label + "\n" + body
}
