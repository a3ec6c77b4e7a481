// Package compose implements the message composition window: To, Cc,
// and Subject inputs over a body textarea, with a character counter and
// send-state handling.
package compose

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// SendRequestMsg asks the parent to deliver the composed message.
type SendRequestMsg struct {
	Compose model.ComposeEmail
}

// CancelMsg signals the parent to close the compose window.
type CancelMsg struct{}

// field indices for focus cycling.
const (
	fieldTo = iota
	fieldCc
	fieldSubject
	fieldBody
	fieldCount
)

// Model is the compose window component.
type Model struct {
	account model.Account

	to      textinput.Model
	cc      textinput.Model
	subject textinput.Model
	body    textarea.Model

	focus     int
	sending   bool
	errText   string
	spinner   spinner.Model
	inReplyTo string
	keys      *keys.KeyMap
	width     int
	height    int
}

// New creates an empty compose window for the given sending account.
func New(account model.Account, k *keys.KeyMap, width, height int) Model {
	to := textinput.New()
	to.Placeholder = "recipient@example.com, other@example.com"
	to.Prompt = "To: "
	to.Width = width - 12

	cc := textinput.New()
	cc.Placeholder = ""
	cc.Prompt = "Cc: "
	cc.Width = width - 12

	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.Prompt = "Subject: "
	subject.Width = width - 16

	body := textarea.New()
	body.Placeholder = "Write your message…"
	body.SetWidth(width - 4)
	body.SetHeight(height - 10)
	body.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		account: account,
		to:      to,
		cc:      cc,
		subject: subject,
		body:    body,
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
	m.to.Focus()
	return m
}

// NewReply creates a compose window prefilled as a reply to a message.
func NewReply(account model.Account, original model.Email, k *keys.KeyMap, width, height int) Model {
	m := New(account, k, width, height)

	m.to.SetValue(original.FromAddress)

	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	m.subject.SetValue(subject)
	m.inReplyTo = original.MessageID

	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the compose window.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.sending {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return CancelMsg{}
			}

		case key.Matches(msg, m.keys.Send):
			return m.submit()

		case msg.String() == "tab":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil

		case msg.String() == "shift+tab":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldTo:
		m.to, cmd = m.to.Update(msg)
	case fieldCc:
		m.cc, cmd = m.cc.Update(msg)
	case fieldSubject:
		m.subject, cmd = m.subject.Update(msg)
	case fieldBody:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

// submit validates the form and asks the parent to send.
func (m Model) submit() (Model, tea.Cmd) {
	to := ParseRecipients(m.to.Value())
	if len(to) == 0 {
		m.errText = "At least one recipient is required"
		return m, nil
	}
	if strings.TrimSpace(m.subject.Value()) == "" {
		m.errText = "A subject is required"
		return m, nil
	}

	compose := model.ComposeEmail{
		AccountID: m.account.ID,
		To:        to,
		Cc:        ParseRecipients(m.cc.Value()),
		Subject:   m.subject.Value(),
		BodyText:  m.body.Value(),
		InReplyTo: m.inReplyTo,
	}
	if m.inReplyTo != "" {
		compose.References = []string{m.inReplyTo}
	}

	m.errText = ""
	m.sending = true
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return SendRequestMsg{Compose: compose}
	})
}

// SetError records a delivery failure and re-enables the form so the
// user can retry without losing the draft.
func (m *Model) SetError(errText string) {
	m.sending = false
	m.errText = errText
}

// Sending reports whether a delivery attempt is in flight.
func (m *Model) Sending() bool {
	return m.sending
}

// setFocus moves keyboard focus to the given field.
func (m *Model) setFocus(f int) {
	m.focus = f
	m.to.Blur()
	m.cc.Blur()
	m.subject.Blur()
	m.body.Blur()

	switch f {
	case fieldTo:
		m.to.Focus()
	case fieldCc:
		m.cc.Focus()
	case fieldSubject:
		m.subject.Focus()
	case fieldBody:
		m.body.Focus()
	}
}

// View renders the compose window.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := titleStyle.Render(fmt.Sprintf("New Message · %s", m.account.Email))

	counter := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%d characters", len([]rune(m.body.Value()))))

	status := ""
	switch {
	case m.sending:
		status = m.spinner.View() + " Sending…"
	case m.errText != "":
		status = theme.ErrorStyle.Render(m.errText)
	}

	hints := theme.HelpStyle.Render("tab: next field • ctrl+enter: send • esc: cancel")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		m.to.View(),
		m.cc.View(),
		m.subject.View(),
		"",
		m.body.View(),
		counter,
		"",
		status,
		hints,
	)

	return theme.DetailPanelStyle.Width(m.width - 2).Render(content)
}

// SetSize updates the compose window dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.to.Width = width - 12
	m.cc.Width = width - 12
	m.subject.Width = width - 16
	m.body.SetWidth(width - 4)
	m.body.SetHeight(height - 10)
}

// ParseRecipients splits a comma-separated address field, trimming
// whitespace and dropping empty entries.
func ParseRecipients(s string) []model.EmailAddress {
	var out []model.EmailAddress
	for _, part := range strings.Split(s, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		out = append(out, model.EmailAddress{Address: addr})
	}
	return out
}
