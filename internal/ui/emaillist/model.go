// Package emaillist renders the message list pane for the selected
// folder, newest first, with unread and attachment markers.
package emaillist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// EmailSelectedMsg is sent when the user opens a message.
type EmailSelectedMsg struct {
	Email model.Email
}

// Model is the email list view component.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

// New creates a new email list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height)
	l.Title = "Messages"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		list:    l,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init is a no-op; the app drives loading.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetLoading toggles the loading spinner. Entering the loading state
// clears the current items so stale rows never show under the spinner.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	m.loading = loading
	if loading {
		m.list.SetItems(nil)
		return m.spinner.Tick
	}
	return nil
}

// SetEmails replaces the visible message rows.
func (m *Model) SetEmails(emails []model.Email) tea.Cmd {
	m.loading = false
	items := make([]list.Item, len(emails))
	for i, e := range emails {
		items[i] = emailItem{email: e}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(0)
	return cmd
}

// UpdateEmail replaces a single row in place, preserving the cursor.
// Used for the optimistic read-state flip.
func (m *Model) UpdateEmail(email model.Email) {
	for i, item := range m.list.Items() {
		ei, ok := item.(emailItem)
		if !ok {
			continue
		}
		if ei.email.ID == email.ID {
			m.list.SetItem(i, emailItem{email: email})
			return
		}
	}
}

// Selected returns the message under the cursor.
func (m *Model) Selected() (model.Email, bool) {
	ei, ok := m.list.SelectedItem().(emailItem)
	if !ok {
		return model.Email{}, false
	}
	return ei.email, true
}

// Update handles messages for the email list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if key.Matches(msg, m.keys.Select) {
			ei, ok := m.list.SelectedItem().(emailItem)
			if !ok {
				return m, nil
			}
			email := ei.email
			return m, func() tea.Msg {
				return EmailSelectedMsg{Email: email}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the email list.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(m.spinner.View() + " Loading messages…")
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No messages in this folder.")
	}

	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
