// Package emaildetail renders a single message: headers, body, and
// attachment metadata. HTML-only messages are converted to terminal
// text before display.
package emaildetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jaytaylor/html2text"

	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// BackMsg signals the parent to return focus to the email list.
type BackMsg struct{}

// ReplyMsg signals the parent to open the compose window as a reply.
type ReplyMsg struct {
	Email model.Email
}

// Model is the email detail view component.
type Model struct {
	email    *model.Email
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Reply):
			if m.email != nil {
				email := *m.email
				return m, func() tea.Msg {
					return ReplyMsg{Email: email}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.email == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No message selected")
	}

	return m.viewport.View()
}

// SetEmail updates the message being displayed and re-renders.
func (m *Model) SetEmail(email *model.Email) {
	m.email = email
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Email returns the currently displayed message, if any.
func (m *Model) Email() *model.Email {
	return m.email
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	e := m.email
	var sections []string

	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(subject))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	from := model.EmailAddress{Name: e.FromName, Address: e.FromAddress}.String()
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(from),
	))

	if to := model.FormatAddressList(e.ToAddresses); to != "" {
		sections = append(sections, fmt.Sprintf(
			"%s    %s",
			metaStyle.Render("To:"),
			valStyle.Render(to),
		))
	}
	if cc := model.FormatAddressList(e.CcAddresses); cc != "" {
		sections = append(sections, fmt.Sprintf(
			"%s    %s",
			metaStyle.Render("Cc:"),
			valStyle.Render(cc),
		))
	}
	if !e.InternalDate.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			valStyle.Render(e.InternalDate.Format("Mon, 2 Jan 2006 15:04")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	sections = append(sections, RenderBody(e))

	if atts := model.ParseAttachments(e.Attachments); len(atts) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Attachments (%d)", len(atts)),
		))

		for _, a := range atts {
			name := a.Filename
			if name == "" {
				name = "(unnamed)"
			}
			sections = append(sections, fmt.Sprintf(
				"  📎 %s  %s",
				valStyle.Render(name),
				metaStyle.Render(formatSize(a.SizeBytes)),
			))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderBody picks the best displayable body for a message: the HTML
// part converted to terminal text when present, otherwise the plain
// text part verbatim.
func RenderBody(e *model.Email) string {
	if e.BodyHTML != "" {
		text, err := html2text.FromString(e.BodyHTML, html2text.Options{PrettyTables: true})
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
	}

	if e.BodyText != "" {
		return e.BodyText
	}

	return lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Italic(true).
		Render("No content")
}

// formatSize renders a byte count in human units.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	case n > 0:
		return fmt.Sprintf("%d B", n)
	default:
		return ""
	}
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
