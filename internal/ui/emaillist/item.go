package emaillist

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// previewLength caps how many characters of the body show in the list.
const previewLength = 100

// emailItem wraps a model.Email so it can be used in a bubbles/list.
type emailItem struct {
	email model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (i emailItem) FilterValue() string { return i.email.Subject }

// itemDelegate implements list.ItemDelegate for email rows.
type itemDelegate struct{}

// Height returns the number of lines each item takes.
func (d itemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d itemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a two-line email row: sender, markers, and date on the
// first line; subject and body preview on the second.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(emailItem)
	if !ok {
		return
	}

	e := ei.email
	isSelected := index == m.Index()

	dot := "  "
	if !e.IsRead {
		dot = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("● ")
	}

	markers := ""
	if e.IsFlagged {
		markers += theme.FlaggedStyle.Render(" ★")
	}
	if e.HasAttachments() {
		markers += " 📎"
	}

	from := e.FromName
	if from == "" {
		from = e.FromAddress
	}
	if !e.IsRead {
		from = theme.UnreadStyle.Render(from)
	}

	date := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(FormatListDate(e.InternalDate, time.Now()))

	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	if !e.IsRead {
		subject = theme.UnreadStyle.Render(subject)
	}

	preview := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(Preview(e.BodyText))

	first := fmt.Sprintf("%s%s%s  %s", dot, from, markers, date)
	second := fmt.Sprintf("  %s · %s", subject, preview)

	line := first + "\n" + second
	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Preview collapses whitespace in a message body and truncates it for
// the list row.
func Preview(body string) string {
	fields := strings.FieldsFunc(body, unicode.IsSpace)
	collapsed := strings.Join(fields, " ")

	runes := []rune(collapsed)
	if len(runes) <= previewLength {
		return collapsed
	}
	return string(runes[:previewLength]) + "…"
}

// FormatListDate renders a message date relative to now: time of day
// for today, "Yesterday" for the previous calendar day, the weekday
// within the last week, and month/day otherwise.
func FormatListDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	t = t.In(now.Location())
	days := calendarDaysBetween(t, now)

	switch {
	case days <= 0:
		return t.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return t.Format("Monday")
	default:
		return t.Format("Jan 2")
	}
}

// calendarDaysBetween counts midnight boundaries between t and now.
func calendarDaysBetween(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	start := time.Date(ty, tm, td, 0, 0, 0, 0, t.Location())
	end := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())
	return int(end.Sub(start).Hours() / 24)
}
