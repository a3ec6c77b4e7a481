package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/backend/memory"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/ui/emaillist"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// drive runs a command tree to completion, feeding every produced
// message back into Update. Repeating ticks are dropped so the loop
// terminates.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatalf("message loop did not settle")
		}

		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}

		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg, spinner.TickMsg, cursor.BlinkMsg:
			continue
		default:
			var next tea.Cmd
			var mdl tea.Model
			mdl, next = m.Update(msg)
			m = mdl.(Model)
			queue = append(queue, next)
		}
	}

	return m
}

// newTestApp builds a model against a seeded memory backend and runs
// the startup cascade.
func newTestApp(t *testing.T, client backend.Client) Model {
	t.Helper()

	m := New(client, testLogger(), 50)

	mdl, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mdl.(Model)

	return drive(t, m, m.Init())
}

func seededClient(t *testing.T) (*memory.Client, model.Email) {
	t.Helper()

	c := memory.NewClient()
	account, err := c.AddAccount(context.Background(), model.AddAccountRequest{
		Email:      "me@example.com",
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "me@example.com",
		Password:   "secret",
	})
	if err != nil {
		t.Fatalf("seeding account: %v", err)
	}

	folders, err := c.GetFolders(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("listing folders: %v", err)
	}
	var inbox model.Folder
	for _, f := range folders {
		if f.FolderType == model.FolderInbox {
			inbox = f
		}
	}

	email := c.AddEmail(inbox.ID, model.Email{
		AccountID:    account.ID,
		MessageID:    "<hello@example.com>",
		Subject:      "Hello",
		FromAddress:  "friend@example.com",
		BodyText:     "How are you?",
		InternalDate: time.Now(),
	})

	return c, email
}

func TestStartupSelectsFirstFolder(t *testing.T) {
	c, email := seededClient(t)
	m := newTestApp(t, c)

	if m.currentView != ViewMail {
		t.Fatalf("expected mail view, got %d", m.currentView)
	}
	if len(m.accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(m.accounts))
	}
	if m.selected == nil {
		t.Fatalf("no folder selected after startup")
	}
	if m.selected.folder.FolderType != model.FolderInbox {
		t.Fatalf("expected inbox selected, got %s", m.selected.folder.FolderType)
	}

	selected, ok := m.list.Selected()
	if !ok {
		t.Fatalf("email list is empty after startup")
	}
	if selected.ID != email.ID {
		t.Fatalf("unexpected email on screen: %d", selected.ID)
	}
}

func TestStartupWithoutAccountsOpensSetup(t *testing.T) {
	c := memory.NewClient()
	m := newTestApp(t, c)

	if m.currentView != ViewSetup {
		t.Fatalf("expected setup view, got %d", m.currentView)
	}
	if m.setup == nil {
		t.Fatalf("setup model not created")
	}

	// With no accounts there is nothing to load; the startup cascade
	// must not ask the backend for folders or emails.
	if n := c.CallCount("GetFolders"); n != 0 {
		t.Fatalf("expected no folder requests, got %d", n)
	}
	if n := c.CallCount("GetEmails"); n != 0 {
		t.Fatalf("expected no email requests, got %d", n)
	}
}

func TestOpenEmailMarksReadOnce(t *testing.T) {
	c, email := seededClient(t)
	m := newTestApp(t, c)

	mdl, cmd := m.Update(emaillist.EmailSelectedMsg{Email: email})
	m = drive(t, mdl.(Model), cmd)

	if m.detail.Email() == nil {
		t.Fatalf("detail pane not populated")
	}
	if !m.detail.Email().IsRead {
		t.Fatalf("detail should show the optimistic read state")
	}

	folders, err := c.GetFolders(context.Background(), email.AccountID)
	if err != nil {
		t.Fatalf("listing folders: %v", err)
	}
	for _, f := range folders {
		if f.ID == email.FolderID && f.UnreadCount != 0 {
			t.Fatalf("backend unread count not decremented: %d", f.UnreadCount)
		}
	}

	// Opening the same message again must not issue another mark-read.
	read := email
	read.IsRead = true
	mdl, cmd = m.Update(emaillist.EmailSelectedMsg{Email: read})
	m = drive(t, mdl.(Model), cmd)

	for _, f := range mustFolders(t, c, email.AccountID) {
		if f.ID == email.FolderID && f.UnreadCount != 0 {
			t.Fatalf("unread count changed on reopen: %d", f.UnreadCount)
		}
	}
}

func mustFolders(t *testing.T, c *memory.Client, accountID int64) []model.Folder {
	t.Helper()
	folders, err := c.GetFolders(context.Background(), accountID)
	if err != nil {
		t.Fatalf("listing folders: %v", err)
	}
	return folders
}

func TestSendFailureKeepsComposeOpen(t *testing.T) {
	c, _ := seededClient(t)
	m := newTestApp(t, c)

	mdl, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = drive(t, mdl.(Model), cmd)
	if m.currentView != ViewCompose {
		t.Fatalf("expected compose view, got %d", m.currentView)
	}

	mdl, cmd = m.Update(sendResultMsg{err: context.DeadlineExceeded})
	m = drive(t, mdl.(Model), cmd)

	if m.currentView != ViewCompose {
		t.Fatalf("compose should stay open after a failed send")
	}
	if m.comp == nil {
		t.Fatalf("compose model was discarded")
	}
	if m.comp.Sending() {
		t.Fatalf("compose should leave the sending state on failure")
	}
}

func TestSendSuccessClosesCompose(t *testing.T) {
	c, _ := seededClient(t)
	m := newTestApp(t, c)

	mdl, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = drive(t, mdl.(Model), cmd)

	mdl, cmd = m.Update(sendResultMsg{messageID: "<sent@example.com>"})
	m = drive(t, mdl.(Model), cmd)

	if m.currentView != ViewMail {
		t.Fatalf("expected mail view after send, got %d", m.currentView)
	}
	if m.comp != nil {
		t.Fatalf("compose model should be discarded after send")
	}
}
