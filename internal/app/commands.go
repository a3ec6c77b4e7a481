package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/model"
)

// accountsLoadedMsg carries the account list from the backend.
type accountsLoadedMsg struct {
	accounts []model.Account
	err      error
}

// foldersLoadedMsg carries one account's folder list. gen is the
// request generation; stale responses are discarded.
type foldersLoadedMsg struct {
	accountID int64
	folders   []model.Folder
	err       error
	gen       uint64
}

// emailsLoadedMsg carries one folder's message page. gen is the
// request generation; stale responses are discarded.
type emailsLoadedMsg struct {
	accountID int64
	folderID  int64
	emails    []model.Email
	err       error
	gen       uint64
}

// markReadDoneMsg reports the outcome of a mark-read command.
type markReadDoneMsg struct {
	emailID int64
	err     error
}

// sendResultMsg reports the outcome of a send command.
type sendResultMsg struct {
	messageID string
	err       error
}

// loadAccounts returns a command that fetches all accounts.
func (m Model) loadAccounts() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		accounts, err := client.GetAccounts(context.Background())
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

// loadFolders returns a command that fetches one account's folders.
func (m Model) loadFolders(accountID int64, gen uint64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		folders, err := client.GetFolders(context.Background(), accountID)
		return foldersLoadedMsg{
			accountID: accountID,
			folders:   folders,
			err:       err,
			gen:       gen,
		}
	}
}

// loadEmails returns a command that fetches the first page of a folder.
func (m Model) loadEmails(accountID, folderID int64, gen uint64) tea.Cmd {
	client := m.client
	pageSize := m.pageSize
	return func() tea.Msg {
		emails, err := client.GetEmails(
			context.Background(),
			accountID, folderID,
			backend.ListOptions{Limit: pageSize},
		)
		return emailsLoadedMsg{
			accountID: accountID,
			folderID:  folderID,
			emails:    emails,
			err:       err,
			gen:       gen,
		}
	}
}

// markEmailRead returns a command that marks one message read.
func (m Model) markEmailRead(emailID int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.MarkEmailRead(context.Background(), emailID)
		return markReadDoneMsg{emailID: emailID, err: err}
	}
}

// sendEmail returns a command that delivers a composed message.
func (m Model) sendEmail(compose model.ComposeEmail) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		messageID, err := client.SendEmail(context.Background(), compose)
		return sendResultMsg{messageID: messageID, err: err}
	}
}
