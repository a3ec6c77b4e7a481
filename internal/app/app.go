// Package app wires the panes together: the root model routes messages
// between the folder tree, email list, detail view, compose window, and
// account setup, and owns all backend commands.
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
	"github.com/slopmail/slopmail/internal/ui"
	"github.com/slopmail/slopmail/internal/ui/accountsetup"
	"github.com/slopmail/slopmail/internal/ui/compose"
	"github.com/slopmail/slopmail/internal/ui/emaildetail"
	"github.com/slopmail/slopmail/internal/ui/emaillist"
	"github.com/slopmail/slopmail/internal/ui/foldertree"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewMail ViewState = iota
	ViewCompose
	ViewSetup
	ViewHelp
)

// pane identifies which mail pane has keyboard focus.
type pane int

const (
	paneTree pane = iota
	paneList
	paneDetail
	paneCount
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the backend.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	client       backend.Client
	log          *logrus.Logger
	keys         *keys.KeyMap

	tree   foldertree.Model
	list   emaillist.Model
	detail emaildetail.Model
	comp   *compose.Model
	setup  *accountsetup.Model
	help   help.Model

	focus    pane
	accounts []model.Account
	selected *selection
	pageSize int

	// folderGen and emailGen invalidate in-flight responses when the
	// account set or folder selection changes under them.
	folderGen uint64
	emailGen  uint64

	ready     bool
	statusMsg string
}

// selection tracks the folder whose messages are on screen.
type selection struct {
	account model.Account
	folder  model.Folder
}

// New creates a new root application model.
func New(client backend.Client, log *logrus.Logger, pageSize int) Model {
	k := keys.DefaultKeyMap()

	h := help.New()
	h.ShowAll = true

	return Model{
		currentView: ViewMail,
		client:      client,
		log:         log,
		keys:        k,
		tree:        foldertree.New(k, 24, 24),
		list:        emaillist.New(k, 40, 24),
		detail:      emaildetail.New(k, 40, 24),
		help:        h,
		focus:       paneTree,
		pageSize:    pageSize,
	}
}

// Init loads the account list.
func (m Model) Init() tea.Cmd {
	return m.loadAccounts()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		return m.updateActiveView(msg)

	case accountsLoadedMsg:
		return m.handleAccountsLoaded(msg)

	case foldersLoadedMsg:
		return m.handleFoldersLoaded(msg)

	case emailsLoadedMsg:
		return m.handleEmailsLoaded(msg)

	case markReadDoneMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("email_id", msg.emailID).
				Warn("mark read failed")
		}
		return m, nil

	case sendResultMsg:
		return m.handleSendResult(msg)

	case foldertree.FolderSelectedMsg:
		return m.selectFolder(msg.Account, msg.Folder)

	case emaillist.EmailSelectedMsg:
		return m.openEmail(msg.Email)

	case emaildetail.BackMsg:
		m.focus = paneList
		return m, nil

	case emaildetail.ReplyMsg:
		if m.selected == nil {
			return m, nil
		}
		c := compose.NewReply(
			m.selected.account, msg.Email, m.keys,
			m.layout.ContentWidth(), m.layout.ContentHeight(),
		)
		m.comp = &c
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, c.Init()

	case compose.SendRequestMsg:
		return m, m.sendEmail(msg.Compose)

	case compose.CancelMsg:
		m.comp = nil
		m.currentView = ViewMail
		return m, nil

	case accountsetup.AccountAddedMsg:
		m.setup = nil
		m.currentView = ViewMail
		m.statusMsg = fmt.Sprintf("Account %s added", msg.Account.Email)
		// Reload everything; the new account changes the whole tree.
		m.folderGen++
		m.emailGen++
		return m, m.loadAccounts()

	case accountsetup.CancelledMsg:
		m.setup = nil
		m.currentView = ViewMail
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveView(msg)
}

// handleKeyMsg routes keys: a few globals first, then the active view.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.currentView {
	case ViewHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.currentView = m.previousView
		}
		return m, nil

	case ViewCompose, ViewSetup:
		return m.updateActiveView(msg)
	}

	// ViewMail globals
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case "tab":
		m.focus = (m.focus + 1) % paneCount
		return m, nil

	case "shift+tab":
		m.focus = (m.focus + paneCount - 1) % paneCount
		return m, nil

	case "c":
		return m.openCompose()

	case "a":
		return m.openSetup(false)

	case "r":
		return m.refresh()
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the active view, or the
// focused pane within the mail view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewCompose:
		if m.comp == nil {
			return m, nil
		}
		var c compose.Model
		c, cmd = m.comp.Update(msg)
		m.comp = &c
		return m, cmd

	case ViewSetup:
		if m.setup == nil {
			return m, nil
		}
		var s accountsetup.Model
		s, cmd = m.setup.Update(msg)
		m.setup = &s
		return m, cmd

	case ViewHelp:
		return m, nil
	}

	// Non-key messages reach every pane so spinners keep ticking; keys
	// go only to the focused pane.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		switch m.focus {
		case paneTree:
			m.tree, cmd = m.tree.Update(msg)
		case paneList:
			m.list, cmd = m.list.Update(msg)
		case paneDetail:
			m.detail, cmd = m.detail.Update(msg)
		}
		return m, cmd
	}

	var cmds []tea.Cmd
	m.tree, cmd = m.tree.Update(msg)
	cmds = append(cmds, cmd)
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	m.detail, cmd = m.detail.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleAccountsLoaded installs the account list. With no accounts the
// app goes straight to setup and issues no folder or email requests.
func (m Model) handleAccountsLoaded(msg accountsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("Error loading accounts: %v", msg.err)
		m.log.WithError(msg.err).Error("loading accounts")
		return m, nil
	}

	m.accounts = msg.accounts
	m.selected = nil
	cmds := []tea.Cmd{m.tree.SetAccounts(msg.accounts)}

	if len(msg.accounts) == 0 {
		return m.openSetup(true)
	}

	for _, a := range msg.accounts {
		cmds = append(cmds, m.loadFolders(a.ID, m.folderGen))
	}
	return m, tea.Batch(cmds...)
}

// handleFoldersLoaded installs one account's folders and, when nothing
// is selected yet, selects the first folder of the first account.
func (m Model) handleFoldersLoaded(msg foldersLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.folderGen {
		return m, nil
	}
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("Error loading folders: %v", msg.err)
		m.log.WithError(msg.err).WithField("account_id", msg.accountID).
			Error("loading folders")
		return m, nil
	}

	cmds := []tea.Cmd{m.tree.SetFolders(msg.accountID, msg.folders)}

	if m.selected == nil && len(m.accounts) > 0 && msg.accountID == m.accounts[0].ID {
		if folder, ok := m.tree.FirstFolder(msg.accountID); ok {
			mdl, cmd := m.selectFolder(m.accounts[0], folder)
			mm := mdl.(Model)
			mm.tree.SelectFolder(folder.ID)
			return mm, tea.Batch(append(cmds, cmd)...)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleEmailsLoaded installs a message page if it is still the one on
// screen.
func (m Model) handleEmailsLoaded(msg emailsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.emailGen {
		return m, nil
	}
	if m.selected == nil || m.selected.folder.ID != msg.folderID {
		return m, nil
	}
	if msg.err != nil {
		m.list.SetLoading(false)
		m.statusMsg = fmt.Sprintf("Error loading messages: %v", msg.err)
		m.log.WithError(msg.err).WithField("folder_id", msg.folderID).
			Error("loading messages")
		return m, nil
	}

	return m, m.list.SetEmails(msg.emails)
}

// handleSendResult closes the compose window on success; on failure the
// window stays open with the draft intact.
func (m Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.WithError(msg.err).Error("sending email")
		if m.comp != nil {
			m.comp.SetError(msg.err.Error())
		}
		return m, nil
	}

	m.log.WithField("message_id", msg.messageID).Info("email sent")

	// The sent copy changes the account's Sent folder counts.
	accountID := int64(0)
	if m.selected != nil {
		accountID = m.selected.account.ID
	} else if len(m.accounts) > 0 {
		accountID = m.accounts[0].ID
	}

	m.comp = nil
	m.currentView = ViewMail
	m.statusMsg = "Message sent"

	var cmds []tea.Cmd
	if accountID != 0 {
		cmds = append(cmds, m.loadFolders(accountID, m.folderGen))
	}
	if m.selected != nil && m.selected.folder.FolderType == model.FolderSent {
		m.emailGen++
		cmds = append(cmds, m.list.SetLoading(true))
		cmds = append(cmds, m.loadEmails(m.selected.account.ID, m.selected.folder.ID, m.emailGen))
	}
	return m, tea.Batch(cmds...)
}

// selectFolder switches the email list to a folder. The selection is
// recorded synchronously so stale responses can be told apart.
func (m Model) selectFolder(account model.Account, folder model.Folder) (tea.Model, tea.Cmd) {
	m.selected = &selection{account: account, folder: folder}
	m.emailGen++
	m.focus = paneList
	m.detail.SetEmail(nil)

	return m, tea.Batch(
		m.list.SetLoading(true),
		m.loadEmails(account.ID, folder.ID, m.emailGen),
	)
}

// openEmail shows a message in the detail pane. Opening an unread
// message flips it read immediately and issues exactly one mark-read
// command; the outcome is not waited on.
func (m Model) openEmail(email model.Email) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if !email.IsRead {
		email.IsRead = true
		m.list.UpdateEmail(email)
		cmds = append(cmds,
			m.tree.AdjustUnread(email.FolderID, -1),
			m.markEmailRead(email.ID),
		)
	}

	m.detail.SetEmail(&email)
	m.focus = paneDetail
	return m, tea.Batch(cmds...)
}

// openCompose opens a blank compose window for the selected account.
func (m Model) openCompose() (tea.Model, tea.Cmd) {
	account, ok := m.composeAccount()
	if !ok {
		m.statusMsg = "Add an account before composing"
		return m, nil
	}

	c := compose.New(account, m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
	m.comp = &c
	m.previousView = m.currentView
	m.currentView = ViewCompose
	return m, c.Init()
}

// composeAccount picks the account a new message is sent from.
func (m Model) composeAccount() (model.Account, bool) {
	if m.selected != nil {
		return m.selected.account, true
	}
	if len(m.accounts) > 0 {
		return m.accounts[0], true
	}
	return model.Account{}, false
}

// openSetup opens the add-account view. required disables escape, used
// on first run when the app has no accounts at all.
func (m Model) openSetup(required bool) (tea.Model, tea.Cmd) {
	s := accountsetup.New(
		m.client, m.keys, required,
		m.layout.ContentWidth(), m.layout.ContentHeight(),
	)
	m.setup = &s
	m.previousView = m.currentView
	m.currentView = ViewSetup
	return m, s.Init()
}

// refresh reloads folders for all accounts and the selected folder's
// messages.
func (m Model) refresh() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, a := range m.accounts {
		cmds = append(cmds, m.loadFolders(a.ID, m.folderGen))
	}
	if m.selected != nil {
		m.emailGen++
		cmds = append(cmds, m.list.SetLoading(true))
		cmds = append(cmds, m.loadEmails(m.selected.account.ID, m.selected.folder.ID, m.emailGen))
	}
	return m, tea.Batch(cmds...)
}

// resize propagates the layout to every component.
func (m *Model) resize() {
	treeW, listW, detailW := m.layout.PaneWidths()
	contentH := m.layout.ContentHeight()

	m.tree.SetSize(treeW-2, contentH-2)
	m.list.SetSize(listW-2, contentH-2)
	m.detail.SetSize(detailW-2, contentH-2)

	if m.comp != nil {
		m.comp.SetSize(m.layout.ContentWidth(), contentH)
	}
	if m.setup != nil {
		m.setup.SetSize(m.layout.ContentWidth(), contentH)
	}
	m.help.Width = m.layout.ContentWidth()
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Slopmail", m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCompose:
		if m.comp != nil {
			return m.comp.View()
		}
		return ""

	case ViewSetup:
		if m.setup != nil {
			return m.setup.View()
		}
		return ""

	case ViewHelp:
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(m.help.View(m.keys))
	}

	treeW, listW, detailW := m.layout.PaneWidths()
	contentH := m.layout.ContentHeight()

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderPane(m.tree.View(), treeW, contentH, m.focus == paneTree),
		m.renderPane(m.list.View(), listW, contentH, m.focus == paneList),
		m.renderPane(m.detail.View(), detailW, contentH, m.focus == paneDetail),
	)
}

// renderPane wraps pane content in a border reflecting focus.
func (m Model) renderPane(content string, width, height int, focused bool) string {
	style := theme.BorderStyle
	if focused {
		style = theme.FocusedBorderStyle
	}
	return style.
		Width(width - 2).
		Height(height - 2).
		Render(content)
}

// headerStatus shows the selected account in the header.
func (m Model) headerStatus() string {
	if m.selected != nil {
		return m.selected.account.Email
	}
	if len(m.accounts) > 0 {
		return m.accounts[0].Email
	}
	return "no accounts"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.currentView == ViewMail {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewCompose:
		return "tab next field | ctrl+enter send | esc cancel"
	case ViewSetup:
		return "ctrl+t test connection | enter submit | esc cancel"
	case ViewHelp:
		return "? close help"
	default:
		return "q quit | ? help | tab panes | c compose | a add account | r refresh"
	}
}
