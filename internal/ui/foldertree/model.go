// Package foldertree renders the account and folder pane. Folders are
// grouped under their account and ordered by folder type, with unread
// counts alongside.
package foldertree

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// FolderSelectedMsg is sent when the user picks a folder.
type FolderSelectedMsg struct {
	Account model.Account
	Folder  model.Folder
}

// Model is the folder tree view component.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	accounts []model.Account
	folders  map[int64][]model.Folder
	width    int
	height   int
}

// New creates a new folder tree model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height)
	l.Title = "Folders"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		keys:    k,
		folders: make(map[int64][]model.Folder),
		width:   width,
		height:  height,
	}
}

// Init is a no-op; the app drives loading.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetAccounts replaces the account set and drops folders of accounts
// that no longer exist.
func (m *Model) SetAccounts(accounts []model.Account) tea.Cmd {
	m.accounts = accounts

	known := make(map[int64]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}
	for id := range m.folders {
		if !known[id] {
			delete(m.folders, id)
		}
	}

	return m.rebuild()
}

// SetFolders stores the folder list of one account in display order.
func (m *Model) SetFolders(accountID int64, folders []model.Folder) tea.Cmd {
	m.folders[accountID] = SortFolders(folders)
	return m.rebuild()
}

// FirstFolder returns the first selectable folder of an account in
// display order, if any.
func (m *Model) FirstFolder(accountID int64) (model.Folder, bool) {
	folders := m.folders[accountID]
	if len(folders) == 0 {
		return model.Folder{}, false
	}
	return folders[0], true
}

// AdjustUnread shifts a folder's unread count, clamping at zero. Used
// for the optimistic read-state flip before the backend confirms.
func (m *Model) AdjustUnread(folderID int64, delta int) tea.Cmd {
	for accountID, folders := range m.folders {
		for i := range folders {
			if folders[i].ID != folderID {
				continue
			}
			folders[i].UnreadCount += delta
			if folders[i].UnreadCount < 0 {
				folders[i].UnreadCount = 0
			}
			m.folders[accountID] = folders
			return m.rebuild()
		}
	}
	return nil
}

// SelectFolder moves the cursor to the given folder's row.
func (m *Model) SelectFolder(folderID int64) {
	for i, item := range m.list.Items() {
		ti, ok := item.(treeItem)
		if !ok || ti.folder == nil {
			continue
		}
		if ti.folder.ID == folderID {
			m.list.Select(i)
			return
		}
	}
}

// rebuild regenerates the flat row list from accounts and folders.
func (m *Model) rebuild() tea.Cmd {
	var items []list.Item
	for _, a := range m.accounts {
		items = append(items, treeItem{account: a})
		folders, loaded := m.folders[a.ID]
		for _, f := range folders {
			folder := f
			items = append(items, treeItem{account: a, folder: &folder})
		}
		// A loaded account with nothing in it gets a guidance row so the
		// heading never sits bare. Accounts still loading show nothing.
		if loaded && len(folders) == 0 {
			items = append(items, treeItem{account: a, empty: true})
		}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the folder tree.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Select) {
			ti, ok := m.list.SelectedItem().(treeItem)
			if !ok || ti.folder == nil {
				return m, nil
			}
			account := ti.account
			folder := *ti.folder
			return m, func() tea.Msg {
				return FolderSelectedMsg{Account: account, Folder: folder}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the folder tree.
func (m Model) View() string {
	if len(m.accounts) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No accounts.\n\nPress a to add one.")
	}
	return m.list.View()
}

// SetSize updates the tree dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
