package foldertree

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
)

func TestEmptyFolderListShowsGuidanceRow(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 30, 20)
	a := model.Account{ID: 1, Name: "Work"}
	m.SetAccounts([]model.Account{a})

	// Folders not loaded yet: just the heading, no guidance.
	if n := len(m.list.Items()); n != 1 {
		t.Fatalf("expected only the account heading, got %d rows", n)
	}

	m.SetFolders(a.ID, nil)
	items := m.list.Items()
	if len(items) != 2 {
		t.Fatalf("expected heading plus guidance row, got %d rows", len(items))
	}
	ti, ok := items[1].(treeItem)
	if !ok || !ti.empty {
		t.Fatalf("second row should be the guidance row, got %#v", items[1])
	}

	// Once folders arrive the guidance row disappears.
	m.SetFolders(a.ID, []model.Folder{{
		ID:          7,
		AccountID:   a.ID,
		Name:        "INBOX",
		DisplayName: "Inbox",
		FolderType:  model.FolderInbox,
	}})
	items = m.list.Items()
	if len(items) != 2 {
		t.Fatalf("expected heading plus folder, got %d rows", len(items))
	}
	ti, ok = items[1].(treeItem)
	if !ok || ti.empty || ti.folder == nil {
		t.Fatalf("guidance row should be replaced by the folder, got %#v", items[1])
	}
}

func TestGuidanceRowIsNotSelectable(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 30, 20)
	a := model.Account{ID: 1, Name: "Work"}
	m.SetAccounts([]model.Account{a})
	m.SetFolders(a.ID, nil)

	m.list.Select(1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("selecting the guidance row should do nothing")
	}
}
