package foldertree

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// treeItem is one row in the folder tree: an account heading, a folder
// beneath it, or a guidance row for an account with no folders.
type treeItem struct {
	account model.Account
	folder  *model.Folder
	empty   bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i treeItem) FilterValue() string {
	if i.folder != nil {
		return i.folder.DisplayName
	}
	if i.empty {
		return ""
	}
	return i.account.Name
}

// isAccount reports whether the row is an account heading.
func (i treeItem) isAccount() bool {
	return i.folder == nil && !i.empty
}

// itemDelegate implements list.ItemDelegate for tree rows.
type itemDelegate struct{}

// Height returns the number of lines each item takes.
func (d itemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d itemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single tree row.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(treeItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	var line string
	switch {
	case ti.empty:
		line = lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.ColorGray).
			Render("  No folders yet")
	case ti.isAccount():
		line = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite).
			Render("▾ " + ti.account.Name)
	default:
		f := ti.folder
		icon := theme.FolderIcon(f.FolderType)
		name := theme.FolderStyle(f.FolderType).Render(f.DisplayName)

		badge := ""
		switch {
		case f.UnreadCount > 0:
			badge = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorYellow).
				Render(fmt.Sprintf(" (%d)", f.UnreadCount))
		case f.MessageCount > 0:
			badge = lipgloss.NewStyle().
				Foreground(theme.ColorGray).
				Render(fmt.Sprintf(" (%d)", f.MessageCount))
		}

		line = fmt.Sprintf("  %s %s%s", icon, name, badge)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// SortFolders orders folders for display: inbox first, then sent,
// drafts, trash, and spam, with custom folders last sorted by display
// name. The input slice is not modified.
func SortFolders(folders []model.Folder) []model.Folder {
	out := make([]model.Folder, len(folders))
	copy(out, folders)

	sort.SliceStable(out, func(i, j int) bool {
		pi := out[i].FolderType.SortPriority()
		pj := out[j].FolderType.SortPriority()
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})

	return out
}
