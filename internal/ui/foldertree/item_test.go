package foldertree

import (
	"testing"

	"github.com/slopmail/slopmail/internal/model"
)

func TestSortFoldersTierOrder(t *testing.T) {
	in := []model.Folder{
		{ID: 1, DisplayName: "Receipts", FolderType: model.FolderCustom},
		{ID: 2, DisplayName: "Trash", FolderType: model.FolderTrash},
		{ID: 3, DisplayName: "Inbox", FolderType: model.FolderInbox},
		{ID: 4, DisplayName: "Spam", FolderType: model.FolderSpam},
		{ID: 5, DisplayName: "Drafts", FolderType: model.FolderDrafts},
		{ID: 6, DisplayName: "Sent", FolderType: model.FolderSent},
	}

	got := SortFolders(in)

	want := []model.FolderType{
		model.FolderInbox,
		model.FolderSent,
		model.FolderDrafts,
		model.FolderTrash,
		model.FolderSpam,
		model.FolderCustom,
	}
	for i, ft := range want {
		if got[i].FolderType != ft {
			t.Fatalf("position %d: expected %s, got %s", i, ft, got[i].FolderType)
		}
	}
}

func TestSortFoldersCustomByName(t *testing.T) {
	in := []model.Folder{
		{ID: 1, DisplayName: "zebra", FolderType: model.FolderCustom},
		{ID: 2, DisplayName: "Archive", FolderType: model.FolderCustom},
		{ID: 3, DisplayName: "newsletters", FolderType: model.FolderCustom},
	}

	got := SortFolders(in)

	names := []string{"Archive", "newsletters", "zebra"}
	for i, name := range names {
		if got[i].DisplayName != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, got[i].DisplayName)
		}
	}
}

func TestSortFoldersDoesNotMutateInput(t *testing.T) {
	in := []model.Folder{
		{ID: 1, DisplayName: "Trash", FolderType: model.FolderTrash},
		{ID: 2, DisplayName: "Inbox", FolderType: model.FolderInbox},
	}

	_ = SortFolders(in)

	if in[0].FolderType != model.FolderTrash {
		t.Fatalf("input slice was reordered")
	}
}
