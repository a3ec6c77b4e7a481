package model

import "time"

// FolderType is the enumerated role of a mail folder. It drives the
// folder tree's icon, color, and sort priority.
type FolderType string

const (
	FolderInbox  FolderType = "INBOX"
	FolderSent   FolderType = "SENT"
	FolderDrafts FolderType = "DRAFTS"
	FolderTrash  FolderType = "TRASH"
	FolderSpam   FolderType = "SPAM"
	FolderCustom FolderType = "CUSTOM"
)

// SortPriority returns the folder's tier in the canonical display order:
// INBOX, SENT, DRAFTS, TRASH, SPAM, then custom folders. Unknown types
// sort with custom folders.
func (t FolderType) SortPriority() int {
	switch t {
	case FolderInbox:
		return 0
	case FolderSent:
		return 1
	case FolderDrafts:
		return 2
	case FolderTrash:
		return 3
	case FolderSpam:
		return 4
	default:
		return 5
	}
}

// Folder is a mailbox within a single account.
type Folder struct {
	// ID is the backend-assigned unique identifier.
	ID int64 `json:"id" db:"id"`

	// AccountID is the owning account.
	AccountID int64 `json:"account_id" db:"account_id"`

	// Name is the folder's wire-level mailbox name (e.g., "INBOX.Archive").
	Name string `json:"name" db:"name"`

	// DisplayName is the human-readable name shown in the tree.
	DisplayName string `json:"display_name" db:"display_name"`

	// FolderType is the folder's enumerated role.
	FolderType FolderType `json:"folder_type" db:"folder_type"`

	// MessageCount is the total number of messages in the folder.
	MessageCount int `json:"message_count" db:"message_count"`

	// UnreadCount is the number of unseen messages. Always
	// UnreadCount <= MessageCount.
	UnreadCount int `json:"unread_count" db:"unread_count"`

	// UIDValidity and UIDNext mirror the IMAP mailbox state when known.
	UIDValidity *uint32 `json:"uid_validity,omitempty" db:"uid_validity"`
	UIDNext     *uint32 `json:"uid_next,omitempty" db:"uid_next"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
