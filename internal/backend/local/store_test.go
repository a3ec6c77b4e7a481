package local

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/slopmail/slopmail/internal/model"
)

// newTestStore creates a Store in a temporary directory with all
// migrations applied. It closes the store when the test completes.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "mail.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

func insertTestAccount(t *testing.T, s *Store) int64 {
	t.Helper()

	id, err := s.InsertAccount(context.Background(), model.Account{
		Name:       "Test",
		Email:      "test@example.com",
		Protocol:   model.ProtocolIMAP,
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "test@example.com",
		UseSSL:     true,
	})
	if err != nil {
		t.Fatalf("inserting account: %v", err)
	}
	return id
}

func upsertTestFolder(t *testing.T, s *Store, accountID int64, f model.Folder) int64 {
	t.Helper()

	f.AccountID = accountID
	id, err := s.UpsertFolder(context.Background(), f)
	if err != nil {
		t.Fatalf("upserting folder %s: %v", f.Name, err)
	}
	return id
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mail.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s.Close()
}

func TestAccountRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := insertTestAccount(t, s)

	a, err := s.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("getting account: %v", err)
	}
	if a.Email != "test@example.com" {
		t.Fatalf("unexpected email: %q", a.Email)
	}
	if a.Protocol != model.ProtocolIMAP {
		t.Fatalf("unexpected protocol: %q", a.Protocol)
	}
	if !a.UseSSL {
		t.Fatalf("expected use_ssl to survive the round trip")
	}

	if err := s.SetAccountPasswordRef(ctx, id, "keyring:account-1"); err != nil {
		t.Fatalf("setting password ref: %v", err)
	}
	a, err = s.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("re-getting account: %v", err)
	}
	if a.PasswordRef != "keyring:account-1" {
		t.Fatalf("unexpected password ref: %q", a.PasswordRef)
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("listing accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
}

func TestGetAccountNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAccount(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertFolderUpdatesOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accountID := insertTestAccount(t, s)

	id := upsertTestFolder(t, s, accountID, model.Folder{
		Name:         "INBOX",
		DisplayName:  "Inbox",
		FolderType:   model.FolderInbox,
		MessageCount: 10,
		UnreadCount:  3,
	})

	// Same (account_id, name) again with fresh counts.
	id2 := upsertTestFolder(t, s, accountID, model.Folder{
		Name:         "INBOX",
		DisplayName:  "Inbox",
		FolderType:   model.FolderInbox,
		MessageCount: 12,
		UnreadCount:  5,
	})
	if id != id2 {
		t.Fatalf("upsert created a second row: %d != %d", id, id2)
	}

	f, err := s.GetFolder(ctx, id)
	if err != nil {
		t.Fatalf("getting folder: %v", err)
	}
	if f.MessageCount != 12 || f.UnreadCount != 5 {
		t.Fatalf("counts were not updated: %d/%d", f.MessageCount, f.UnreadCount)
	}
}

func TestFindFolderByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accountID := insertTestAccount(t, s)

	upsertTestFolder(t, s, accountID, model.Folder{
		Name: "Sent", DisplayName: "Sent", FolderType: model.FolderSent,
	})

	f, err := s.FindFolderByType(ctx, accountID, model.FolderSent)
	if err != nil {
		t.Fatalf("finding sent folder: %v", err)
	}
	if f.Name != "Sent" {
		t.Fatalf("unexpected folder: %q", f.Name)
	}

	_, err = s.FindFolderByType(ctx, accountID, model.FolderDrafts)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing type, got %v", err)
	}
}

func TestListEmailsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accountID := insertTestAccount(t, s)
	folderID := upsertTestFolder(t, s, accountID, model.Folder{
		Name: "INBOX", DisplayName: "Inbox", FolderType: model.FolderInbox,
	})

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	var emails []model.Email
	for i := 0; i < 3; i++ {
		emails = append(emails, model.Email{
			AccountID:    accountID,
			FolderID:     folderID,
			MessageID:    string(rune('a'+i)) + "@example.com",
			Subject:      string(rune('a' + i)),
			InternalDate: base.Add(time.Duration(i) * time.Hour),
			ReceivedDate: base.Add(time.Duration(i) * time.Hour),
		})
	}
	if err := s.UpsertEmails(ctx, emails); err != nil {
		t.Fatalf("upserting emails: %v", err)
	}

	got, err := s.ListEmails(ctx, accountID, folderID, 2, 0)
	if err != nil {
		t.Fatalf("listing emails: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(got))
	}
	if got[0].Subject != "c" || got[1].Subject != "b" {
		t.Fatalf("unexpected order: %q, %q", got[0].Subject, got[1].Subject)
	}

	got, err = s.ListEmails(ctx, accountID, folderID, 2, 2)
	if err != nil {
		t.Fatalf("listing second page: %v", err)
	}
	if len(got) != 1 || got[0].Subject != "a" {
		t.Fatalf("unexpected second page: %+v", got)
	}
}

func TestUpsertEmailsUpdatesFlags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accountID := insertTestAccount(t, s)
	folderID := upsertTestFolder(t, s, accountID, model.Folder{
		Name: "INBOX", DisplayName: "Inbox", FolderType: model.FolderInbox,
	})

	e := model.Email{
		AccountID:    accountID,
		FolderID:     folderID,
		MessageID:    "<m@example.com>",
		Subject:      "First",
		InternalDate: time.Now().UTC(),
		ReceivedDate: time.Now().UTC(),
	}
	if err := s.UpsertEmails(ctx, []model.Email{e}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	e.Subject = "Updated"
	e.IsRead = true
	if err := s.UpsertEmails(ctx, []model.Email{e}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.ListEmails(ctx, accountID, folderID, 0, 0)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("conflict resolution created a second row: %d rows", len(got))
	}
	if got[0].Subject != "Updated" || !got[0].IsRead {
		t.Fatalf("update not applied: %+v", got[0])
	}
}

func TestMarkEmailRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accountID := insertTestAccount(t, s)
	folderID := upsertTestFolder(t, s, accountID, model.Folder{
		Name: "INBOX", DisplayName: "Inbox", FolderType: model.FolderInbox,
		MessageCount: 1, UnreadCount: 1,
	})

	if err := s.UpsertEmails(ctx, []model.Email{{
		AccountID:    accountID,
		FolderID:     folderID,
		MessageID:    "<m@example.com>",
		Subject:      "Unread",
		InternalDate: time.Now().UTC(),
		ReceivedDate: time.Now().UTC(),
	}}); err != nil {
		t.Fatalf("upserting email: %v", err)
	}

	emails, err := s.ListEmails(ctx, accountID, folderID, 0, 0)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	emailID := emails[0].ID

	if err := s.MarkEmailRead(ctx, emailID); err != nil {
		t.Fatalf("marking read: %v", err)
	}
	// Already-read messages are left alone.
	if err := s.MarkEmailRead(ctx, emailID); err != nil {
		t.Fatalf("marking read again: %v", err)
	}

	f, err := s.GetFolder(ctx, folderID)
	if err != nil {
		t.Fatalf("getting folder: %v", err)
	}
	if f.UnreadCount != 0 {
		t.Fatalf("expected unread count 0, got %d", f.UnreadCount)
	}

	e, err := s.GetEmail(ctx, emailID)
	if err != nil {
		t.Fatalf("getting email: %v", err)
	}
	if !e.IsRead {
		t.Fatalf("email not marked read")
	}
}

func TestMarkEmailReadNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.MarkEmailRead(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecountFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accountID := insertTestAccount(t, s)
	folderID := upsertTestFolder(t, s, accountID, model.Folder{
		Name: "INBOX", DisplayName: "Inbox", FolderType: model.FolderInbox,
	})

	now := time.Now().UTC()
	if err := s.UpsertEmails(ctx, []model.Email{
		{AccountID: accountID, FolderID: folderID, MessageID: "<a@x>", InternalDate: now, ReceivedDate: now},
		{AccountID: accountID, FolderID: folderID, MessageID: "<b@x>", InternalDate: now, ReceivedDate: now, IsRead: true},
	}); err != nil {
		t.Fatalf("upserting emails: %v", err)
	}

	if err := s.RecountFolder(ctx, folderID); err != nil {
		t.Fatalf("recounting: %v", err)
	}

	f, err := s.GetFolder(ctx, folderID)
	if err != nil {
		t.Fatalf("getting folder: %v", err)
	}
	if f.MessageCount != 2 || f.UnreadCount != 1 {
		t.Fatalf("unexpected counts: %d/%d", f.MessageCount, f.UnreadCount)
	}
}
