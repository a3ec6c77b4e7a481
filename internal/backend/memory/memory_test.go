package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/model"
)

func newAccount(t *testing.T, c *Client) *model.Account {
	t.Helper()

	account, err := c.AddAccount(context.Background(), model.AddAccountRequest{
		Name:       "Test",
		Email:      "test@example.com",
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "test@example.com",
		Password:   "secret",
		UseSSL:     true,
	})
	if err != nil {
		t.Fatalf("adding account: %v", err)
	}
	return account
}

func folderByType(t *testing.T, c *Client, accountID int64, ft model.FolderType) model.Folder {
	t.Helper()

	folders, err := c.GetFolders(context.Background(), accountID)
	if err != nil {
		t.Fatalf("listing folders: %v", err)
	}
	for _, f := range folders {
		if f.FolderType == ft {
			return f
		}
	}
	t.Fatalf("no %s folder on account %d", ft, accountID)
	return model.Folder{}
}

func TestAddAccountCreatesStandardFolders(t *testing.T) {
	c := NewClient()
	account := newAccount(t, c)

	folders, err := c.GetFolders(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("listing folders: %v", err)
	}
	if len(folders) != 5 {
		t.Fatalf("expected 5 standard folders, got %d", len(folders))
	}

	if account.Protocol != model.ProtocolIMAP {
		t.Fatalf("expected IMAP default protocol, got %s", account.Protocol)
	}
}

func TestMarkEmailReadOnce(t *testing.T) {
	c := NewClient()
	account := newAccount(t, c)
	inbox := folderByType(t, c, account.ID, model.FolderInbox)

	email := c.AddEmail(inbox.ID, model.Email{
		AccountID:    account.ID,
		MessageID:    "<a@example.com>",
		Subject:      "Unread",
		InternalDate: time.Now(),
	})

	inbox = folderByType(t, c, account.ID, model.FolderInbox)
	if inbox.UnreadCount != 1 {
		t.Fatalf("expected 1 unread, got %d", inbox.UnreadCount)
	}

	if err := c.MarkEmailRead(context.Background(), email.ID); err != nil {
		t.Fatalf("marking read: %v", err)
	}
	// A second mark must not drive the count negative.
	if err := c.MarkEmailRead(context.Background(), email.ID); err != nil {
		t.Fatalf("marking read again: %v", err)
	}

	inbox = folderByType(t, c, account.ID, model.FolderInbox)
	if inbox.UnreadCount != 0 {
		t.Fatalf("expected 0 unread, got %d", inbox.UnreadCount)
	}

	emails, err := c.GetEmails(context.Background(), account.ID, inbox.ID, backend.ListOptions{})
	if err != nil {
		t.Fatalf("listing emails: %v", err)
	}
	if !emails[0].IsRead {
		t.Fatalf("expected email to be read")
	}
}

func TestMarkEmailReadUnknownID(t *testing.T) {
	c := NewClient()
	if err := c.MarkEmailRead(context.Background(), 42); err == nil {
		t.Fatalf("expected error for unknown email")
	}
}

func TestSendEmailLandsInSentFolder(t *testing.T) {
	c := NewClient()
	account := newAccount(t, c)

	messageID, err := c.SendEmail(context.Background(), model.ComposeEmail{
		AccountID: account.ID,
		To:        []model.EmailAddress{{Address: "dest@example.com"}},
		Subject:   "Hello",
		BodyText:  "Hi there",
	})
	if err != nil {
		t.Fatalf("sending: %v", err)
	}
	if !strings.HasPrefix(messageID, "<") || !strings.HasSuffix(messageID, "@slopmail.local>") {
		t.Fatalf("unexpected message id: %q", messageID)
	}

	sent := folderByType(t, c, account.ID, model.FolderSent)
	if sent.MessageCount != 1 {
		t.Fatalf("expected 1 message in Sent, got %d", sent.MessageCount)
	}

	emails, err := c.GetEmails(context.Background(), account.ID, sent.ID, backend.ListOptions{})
	if err != nil {
		t.Fatalf("listing sent: %v", err)
	}
	if len(emails) != 1 {
		t.Fatalf("expected 1 sent copy, got %d", len(emails))
	}
	if !emails[0].IsRead {
		t.Fatalf("sent copy should be read")
	}
	if emails[0].FromAddress != account.Email {
		t.Fatalf("sent copy should be from the account, got %q", emails[0].FromAddress)
	}
}

func TestSendEmailRequiresRecipients(t *testing.T) {
	c := NewClient()
	account := newAccount(t, c)

	if _, err := c.SendEmail(context.Background(), model.ComposeEmail{
		AccountID: account.ID,
		Subject:   "No recipients",
	}); err == nil {
		t.Fatalf("expected error for empty recipient list")
	}
}

func TestGetEmailsPagination(t *testing.T) {
	c := NewClient()
	account := newAccount(t, c)
	inbox := folderByType(t, c, account.ID, model.FolderInbox)

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c.AddEmail(inbox.ID, model.Email{
			AccountID:    account.ID,
			Subject:      string(rune('a' + i)),
			InternalDate: base.Add(time.Duration(i) * time.Hour),
			IsRead:       true,
		})
	}

	page, err := c.GetEmails(context.Background(), account.ID, inbox.ID, backend.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("listing first page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(page))
	}
	// Newest first.
	if page[0].Subject != "e" || page[1].Subject != "d" {
		t.Fatalf("unexpected order: %q, %q", page[0].Subject, page[1].Subject)
	}

	page, err = c.GetEmails(context.Background(), account.ID, inbox.ID, backend.ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("listing last page: %v", err)
	}
	if len(page) != 1 || page[0].Subject != "a" {
		t.Fatalf("unexpected last page: %+v", page)
	}

	page, err = c.GetEmails(context.Background(), account.ID, inbox.ID, backend.ListOptions{Offset: 10})
	if err != nil {
		t.Fatalf("listing past the end: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(page))
	}
}

func TestErrInjection(t *testing.T) {
	c := NewClient()
	c.Err = context.DeadlineExceeded

	if _, err := c.GetAccounts(context.Background()); err == nil {
		t.Fatalf("expected injected error")
	}
}

func TestDemoClientSeed(t *testing.T) {
	c := NewDemoClient()

	accounts, err := c.GetAccounts(context.Background())
	if err != nil {
		t.Fatalf("listing accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 demo account, got %d", len(accounts))
	}

	inbox := folderByType(t, c, accounts[0].ID, model.FolderInbox)
	emails, err := c.GetEmails(context.Background(), accounts[0].ID, inbox.ID, backend.ListOptions{})
	if err != nil {
		t.Fatalf("listing inbox: %v", err)
	}
	if len(emails) == 0 {
		t.Fatalf("demo inbox should not be empty")
	}
}
