// Package memory implements the backend command boundary entirely in
// memory. It backs demo mode and the UI tests, where no mail server or
// database is available.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/model"
)

// Client is an in-memory backend implementation.
type Client struct {
	mu sync.Mutex

	accounts []model.Account
	folders  map[int64][]model.Folder
	emails   map[int64][]model.Email

	nextAccountID int64
	nextFolderID  int64
	nextEmailID   int64

	calls map[string]int

	// Err, when set, is returned by every command. Tests use it to
	// exercise failure paths.
	Err error
}

// NewClient returns an empty in-memory backend.
func NewClient() *Client {
	return &Client{
		folders:       make(map[int64][]model.Folder),
		emails:        make(map[int64][]model.Email),
		nextAccountID: 1,
		nextFolderID:  1,
		nextEmailID:   1,
		calls:         make(map[string]int),
	}
}

// CallCount reports how many times a command has been invoked, keyed
// by method name. Tests use it to assert which commands the UI issued.
func (c *Client) CallCount(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

var _ backend.Client = (*Client)(nil)

// GetAccounts returns all configured accounts.
func (c *Client) GetAccounts(ctx context.Context) ([]model.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["GetAccounts"]++
	if c.Err != nil {
		return nil, c.Err
	}

	out := make([]model.Account, len(c.accounts))
	copy(out, c.accounts)
	return out, nil
}

// GetFolders returns the folders of one account.
func (c *Client) GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["GetFolders"]++
	if c.Err != nil {
		return nil, c.Err
	}

	out := make([]model.Folder, len(c.folders[accountID]))
	copy(out, c.folders[accountID])
	return out, nil
}

// GetEmails returns a page of emails from a folder, newest first.
func (c *Client) GetEmails(
	ctx context.Context,
	accountID, folderID int64,
	opts backend.ListOptions,
) ([]model.Email, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["GetEmails"]++
	if c.Err != nil {
		return nil, c.Err
	}

	var all []model.Email
	for _, e := range c.emails[folderID] {
		if e.AccountID == accountID {
			all = append(all, e)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].InternalDate.After(all[j].InternalDate)
	})

	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}

	out := make([]model.Email, len(all))
	copy(out, all)
	return out, nil
}

// MarkEmailRead marks a single email as read and adjusts the folder's
// unread count.
func (c *Client) MarkEmailRead(ctx context.Context, emailID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["MarkEmailRead"]++
	if c.Err != nil {
		return c.Err
	}

	for folderID, emails := range c.emails {
		for i := range emails {
			if emails[i].ID != emailID {
				continue
			}
			if emails[i].IsRead {
				return nil
			}
			emails[i].IsRead = true
			c.adjustUnread(folderID, -1)
			return nil
		}
	}

	return fmt.Errorf("email %d not found", emailID)
}

// SendEmail records the message in the account's Sent folder and
// returns a generated Message-ID.
func (c *Client) SendEmail(ctx context.Context, compose model.ComposeEmail) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["SendEmail"]++
	if c.Err != nil {
		return "", c.Err
	}
	if len(compose.To) == 0 {
		return "", fmt.Errorf("no recipients provided")
	}

	var account *model.Account
	for i := range c.accounts {
		if c.accounts[i].ID == compose.AccountID {
			account = &c.accounts[i]
			break
		}
	}
	if account == nil {
		return "", fmt.Errorf("account %d not found", compose.AccountID)
	}

	var sent *model.Folder
	folders := c.folders[account.ID]
	for i := range folders {
		if folders[i].FolderType == model.FolderSent {
			sent = &folders[i]
			break
		}
	}
	if sent == nil {
		return "", fmt.Errorf("account %d has no sent folder", account.ID)
	}

	messageID := fmt.Sprintf("<%s@slopmail.local>", uuid.New().String())
	now := time.Now()
	email := model.Email{
		ID:           c.nextEmailID,
		AccountID:    account.ID,
		FolderID:     sent.ID,
		MessageID:    messageID,
		Subject:      compose.Subject,
		FromAddress:  account.Email,
		FromName:     account.Name,
		ToAddresses:  model.EncodeAddressList(compose.To),
		CcAddresses:  model.EncodeAddressList(compose.Cc),
		BccAddresses: model.EncodeAddressList(compose.Bcc),
		BodyText:     compose.BodyText,
		BodyHTML:     compose.BodyHTML,
		InternalDate: now,
		ReceivedDate: now,
		IsRead:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.nextEmailID++
	c.emails[sent.ID] = append(c.emails[sent.ID], email)
	sent.MessageCount++

	return messageID, nil
}

// AddAccount persists a new account with a standard folder set.
func (c *Client) AddAccount(ctx context.Context, req model.AddAccountRequest) (*model.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["AddAccount"]++
	if c.Err != nil {
		return nil, c.Err
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("email, username, and password are required")
	}

	now := time.Now()
	account := model.Account{
		ID:          c.nextAccountID,
		Name:        req.Name,
		Email:       req.Email,
		Protocol:    req.Protocol,
		IMAPServer:  req.IMAPServer,
		IMAPPort:    req.IMAPPort,
		SMTPServer:  req.SMTPServer,
		SMTPPort:    req.SMTPPort,
		Username:    req.Username,
		PasswordRef: fmt.Sprintf("memory:account-%d", c.nextAccountID),
		UseSSL:      req.UseSSL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if account.Name == "" {
		account.Name = req.Email
	}
	if account.Protocol == "" {
		account.Protocol = model.ProtocolIMAP
	}
	c.nextAccountID++
	c.accounts = append(c.accounts, account)

	standard := []struct {
		name       string
		display    string
		folderType model.FolderType
	}{
		{"INBOX", "Inbox", model.FolderInbox},
		{"Sent", "Sent", model.FolderSent},
		{"Drafts", "Drafts", model.FolderDrafts},
		{"Trash", "Trash", model.FolderTrash},
		{"Spam", "Spam", model.FolderSpam},
	}
	for _, f := range standard {
		c.folders[account.ID] = append(c.folders[account.ID], model.Folder{
			ID:          c.nextFolderID,
			AccountID:   account.ID,
			Name:        f.name,
			DisplayName: f.display,
			FolderType:  f.folderType,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		c.nextFolderID++
	}

	return &account, nil
}

// TestAccountConnection validates the settings without persisting
// anything. No real server is dialed.
func (c *Client) TestAccountConnection(ctx context.Context, req model.TestAccountRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["TestAccountConnection"]++
	if c.Err != nil {
		return "", c.Err
	}
	if req.IMAPServer == "" || req.IMAPPort == 0 {
		return "", fmt.Errorf("IMAP server and port are required")
	}
	if req.Username == "" || req.Password == "" {
		return "", fmt.Errorf("username and password are required")
	}
	return fmt.Sprintf("Connected to %s:%d as %s", req.IMAPServer, req.IMAPPort, req.Username), nil
}

// AddFolder registers an extra folder on an account. Tests and demo
// seeding use it directly; it is not part of the command surface.
func (c *Client) AddFolder(accountID int64, f model.Folder) model.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.ID = c.nextFolderID
	f.AccountID = accountID
	c.nextFolderID++
	c.folders[accountID] = append(c.folders[accountID], f)
	return f
}

// AddEmail registers an email in a folder and updates the folder's
// counts. Tests and demo seeding use it directly.
func (c *Client) AddEmail(folderID int64, e model.Email) model.Email {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.ID = c.nextEmailID
	e.FolderID = folderID
	c.nextEmailID++
	c.emails[folderID] = append(c.emails[folderID], e)

	for accountID, folders := range c.folders {
		for i := range folders {
			if folders[i].ID == folderID {
				folders[i].MessageCount++
				if !e.IsRead {
					folders[i].UnreadCount++
				}
				c.folders[accountID] = folders
				return e
			}
		}
	}
	return e
}

func (c *Client) adjustUnread(folderID int64, delta int) {
	for accountID, folders := range c.folders {
		for i := range folders {
			if folders[i].ID == folderID {
				folders[i].UnreadCount += delta
				if folders[i].UnreadCount < 0 {
					folders[i].UnreadCount = 0
				}
				c.folders[accountID] = folders
				return
			}
		}
	}
}
