// Package local implements the backend command boundary against real
// mail servers, with a SQLite cache between the UI and the network.
// Folder lists and message pages are served from the cache and filled
// from IMAP on first access.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/credential"
	"github.com/slopmail/slopmail/internal/model"
)

// defaultFetchLimit bounds how many messages a first-access folder sync
// pulls from the server.
const defaultFetchLimit = 200

// Client is the local backend implementation.
type Client struct {
	store *Store
	log   *logrus.Logger
}

// NewClient wraps a store in a backend client.
func NewClient(store *Store, log *logrus.Logger) *Client {
	return &Client{store: store, log: log}
}

var _ backend.Client = (*Client)(nil)

// GetAccounts returns all configured accounts.
func (c *Client) GetAccounts(ctx context.Context) ([]model.Account, error) {
	return c.store.ListAccounts(ctx)
}

// GetFolders returns the folders of one account, syncing the mailbox
// list from the server on first access.
func (c *Client) GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error) {
	folders, err := c.store.ListFolders(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(folders) > 0 {
		return folders, nil
	}

	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	session, err := c.imapFor(account)
	if err != nil {
		return nil, err
	}

	remote, err := session.listMailboxes(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, f := range remote {
		if _, err := c.store.UpsertFolder(ctx, f); err != nil {
			return nil, err
		}
	}

	c.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"folders":    len(remote),
	}).Info("synced folder list")

	return c.store.ListFolders(ctx, accountID)
}

// GetEmails returns a page of emails from a folder, newest first. An
// empty cache for a non-empty folder triggers a fetch from the server.
func (c *Client) GetEmails(
	ctx context.Context,
	accountID, folderID int64,
	opts backend.ListOptions,
) ([]model.Email, error) {
	emails, err := c.store.ListEmails(ctx, accountID, folderID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	if len(emails) > 0 || opts.Offset > 0 {
		return emails, nil
	}

	folder, err := c.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.MessageCount == 0 {
		return nil, nil
	}

	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	session, err := c.imapFor(account)
	if err != nil {
		return nil, err
	}

	fetched, err := session.fetchMessages(ctx, folder.Name, accountID, folderID, defaultFetchLimit)
	if err != nil {
		return nil, err
	}
	if err := c.store.UpsertEmails(ctx, fetched); err != nil {
		return nil, err
	}
	if err := c.store.RecountFolder(ctx, folderID); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"folder":     folder.Name,
		"messages":   len(fetched),
	}).Info("synced folder messages")

	return c.store.ListEmails(ctx, accountID, folderID, opts.Limit, opts.Offset)
}

// MarkEmailRead marks an email read in the cache and pushes the \Seen
// flag to the server when the message has a known UID. A server push
// failure does not fail the command; the cache stays authoritative for
// the UI.
func (c *Client) MarkEmailRead(ctx context.Context, emailID int64) error {
	email, err := c.store.GetEmail(ctx, emailID)
	if err != nil {
		return err
	}

	if err := c.store.MarkEmailRead(ctx, emailID); err != nil {
		return err
	}

	if email.UID == nil {
		return nil
	}

	folder, err := c.store.GetFolder(ctx, email.FolderID)
	if err != nil {
		return err
	}
	account, err := c.store.GetAccount(ctx, email.AccountID)
	if err != nil {
		return err
	}
	session, err := c.imapFor(account)
	if err != nil {
		return err
	}

	if err := session.markSeen(ctx, folder.Name, *email.UID); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"email_id": emailID,
			"folder":   folder.Name,
		}).Warn("failed to push seen flag to server")
	}

	return nil
}

// SendEmail delivers a message over SMTP, appends a copy to the Sent
// mailbox, and caches it locally. Returns the generated Message-ID.
func (c *Client) SendEmail(ctx context.Context, compose model.ComposeEmail) (string, error) {
	if len(compose.To) == 0 {
		return "", fmt.Errorf("no recipients provided")
	}

	account, err := c.store.GetAccount(ctx, compose.AccountID)
	if err != nil {
		return "", err
	}
	password, err := c.passwordFor(account)
	if err != nil {
		return "", err
	}

	from := model.EmailAddress{Name: account.Name, Address: account.Email}
	messageID, raw, err := buildMessage(compose, from)
	if err != nil {
		return "", err
	}

	smtpSess := &smtpSession{
		host:     account.SMTPServer,
		port:     account.SMTPPort,
		username: account.Username,
		password: password,
		tls:      account.UseSSL && account.SMTPPort == 465,
	}
	if err := smtpSess.send(ctx, account.Email, compose.Recipients(), raw); err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"message_id": messageID,
	}).Info("sent email")

	// Keep a copy in Sent. Delivery already succeeded, so failures here
	// are logged rather than returned.
	sent, err := c.store.FindFolderByType(ctx, account.ID, model.FolderSent)
	if err != nil {
		c.log.WithError(err).Warn("no sent folder to store copy in")
		return messageID, nil
	}

	session, err := c.imapFor(account)
	if err == nil {
		if err := session.appendMessage(ctx, sent.Name, raw); err != nil {
			c.log.WithError(err).Warn("failed to append sent copy to server")
		}
	}

	now := time.Now().UTC()
	sentCopy := model.Email{
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
		SizeBytes:    int64(len(raw)),
		InternalDate: now,
		ReceivedDate: now,
		IsRead:       true,
	}
	if err := c.store.UpsertEmails(ctx, []model.Email{sentCopy}); err != nil {
		c.log.WithError(err).Warn("failed to cache sent copy")
		return messageID, nil
	}
	if err := c.store.RecountFolder(ctx, sent.ID); err != nil {
		c.log.WithError(err).Warn("failed to recount sent folder")
	}

	return messageID, nil
}

// AddAccount validates the request, stores the password in the system
// keyring, and persists the account.
func (c *Client) AddAccount(ctx context.Context, req model.AddAccountRequest) (*model.Account, error) {
	if req.Protocol == "" {
		req.Protocol = model.ProtocolIMAP
	}
	if req.Protocol != model.ProtocolIMAP {
		return nil, fmt.Errorf("protocol %s is not supported yet", req.Protocol)
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("email, username, and password are required")
	}
	if req.IMAPServer == "" || req.SMTPServer == "" {
		return nil, fmt.Errorf("IMAP and SMTP servers are required")
	}

	account := model.Account{
		Name:       req.Name,
		Email:      req.Email,
		Protocol:   req.Protocol,
		IMAPServer: req.IMAPServer,
		IMAPPort:   req.IMAPPort,
		SMTPServer: req.SMTPServer,
		SMTPPort:   req.SMTPPort,
		Username:   req.Username,
		UseSSL:     req.UseSSL,
	}
	if account.Name == "" {
		account.Name = req.Email
	}

	id, err := c.store.InsertAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	key := credential.AccountKey(id)
	if err := credential.Set(key, req.Password); err != nil {
		return nil, err
	}
	if err := c.store.SetAccountPasswordRef(ctx, id, credential.Ref(key)); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"account_id": id,
		"email":      req.Email,
	}).Info("added account")

	return c.store.GetAccount(ctx, id)
}

// TestAccountConnection dials and authenticates against the configured
// IMAP server without persisting anything.
func (c *Client) TestAccountConnection(ctx context.Context, req model.TestAccountRequest) (string, error) {
	if req.Protocol == "" {
		req.Protocol = model.ProtocolIMAP
	}
	if req.Protocol != model.ProtocolIMAP {
		return "", fmt.Errorf("protocol %s is not supported yet", req.Protocol)
	}
	if req.IMAPServer == "" || req.IMAPPort == 0 {
		return "", fmt.Errorf("IMAP server and port are required")
	}
	if req.Username == "" || req.Password == "" {
		return "", fmt.Errorf("username and password are required")
	}

	session := &imapSession{
		host:     req.IMAPServer,
		port:     req.IMAPPort,
		username: req.Username,
		password: req.Password,
		tls:      req.UseSSL,
	}
	return session.check(ctx)
}

// imapFor builds an IMAP session for a stored account, resolving its
// password from the credential store.
func (c *Client) imapFor(account *model.Account) (*imapSession, error) {
	password, err := c.passwordFor(account)
	if err != nil {
		return nil, err
	}
	return &imapSession{
		host:     account.IMAPServer,
		port:     account.IMAPPort,
		username: account.Username,
		password: password,
		tls:      account.UseSSL,
	}, nil
}

func (c *Client) passwordFor(account *model.Account) (string, error) {
	key, ok := credential.KeyFromRef(account.PasswordRef)
	if !ok {
		return "", fmt.Errorf("account %d has no stored credential", account.ID)
	}
	return credential.Get(key)
}
