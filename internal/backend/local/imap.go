package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/model"
)

// imapSession wraps go-imap v2 for connecting to and querying IMAP
// servers. Each operation dials a fresh connection and logs out when
// done.
type imapSession struct {
	host     string
	port     int
	username string
	password string
	tls      bool
}

// connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (s *imapSession) connect(_ context.Context) (*imapclient.Client, error) {
	addr := s.host + ":" + strconv.Itoa(s.port)

	var client *imapclient.Client
	var err error

	if s.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(s.username, s.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &backend.AuthError{
			Server: addr,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				s.username, err,
			),
		}
	}

	return client, nil
}

// check dials, authenticates, and logs out, returning a human-readable
// status message on success.
func (s *imapSession) check(ctx context.Context) (string, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	if err := client.Logout().Wait(); err != nil {
		return "", fmt.Errorf("logging out: %w", err)
	}
	return fmt.Sprintf("Connected to %s:%d as %s", s.host, s.port, s.username), nil
}

// listMailboxes fetches all mailboxes with their STATUS counts and
// maps them onto Folder values. AccountID and IDs are left unset for
// the store to assign.
func (s *imapSession) listMailboxes(ctx context.Context, accountID int64) ([]model.Folder, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	listCmd := client.List("", "*", &imap.ListOptions{
		ReturnStatus: &imap.StatusOptions{
			NumMessages: true,
			NumUnseen:   true,
			UIDNext:     true,
			UIDValidity: true,
		},
	})

	mailboxes, err := listCmd.Collect()
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	var folders []model.Folder
	for _, mbox := range mailboxes {
		if hasAttr(mbox.Attrs, imap.MailboxAttrNoSelect) {
			continue
		}

		f := model.Folder{
			AccountID:   accountID,
			Name:        mbox.Mailbox,
			DisplayName: displayName(mbox.Mailbox, mbox.Delim),
			FolderType:  classifyMailbox(mbox.Mailbox, mbox.Attrs),
		}

		if mbox.Status != nil {
			if mbox.Status.NumMessages != nil {
				f.MessageCount = int(*mbox.Status.NumMessages)
			}
			if mbox.Status.NumUnseen != nil {
				f.UnreadCount = int(*mbox.Status.NumUnseen)
			}
			if mbox.Status.UIDValidity != 0 {
				v := mbox.Status.UIDValidity
				f.UIDValidity = &v
			}
			if mbox.Status.UIDNext != 0 {
				n := uint32(mbox.Status.UIDNext)
				f.UIDNext = &n
			}
		}

		folders = append(folders, f)
	}

	return folders, nil
}

// fetchMessages selects a mailbox and fetches its most recent limit
// messages with envelopes, flags, and parsed bodies. AccountID and
// FolderID are stamped onto every returned email.
func (s *imapSession) fetchMessages(
	ctx context.Context,
	mailbox string,
	accountID, folderID int64,
	limit int,
) ([]model.Email, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	selectData, err := client.Select(mailbox, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	total := selectData.NumMessages
	if total == 0 {
		return nil, nil
	}

	// Take the highest sequence numbers; those are the newest messages.
	first := uint32(1)
	if limit > 0 && total > uint32(limit) {
		first = total - uint32(limit) + 1
	}
	var seqSet imap.SeqSet
	seqSet.AddRange(first, total)

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		Envelope:     true,
		Flags:        true,
		UID:          true,
		RFC822Size:   true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(seqSet, fetchOpts)
	defer fetchCmd.Close()

	var emails []model.Email
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		e := emailFromBuffer(buf, accountID, folderID)

		rawBody := buf.FindBodySection(bodySection)
		if rawBody != nil {
			textBody, htmlBody, attachments := parseMIMEBody(rawBody)
			e.BodyText = textBody
			e.BodyHTML = htmlBody
			e.Attachments = model.EncodeAttachments(attachments)
		}

		emails = append(emails, e)
	}

	if err := fetchCmd.Close(); err != nil {
		return emails, fmt.Errorf("fetching messages from %s: %w", mailbox, err)
	}

	return emails, nil
}

// markSeen adds the \Seen flag to a message by UID.
func (s *imapSession) markSeen(ctx context.Context, mailbox string, uid uint32) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	return storeCmd.Close()
}

// appendMessage uploads a raw message to a mailbox with the \Seen flag,
// used to keep a copy of sent mail.
func (s *imapSession) appendMessage(ctx context.Context, mailbox string, raw []byte) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	appendCmd := client.Append(mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
	})
	if _, err := appendCmd.Write(raw); err != nil {
		_ = appendCmd.Close()
		return fmt.Errorf("writing append data: %w", err)
	}
	if err := appendCmd.Close(); err != nil {
		return fmt.Errorf("appending to %s: %w", mailbox, err)
	}
	if _, err := appendCmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", mailbox, err)
	}

	return nil
}

// hasAttr reports whether attrs contains the given mailbox attribute.
func hasAttr(attrs []imap.MailboxAttr, want imap.MailboxAttr) bool {
	for _, a := range attrs {
		if strings.EqualFold(string(a), string(want)) {
			return true
		}
	}
	return false
}

// classifyMailbox maps a mailbox to a folder type using its special-use
// attributes, falling back to well-known names.
func classifyMailbox(name string, attrs []imap.MailboxAttr) model.FolderType {
	switch {
	case hasAttr(attrs, imap.MailboxAttrSent):
		return model.FolderSent
	case hasAttr(attrs, imap.MailboxAttrDrafts):
		return model.FolderDrafts
	case hasAttr(attrs, imap.MailboxAttrTrash):
		return model.FolderTrash
	case hasAttr(attrs, imap.MailboxAttrJunk):
		return model.FolderSpam
	}

	switch strings.ToUpper(name) {
	case "INBOX":
		return model.FolderInbox
	case "SENT", "SENT MAIL", "SENT MESSAGES", "SENT ITEMS":
		return model.FolderSent
	case "DRAFTS":
		return model.FolderDrafts
	case "TRASH", "DELETED", "DELETED ITEMS":
		return model.FolderTrash
	case "SPAM", "JUNK", "JUNK MAIL":
		return model.FolderSpam
	}

	return model.FolderCustom
}

// displayName returns the last path segment of a mailbox name.
func displayName(name string, delim rune) string {
	if name == "INBOX" {
		return "Inbox"
	}
	if delim != 0 {
		if i := strings.LastIndex(name, string(delim)); i >= 0 && i < len(name)-1 {
			return name[i+1:]
		}
	}
	return name
}

// emailFromBuffer extracts an Email from a FetchMessageBuffer. Bodies
// and attachments are filled in separately from the body section.
func emailFromBuffer(buf *imapclient.FetchMessageBuffer, accountID, folderID int64) model.Email {
	uid := uint32(buf.UID)
	e := model.Email{
		AccountID:    accountID,
		FolderID:     folderID,
		SizeBytes:    buf.RFC822Size,
		InternalDate: buf.InternalDate,
		ReceivedDate: buf.InternalDate,
		UID:          &uid,
	}

	if buf.Envelope != nil {
		e.MessageID = buf.Envelope.MessageID
		e.Subject = buf.Envelope.Subject
		if !buf.Envelope.Date.IsZero() {
			e.ReceivedDate = buf.Envelope.Date
		}

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			e.FromAddress = from.Addr()
			e.FromName = from.Name
		}

		e.ToAddresses = model.EncodeAddressList(toAddressList(buf.Envelope.To))
		e.CcAddresses = model.EncodeAddressList(toAddressList(buf.Envelope.Cc))
		e.BccAddresses = model.EncodeAddressList(toAddressList(buf.Envelope.Bcc))
	}

	// Servers may omit Message-ID; synthesize one so the cache key
	// stays unique.
	if e.MessageID == "" {
		e.MessageID = fmt.Sprintf("<%s@slopmail.local>", uuid.New().String())
	}
	if e.InternalDate.IsZero() {
		e.InternalDate = e.ReceivedDate
	}
	if e.InternalDate.IsZero() {
		e.InternalDate = time.Now().UTC()
		e.ReceivedDate = e.InternalDate
	}

	for _, flag := range buf.Flags {
		switch flag {
		case imap.FlagSeen:
			e.IsRead = true
		case imap.FlagFlagged:
			e.IsFlagged = true
		case imap.FlagAnswered:
			e.IsAnswered = true
		case imap.FlagDraft:
			e.IsDraft = true
		case imap.FlagDeleted:
			e.IsDeleted = true
		}
	}

	return e
}

// toAddressList converts IMAP envelope addresses to model addresses.
func toAddressList(addrs []imap.Address) []model.EmailAddress {
	var out []model.EmailAddress
	for _, a := range addrs {
		out = append(out, model.EmailAddress{
			Name:    a.Name,
			Address: a.Addr(),
		})
	}
	return out
}

// parseMIMEBody parses a raw RFC 2822 message body using go-message
// and extracts the text/plain body, text/html body, and attachment
// metadata.
func parseMIMEBody(raw []byte) (
	textBody string, htmlBody string, attachments []model.Attachment,
) {
	reader := bytes.NewReader(raw)

	mr, err := mail.CreateReader(reader)
	if err != nil {
		// If parsing fails, try treating the whole thing as plain text
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			contentID := h.Get("Content-Id")

			// Read to get size without storing content
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			attachments = append(attachments, model.Attachment{
				ID:          uuid.New().String(),
				Filename:    filename,
				ContentType: contentType,
				SizeBytes:   int64(len(body)),
				ContentID:   strings.Trim(contentID, "<>"),
			})
		}
	}

	return textBody, htmlBody, attachments
}
