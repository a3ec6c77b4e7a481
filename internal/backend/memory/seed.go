package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/slopmail/slopmail/internal/model"
)

// NewDemoClient returns an in-memory backend seeded with a sample
// account and mailbox contents.
func NewDemoClient() *Client {
	c := NewClient()

	account, err := c.AddAccount(context.Background(), model.AddAccountRequest{
		Name:       "Demo Account",
		Email:      "demo@example.com",
		Protocol:   model.ProtocolIMAP,
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "demo@example.com",
		Password:   "demo",
		UseSSL:     true,
	})
	if err != nil {
		return c
	}

	folders, _ := c.GetFolders(context.Background(), account.ID)
	var inbox, sent model.Folder
	for _, f := range folders {
		switch f.FolderType {
		case model.FolderInbox:
			inbox = f
		case model.FolderSent:
			sent = f
		}
	}

	c.AddFolder(account.ID, model.Folder{
		Name:        "INBOX/Receipts",
		DisplayName: "Receipts",
		FolderType:  model.FolderCustom,
	})

	now := time.Now()
	samples := []struct {
		from    model.EmailAddress
		subject string
		body    string
		age     time.Duration
		read    bool
		flagged bool
	}{
		{
			from:    model.EmailAddress{Name: "Mara Ellis", Address: "mara@example.org"},
			subject: "Quarterly roadmap review",
			body:    "Hi,\n\nAttaching the notes from yesterday. Can you look over the Q3 items before Friday?\n\nMara",
			age:     2 * time.Hour,
		},
		{
			from:    model.EmailAddress{Name: "Build Bot", Address: "ci@example.org"},
			subject: "Nightly build succeeded",
			body:    "All 412 tests passed.\n\nArtifacts are available for 30 days.",
			age:     8 * time.Hour,
			read:    true,
		},
		{
			from:    model.EmailAddress{Name: "Priya Nair", Address: "priya@example.org"},
			subject: "Re: conference travel",
			body:    "Flights are booked. I forwarded the itinerary to your calendar.\n\nPriya",
			age:     26 * time.Hour,
			flagged: true,
		},
		{
			from:    model.EmailAddress{Name: "Accounts", Address: "billing@example.net"},
			subject: "Your invoice for August",
			body:    "Your invoice #8841 is attached. Payment is due within 30 days.",
			age:     3 * 24 * time.Hour,
			read:    true,
		},
		{
			from:    model.EmailAddress{Name: "Jon Webb", Address: "jon@example.org"},
			subject: "Lunch next week?",
			body:    "Long time no see. Are you free Tuesday or Wednesday?",
			age:     9 * 24 * time.Hour,
		},
	}

	for i, s := range samples {
		date := now.Add(-s.age)
		c.AddEmail(inbox.ID, model.Email{
			AccountID:   account.ID,
			MessageID:   fmt.Sprintf("<demo-%d@example.org>", i+1),
			Subject:     s.subject,
			FromAddress: s.from.Address,
			FromName:    s.from.Name,
			ToAddresses: model.EncodeAddressList([]model.EmailAddress{
				{Name: "Demo Account", Address: "demo@example.com"},
			}),
			BodyText:     s.body,
			SizeBytes:    int64(2048 + i*517),
			InternalDate: date,
			ReceivedDate: date,
			IsRead:       s.read,
			IsFlagged:    s.flagged,
			CreatedAt:    date,
			UpdatedAt:    date,
		})
	}

	sentDate := now.Add(-36 * time.Hour)
	c.AddEmail(sent.ID, model.Email{
		AccountID:   account.ID,
		MessageID:   "<demo-sent-1@example.com>",
		Subject:     "Re: Quarterly roadmap review",
		FromAddress: "demo@example.com",
		FromName:    "Demo Account",
		ToAddresses: model.EncodeAddressList([]model.EmailAddress{
			{Name: "Mara Ellis", Address: "mara@example.org"},
		}),
		BodyText:     "Will do, sending comments by Thursday.",
		SizeBytes:    1024,
		InternalDate: sentDate,
		ReceivedDate: sentDate,
		IsRead:       true,
		CreatedAt:    sentDate,
		UpdatedAt:    sentDate,
	})

	return c
}
