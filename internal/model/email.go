package model

import (
	"encoding/json"
	"time"
)

// Email is a single message within a folder. Address lists and the
// attachment list are stored as serialized JSON text, matching the
// backend's storage format; use the helpers in address.go and
// ParseAttachments to read them tolerantly.
type Email struct {
	// ID is the backend-assigned unique identifier.
	ID int64 `json:"id" db:"id"`

	// AccountID and FolderID locate the message. A message belongs to
	// exactly one folder within one account.
	AccountID int64 `json:"account_id" db:"account_id"`
	FolderID  int64 `json:"folder_id" db:"folder_id"`

	// MessageID is the RFC 5322 Message-ID header value.
	MessageID string `json:"message_id" db:"message_id"`

	// ThreadID groups messages in a conversation when known.
	ThreadID string `json:"thread_id,omitempty" db:"thread_id"`

	// Subject is the message subject, possibly empty.
	Subject string `json:"subject" db:"subject"`

	// FromAddress and FromName identify the sender.
	FromAddress string `json:"from_address" db:"from_address"`
	FromName    string `json:"from_name,omitempty" db:"from_name"`

	// ToAddresses, CcAddresses, and BccAddresses are JSON-encoded
	// arrays of EmailAddress.
	ToAddresses  string `json:"to_addresses" db:"to_addresses"`
	CcAddresses  string `json:"cc_addresses,omitempty" db:"cc_addresses"`
	BccAddresses string `json:"bcc_addresses,omitempty" db:"bcc_addresses"`

	// BodyText and BodyHTML are the message bodies. Either or both may
	// be empty; a message may have no retrievable body at all.
	BodyText string `json:"body_text,omitempty" db:"body_text"`
	BodyHTML string `json:"body_html,omitempty" db:"body_html"`

	// Attachments is a JSON-encoded array of Attachment, empty when the
	// message has none.
	Attachments string `json:"attachments,omitempty" db:"attachments"`

	// SizeBytes is the message's wire size.
	SizeBytes int64 `json:"size_bytes" db:"size_bytes"`

	// InternalDate is the server-recorded date; ReceivedDate is when the
	// message arrived in the mailbox.
	InternalDate time.Time `json:"internal_date" db:"internal_date"`
	ReceivedDate time.Time `json:"received_date" db:"received_date"`

	IsRead     bool `json:"is_read" db:"is_read"`
	IsFlagged  bool `json:"is_flagged" db:"is_flagged"`
	IsAnswered bool `json:"is_answered" db:"is_answered"`
	IsDraft    bool `json:"is_draft" db:"is_draft"`
	IsDeleted  bool `json:"is_deleted" db:"is_deleted"`

	// UID and ModSeq mirror the IMAP message state when known.
	UID    *uint32 `json:"uid,omitempty" db:"uid"`
	ModSeq *uint64 `json:"mod_seq,omitempty" db:"mod_seq"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasAttachments reports whether the message carries at least one
// parseable attachment entry.
func (e *Email) HasAttachments() bool {
	return len(ParseAttachments(e.Attachments)) > 0
}

// Attachment describes one message attachment. Content is not carried;
// only metadata is available on this side of the command boundary.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentID   string `json:"content_id,omitempty"`
	IsInline    bool   `json:"is_inline"`
}

// ParseAttachments decodes a serialized attachment list. Malformed or
// empty input yields nil rather than an error; a message whose
// attachment field cannot be parsed simply renders without an
// attachment section.
func ParseAttachments(s string) []Attachment {
	if s == "" {
		return nil
	}
	var atts []Attachment
	if err := json.Unmarshal([]byte(s), &atts); err != nil {
		return nil
	}
	return atts
}

// EncodeAttachments serializes an attachment list for storage. A nil or
// empty list encodes to the empty string.
func EncodeAttachments(atts []Attachment) string {
	if len(atts) == 0 {
		return ""
	}
	b, err := json.Marshal(atts)
	if err != nil {
		return ""
	}
	return string(b)
}
