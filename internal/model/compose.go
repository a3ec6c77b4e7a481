package model

// ComposeEmail is an outgoing message handed to the backend for
// delivery. To must be non-empty; Cc and Bcc are optional. A message
// with neither body set is sent with an empty text body.
type ComposeEmail struct {
	// AccountID selects the sending account.
	AccountID int64 `json:"account_id"`

	To  []EmailAddress `json:"to"`
	Cc  []EmailAddress `json:"cc,omitempty"`
	Bcc []EmailAddress `json:"bcc,omitempty"`

	Subject  string `json:"subject"`
	BodyText string `json:"body_text,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`

	// InReplyTo and References thread replies when set.
	InReplyTo  string   `json:"in_reply_to,omitempty"`
	References []string `json:"references,omitempty"`
}

// Recipients returns all recipient addresses across To, Cc, and Bcc.
func (c *ComposeEmail) Recipients() []string {
	out := make([]string, 0, len(c.To)+len(c.Cc)+len(c.Bcc))
	for _, lists := range [][]EmailAddress{c.To, c.Cc, c.Bcc} {
		for _, a := range lists {
			out = append(out, a.Address)
		}
	}
	return out
}
