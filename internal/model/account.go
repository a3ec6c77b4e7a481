package model

import "time"

// Protocol identifies the mail access protocol of an account.
type Protocol string

const (
	ProtocolIMAP Protocol = "IMAP"
	ProtocolPOP3 Protocol = "POP3"
	ProtocolJMAP Protocol = "JMAP"
)

// Account is a configured mail account as returned by the backend.
// Passwords are never carried on this struct; PasswordRef holds an
// opaque reference into the credential store.
type Account struct {
	// ID is the backend-assigned unique identifier.
	ID int64 `json:"id" db:"id"`

	// Name is the user-chosen label (e.g., "Personal Gmail").
	Name string `json:"name" db:"name"`

	// Email is the account's address.
	Email string `json:"email" db:"email"`

	// Protocol selects the access protocol (IMAP, POP3, or JMAP).
	Protocol Protocol `json:"protocol" db:"protocol"`

	// IMAPServer and IMAPPort locate the IMAP endpoint. Unset for JMAP.
	IMAPServer string `json:"imap_server,omitempty" db:"imap_server"`
	IMAPPort   int    `json:"imap_port,omitempty" db:"imap_port"`

	// SMTPServer and SMTPPort locate the submission endpoint.
	SMTPServer string `json:"smtp_server,omitempty" db:"smtp_server"`
	SMTPPort   int    `json:"smtp_port,omitempty" db:"smtp_port"`

	// JMAPURL is the JMAP session endpoint. Unset for IMAP/POP3.
	JMAPURL string `json:"jmap_url,omitempty" db:"jmap_url"`

	// Username is the login name used against the servers.
	Username string `json:"username" db:"username"`

	// PasswordRef references the stored credential (e.g., "keyring:account-3").
	PasswordRef string `json:"password_ref" db:"password_ref"`

	// UseSSL enables implicit TLS on the configured ports.
	UseSSL bool `json:"use_ssl" db:"use_ssl"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AddAccountRequest carries the fields needed to create an account.
// The password travels only on this request; the backend moves it into
// the credential store before persisting the account.
type AddAccountRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Protocol   Protocol `json:"protocol"`
	IMAPServer string   `json:"imap_server,omitempty"`
	IMAPPort   int      `json:"imap_port,omitempty"`
	SMTPServer string   `json:"smtp_server,omitempty"`
	SMTPPort   int      `json:"smtp_port,omitempty"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	UseSSL     bool     `json:"use_ssl"`
}

// TestAccountRequest carries connection settings for a connection test.
// Testing never mutates persisted state.
type TestAccountRequest struct {
	Protocol   Protocol `json:"protocol"`
	IMAPServer string   `json:"imap_server,omitempty"`
	IMAPPort   int      `json:"imap_port,omitempty"`
	SMTPServer string   `json:"smtp_server,omitempty"`
	SMTPPort   int      `json:"smtp_port,omitempty"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	UseSSL     bool     `json:"use_ssl"`
}
