package accountsetup

import "strings"

// Provider holds the well-known server settings of a mail provider.
type Provider struct {
	IMAPServer string
	IMAPPort   int
	SMTPServer string
	SMTPPort   int
}

// providers maps email domains to their standard server settings.
var providers = map[string]Provider{
	"gmail.com": {
		IMAPServer: "imap.gmail.com", IMAPPort: 993,
		SMTPServer: "smtp.gmail.com", SMTPPort: 587,
	},
	"outlook.com": {
		IMAPServer: "outlook.office365.com", IMAPPort: 993,
		SMTPServer: "smtp.office365.com", SMTPPort: 587,
	},
	"hotmail.com": {
		IMAPServer: "outlook.office365.com", IMAPPort: 993,
		SMTPServer: "smtp.office365.com", SMTPPort: 587,
	},
	"yahoo.com": {
		IMAPServer: "imap.mail.yahoo.com", IMAPPort: 993,
		SMTPServer: "smtp.mail.yahoo.com", SMTPPort: 587,
	},
	"icloud.com": {
		IMAPServer: "imap.mail.me.com", IMAPPort: 993,
		SMTPServer: "smtp.mail.me.com", SMTPPort: 587,
	},
}

// ProviderDefaults returns the server settings for a known provider
// based on the email address's domain.
func ProviderDefaults(email string) (Provider, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return Provider{}, false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	p, ok := providers[domain]
	return p, ok
}
