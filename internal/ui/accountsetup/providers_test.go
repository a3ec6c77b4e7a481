package accountsetup

import "testing"

func TestProviderDefaultsGmail(t *testing.T) {
	p, ok := ProviderDefaults("someone@gmail.com")
	if !ok {
		t.Fatalf("expected gmail.com to be known")
	}
	if p.IMAPServer != "imap.gmail.com" || p.IMAPPort != 993 {
		t.Fatalf("unexpected IMAP settings: %+v", p)
	}
	if p.SMTPServer != "smtp.gmail.com" || p.SMTPPort != 587 {
		t.Fatalf("unexpected SMTP settings: %+v", p)
	}
}

func TestProviderDefaultsCaseInsensitiveDomain(t *testing.T) {
	if _, ok := ProviderDefaults("someone@GMail.Com"); !ok {
		t.Fatalf("domain matching should be case insensitive")
	}
}

func TestProviderDefaultsUnknown(t *testing.T) {
	if _, ok := ProviderDefaults("someone@example.org"); ok {
		t.Fatalf("unknown domain should not match")
	}
}

func TestResolvedAppliesGmailDefaults(t *testing.T) {
	m := Model{vals: &formValues{email: "user@gmail.com"}}

	imapHost, imapPort, smtpHost, smtpPort, username, err := m.resolved()
	if err != nil {
		t.Fatalf("resolving settings: %v", err)
	}
	if imapHost != "imap.gmail.com" || imapPort != 993 {
		t.Fatalf("unexpected IMAP settings: %s:%d", imapHost, imapPort)
	}
	if smtpHost != "smtp.gmail.com" || smtpPort != 587 {
		t.Fatalf("unexpected SMTP settings: %s:%d", smtpHost, smtpPort)
	}
	if username != "user@gmail.com" {
		t.Fatalf("username should default to the email address, got %q", username)
	}
}

func TestResolvedKeepsExplicitValues(t *testing.T) {
	m := Model{vals: &formValues{
		email:    "user@gmail.com",
		imapHost: "mail.custom.net",
		imapPort: "1993",
	}}

	imapHost, imapPort, _, _, _, err := m.resolved()
	if err != nil {
		t.Fatalf("resolving settings: %v", err)
	}
	if imapHost != "mail.custom.net" || imapPort != 1993 {
		t.Fatalf("explicit values were overridden: %s:%d", imapHost, imapPort)
	}
}

func TestProviderDefaultsMalformedAddress(t *testing.T) {
	for _, input := range []string{"", "no-at-sign", "trailing@"} {
		if _, ok := ProviderDefaults(input); ok {
			t.Fatalf("malformed address %q should not match", input)
		}
	}
}
