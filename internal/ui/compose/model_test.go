package compose

import (
	"testing"

	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
)

func TestParseRecipients(t *testing.T) {
	got := ParseRecipients("a@example.com, b@example.com ,  , c@example.com")
	if len(got) != 3 {
		t.Fatalf("expected 3 recipients, got %d: %+v", len(got), got)
	}
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	for i, addr := range want {
		if got[i].Address != addr {
			t.Fatalf("position %d: expected %q, got %q", i, addr, got[i].Address)
		}
	}
}

func TestParseRecipientsEmpty(t *testing.T) {
	if got := ParseRecipients(""); got != nil {
		t.Fatalf("empty input should yield nil, got %+v", got)
	}
	if got := ParseRecipients(" , ,"); got != nil {
		t.Fatalf("blank entries should yield nil, got %+v", got)
	}
}

func TestNewReplyPrefillsFields(t *testing.T) {
	account := model.Account{ID: 1, Email: "me@example.com"}
	original := model.Email{
		MessageID:   "<orig@example.com>",
		FromAddress: "sender@example.com",
		Subject:     "Quarterly report",
	}

	m := NewReply(account, original, keys.DefaultKeyMap(), 80, 24)

	if got := m.to.Value(); got != "sender@example.com" {
		t.Fatalf("expected To prefilled with sender, got %q", got)
	}
	if got := m.subject.Value(); got != "Re: Quarterly report" {
		t.Fatalf("expected Re: prefix, got %q", got)
	}
	if m.inReplyTo != "<orig@example.com>" {
		t.Fatalf("expected In-Reply-To recorded, got %q", m.inReplyTo)
	}
}

func TestNewReplyKeepsExistingRePrefix(t *testing.T) {
	account := model.Account{ID: 1, Email: "me@example.com"}
	original := model.Email{
		FromAddress: "sender@example.com",
		Subject:     "RE: Quarterly report",
	}

	m := NewReply(account, original, keys.DefaultKeyMap(), 80, 24)

	if got := m.subject.Value(); got != "RE: Quarterly report" {
		t.Fatalf("subject should not gain a second prefix, got %q", got)
	}
}

func TestSubmitRequiresSubject(t *testing.T) {
	account := model.Account{ID: 1, Email: "me@example.com"}
	m := New(account, keys.DefaultKeyMap(), 80, 24)
	m.to.SetValue("dest@example.com")

	m, cmd := m.submit()
	if cmd != nil {
		t.Fatalf("submit without a subject should not emit a command")
	}
	if m.errText == "" {
		t.Fatalf("expected a validation error")
	}

	m.subject.SetValue("Hello")
	m, cmd = m.submit()
	if cmd == nil {
		t.Fatalf("valid form should emit a send request")
	}
	if !m.sending {
		t.Fatalf("form should enter the sending state")
	}
}

func TestSubmitRequiresRecipient(t *testing.T) {
	account := model.Account{ID: 1, Email: "me@example.com"}
	m := New(account, keys.DefaultKeyMap(), 80, 24)

	m, cmd := m.submit()
	if cmd != nil {
		t.Fatalf("submit without recipients should not emit a command")
	}
	if m.errText == "" {
		t.Fatalf("expected a validation error")
	}
	if m.sending {
		t.Fatalf("form should not enter the sending state")
	}
}
