package accountsetup

import (
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/slopmail/slopmail/internal/backend/memory"
	"github.com/slopmail/slopmail/internal/keys"
)

// driveSetup runs a command tree to completion, feeding every produced
// message back into Update. Repeating ticks are dropped so the loop
// terminates.
func driveSetup(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatalf("message loop did not settle")
		}

		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}

		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg, spinner.TickMsg, cursor.BlinkMsg:
			continue
		default:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		}
	}

	return m
}

// press feeds one key message through Update and settles its commands.
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	m, cmd := m.Update(msg)
	return driveSetup(t, m, cmd)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func newTestSetup(t *testing.T) Model {
	t.Helper()
	m := New(memory.NewClient(), keys.DefaultKeyMap(), false, 80, 30)
	return driveSetup(t, m, m.Init())
}

func TestTypedInputReachesModel(t *testing.T) {
	m := newTestSetup(t)

	// The first field is the account name.
	m = typeText(t, m, "Work")

	if m.vals.name != "Work" {
		t.Fatalf("typed name did not reach the model, got %q", m.vals.name)
	}
}

func TestTypingKnownEmailFillsServerFields(t *testing.T) {
	m := newTestSetup(t)

	// Advance past the name field, then type the address.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "user@gmail.com")

	if m.vals.email != "user@gmail.com" {
		t.Fatalf("typed email did not reach the model, got %q", m.vals.email)
	}
	if m.vals.imapHost != "imap.gmail.com" || m.vals.imapPort != "993" {
		t.Fatalf("IMAP fields not filled: %s:%s", m.vals.imapHost, m.vals.imapPort)
	}
	if m.vals.smtpHost != "smtp.gmail.com" || m.vals.smtpPort != "587" {
		t.Fatalf("SMTP fields not filled: %s:%s", m.vals.smtpHost, m.vals.smtpPort)
	}
	if m.vals.username != "user@gmail.com" {
		t.Fatalf("username not filled from the address, got %q", m.vals.username)
	}
}

func TestAutofillKeepsUserValues(t *testing.T) {
	m := newTestSetup(t)

	m.vals.imapHost = "mail.custom.net"
	// Rebuild the form so the widgets pick up the direct assignment;
	// otherwise the stale empty widget value is written back over it on
	// the next keypress.
	m.form = m.buildForm()
	m = driveSetup(t, m, m.form.Init())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "user@gmail.com")

	if m.vals.imapHost != "mail.custom.net" {
		t.Fatalf("autofill overwrote an explicit server: %q", m.vals.imapHost)
	}
	if m.vals.smtpHost != "smtp.gmail.com" {
		t.Fatalf("empty SMTP field not filled: %q", m.vals.smtpHost)
	}
}

func TestUnknownDomainLeavesFieldsEmpty(t *testing.T) {
	m := newTestSetup(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "user@example.org")

	if m.vals.imapHost != "" || m.vals.smtpHost != "" {
		t.Fatalf("unknown domain filled server fields: %q %q", m.vals.imapHost, m.vals.smtpHost)
	}
}

func TestConnectionTestUsesTypedValues(t *testing.T) {
	m := newTestSetup(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "user@gmail.com")
	m.vals.password = "hunter2"

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	if m.mode != ModeTestResult {
		t.Fatalf("expected test result mode, got %d", m.mode)
	}
	if m.testErr != nil {
		t.Fatalf("test connection failed: %v", m.testErr)
	}
	want := "Connected to imap.gmail.com:993 as user@gmail.com"
	if m.testStatus != want {
		t.Fatalf("test request did not carry the typed values: %q", m.testStatus)
	}
}

func TestConnectionTestRequiresServer(t *testing.T) {
	m := newTestSetup(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "user@example.org")
	m.vals.password = "hunter2"

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	if m.mode != ModeForm {
		t.Fatalf("expected to stay on the form, got mode %d", m.mode)
	}
	if m.errText == "" {
		t.Fatalf("expected a validation error for the missing server")
	}
}
