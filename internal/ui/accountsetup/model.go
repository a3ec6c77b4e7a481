// Package accountsetup implements the add-account form: server
// settings with provider autofill, a connection test that never
// persists, and inline failure handling that preserves the form.
package accountsetup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/keys"
	"github.com/slopmail/slopmail/internal/model"
	"github.com/slopmail/slopmail/internal/theme"
)

// SetupMode represents the current state of the account setup view.
type SetupMode int

const (
	ModeForm       SetupMode = iota // Editing connection settings
	ModeTesting                     // Test connection in flight
	ModeTestResult                  // Show test outcome
	ModeAdding                      // Add account in flight
)

// AccountAddedMsg signals a new account was persisted.
type AccountAddedMsg struct {
	Account model.Account
}

// CancelledMsg signals the setup view should close without changes.
type CancelledMsg struct{}

// testResultMsg carries the outcome of a connection test.
type testResultMsg struct {
	status string
	err    error
}

// accountAddedMsg carries the outcome of an add-account command.
type accountAddedMsg struct {
	account *model.Account
	err     error
}

// formValues holds the fields the huh form binds to. The struct is
// heap-allocated once and shared by every copy of the model, so the
// form's bound pointers and the submit handlers always see the same
// data regardless of how often the model value is copied.
type formValues struct {
	name     string
	email    string
	protocol string
	imapHost string
	imapPort string
	smtpHost string
	smtpPort string
	username string
	password string
	tls      bool
}

// Model is the account setup view component.
type Model struct {
	mode    SetupMode
	client  backend.Client
	form    *huh.Form
	spinner spinner.Model
	vals    *formValues

	// prefilledFor records the email whose provider defaults were
	// already applied, so autofill runs once per address.
	prefilledFor string

	testStatus string
	testErr    error
	errText    string

	// required reports whether the app has no accounts yet; esc is
	// disabled in that case.
	required bool

	keys          *keys.KeyMap
	width, height int
}

// New creates a new account setup model.
func New(client backend.Client, k *keys.KeyMap, required bool, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		mode:    ModeForm,
		client:  client,
		spinner: sp,
		vals: &formValues{
			protocol: string(model.ProtocolIMAP),
			tls:      true,
		},
		required: required,
		keys:     k,
		width:    width,
		height:   height,
	}
	m.form = m.buildForm()
	return m
}

// Init initializes the embedded form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// buildForm constructs the huh account form bound to the shared field
// values. Rebuilding keeps every value the user already entered.
func (m *Model) buildForm() *huh.Form {
	v := m.vals
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account Name").
				Description("A label for this account").
				Placeholder("Personal").
				Value(&v.name),
			huh.NewInput().
				Title("Email Address").
				Description("Known providers fill the server fields automatically").
				Placeholder("you@example.com").
				Value(&v.email).
				Validate(validateEmail),
			huh.NewSelect[string]().
				Title("Protocol").
				Options(
					huh.NewOption("IMAP", string(model.ProtocolIMAP)),
					huh.NewOption("POP3", string(model.ProtocolPOP3)),
					huh.NewOption("JMAP", string(model.ProtocolJMAP)),
				).
				Value(&v.protocol),
			huh.NewInput().
				Title("IMAP Server").
				Placeholder("imap.example.com").
				Value(&v.imapHost),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&v.imapPort).
				Validate(validateOptionalPort),
			huh.NewInput().
				Title("SMTP Server").
				Placeholder("smtp.example.com").
				Value(&v.smtpHost),
			huh.NewInput().
				Title("SMTP Port").
				Placeholder("587").
				Value(&v.smtpPort).
				Validate(validateOptionalPort),
			huh.NewInput().
				Title("Username").
				Description("Leave empty to use the email address").
				Value(&v.username),
			huh.NewInput().
				Title("Password").
				Description("Account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&v.password).
				Validate(validateRequired("Password")),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&v.tls),
		),
	).WithWidth(m.formWidth())
}

// Update handles messages for the setup view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.mode == ModeTesting || m.mode == ModeAdding {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case testResultMsg:
		m.mode = ModeTestResult
		m.testStatus = msg.status
		m.testErr = msg.err
		return m, nil

	case accountAddedMsg:
		if msg.err != nil {
			// Keep every entered value so the user can correct and retry.
			m.mode = ModeForm
			m.errText = msg.err.Error()
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		account := *msg.account
		return m, func() tea.Msg {
			return AccountAddedMsg{Account: account}
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		switch msg.String() {
		case "esc":
			if m.required {
				return m, nil
			}
			return m, func() tea.Msg { return CancelledMsg{} }
		case "ctrl+t":
			return m.startTest()
		}
		return m.updateForm(msg)

	case ModeTesting, ModeAdding:
		// Commands in flight; ignore input until they resolve.
		return m, nil

	case ModeTestResult:
		switch msg.String() {
		case "enter", "esc":
			m.mode = ModeForm
			m.testStatus = ""
			m.testErr = nil
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, nil
	}
	return m, nil
}

// updateForm feeds a message to the huh form and reacts to completion
// and email changes.
func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.mode != ModeForm {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.startAdd()
	}
	if m.form.State == huh.StateAborted {
		if m.required {
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg { return CancelledMsg{} }
	}

	if next, fillCmd, ok := m.applyProviderDefaults(); ok {
		return next, fillCmd
	}

	return m, cmd
}

// applyProviderDefaults fills the visible server, port, and username
// fields when the email address matches a known provider. Fields the
// user already filled are left alone, and each address is applied only
// once so edits are never clobbered.
func (m Model) applyProviderDefaults() (Model, tea.Cmd, bool) {
	email := strings.TrimSpace(m.vals.email)
	if email == "" || email == m.prefilledFor {
		return m, nil, false
	}

	p, ok := ProviderDefaults(email)
	if !ok {
		return m, nil, false
	}
	m.prefilledFor = email

	v := m.vals
	if strings.TrimSpace(v.imapHost) == "" {
		v.imapHost = p.IMAPServer
	}
	if strings.TrimSpace(v.imapPort) == "" {
		v.imapPort = strconv.Itoa(p.IMAPPort)
	}
	if strings.TrimSpace(v.smtpHost) == "" {
		v.smtpHost = p.SMTPServer
	}
	if strings.TrimSpace(v.smtpPort) == "" {
		v.smtpPort = strconv.Itoa(p.SMTPPort)
	}
	if strings.TrimSpace(v.username) == "" {
		v.username = email
	}

	// Rebuild so the form widgets pick up the filled values, then move
	// focus back to the email field the user was typing in.
	m.form = m.buildForm()
	return m, tea.Sequence(m.form.Init(), huh.NextField), true
}

// startTest fires a test connection with the current form values.
func (m Model) startTest() (Model, tea.Cmd) {
	req, err := m.buildTestRequest()
	if err != nil {
		m.errText = err.Error()
		return m, nil
	}

	m.mode = ModeTesting
	m.errText = ""
	client := m.client
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			status, err := client.TestAccountConnection(context.Background(), req)
			return testResultMsg{status: status, err: err}
		},
	)
}

// startAdd fires the add-account command with the completed form.
func (m Model) startAdd() (Model, tea.Cmd) {
	req, err := m.buildAddRequest()
	if err != nil {
		m.mode = ModeForm
		m.errText = err.Error()
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.mode = ModeAdding
	m.errText = ""
	client := m.client
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			account, err := client.AddAccount(context.Background(), req)
			return accountAddedMsg{account: account, err: err}
		},
	)
}

// resolved returns the effective connection settings with provider
// defaults applied to any fields still empty at submit time.
func (m Model) resolved() (imapHost string, imapPort int, smtpHost string, smtpPort int, username string, err error) {
	v := m.vals
	imapHost = strings.TrimSpace(v.imapHost)
	smtpHost = strings.TrimSpace(v.smtpHost)
	username = strings.TrimSpace(v.username)

	if p, ok := ProviderDefaults(v.email); ok {
		if imapHost == "" {
			imapHost = p.IMAPServer
		}
		if smtpHost == "" {
			smtpHost = p.SMTPServer
		}
		if strings.TrimSpace(v.imapPort) == "" {
			imapPort = p.IMAPPort
		}
		if strings.TrimSpace(v.smtpPort) == "" {
			smtpPort = p.SMTPPort
		}
	}
	if username == "" {
		username = strings.TrimSpace(v.email)
	}

	if imapPort == 0 {
		imapPort, err = parsePort(v.imapPort, 993)
		if err != nil {
			return
		}
	}
	if smtpPort == 0 {
		smtpPort, err = parsePort(v.smtpPort, 587)
		if err != nil {
			return
		}
	}

	if imapHost == "" {
		err = fmt.Errorf("IMAP server is required")
		return
	}
	if smtpHost == "" {
		err = fmt.Errorf("SMTP server is required")
	}
	return
}

func (m Model) buildTestRequest() (model.TestAccountRequest, error) {
	imapHost, imapPort, smtpHost, smtpPort, username, err := m.resolved()
	if err != nil {
		return model.TestAccountRequest{}, err
	}
	if m.vals.password == "" {
		return model.TestAccountRequest{}, fmt.Errorf("password is required")
	}

	return model.TestAccountRequest{
		Protocol:   model.Protocol(m.vals.protocol),
		IMAPServer: imapHost,
		IMAPPort:   imapPort,
		SMTPServer: smtpHost,
		SMTPPort:   smtpPort,
		Username:   username,
		Password:   m.vals.password,
		UseSSL:     m.vals.tls,
	}, nil
}

func (m Model) buildAddRequest() (model.AddAccountRequest, error) {
	imapHost, imapPort, smtpHost, smtpPort, username, err := m.resolved()
	if err != nil {
		return model.AddAccountRequest{}, err
	}

	name := strings.TrimSpace(m.vals.name)
	if name == "" {
		name = strings.TrimSpace(m.vals.email)
	}

	return model.AddAccountRequest{
		Name:       name,
		Email:      strings.TrimSpace(m.vals.email),
		Protocol:   model.Protocol(m.vals.protocol),
		IMAPServer: imapHost,
		IMAPPort:   imapPort,
		SMTPServer: smtpHost,
		SMTPPort:   smtpPort,
		Username:   username,
		Password:   m.vals.password,
		UseSSL:     m.vals.tls,
	}, nil
}

// View renders the setup view based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeTesting:
		return style.Render(m.spinner.View() + " Testing connection...")

	case ModeAdding:
		return style.Render(m.spinner.View() + " Adding account...")

	case ModeTestResult:
		var content string
		if m.testErr != nil {
			content = theme.ErrorStyle.Render("Connection failed") + "\n\n" +
				m.testErr.Error() + "\n\n" +
				theme.HelpStyle.Render("enter/esc back to form")
		} else {
			content = theme.SuccessStyle.Render("Connection successful") + "\n\n" +
				m.testStatus + "\n\n" +
				theme.HelpStyle.Render("enter/esc back to form")
		}
		return style.Render(content)
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Add Account"))
	b.WriteString("\n\n")
	if m.form != nil {
		b.WriteString(m.form.View())
	}
	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errText))
	}
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("ctrl+t test connection"))

	return style.Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// parsePort parses a port field, falling back to a default when empty.
func parsePort(s string, fallback int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return p, nil
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func validateOptionalPort(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
