// ABOUTME: Password reset modal as a bubbletea model
// ABOUTME: Requests an emailed code, then collects the code and a new password

package wizard

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/flow"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
)

// RequestCodeMsg asks the shell to email a reset code
type RequestCodeMsg struct{}

// ResetMsg asks the shell to submit the code and new password
type ResetMsg struct {
	Code     string
	Password string
}

// ResetCancelledMsg is sent when the user closes the modal
type ResetCancelledMsg struct{}

var resetStepNames = []string{"Email", "New password", "Done"}

// ResetModal renders the password reset flow
type ResetModal struct {
	flow    *flow.PasswordReset
	form    *huh.Form
	width   int
	pending bool
	err     string
	notice  string

	email    string
	code     string
	password string
}

// NewReset creates a modal over f, prefilled with email when known
func NewReset(f *flow.PasswordReset, email string) *ResetModal {
	if current := f.Email(); current != "" {
		email = current
	}
	m := &ResetModal{flow: f, email: email}
	m.form = m.formForStep()
	return m
}

func (m *ResetModal) formForStep() *huh.Form {
	if m.flow.Step() == flow.SubmittingNewPassword {
		return m.createPasswordForm()
	}
	return m.createEmailForm()
}

func (m *ResetModal) createEmailForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				CharLimit(254).
				Value(&m.email).
				Validate(required("email")),
		).Title("Reset password").
			Description("We'll email you a verification code"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (m *ResetModal) createPasswordForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Verification code").
				Description("Sent to "+m.email).
				CharLimit(flow.OTPLength).
				Value(&m.code).
				Validate(validateCode),
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(required("new password")),
		).Title("Choose a new password").
			Description("Press Esc to use a different email"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (m *ResetModal) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *ResetModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		return m, cmd

	case tea.KeyMsg:
		if m.pending {
			return m, nil
		}
		if msg.String() == "esc" {
			return m.back()
		}
	}

	if m.pending || m.flow.Step() == flow.ResetComplete {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}

	return m, cmd
}

func (m *ResetModal) back() (tea.Model, tea.Cmd) {
	if m.flow.Step() != flow.SubmittingNewPassword {
		return m, func() tea.Msg { return ResetCancelledMsg{} }
	}
	if err := m.flow.Back(); err != nil {
		return m, nil
	}
	m.err = ""
	m.notice = ""
	m.code = ""
	m.password = ""
	m.form = m.createEmailForm()
	return m, m.form.Init()
}

func (m *ResetModal) submit() (tea.Model, tea.Cmd) {
	m.err = ""
	m.pending = true

	switch m.flow.Step() {
	case flow.RequestingCode:
		m.flow.SetEmail(strings.TrimSpace(m.email))
		return m, func() tea.Msg { return RequestCodeMsg{} }
	case flow.SubmittingNewPassword:
		req := ResetMsg{Code: strings.TrimSpace(m.code), Password: m.password}
		return m, func() tea.Msg { return req }
	}

	m.pending = false
	return m, nil
}

// Settle re-reads the flow after a request finished
func (m *ResetModal) Settle(err error) tea.Cmd {
	m.pending = false
	m.err = client.UserMessage(err, "Request failed")
	if err == nil && m.flow.Step() == flow.SubmittingNewPassword {
		m.notice = flow.MsgOTPSent
	}
	if m.flow.Step() == flow.ResetComplete {
		return nil
	}
	if err != nil && m.flow.Step() == flow.SubmittingNewPassword {
		m.code = ""
		m.password = ""
	}
	m.form = m.formForStep()
	return m.form.Init()
}

// Pending reports whether a request is outstanding
func (m *ResetModal) Pending() bool {
	return m.pending
}

// SetWidth sets the modal width for proper rendering
func (m *ResetModal) SetWidth(width int) {
	m.width = width
}

func (m *ResetModal) stepNumber() int {
	switch m.flow.Step() {
	case flow.SubmittingNewPassword:
		return 2
	case flow.ResetComplete:
		return 3
	}
	return 1
}

// View implements tea.Model
func (m *ResetModal) View() string {
	var sb strings.Builder

	sb.WriteString(renderProgress(resetStepNames, m.stepNumber(), m.width))
	sb.WriteString("\n\n")

	if m.flow.Step() == flow.ResetComplete {
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " " + flow.MsgPasswordReset))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Returning to sign in..."))
		return styles.Modal.Render(sb.String())
	}

	if m.pending {
		sb.WriteString(styles.Subtitle.Render("Sending..."))
		sb.WriteString("\n")
	} else if m.notice != "" {
		sb.WriteString(styles.StatusOK.Render(m.notice))
		sb.WriteString("\n")
	}

	sb.WriteString(m.form.View())

	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(m.err))
	}

	return styles.Modal.Render(sb.String())
}
