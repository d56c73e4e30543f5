// ABOUTME: Sign-in form as a bubbletea model
// ABOUTME: Collects email and password and reports a submission for the shell to send

package login

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/networkhub/internal/tui/styles"
)

// SubmitMsg is sent when the form is completed
type SubmitMsg struct {
	Email    string
	Password string
}

// CancelledMsg is sent when the user leaves the form
type CancelledMsg struct{}

// Form is the sign-in screen
type Form struct {
	form     *huh.Form
	email    string
	password string
	busy     bool
	err      string
}

// New creates a sign-in form, prefilled with email when known
func New(email string) *Form {
	f := &Form{email: email}
	f.form = f.newForm()
	return f
}

func (f *Form) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				CharLimit(254).
				Value(&f.email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password).
				Validate(required("password")),
		).Title("Sign in").
			Description("Welcome back"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errRequired(name)
		}
		return nil
	}
}

type errRequired string

func (e errRequired) Error() string { return string(e) + " is required" }

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if f.busy {
		return f, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		f.busy = true
		f.err = ""
		submit := SubmitMsg{Email: strings.TrimSpace(f.email), Password: f.password}
		return f, func() tea.Msg { return submit }
	}

	return f, cmd
}

// Busy reports whether a submission is outstanding
func (f *Form) Busy() bool {
	return f.busy
}

// Email returns the entered email
func (f *Form) Email() string {
	return f.email
}

// Failed re-opens the form after a rejected sign-in. The email is kept and
// the password cleared.
func (f *Form) Failed(message string) tea.Cmd {
	f.busy = false
	f.err = message
	f.password = ""
	f.form = f.newForm()
	return f.form.Init()
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	if f.busy {
		sb.WriteString(styles.Subtitle.Render("Signing in..."))
		sb.WriteString("\n")
	}
	sb.WriteString(f.form.View())
	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(f.err))
	}
	return sb.String()
}
