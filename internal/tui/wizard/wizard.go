// ABOUTME: Account signup wizard as a bubbletea model
// ABOUTME: Uses huh forms with visual progress indicator over the signup flow steps

package wizard

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/flow"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
)

// RegisterMsg asks the shell to submit the registration fields
type RegisterMsg struct{}

// VerifyMsg asks the shell to submit the emailed code
type VerifyMsg struct {
	Code string
}

// CancelledMsg is sent when the user leaves the wizard
type CancelledMsg struct{}

// Step names for progress indicator
var stepNames = []string{"Details", "Verify", "Done"}

// Wizard renders the signup flow. The flow owns the step; the wizard only
// collects input and mirrors the flow's state after each request settles.
type Wizard struct {
	flow    *flow.Signup
	form    *huh.Form
	width   int
	pending bool
	err     string

	// Form field values
	firstName string
	lastName  string
	email     string
	password  string
	bio       string
	location  string
	code      string
}

// New creates a wizard over f, prefilled from the flow's fields
func New(f *flow.Signup) *Wizard {
	fields := f.Fields()
	w := &Wizard{
		flow:      f,
		firstName: fields.FirstName,
		lastName:  fields.LastName,
		email:     fields.Email,
		password:  fields.Password,
		bio:       fields.Bio,
		location:  fields.Location,
	}
	w.form = w.formForStep()
	return w
}

func (w *Wizard) formForStep() *huh.Form {
	switch w.flow.Step() {
	case flow.VerifyingOtp:
		return w.createOTPForm()
	default:
		return w.createDetailsForm()
	}
}

func (w *Wizard) createDetailsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First name").
				CharLimit(50).
				Value(&w.firstName).
				Validate(required("first name")),
			huh.NewInput().
				Title("Last name").
				CharLimit(50).
				Value(&w.lastName).
				Validate(required("last name")),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				CharLimit(254).
				Value(&w.email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&w.password).
				Validate(required("password")),
		).Title("Step 1: Your details").
			Description("Tell us who you are"),
		huh.NewGroup(
			huh.NewText().
				Title("Bio").
				Description("Optional").
				CharLimit(280).
				Lines(3).
				Value(&w.bio),
			huh.NewInput().
				Title("Location").
				Description("Optional").
				CharLimit(100).
				Value(&w.location),
		).Title("Step 1: About you").
			Description("Shown on your profile"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (w *Wizard) createOTPForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Verification code").
				Description(fmt.Sprintf("Enter the %d-character code sent to %s", flow.OTPLength, w.email)).
				CharLimit(flow.OTPLength).
				Value(&w.code).
				Validate(validateCode),
		).Title("Step 2: Verify your email").
			Description("Press Esc to go back and edit your details"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		form, cmd := w.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			w.form = f
		}
		return w, cmd

	case tea.KeyMsg:
		if w.pending {
			return w, nil
		}
		if msg.String() == "esc" {
			return w.back()
		}
	}

	if w.pending {
		return w, nil
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		return w.submit()
	}

	return w, cmd
}

func (w *Wizard) back() (tea.Model, tea.Cmd) {
	if w.flow.Step() != flow.VerifyingOtp {
		return w, func() tea.Msg { return CancelledMsg{} }
	}
	if err := w.flow.Back(); err != nil {
		return w, nil
	}
	w.err = ""
	w.code = ""
	w.form = w.createDetailsForm()
	return w, w.form.Init()
}

func (w *Wizard) submit() (tea.Model, tea.Cmd) {
	w.err = ""
	w.pending = true

	switch w.flow.Step() {
	case flow.CollectingInfo:
		w.flow.SetFields(w.fields())
		return w, func() tea.Msg { return RegisterMsg{} }
	case flow.VerifyingOtp:
		code := strings.TrimSpace(w.code)
		return w, func() tea.Msg { return VerifyMsg{Code: code} }
	}

	w.pending = false
	return w, nil
}

func (w *Wizard) fields() client.SignupRequest {
	return client.SignupRequest{
		FirstName: strings.TrimSpace(w.firstName),
		LastName:  strings.TrimSpace(w.lastName),
		Email:     strings.TrimSpace(w.email),
		Password:  w.password,
		Bio:       strings.TrimSpace(w.bio),
		Location:  strings.TrimSpace(w.location),
	}
}

// Settle re-reads the flow after a register or verify request finished.
// A non-nil err is shown above the rebuilt form.
func (w *Wizard) Settle(err error) tea.Cmd {
	w.pending = false
	w.err = client.UserMessage(err, "Request failed")
	if w.flow.Step() == flow.SignupComplete {
		return nil
	}
	if err != nil && w.flow.Step() == flow.VerifyingOtp {
		w.code = ""
	}
	w.form = w.formForStep()
	return w.form.Init()
}

// Pending reports whether a request is outstanding
func (w *Wizard) Pending() bool {
	return w.pending
}

// SetWidth sets the wizard width for proper rendering
func (w *Wizard) SetWidth(width int) {
	w.width = width
}

// View implements tea.Model
func (w *Wizard) View() string {
	var sb strings.Builder

	sb.WriteString(renderProgress(stepNames, w.stepNumber(), w.width))
	sb.WriteString("\n\n")

	switch {
	case w.flow.Step() == flow.SignupComplete:
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " " + flow.MsgAccountCreated))
		return sb.String()
	case w.pending && w.flow.Step() == flow.VerifyingOtp:
		sb.WriteString(styles.Subtitle.Render("Verifying..."))
		sb.WriteString("\n")
	case w.pending:
		sb.WriteString(styles.Subtitle.Render("Creating account..."))
		sb.WriteString("\n")
	}

	sb.WriteString(w.form.View())

	if w.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(w.err))
	}

	return sb.String()
}

func (w *Wizard) stepNumber() int {
	switch w.flow.Step() {
	case flow.VerifyingOtp:
		return 2
	case flow.SignupComplete:
		return 3
	}
	return 1
}

// renderProgress renders the step progress indicator
func renderProgress(names []string, step, frameWidth int) string {
	// Use width - 1 to ensure progress box fits within the frame
	width := max(60, frameWidth-1)

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	// Build step indicators
	var steps []string
	for i, name := range names {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		if stepNum < step {
			// Completed step
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		} else if stepNum == step {
			// Current step
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		} else {
			// Future step
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}

	stepsLine := strings.Join(steps, "    ")

	// Progress bar line format: "│  " + bar + " │" = 5 chars overhead
	barWidth := width - 5
	filledWidth := (step * barWidth) / len(names)
	emptyWidth := barWidth - filledWidth

	filledBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	emptyBar := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", emptyWidth))

	styledTitle := titleStyle.Render("Progress")
	titleWidth := lipgloss.Width("Progress")

	// Top border: "┌─ " + title + " " + fill + "┐"
	topFillWidth := max(0, width-5-titleWidth)
	topBorder := "┌─ " + styledTitle + " " + strings.Repeat("─", topFillWidth) + "┐"

	// Steps line: "│ " + content + padding + " │" = 4 chars overhead
	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"

	progressLinePadded := "│  " + filledBar + emptyBar + " │"

	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validateCode(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) != flow.OTPLength {
		return flow.ErrInvalidCode
	}
	return nil
}
