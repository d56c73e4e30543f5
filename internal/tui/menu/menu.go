// ABOUTME: Auth menu shown to signed-out users
// ABOUTME: Offers sign in, account creation, password recovery, and quit

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/networkhub/internal/tui/styles"
)

// Action represents the selected menu entry
type Action int

const (
	ActionSignIn Action = iota
	ActionCreateAccount
	ActionForgotPassword
	ActionQuit
)

// SelectedMsg is sent when an entry is chosen
type SelectedMsg struct {
	Action Action
}

type option struct {
	label string
	value Action
}

// Menu is the signed-out entry screen
type Menu struct {
	options  []option
	selected Action
	form     *huh.Form
}

// New creates a new auth menu
func New() *Menu {
	m := &Menu{
		options: []option{
			{label: "Sign in", value: ActionSignIn},
			{label: "Create account", value: ActionCreateAccount},
			{label: "Forgot password", value: ActionForgotPassword},
			{label: "Quit", value: ActionQuit},
		},
		selected: ActionSignIn,
	}
	m.form = m.newForm()
	return m
}

func (m *Menu) newForm() *huh.Form {
	var options []huh.Option[Action]
	for _, opt := range m.options {
		options = append(options, huh.NewOption(opt.label, opt.value))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title("Welcome to NetworkHub").
				Description("Connect with people and share what you're working on").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(huh.ThemeBase()).WithShowHelp(false)
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "q" {
		return m, selected(ActionQuit)
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		action := m.selected
		// Rebuild so the menu is usable again when the user comes back
		m.form = m.newForm()
		return m, tea.Batch(m.form.Init(), selected(action))
	}

	return m, cmd
}

func selected(action Action) tea.Cmd {
	return func() tea.Msg { return SelectedMsg{Action: action} }
}

// View implements tea.Model
func (m *Menu) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("NetworkHub"))
	sb.WriteString("\n")
	sb.WriteString(m.form.View())
	return sb.String()
}

// String returns the string representation of an Action
func (a Action) String() string {
	switch a {
	case ActionSignIn:
		return "sign-in"
	case ActionCreateAccount:
		return "create-account"
	case ActionForgotPassword:
		return "forgot-password"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}
