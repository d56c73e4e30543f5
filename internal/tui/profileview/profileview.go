// ABOUTME: Profile tab showing the viewer's details and follow counts
// ABOUTME: Switches to a huh edit form and requests image uploads through the shell

package profileview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/profile"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
	"github.com/markalston/networkhub/internal/tui/widgets"
)

// SaveMsg asks the shell to save the edit form
type SaveMsg struct{}

// UploadMsg asks the shell to open the image picker for a profile picture
type UploadMsg struct{}

// Identity supplies the signed-in user
type Identity interface {
	Identity() (client.User, bool)
}

// View is the profile tab
type View struct {
	editor   *profile.Editor
	identity Identity
	form     *huh.Form
	pending  bool
	err      string
	width    int

	firstName string
	lastName  string
	bio       string
	location  string
}

// New creates the profile tab
func New(editor *profile.Editor, identity Identity) *View {
	return &View{editor: editor, identity: identity}
}

// SetWidth sets the tab width
func (v *View) SetWidth(width int) {
	v.width = width
}

// Capturing reports whether typed keys go to the edit form
func (v *View) Capturing() bool {
	return v.editor.Editing()
}

func (v *View) createForm() *huh.Form {
	form := v.editor.Form()
	v.firstName = form.FirstName
	v.lastName = form.LastName
	v.bio = form.Bio
	v.location = form.Location

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First name").
				CharLimit(50).
				Value(&v.firstName),
			huh.NewInput().
				Title("Last name").
				CharLimit(50).
				Value(&v.lastName),
			huh.NewText().
				Title("Bio").
				CharLimit(280).
				Lines(3).
				Value(&v.bio),
			huh.NewInput().
				Title("Location").
				CharLimit(100).
				Value(&v.location),
		).Title("Edit profile").
			Description("Enter to save, Esc to cancel"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Update handles key input for the tab
func (v *View) Update(msg tea.Msg) tea.Cmd {
	if v.pending {
		return nil
	}

	if !v.editor.Editing() {
		key, ok := msg.(tea.KeyMsg)
		if !ok {
			return nil
		}
		switch key.String() {
		case "e":
			if err := v.editor.BeginEdit(); err != nil {
				v.err = err.Error()
				return nil
			}
			v.err = ""
			v.form = v.createForm()
			return v.form.Init()
		case "u":
			if v.editor.Busy() {
				return nil
			}
			return func() tea.Msg { return UploadMsg{} }
		}
		return nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		v.editor.CancelEdit()
		v.form = nil
		v.err = ""
		return nil
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}

	if v.form.State == huh.StateCompleted {
		return v.submit()
	}

	return cmd
}

func (v *View) submit() tea.Cmd {
	v.editor.SetForm(client.ProfileUpdate{
		FirstName: strings.TrimSpace(v.firstName),
		LastName:  strings.TrimSpace(v.lastName),
		Bio:       strings.TrimSpace(v.bio),
		Location:  strings.TrimSpace(v.location),
	})
	v.pending = true
	v.err = ""
	return func() tea.Msg { return SaveMsg{} }
}

// Settle re-reads the editor after a save finished. A failed save keeps
// edit mode with the values as entered.
func (v *View) Settle(err error) tea.Cmd {
	v.pending = false
	v.err = client.UserMessage(err, profile.MsgUpdateFailed)
	if !v.editor.Editing() {
		v.form = nil
		return nil
	}
	v.form = v.createForm()
	return v.form.Init()
}

// Reset drops any edit in progress, used on sign-out
func (v *View) Reset() {
	v.editor.CancelEdit()
	v.form = nil
	v.pending = false
	v.err = ""
}

// View renders the tab
func (v *View) View() string {
	var sb strings.Builder

	if v.editor.Editing() && v.form != nil {
		if v.pending {
			sb.WriteString(styles.Subtitle.Render("Saving..."))
			sb.WriteString("\n")
		}
		sb.WriteString(v.form.View())
	} else {
		sb.WriteString(v.renderDetails())
	}

	if v.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(v.err))
	}

	return sb.String()
}

func (v *View) renderDetails() string {
	user, ok := v.identity.Identity()
	if !ok {
		return styles.Subtitle.Render("Not signed in")
	}

	colWidth := max(30, (v.width-4)/2)

	var left strings.Builder
	left.WriteString(styles.Title.Render(icons.Profile.String() + " " + user.FullName()))
	left.WriteString("\n")
	v.detail(&left, icons.Mail, user.Email)
	v.detail(&left, icons.Location, user.Location)
	if since, ok := user.MemberSince(); ok {
		v.detail(&left, icons.Calendar, "Member since "+since.Format("January 2006"))
	}
	if user.ProfileImage != "" {
		v.detail(&left, icons.Image, styles.Truncate(user.ProfileImage, colWidth-4))
	}
	left.WriteString("\n")
	if user.Bio != "" {
		left.WriteString(lipgloss.NewStyle().Width(colWidth).Render(user.Bio))
	} else {
		left.WriteString(styles.Help.Render("No bio yet"))
	}

	cfg := widgets.DefaultMetricBlockConfig()
	right := lipgloss.JoinVertical(lipgloss.Left,
		widgets.CountBlock(icons.People, "Followers", user.FollowerCount, "people follow you", cfg),
		widgets.CountBlock(icons.Follow, "Following", user.FollowingCount, "people you follow", cfg),
	)

	var sb strings.Builder
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(colWidth).Render(left.String()),
		"  ",
		right,
	))
	sb.WriteString("\n\n")
	if v.editor.Busy() {
		sb.WriteString(styles.Subtitle.Render("Uploading image..."))
	} else {
		sb.WriteString(styles.Help.Render("e edit profile  u upload profile picture"))
	}
	return sb.String()
}

func (v *View) detail(sb *strings.Builder, icon icons.Icon, value string) {
	if value == "" {
		return
	}
	sb.WriteString(styles.KeyStyle.Render(icon.String()) + " " + styles.ValueStyle.Render(value))
	sb.WriteString("\n")
}
