// ABOUTME: People tab: debounced user search with follow toggles
// ABOUTME: Typing updates the query; results refresh when the search notifies the program

package people

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/search"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
	"github.com/markalston/networkhub/internal/tui/widgets"
)

// FollowMsg asks the shell to toggle follow on a result
type FollowMsg struct {
	ID   client.ID
	Name string
}

// View is the people tab
type View struct {
	search *search.Search
	input  textinput.Model
	cursor int
	width  int
	height int
}

// New creates the people tab over s
func New(s *search.Search) *View {
	ti := textinput.New()
	ti.Placeholder = "Search people by name"
	ti.Prompt = icons.Search.String() + " "
	ti.CharLimit = 100
	ti.Width = 40

	return &View{search: s, input: ti}
}

// SetSize updates the tab dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.input.Width = max(20, min(60, width-10))
}

// Focus moves key input to the search box
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}

// Blur releases key input from the search box
func (v *View) Blur() {
	v.input.Blur()
}

// Capturing reports whether typed keys go to the search box
func (v *View) Capturing() bool {
	return v.input.Focused()
}

// Update handles key input for the tab
func (v *View) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	}

	results := v.search.Results()

	switch key.String() {
	case "up":
		if v.cursor > 0 {
			v.cursor--
		}
		return nil
	case "down":
		if v.cursor < len(results)-1 {
			v.cursor++
		}
		return nil
	case "enter":
		if v.cursor < len(results) {
			r := results[v.cursor]
			return func() tea.Msg { return FollowMsg{ID: r.ID, Name: r.FullName()} }
		}
		return nil
	case "esc":
		v.input.Blur()
		return nil
	}

	if !v.input.Focused() {
		switch key.String() {
		case "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "j":
			if v.cursor < len(results)-1 {
				v.cursor++
			}
		case "/":
			return v.input.Focus()
		}
		return nil
	}

	before := v.input.Value()
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(key)
	if v.input.Value() != before {
		v.cursor = 0
		v.search.SetQuery(v.input.Value())
	}
	return cmd
}

// Reset clears the search box, used on sign-out
func (v *View) Reset() {
	v.input.SetValue("")
	v.input.Blur()
	v.cursor = 0
}

// View renders the tab
func (v *View) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.People.String() + " Find people"))
	sb.WriteString("\n")
	sb.WriteString(v.input.View())
	sb.WriteString("\n\n")

	results := v.search.Results()
	if v.cursor >= len(results) {
		v.cursor = max(0, len(results)-1)
	}

	switch {
	case v.search.Loading():
		sb.WriteString(styles.Subtitle.Render("Searching..."))
	case v.search.Err() != nil:
		sb.WriteString(styles.StatusCritical.Render(client.UserMessage(v.search.Err(), search.MsgSearchFailed)))
	case strings.TrimSpace(v.search.Query()) == "":
		sb.WriteString(styles.Help.Render("Start typing to search"))
	case len(results) == 0:
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("No users found for %q", strings.TrimSpace(v.search.Query()))))
	default:
		for i, r := range results {
			sb.WriteString(v.renderResult(r, i == v.cursor))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	if v.input.Focused() {
		sb.WriteString(styles.Help.Render("↑/↓ select  enter follow/unfollow  esc leave search box"))
	} else {
		sb.WriteString(styles.Help.Render("j/k select  enter follow/unfollow  / search"))
	}

	return sb.String()
}

func (v *View) renderResult(r client.SearchResult, selected bool) string {
	cursor := "  "
	nameStyle := styles.Normal
	if selected {
		cursor = "> "
		nameStyle = styles.Selected
	}

	badge := widgets.FollowBadge(r.IsFollowing, v.search.FollowPending(r.ID))
	line := cursor + badge + " " + nameStyle.Render(r.FullName())

	if r.Bio != "" {
		bioWidth := max(10, v.width-len([]rune(r.FullName()))-20)
		line += "  " + styles.Help.Render(styles.Truncate(r.Bio, bioWidth))
	}
	return line
}
