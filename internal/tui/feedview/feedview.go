// ABOUTME: Feed tab: post list with local likes and a compose panel
// ABOUTME: Renders activity summary blocks above the scrolling post list

package feedview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/feed"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
	"github.com/markalston/networkhub/internal/tui/widgets"
)

// activityDays is the window of the posting activity sparkline
const activityDays = 7

// postHeight is the number of lines one post occupies in the list
const postHeight = 5

// RefreshMsg asks the shell to reload the feed
type RefreshMsg struct{}

// SubmitMsg asks the shell to submit the compose form
type SubmitMsg struct{}

// AttachMsg asks the shell to open the image picker for the post
type AttachMsg struct{}

// View is the feed tab
type View struct {
	feed      *feed.Feed
	cursor    int
	offset    int
	composing bool
	editor    textarea.Model
	width     int
	height    int
	now       func() time.Time
}

// New creates the feed tab over f
func New(f *feed.Feed) *View {
	ta := textarea.New()
	ta.Placeholder = "What's on your mind?"
	ta.ShowLineNumbers = false
	ta.CharLimit = 1000
	ta.SetHeight(4)

	return &View{
		feed:   f,
		editor: ta,
		now:    time.Now,
	}
}

// SetSize updates the tab dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.editor.SetWidth(max(20, width-6))
}

// Capturing reports whether typed keys go to the compose editor
func (v *View) Capturing() bool {
	return v.composing
}

// Composing reports whether the compose panel is open
func (v *View) Composing() bool {
	return v.composing
}

// Update handles key input for the tab
func (v *View) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if v.composing {
			var cmd tea.Cmd
			v.editor, cmd = v.editor.Update(msg)
			return cmd
		}
		return nil
	}

	if v.composing {
		return v.updateCompose(key)
	}
	return v.updateList(key)
}

func (v *View) updateList(key tea.KeyMsg) tea.Cmd {
	posts := v.feed.Posts()

	switch key.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(posts)-1 {
			v.cursor++
		}
	case "l", " ":
		if v.cursor < len(posts) {
			v.feed.ToggleLike(posts[v.cursor].ID)
		}
	case "c":
		return v.openCompose()
	case "r":
		return func() tea.Msg { return RefreshMsg{} }
	}
	return nil
}

func (v *View) updateCompose(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		v.feed.SetContent(v.editor.Value())
		v.composing = false
		v.editor.Blur()
		return nil
	case "ctrl+s":
		if v.feed.Submitting() {
			return nil
		}
		v.feed.SetContent(v.editor.Value())
		return func() tea.Msg { return SubmitMsg{} }
	case "ctrl+o":
		v.feed.SetContent(v.editor.Value())
		return func() tea.Msg { return AttachMsg{} }
	case "ctrl+x":
		v.feed.ClearImage()
		return nil
	}

	var cmd tea.Cmd
	v.editor, cmd = v.editor.Update(key)
	return cmd
}

func (v *View) openCompose() tea.Cmd {
	v.composing = true
	v.editor.SetValue(v.feed.Content())
	return v.editor.Focus()
}

// Posted closes the compose panel after a successful submit
func (v *View) Posted() {
	v.editor.Reset()
	v.composing = false
	v.editor.Blur()
	v.cursor = 0
	v.offset = 0
}

// Reopen restores compose focus, used when returning from the image picker
func (v *View) Reopen() tea.Cmd {
	return v.openCompose()
}

// Reset clears cursor and compose state, used on sign-out
func (v *View) Reset() {
	v.Posted()
}

// View renders the tab
func (v *View) View() string {
	var sb strings.Builder

	posts := v.feed.Posts()
	if v.cursor >= len(posts) {
		v.cursor = max(0, len(posts)-1)
	}

	sb.WriteString(v.renderSummary(posts))
	sb.WriteString("\n")

	if v.composing {
		sb.WriteString(v.renderCompose())
		sb.WriteString("\n")
	}

	switch {
	case len(posts) == 0 && v.feed.Loading():
		sb.WriteString(styles.Subtitle.Render("Loading posts..."))
	case len(posts) == 0:
		sb.WriteString(styles.Subtitle.Render("No posts yet. Press c to write the first one."))
	default:
		sb.WriteString(v.renderPosts(posts, lipgloss.Height(sb.String())))
	}

	return sb.String()
}

func (v *View) renderSummary(posts []client.Post) string {
	times := make([]time.Time, 0, len(posts))
	likes := 0
	for _, p := range posts {
		if t, ok := p.Created(); ok {
			times = append(times, t)
		}
		likes += p.Likes
	}
	activity := widgets.DailyCounts(times, activityDays, v.now())

	var thisWeek int
	for _, c := range activity {
		thisWeek += int(c)
	}

	cfg := widgets.DefaultMetricBlockConfig()
	blocks := []string{
		widgets.CountBlock(icons.Feed, "Posts", len(posts), "in your feed", cfg),
		widgets.MetricBlockWithSparkline(icons.Calendar, "Activity", fmt.Sprintf("%d", thisWeek), activity, "last 7 days", cfg),
		widgets.CountBlock(icons.Heart, "Likes", likes, "across posts", cfg),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks[0], " ", blocks[1], " ", blocks[2])
}

func (v *View) renderCompose() string {
	var sb strings.Builder
	sb.WriteString(styles.Subtitle.Render(icons.Compose.String() + " New post"))
	sb.WriteString("\n")
	sb.WriteString(v.editor.View())
	sb.WriteString("\n")

	if img := v.feed.Image(); img != nil {
		sb.WriteString(styles.ValueStyle.Render(icons.Image.String() + " " + img.Describe()))
		sb.WriteString("\n")
	}
	if v.feed.Submitting() {
		sb.WriteString(styles.Subtitle.Render("Posting..."))
	} else {
		sb.WriteString(styles.Help.Render("ctrl+s post  ctrl+o attach image  ctrl+x remove image  esc close"))
	}

	return styles.ActivePanel.Width(max(20, v.width-4)).Render(sb.String())
}

// renderPosts draws the window of posts that keeps the cursor visible in
// the space left below used lines
func (v *View) renderPosts(posts []client.Post, used int) string {
	visible := 1
	if v.height > 0 {
		visible = max(1, (v.height-used)/postHeight)
	} else {
		visible = len(posts)
	}

	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
	end := min(len(posts), v.offset+visible)

	var sb strings.Builder
	for i := v.offset; i < end; i++ {
		sb.WriteString(v.renderPost(posts[i], i == v.cursor))
		sb.WriteString("\n")
	}
	if end < len(posts) {
		sb.WriteString(styles.Help.Render(fmt.Sprintf("  %d more below", len(posts)-end)))
	}
	return sb.String()
}

func (v *View) renderPost(p client.Post, selected bool) string {
	width := max(30, v.width-4)

	when := ""
	if t, ok := p.Created(); ok {
		when = widgets.TimeAgo(t, v.now())
	}

	author := styles.Author.Render(p.Author.FullName())
	header := author
	if when != "" {
		header += "  " + styles.Help.Render(when)
	}

	content := styles.Truncate(strings.ReplaceAll(p.Content, "\n", " "), width-4)

	footer := widgets.LikeIndicator(p.IsLiked, p.Likes) +
		"   " + styles.Help.Render(fmt.Sprintf("%s %d", icons.Comment.String(), p.Comments))
	if p.Image != "" {
		footer += "   " + styles.Help.Render(icons.Image.String()+" image")
	}

	panel := styles.Panel
	if selected {
		panel = styles.ActivePanel
	}
	return panel.Padding(0, 1).Width(width - 2).Render(header + "\n" + content + "\n" + footer)
}
