// ABOUTME: Image picker TUI component for attaching post images and profile pictures
// ABOUTME: Shows recent images, path input, and images found in the pictures directory

package filepicker

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/media"
	"github.com/markalston/networkhub/internal/tui/pictures"
	"github.com/markalston/networkhub/internal/tui/styles"
)

type state int

const (
	stateList state = iota
	stateInput
	statePictures
)

var dividerStyle = lipgloss.NewStyle().Foreground(styles.Muted)

// FileSelectedMsg is sent when a readable image is selected
type FileSelectedMsg struct {
	Path  string
	Image *media.Image
}

// CancelledMsg is sent when the user cancels
type CancelledMsg struct{}

// FilePicker is the image selection component
type FilePicker struct {
	title       string
	recentFiles []string
	pictures    []pictures.File
	hasPictures bool
	cursor      int
	state       state
	textInput   textinput.Model
	err         string
	width       int
	height      int
}

// New creates a new FilePicker titled with what the image is for
func New(title string, recentFiles []string, found []pictures.File) *FilePicker {
	ti := textinput.New()
	ti.Placeholder = "~/Pictures/photo.jpg"
	ti.CharLimit = 256
	ti.Width = 60

	return &FilePicker{
		title:       title,
		recentFiles: recentFiles,
		pictures:    found,
		hasPictures: len(found) > 0,
		state:       stateList,
		textInput:   ti,
	}
}

// Init implements tea.Model
func (fp *FilePicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (fp *FilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fp.width = msg.Width
		fp.height = msg.Height
		return fp, nil

	case tea.KeyMsg:
		// Clear error on any key press
		fp.err = ""

		switch fp.state {
		case stateList:
			return fp.updateList(msg)
		case stateInput:
			return fp.updateInput(msg)
		case statePictures:
			return fp.updatePictures(msg)
		}
	}

	return fp, nil
}

// Capturing reports whether typed keys go to the path input
func (fp *FilePicker) Capturing() bool {
	return fp.state == stateInput
}

func (fp *FilePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxItems := fp.listItemCount()

	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < maxItems-1 {
			fp.cursor++
		}
	case "enter":
		return fp.selectListItem()
	case "esc", "b":
		return fp, func() tea.Msg { return CancelledMsg{} }
	}

	return fp, nil
}

func (fp *FilePicker) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fp.state = stateList
		fp.textInput.SetValue("")
		fp.textInput.Blur()
		return fp, nil
	case "enter":
		path := strings.TrimSpace(fp.textInput.Value())
		if path == "" {
			fp.err = "Please enter a file path"
			return fp, nil
		}
		return fp.loadFile(path)
	}

	var cmd tea.Cmd
	fp.textInput, cmd = fp.textInput.Update(msg)
	return fp, cmd
}

func (fp *FilePicker) updatePictures(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxItems := len(fp.pictures) + 1 // +1 for [back]

	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < maxItems-1 {
			fp.cursor++
		}
	case "enter":
		if fp.cursor == len(fp.pictures) {
			fp.state = stateList
			fp.cursor = 0
			return fp, nil
		}
		return fp.loadFile(fp.pictures[fp.cursor].Path)
	case "esc", "b":
		fp.state = stateList
		fp.cursor = 0
		return fp, nil
	}

	return fp, nil
}

func (fp *FilePicker) listItemCount() int {
	count := len(fp.recentFiles) + 1 // +1 for "Enter path..."
	if fp.hasPictures {
		count++ // +1 for "Browse pictures..."
	}
	return count
}

func (fp *FilePicker) selectListItem() (tea.Model, tea.Cmd) {
	recentCount := len(fp.recentFiles)

	if fp.cursor < recentCount {
		return fp.loadFile(fp.recentFiles[fp.cursor])
	}

	if fp.cursor == recentCount {
		fp.state = stateInput
		fp.textInput.Focus()
		return fp, textinput.Blink
	}

	if fp.hasPictures && fp.cursor == recentCount+1 {
		fp.state = statePictures
		fp.cursor = 0
		return fp, nil
	}

	return fp, nil
}

func (fp *FilePicker) loadFile(path string) (tea.Model, tea.Cmd) {
	expandedPath := expandPath(path)

	img, err := media.Load(expandedPath)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			fp.err = "File not found: " + path
		case errors.Is(err, os.ErrPermission):
			fp.err = "Cannot read file: permission denied"
		case errors.Is(err, media.ErrTooLarge):
			fp.err = "Image is larger than 10 MB"
		case errors.Is(err, media.ErrUnsupportedType):
			fp.err = "Not a supported image: " + path
		default:
			fp.err = "Error reading file: " + err.Error()
		}
		return fp, nil
	}

	return fp, func() tea.Msg {
		return FileSelectedMsg{Path: expandedPath, Image: img}
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}

// SetError sets an error message to display
func (fp *FilePicker) SetError(msg string) {
	fp.err = msg
}

// View implements tea.Model
func (fp *FilePicker) View() string {
	switch fp.state {
	case stateInput:
		return fp.viewInput()
	case statePictures:
		return fp.viewPictures()
	default:
		return fp.viewList()
	}
}

func (fp *FilePicker) row(b *strings.Builder, label string, selected bool) {
	cursor := "  "
	style := styles.Normal
	if selected {
		cursor = "> "
		style = styles.Selected
	}
	b.WriteString(cursor + style.Render(label) + "\n")
}

func (fp *FilePicker) viewList() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fp.title))
	b.WriteString("\n")

	if len(fp.recentFiles) > 0 {
		b.WriteString(styles.Subtitle.Render("Recent images:"))
		b.WriteString("\n")
		for i, path := range fp.recentFiles {
			display := path
			if fp.width > 20 {
				display = truncateLeft(display, fp.width-10)
			}
			fp.row(&b, display, i == fp.cursor)
		}

		dividerWidth := min(40, fp.width-4)
		if dividerWidth < 1 {
			dividerWidth = 40 // Default width if terminal size unknown
		}
		b.WriteString(dividerStyle.Render(strings.Repeat("─", dividerWidth)))
		b.WriteString("\n")
	}

	idx := len(fp.recentFiles)
	fp.row(&b, "Enter path...", fp.cursor == idx)

	if fp.hasPictures {
		idx++
		fp.row(&b, "Browse pictures...", fp.cursor == idx)
	}

	if fp.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.StatusCritical.Render("Error: " + fp.err))
	}

	return b.String()
}

func (fp *FilePicker) viewInput() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Enter image path"))
	b.WriteString("\n")
	b.WriteString(fp.textInput.View())

	if fp.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.StatusCritical.Render("Error: " + fp.err))
	}

	return b.String()
}

func (fp *FilePicker) viewPictures() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Select a picture"))
	b.WriteString("\n")

	for i, p := range fp.pictures {
		fp.row(&b, p.Name, i == fp.cursor)
	}
	fp.row(&b, "[back]", fp.cursor == len(fp.pictures))

	if fp.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.StatusCritical.Render("Error: " + fp.err))
	}

	return b.String()
}

// truncateLeft keeps the tail of long paths, which carries the file name
func truncateLeft(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return "..." + s[len(s)-(width-3):]
}

