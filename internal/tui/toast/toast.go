// ABOUTME: Transient notifications shown above the footer
// ABOUTME: Each toast schedules its own expiry tick and disappears after Duration

package toast

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
)

// Duration is how long a toast stays visible
const Duration = 3 * time.Second

// MaxVisible caps the number of stacked toasts; older ones drop first
const MaxVisible = 3

// Level selects the toast color and icon
type Level int

const (
	Success Level = iota
	Error
	Info
)

// Toast is a single notification
type Toast struct {
	ID    int
	Text  string
	Level Level
}

// ExpiredMsg is delivered when the toast with ID times out
type ExpiredMsg struct {
	ID int
}

// Stack holds the visible toasts, newest last
type Stack struct {
	nextID int
	items  []Toast
	tick   func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
}

// New creates an empty stack
func New() *Stack {
	return &Stack{tick: tea.Tick}
}

// Push adds a toast and returns the command that expires it
func (s *Stack) Push(text string, level Level) tea.Cmd {
	s.nextID++
	id := s.nextID
	s.items = append(s.items, Toast{ID: id, Text: text, Level: level})
	if len(s.items) > MaxVisible {
		s.items = s.items[len(s.items)-MaxVisible:]
	}
	return s.tick(Duration, func(time.Time) tea.Msg { return ExpiredMsg{ID: id} })
}

// Success is shorthand for Push(text, Success)
func (s *Stack) Success(text string) tea.Cmd { return s.Push(text, Success) }

// Error is shorthand for Push(text, Error)
func (s *Stack) Error(text string) tea.Cmd { return s.Push(text, Error) }

// Expire removes the toast with id; unknown ids are ignored
func (s *Stack) Expire(id int) {
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear removes every toast
func (s *Stack) Clear() {
	s.items = nil
}

// Items returns the visible toasts, newest last
func (s *Stack) Items() []Toast {
	out := make([]Toast, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of visible toasts
func (s *Stack) Len() int {
	return len(s.items)
}

// View renders the stack right-aligned within width
func (s *Stack) View(width int) string {
	if len(s.items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.items))
	for _, t := range s.items {
		lines = append(lines, render(t))
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(strings.Join(lines, "\n"))
}

func render(t Toast) string {
	var color lipgloss.Color
	var icon icons.Icon
	switch t.Level {
	case Success:
		color, icon = styles.Secondary, icons.CheckOK
	case Error:
		color, icon = styles.Danger, icons.Critical
	default:
		color, icon = styles.Info, icons.Info
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(icon.String() + " " + t.Text)
}
