// ABOUTME: Test to verify header/footer width alignment
// ABOUTME: Ensures frame renders at correct terminal width and the dashboard fits the screen

package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func checkFrame(t *testing.T, view string, targetWidth int) []string {
	t.Helper()

	// Frame uses width-1 to prevent wrapping on some terminals,
	// but clamps to minimum of 80 for usability
	expectedWidth := max(80, targetWidth-1)

	lines := strings.Split(view, "\n")
	header, footer := lines[0], lines[len(lines)-1]

	if !strings.HasPrefix(header, "╭") {
		t.Fatalf("header not found: %q", header)
	}
	if w := lipgloss.Width(header); w != expectedWidth {
		t.Errorf("Header width mismatch at width %d: expected %d, got %d", targetWidth, expectedWidth, w)
	}
	if !strings.HasPrefix(footer, "╰") {
		t.Fatalf("footer not found: %q", footer)
	}
	if w := lipgloss.Width(footer); w != expectedWidth {
		t.Errorf("Footer width mismatch at width %d: expected %d, got %d", targetWidth, expectedWidth, w)
	}
	return lines
}

func TestFrameAlignment(t *testing.T) {
	for _, targetWidth := range []int{60, 80, 100, 120} {
		t.Run(fmt.Sprintf("menu-%d", targetWidth), func(t *testing.T) {
			app := setup(t).app(t)
			app.Update(tea.WindowSizeMsg{Width: targetWidth, Height: 30})
			checkFrame(t, app.View(), targetWidth)
		})
	}
}

func TestDashboardFitsScreen(t *testing.T) {
	for _, targetWidth := range []int{80, 120} {
		t.Run(fmt.Sprintf("dashboard-%d", targetWidth), func(t *testing.T) {
			_, app := signedIn(t)
			app.Update(tea.WindowSizeMsg{Width: targetWidth, Height: 40})

			lines := checkFrame(t, app.View(), targetWidth)
			if len(lines) > 40 {
				t.Errorf("dashboard overflows the terminal: %d lines", len(lines))
			}
			if !strings.Contains(app.View(), "Find People") {
				t.Error("expected tab sidebar")
			}
		})
	}
}

func TestFooterDropsShortcutsThatDoNotFit(t *testing.T) {
	_, app := signedIn(t)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 40})

	footer := app.renderFooter()
	if w := lipgloss.Width(footer); w != 80 {
		t.Errorf("expected footer width 80, got %d", w)
	}
	if !strings.Contains(footer, "Navigate") {
		t.Error("expected the first shortcut to be kept")
	}
}
