// ABOUTME: Screen rendering for the TUI: header, footer, dashboard layout, and toasts
// ABOUTME: Every screen is drawn inside the same rounded frame sized to the terminal

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/tui/icons"
	"github.com/markalston/networkhub/internal/tui/styles"
	"github.com/markalston/networkhub/internal/tui/widgets"
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	sidebarWidth     = 20
	frameOverhead    = 2 // Header and footer lines
)

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLoading:
		content = a.viewLoading()
	case ScreenAuthMenu:
		if a.menu != nil {
			content = a.menu.View()
		}
	case ScreenLogin:
		if a.loginForm != nil {
			content = a.loginForm.View()
		}
	case ScreenSignup:
		if a.wizardScreen != nil {
			content = a.wizardScreen.View()
		}
	case ScreenReset:
		if a.resetModal != nil {
			content = lipgloss.Place(a.contentWidth(), a.contentHeight(),
				lipgloss.Center, lipgloss.Center, a.resetModal.View())
		}
	case ScreenImagePicker:
		if a.filePicker != nil {
			content = a.filePicker.View()
		}
	case ScreenDashboard:
		content = a.viewDashboard()
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewLoading() string {
	text := a.spinner.View() + " Restoring your session..."
	return lipgloss.Place(a.contentWidth(), a.contentHeight(),
		lipgloss.Center, lipgloss.Center, text)
}

// viewDashboard renders the tab sidebar next to the active tab
func (a *App) viewDashboard() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.App.String() + " NetworkHub"))
	sb.WriteString("\n")
	tabIcons := []icons.Icon{icons.Feed, icons.People, icons.Profile}
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s %s", i+1, tabIcons[i].String(), name)
		style := styles.TabInactive
		if Tab(i) == a.tab {
			style = styles.TabActive
		}
		sb.WriteString(style.Width(sidebarWidth - 2).Render(label))
		sb.WriteString("\n")
	}
	sidebar := lipgloss.NewStyle().Width(sidebarWidth).Render(sb.String())

	var body string
	switch a.tab {
	case TabFeed:
		if a.feedView != nil {
			body = a.feedView.View()
		}
	case TabPeople:
		if a.peopleView != nil {
			body = a.peopleView.View()
		}
	case TabProfile:
		if a.profileView != nil {
			body = a.profileView.View()
		}
	}

	main := styles.ActivePanel.
		Padding(0, 1).
		Width(a.mainWidth()).
		Height(a.tabHeight()).
		Render(body)

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

// frameWidth is one less than the terminal so the right border never wraps
func (a *App) frameWidth() int {
	return max(minTerminalWidth, a.width-1)
}

// contentWidth is the width available between header and footer
func (a *App) contentWidth() int {
	return a.frameWidth()
}

// contentHeight is the height available between header and footer
func (a *App) contentHeight() int {
	return max(10, a.height-frameOverhead)
}

// mainWidth is the dashboard panel width excluding its border
func (a *App) mainWidth() int {
	return a.frameWidth() - sidebarWidth - 2
}

// tabWidth is the space inside the dashboard panel
func (a *App) tabWidth() int {
	return a.mainWidth() - 2
}

// tabHeight is the dashboard panel height excluding its border
func (a *App) tabHeight() int {
	return a.contentHeight() - 2
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("NetworkHub"))

	rightText := ""
	if a.screen == ScreenDashboard || a.screen == ScreenImagePicker {
		if user, ok := a.session.Identity(); ok {
			rightText = " " + contextStyle.Render(styles.Truncate(user.FullName(), 30)) + " "
		}
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := max(0, width-4-leftWidth-rightWidth) // -4 for ╭─ and ─╮

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// shortcuts lists the footer key hints for the current screen
func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenLoading:
		return []string{"q Quit"}
	case ScreenAuthMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenLogin:
		return []string{"Tab Next", "Enter Sign in", "Esc Back"}
	case ScreenSignup, ScreenReset:
		return []string{"Tab Next", "Enter Continue", "Esc Back"}
	case ScreenImagePicker:
		return []string{"↑↓ Navigate", "Enter Select", "Esc Back"}
	case ScreenDashboard:
		return a.dashboardShortcuts()
	}
	return nil
}

func (a *App) dashboardShortcuts() []string {
	switch a.tab {
	case TabFeed:
		if a.feedView != nil && a.feedView.Composing() {
			return []string{"ctrl+s Post", "ctrl+o Image", "ctrl+x Remove", "Esc Close"}
		}
		return []string{"↑↓ Navigate", "l Like", "c Compose", "r Refresh", "Tab Switch", "o Sign out", "q Quit"}
	case TabPeople:
		if a.peopleView != nil && a.peopleView.Capturing() {
			return []string{"↑↓ Navigate", "Enter Follow", "Esc Done"}
		}
		return []string{"/ Search", "↑↓ Navigate", "Enter Follow", "Tab Switch", "o Sign out", "q Quit"}
	case TabProfile:
		if a.profileView != nil && a.profileView.Capturing() {
			return []string{"Tab Next", "Enter Save", "Esc Cancel"}
		}
		return []string{"e Edit", "u Upload image", "Tab Switch", "o Sign out", "q Quit"}
	}
	return nil
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	// Right side status (last feed update)
	rightText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenDashboard {
		rightText = " " + statusStyle.Render("Updated "+widgets.TimeAgo(a.lastUpdate, time.Now())) + " "
	}
	rightWidth := lipgloss.Width(rightText)

	// Drop trailing shortcuts that would overflow the frame
	budget := width - 4 - rightWidth - 1
	var styled []string
	used := 0
	for _, s := range a.shortcuts() {
		w := lipgloss.Width(s) + 2
		if used+w > budget {
			break
		}
		used += w
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}

	leftText := " " + strings.Join(styled, "  ") + " "
	leftWidth := lipgloss.Width(leftText)
	fillWidth := max(0, width-4-leftWidth-rightWidth) // -4 for ╰─ and ─╯

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// wrapWithFrame wraps content with header, toasts, and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	if a.toasts.Len() > 0 {
		sb.WriteString(a.toasts.View(a.frameWidth()))
		sb.WriteString("\n")
	}
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}
