// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("NETWORKHUB_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	// Check for terminals known to commonly have Nerd Fonts
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	if os.Getenv("NERD_FONTS") == "1" {
		return true
	}

	// Default to Unicode fallback for maximum compatibility
	return false
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Navigation tabs
	Feed    = Icon{"󰈙", "≡"} // nf-md-file_document
	People  = Icon{"󰀎", "☺"} // nf-md-account_multiple
	Profile = Icon{"󰀄", "◉"} // nf-md-account

	// Post actions
	Heart        = Icon{"󰋑", "♥"} // nf-md-heart
	HeartOutline = Icon{"󰋕", "♡"} // nf-md-heart_outline
	Comment      = Icon{"󰆉", "✎"} // nf-md-comment_outline
	Image        = Icon{"󰋩", "▨"} // nf-md-image
	Compose      = Icon{"󰏫", "✚"} // nf-md-pencil

	// Profile details
	Mail     = Icon{"󰇮", "@"} // nf-md-email
	Location = Icon{"󰍎", "⌖"} // nf-md-map_marker
	Calendar = Icon{"󰃭", "▦"} // nf-md-calendar
	Follow   = Icon{"󰐕", "+"} // nf-md-plus
	Search   = Icon{"󰍉", "⌕"} // nf-md-magnify

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app
	SignOut = Icon{"󰍃", "⏏"} // nf-md-logout
	Key     = Icon{"󰌆", "⚷"} // nf-md-key

	// Application
	App = Icon{"󱘖", "◈"} // nf-md-connection
)
