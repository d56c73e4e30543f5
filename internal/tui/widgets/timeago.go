// ABOUTME: Relative time formatting for post timestamps and refresh indicators
// ABOUTME: Renders short forms such as "just now", "5m ago", and "3d ago"

package widgets

import (
	"fmt"
	"time"
)

// TimeAgo formats the time elapsed between t and now in human-readable form.
// Anything older than a week is shown as a date.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Format("Jan 2, 2006")
}
