// ABOUTME: Tests for toast notifications
// ABOUTME: Validates expiry scheduling, stacking limit, and rendering

package toast

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeTick records the requested delay and fires immediately when run
func fakeTick(delays *[]time.Duration) func(time.Duration, func(time.Time) tea.Msg) tea.Cmd {
	return func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
		*delays = append(*delays, d)
		return func() tea.Msg { return fn(time.Now()) }
	}
}

func TestPushSchedulesExpiry(t *testing.T) {
	var delays []time.Duration
	s := New()
	s.tick = fakeTick(&delays)

	cmd := s.Success("Post created!")
	if s.Len() != 1 {
		t.Fatalf("expected 1 toast, got %d", s.Len())
	}
	if len(delays) != 1 || delays[0] != Duration {
		t.Fatalf("expected one tick of %s, got %v", Duration, delays)
	}

	msg, ok := cmd().(ExpiredMsg)
	if !ok {
		t.Fatalf("expected ExpiredMsg, got %T", cmd())
	}
	s.Expire(msg.ID)
	if s.Len() != 0 {
		t.Errorf("expected toast removed, got %d", s.Len())
	}
}

func TestExpireOnlyMatchingToast(t *testing.T) {
	var delays []time.Duration
	s := New()
	s.tick = fakeTick(&delays)

	first := s.Success("one")
	s.Error("two")

	s.Expire(first().(ExpiredMsg).ID)
	items := s.Items()
	if len(items) != 1 || items[0].Text != "two" || items[0].Level != Error {
		t.Errorf("unexpected remaining toasts %+v", items)
	}

	s.Expire(999)
	if s.Len() != 1 {
		t.Error("unknown id should be ignored")
	}
}

func TestStackDropsOldest(t *testing.T) {
	var delays []time.Duration
	s := New()
	s.tick = fakeTick(&delays)

	for _, text := range []string{"a", "b", "c", "d"} {
		s.Push(text, Info)
	}
	items := s.Items()
	if len(items) != MaxVisible {
		t.Fatalf("expected %d toasts, got %d", MaxVisible, len(items))
	}
	if items[0].Text != "b" {
		t.Errorf("expected oldest dropped, got first %q", items[0].Text)
	}
}

func TestView(t *testing.T) {
	var delays []time.Duration
	s := New()
	s.tick = fakeTick(&delays)

	if s.View(80) != "" {
		t.Error("expected empty view without toasts")
	}

	s.Error("Network error. Please try again.")
	if !strings.Contains(s.View(80), "Network error. Please try again.") {
		t.Error("expected toast text in view")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Error("expected Clear to remove all toasts")
	}
}
