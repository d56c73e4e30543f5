// ABOUTME: Tests for the sign-in form
// ABOUTME: Validates cancel, failure recovery, and busy handling

package login

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewPrefillsEmail(t *testing.T) {
	f := New("alice@example.com")
	if f.Email() != "alice@example.com" {
		t.Errorf("expected prefilled email, got %q", f.Email())
	}
	if f.Busy() {
		t.Error("new form should not be busy")
	}
}

func TestEscCancels(t *testing.T) {
	f := New("")

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected cancel command")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}

func TestBusyIgnoresInput(t *testing.T) {
	f := New("")
	f.busy = true

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Error("busy form should ignore input")
	}
	if !strings.Contains(f.View(), "Signing in...") {
		t.Error("expected busy indicator")
	}
}

func TestFailedKeepsEmailClearsPassword(t *testing.T) {
	f := New("alice@example.com")
	f.busy = true
	f.password = "wrong"

	f.Failed("Invalid credentials")

	if f.Busy() {
		t.Error("expected form usable after failure")
	}
	if f.Email() != "alice@example.com" {
		t.Errorf("expected email kept, got %q", f.Email())
	}
	if f.password != "" {
		t.Error("expected password cleared")
	}
	if !strings.Contains(f.View(), "Invalid credentials") {
		t.Error("expected server message in view")
	}
}

func TestRequiredValidator(t *testing.T) {
	validate := required("email")
	if err := validate("  "); err == nil || err.Error() != "email is required" {
		t.Errorf("unexpected error %v", err)
	}
	if err := validate("a@b.c"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
