// ABOUTME: Tests for the profile tab
// ABOUTME: Validates read mode rendering, edit mode keys, and save settling

package profileview

import (
	"context"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/networkhub/internal/apitest"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/profile"
	"github.com/markalston/networkhub/internal/session"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newView(t *testing.T) (*View, *profile.Editor, *session.Store, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	user := client.User{
		ID:             "7",
		FirstName:      "Alice",
		LastName:       "Smith",
		Email:          "alice@example.com",
		Bio:            "Gardener",
		Location:       "Lisbon",
		FollowerCount:  12,
		FollowingCount: 3,
		CreatedAt:      "2024-05-01T10:00:00Z",
	}
	token := srv.SeedUser(user, "pw")
	store := session.New(srv.Client(), session.NewFileStorage(t.TempDir()))
	if err := store.Login(token, &user); err != nil {
		t.Fatal(err)
	}
	editor := profile.New(srv.Client(), store)
	v := New(editor, store)
	v.SetWidth(100)
	return v, editor, store, srv
}

func TestReadModeShowsDetails(t *testing.T) {
	v, _, _, _ := newView(t)

	view := v.View()
	for _, want := range []string{"Alice Smith", "alice@example.com", "Lisbon", "Gardener", "Member since May 2024", "Followers", "12", "Following"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestEditAndCancel(t *testing.T) {
	v, editor, _, _ := newView(t)

	if cmd := v.Update(runeKey("e")); cmd == nil {
		t.Fatal("expected form init command")
	}
	if !v.Capturing() || !editor.Editing() {
		t.Fatal("expected edit mode")
	}
	if v.firstName != "Alice" || v.location != "Lisbon" {
		t.Error("expected form seeded from identity")
	}

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if editor.Editing() {
		t.Error("expected edit mode cancelled")
	}
}

func TestSaveSuccess(t *testing.T) {
	v, editor, store, _ := newView(t)
	v.Update(runeKey("e"))
	v.bio = "  Beekeeper "

	cmd := v.submit()
	if _, ok := cmd().(SaveMsg); !ok {
		t.Fatalf("expected SaveMsg, got %T", cmd())
	}
	if v.Update(runeKey("x")) != nil {
		t.Error("pending view should ignore input")
	}

	if err := editor.Save(context.Background()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	v.Settle(nil)

	user, _ := store.Identity()
	if user.Bio != "Beekeeper" {
		t.Errorf("expected identity bio updated, got %q", user.Bio)
	}
	if v.Capturing() {
		t.Error("expected read mode after save")
	}
	if !strings.Contains(v.View(), "Beekeeper") {
		t.Error("expected updated bio in view")
	}
}

func TestSaveFailureKeepsValues(t *testing.T) {
	v, editor, _, srv := newView(t)
	srv.Fail(http.MethodPut, "/api/profile", http.StatusInternalServerError, "")
	v.Update(runeKey("e"))
	v.location = "Porto"
	v.submit()

	err := editor.Save(context.Background())
	if err == nil {
		t.Fatal("expected save failure")
	}
	v.Settle(err)

	if !v.Capturing() {
		t.Error("expected edit mode kept after failure")
	}
	if v.location != "Porto" {
		t.Errorf("expected entered value kept, got %q", v.location)
	}
	if !strings.Contains(v.View(), profile.MsgUpdateFailed) {
		t.Error("expected fallback failure message")
	}
}

func TestUploadKey(t *testing.T) {
	v, _, _, _ := newView(t)

	cmd := v.Update(runeKey("u"))
	if cmd == nil {
		t.Fatal("expected upload command")
	}
	if _, ok := cmd().(UploadMsg); !ok {
		t.Errorf("expected UploadMsg, got %T", cmd())
	}
}
