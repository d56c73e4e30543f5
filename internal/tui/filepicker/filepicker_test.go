// ABOUTME: Tests for image picker TUI component
// ABOUTME: Validates navigation, selection, validation errors, and state transitions

package filepicker

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/networkhub/internal/tui/pictures"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newPicker(recent []string, found []pictures.File) *FilePicker {
	fp := New("Attach an image", recent, found)
	fp.width = 80
	fp.height = 24
	return fp
}

func TestNew(t *testing.T) {
	fp := New("Attach an image", []string{"/path/to/photo.png"}, nil)

	if fp == nil {
		t.Fatal("New() returned nil")
	}
	if fp.state != stateList {
		t.Errorf("expected initial state stateList, got %d", fp.state)
	}
	if fp.hasPictures {
		t.Error("expected hasPictures to be false without discovered pictures")
	}
}

func TestNewWithPictures(t *testing.T) {
	fp := New("x", nil, []pictures.File{{Name: "beach.jpg", Path: "/pics/beach.jpg"}})

	if !fp.hasPictures {
		t.Error("expected hasPictures to be true")
	}
	if fp.listItemCount() != 2 {
		t.Errorf("expected 2 list items, got %d", fp.listItemCount())
	}
}

func TestViewShowsTitleAndRecent(t *testing.T) {
	fp := newPicker([]string{"/path/to/recent.png"}, nil)

	view := fp.View()
	for _, want := range []string{"Attach an image", "recent.png", "Enter path..."} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestNavigateDownAndUp(t *testing.T) {
	fp := newPicker([]string{"/a.png", "/b.png"}, nil)

	model, _ := fp.Update(tea.KeyMsg{Type: tea.KeyDown})
	fp = model.(*FilePicker)
	if fp.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", fp.cursor)
	}

	model, _ = fp.Update(tea.KeyMsg{Type: tea.KeyUp})
	fp = model.(*FilePicker)
	if fp.cursor != 0 {
		t.Errorf("expected cursor 0, got %d", fp.cursor)
	}

	model, _ = fp.Update(tea.KeyMsg{Type: tea.KeyUp})
	fp = model.(*FilePicker)
	if fp.cursor != 0 {
		t.Errorf("cursor should not go below 0, got %d", fp.cursor)
	}
}

func TestSelectRecentImage(t *testing.T) {
	path := writePNG(t, t.TempDir(), "me.png")
	fp := newPicker([]string{path}, nil)

	_, cmd := fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command to be returned")
	}

	selected, ok := cmd().(FileSelectedMsg)
	if !ok {
		t.Fatalf("expected FileSelectedMsg, got %T", cmd())
	}
	if selected.Path != path {
		t.Errorf("expected path %s, got %s", path, selected.Path)
	}
	if selected.Image == nil || selected.Image.Width != 3 || selected.Image.Height != 2 {
		t.Errorf("expected decoded 3x2 image, got %+v", selected.Image)
	}
}

func TestSelectNonImageShowsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.png")
	os.WriteFile(path, []byte("not an image"), 0644)
	fp := newPicker([]string{path}, nil)

	_, cmd := fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command for an invalid image")
	}
	if !strings.Contains(fp.err, "Not a supported image") {
		t.Errorf("unexpected error %q", fp.err)
	}
	if !strings.Contains(fp.View(), "Error:") {
		t.Error("expected error in view")
	}
}

func TestSelectMissingFileShowsError(t *testing.T) {
	fp := newPicker([]string{"/nonexistent/photo.png"}, nil)

	fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.HasPrefix(fp.err, "File not found") {
		t.Errorf("unexpected error %q", fp.err)
	}
}

func TestSelectEnterPath(t *testing.T) {
	fp := newPicker([]string{"/path/to/photo.png"}, nil)
	fp.cursor = 1

	model, _ := fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated := model.(*FilePicker)

	if updated.state != stateInput {
		t.Errorf("expected state stateInput, got %d", updated.state)
	}
	if !updated.Capturing() {
		t.Error("expected picker to capture keys while typing a path")
	}
}

func TestTypedPathSelectsImage(t *testing.T) {
	path := writePNG(t, t.TempDir(), "typed.png")
	fp := newPicker(nil, nil)
	fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	fp.textInput.SetValue(path)

	_, cmd := fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection command")
	}
	if msg, ok := cmd().(FileSelectedMsg); !ok || msg.Path != path {
		t.Errorf("expected FileSelectedMsg for %s, got %#v", path, cmd())
	}
}

func TestEmptyPathShowsError(t *testing.T) {
	fp := newPicker(nil, nil)
	fp.state = stateInput

	fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if fp.err != "Please enter a file path" {
		t.Errorf("unexpected error %q", fp.err)
	}
}

func TestBrowsePictures(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "cat.png")
	fp := newPicker(nil, []pictures.File{{Name: "cat.png", Path: path}})
	fp.cursor = 1

	model, _ := fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	fp = model.(*FilePicker)
	if fp.state != statePictures {
		t.Fatalf("expected statePictures, got %d", fp.state)
	}
	if !strings.Contains(fp.View(), "cat.png") {
		t.Error("expected picture listed")
	}

	_, cmd := fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection command")
	}
	if _, ok := cmd().(FileSelectedMsg); !ok {
		t.Errorf("expected FileSelectedMsg, got %T", cmd())
	}
}

func TestBackFromPictures(t *testing.T) {
	fp := newPicker(nil, []pictures.File{{Name: "a.png", Path: "/a.png"}})
	fp.state = statePictures
	fp.cursor = 1 // [back]

	fp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if fp.state != stateList || fp.cursor != 0 {
		t.Errorf("expected list state at cursor 0, got %d/%d", fp.state, fp.cursor)
	}
}

func TestBackFromInputReturnsToList(t *testing.T) {
	fp := newPicker(nil, nil)
	fp.state = stateInput

	model, _ := fp.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated := model.(*FilePicker)

	if updated.state != stateList {
		t.Errorf("expected state stateList after Esc, got %d", updated.state)
	}
}

func TestBackFromListReturnsCancelMsg(t *testing.T) {
	fp := newPicker(nil, nil)

	_, cmd := fp.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected command for cancel")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}

func TestWindowSizeUpdate(t *testing.T) {
	fp := New("x", nil, nil)

	model, _ := fp.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	updated := model.(*FilePicker)

	if updated.width != 100 || updated.height != 50 {
		t.Errorf("expected 100x50, got %dx%d", updated.width, updated.height)
	}
}

func TestViewWithZeroWidth(t *testing.T) {
	// View() must not panic before WindowSizeMsg is received
	fp := New("x", []string{"/path/to/recent.png"}, nil)

	if view := fp.View(); view == "" {
		t.Error("View() returned empty string")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/Pictures/cat.png", home + "/Pictures/cat.png"},
		{"~", home},
		{"/absolute/path.png", "/absolute/path.png"},
		{"relative/path.png", "relative/path.png"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if result := expandPath(tc.input); result != tc.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestTruncateLeft(t *testing.T) {
	if got := truncateLeft("/very/long/path/to/photo.png", 12); got != "...photo.png" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncateLeft("/short.png", 40); got != "/short.png" {
		t.Errorf("unexpected %q", got)
	}
}
