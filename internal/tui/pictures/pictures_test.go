// ABOUTME: Tests for pictures directory discovery
// ABOUTME: Validates finding image files and the directory lookup order

package pictures

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()

	os.WriteFile(filepath.Join(tmpDir, "b.png"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "a.JPG"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "readme.txt"), []byte("ignore"), 0644)
	os.Mkdir(filepath.Join(tmpDir, "album.png"), 0755)

	files, err := Discover(tmpDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 image files, got %d", len(files))
	}
	if files[0].Name != "a.JPG" || files[1].Name != "b.png" {
		t.Errorf("expected sorted names, got %q and %q", files[0].Name, files[1].Name)
	}
	if files[1].Path != filepath.Join(tmpDir, "b.png") {
		t.Errorf("unexpected path %s", files[1].Path)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	for _, dir := range []string{"", "/nonexistent/path"} {
		files, err := Discover(dir)
		if err != nil {
			t.Fatalf("Discover(%q) should not error, got: %v", dir, err)
		}
		if len(files) != 0 {
			t.Errorf("expected empty list for %q, got %d", dir, len(files))
		}
	}
}

func TestDiscoverCapsList(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < MaxFiles+5; i++ {
		os.WriteFile(filepath.Join(tmpDir, string(rune('a'+i%26))+string(rune('a'+i/26))+".png"), []byte("x"), 0644)
	}

	files, err := Discover(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != MaxFiles {
		t.Errorf("expected %d files, got %d", MaxFiles, len(files))
	}
}

func TestFindDirFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvDir, tmpDir)

	if found := FindDir("/some/other/path"); found != tmpDir {
		t.Errorf("expected %s from env, got %s", tmpDir, found)
	}
}

func TestFindDirConfigured(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvDir, "")

	if found := FindDir(tmpDir); found != tmpDir {
		t.Errorf("expected %s, got %s", tmpDir, found)
	}
}

func TestFindDirNotFound(t *testing.T) {
	t.Setenv(EnvDir, "")
	t.Setenv("HOME", t.TempDir())

	if found := FindDir(""); found != "" {
		t.Errorf("expected empty string, got %s", found)
	}
}
