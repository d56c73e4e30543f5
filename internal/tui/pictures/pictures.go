// ABOUTME: Discovers image files offered by the image picker
// ABOUTME: Looks in NETWORKHUB_PICTURES_DIR, an explicit directory, or ~/Pictures

package pictures

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/markalston/networkhub/internal/media"
)

// EnvDir names the environment variable that overrides the pictures directory
const EnvDir = "NETWORKHUB_PICTURES_DIR"

// MaxFiles caps how many discovered images are listed
const MaxFiles = 50

// File represents a discovered image
type File struct {
	Name string // Filename (e.g., "beach.jpg")
	Path string // Full path to the file
}

// Discover finds the image files directly inside dir, sorted by name
func Discover(dir string) ([]File, error) {
	if dir == "" {
		return []File{}, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []File{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := []File{}
	for _, entry := range entries {
		if entry.IsDir() || !media.IsImageFile(entry.Name()) {
			continue
		}
		files = append(files, File{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	if len(files) > MaxFiles {
		files = files[:MaxFiles]
	}
	return files, nil
}

// FindDir locates the pictures directory
// Checks in order:
// 1. NETWORKHUB_PICTURES_DIR environment variable
// 2. configured, when non-empty
// 3. ~/Pictures
func FindDir(configured string) string {
	if envPath := os.Getenv(EnvDir); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, "Pictures")
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}

	return ""
}
