// ABOUTME: Manages the recent images list for the TUI image picker
// ABOUTME: Stores recently attached or uploaded image paths in the XDG config directory

package recentfiles

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/markalston/networkhub/internal/media"
)

// MaxRecentFiles is the maximum number of recent images to keep
const MaxRecentFiles = 5

// AppDirName is the directory created under the user's config home
const AppDirName = "networkhub"

// Entry is one remembered image
type Entry struct {
	Path   string    `json:"path"`
	UsedAt time.Time `json:"usedAt"`
}

// RecentFiles manages the list of recently used image files, newest first
type RecentFiles struct {
	configDir string
	entries   []Entry
	loaded    bool
	now       func() time.Time
}

type recentData struct {
	Images []Entry `json:"images"`
}

// New creates a new RecentFiles manager with the given config directory
func New(configDir string) *RecentFiles {
	return &RecentFiles{configDir: configDir, now: time.Now}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppDirName)
}

func (rf *RecentFiles) configFile() string {
	return filepath.Join(rf.configDir, "recent-images.json")
}

// Load reads the recent list from disk and returns the paths.
// Entries that no longer exist or are no longer images are dropped.
func (rf *RecentFiles) Load() ([]string, error) {
	rf.entries = nil
	rf.loaded = true

	data, err := os.ReadFile(rf.configFile())
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		// Unreadable list, start fresh
		return []string{}, nil
	}

	for _, e := range recent.Images {
		if !media.IsImageFile(e.Path) {
			continue
		}
		if _, err := os.Stat(e.Path); err == nil {
			rf.entries = append(rf.entries, e)
		}
	}
	return rf.paths(), nil
}

// Save replaces the list with paths, newest first
func (rf *RecentFiles) Save(paths []string) error {
	now := rf.now()
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, Entry{Path: p, UsedAt: now})
	}
	return rf.write(entries)
}

func (rf *RecentFiles) write(entries []Entry) error {
	if err := os.MkdirAll(rf.configDir, 0700); err != nil {
		return err
	}
	if len(entries) > MaxRecentFiles {
		entries = entries[:MaxRecentFiles]
	}
	rf.entries = entries
	rf.loaded = true

	data, err := json.MarshalIndent(recentData{Images: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(rf.configFile(), data, 0600)
}

// Add moves path to the front of the list, inserting it if new. Relative
// paths are stored absolute so the same file is never listed twice.
func (rf *RecentFiles) Add(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if !rf.loaded {
		if _, err := rf.Load(); err != nil {
			rf.entries = nil
		}
	}

	entries := slices.DeleteFunc(slices.Clone(rf.entries), func(e Entry) bool { return e.Path == path })
	entries = slices.Insert(entries, 0, Entry{Path: path, UsedAt: rf.now()})
	return rf.write(entries)
}

func (rf *RecentFiles) paths() []string {
	out := make([]string, 0, len(rf.entries))
	for _, e := range rf.entries {
		out = append(out, e.Path)
	}
	return out
}
