// ABOUTME: Durable credential storage for the session store
// ABOUTME: Keeps the bearer token in a 0600 JSON file under the user's config directory

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage persists the credential between runs
type Storage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStorage stores the credential as {"token": "..."} in <dir>/session.json
type FileStorage struct {
	configDir string
}

type sessionData struct {
	Token string `json:"token"`
}

// NewFileStorage creates storage rooted at configDir
func NewFileStorage(configDir string) *FileStorage {
	return &FileStorage{configDir: configDir}
}

// Path returns the session file location
func (s *FileStorage) Path() string {
	return filepath.Join(s.configDir, "session.json")
}

// Load returns the stored token, or "" when none is stored.
// A corrupt file is treated as no session.
func (s *FileStorage) Load() (string, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	var sd sessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		return "", nil
	}
	return sd.Token, nil
}

// Save writes token with owner-only permissions
func (s *FileStorage) Save(token string) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := json.Marshal(sessionData{Token: token})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file; a missing file is not an error
func (s *FileStorage) Clear() error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
