package cookiestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"xscraper/internal/core/ports"
)

// FileStore implements ports.CookieStore as a JSON file.
type FileStore struct {
	Path string
}

// DefaultPath returns ~/.config/x-scraper/cookies.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "x-scraper", "cookies.json")
}

// NewFileStore creates a FileStore. An empty path means DefaultPath.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	return &FileStore{Path: path}
}

// Load reads the saved cookies. A missing file is not an error.
func (s *FileStore) Load() (ports.Cookies, bool, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return ports.Cookies{}, false, nil
	}
	if err != nil {
		return ports.Cookies{}, false, fmt.Errorf("failed to read cookies file: %w", err)
	}

	var c ports.Cookies
	if err := json.Unmarshal(raw, &c); err != nil {
		return ports.Cookies{}, false, fmt.Errorf("failed to parse cookies file %s: %w", s.Path, err)
	}
	return c, c.Valid(), nil
}

// Save writes cookies with owner-only permissions.
func (s *FileStore) Save(c ports.Cookies) (string, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(s.Path, append(raw, '\n'), 0600); err != nil {
		return "", fmt.Errorf("failed to save cookies: %w", err)
	}
	return s.Path, nil
}
