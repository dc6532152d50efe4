package localstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"xscraper/internal/core/domain"
)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct {
	BaseDir string
	// Clock overrides time.Now for dating auto-generated paths.
	Clock func() time.Time
}

// NewLocalStorage creates a new LocalStorage instance rooted at baseDir.
// baseDir is only used for auto-generated paths; explicit paths are written as given.
func NewLocalStorage(baseDir string) *LocalStorage {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return &LocalStorage{BaseDir: baseDir}
}

// Save writes data to path, replacing any existing file.
func (s *LocalStorage) Save(ctx context.Context, path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.NewError(domain.KindPathError, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// SaveStream copies reader into path.
func (s *LocalStorage) SaveStream(ctx context.Context, path string, reader io.Reader) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return domain.NewError(domain.KindPathError, fmt.Sprintf("failed to create file %s", path), err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return domain.NewError(domain.KindPathError, fmt.Sprintf("failed to write file %s", path), err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.NewError(domain.KindPathError, fmt.Sprintf("failed to create directory %s", dir), err)
	}
	return nil
}
