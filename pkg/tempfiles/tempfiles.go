// Package tempfiles manages the local buffer directories that hold upload
// content between receipt and commit. Every user gets their own directory;
// it is reclaimed in full whenever that user's session closes.
package tempfiles

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type Manager struct {
	baseDir string
}

// NewManager creates the buffer root under the system temp directory.
func NewManager(appName string) (*Manager, error) {
	baseDir := filepath.Join(os.TempDir(), appName)
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create buffer root: %w", err)
	}
	return &Manager{baseDir: baseDir}, nil
}

func (m *Manager) userDir(userID int64) string {
	return filepath.Join(m.baseDir, fmt.Sprintf("%d", userID))
}

// Save streams content into the user's buffer directory and returns the
// path of the stored copy. File names on disk are randomized so colliding
// chat file names never overwrite each other.
func (m *Manager) Save(userID int64, name string, content io.Reader) (string, error) {
	dir := m.userDir(userID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create user buffer dir: %w", err)
	}

	path := filepath.Join(dir, uuid.New().String()+filepath.Ext(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create buffer file: %w", err)
	}
	defer f.Close()

	if _, err = io.Copy(f, content); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write buffer file: %w", err)
	}
	return path, nil
}

// Open returns the buffered content for reading. The caller closes it.
func (m *Manager) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Cleanup removes the user's entire buffer directory. Missing directories
// are fine: cleanup runs on every session close, commit or cancel alike.
func (m *Manager) Cleanup(userID int64) error {
	err := os.RemoveAll(m.userDir(userID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
