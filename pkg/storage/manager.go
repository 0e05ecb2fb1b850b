package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager owns the destination directory of a run
type Manager struct {
	outputDir string
	saved     map[string]int64
	mu        sync.RWMutex
}

// NewManager creates outputDir if needed and returns a manager rooted there
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		saved:     make(map[string]int64),
	}, nil
}

// Path resolves name inside the output directory. Absolute paths are kept.
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether anything already occupies name
func (m *Manager) Exists(name string) bool {
	_, err := os.Lstat(m.Path(name))
	return err == nil
}

// Save streams r into name through a temporary sibling file and renames it
// into place, so an interrupted transfer never leaves a partial file under
// the final name. It returns the number of bytes written.
func (m *Manager) Save(r io.Reader, name string) (int64, error) {
	path := m.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to save data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[path] = n
	m.mu.Unlock()

	return n, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of files written through this manager
func (m *Manager) GetSavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// GetSavedBytes returns the total size of files written through this manager
func (m *Manager) GetSavedBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, n := range m.saved {
		total += n
	}
	return total
}
