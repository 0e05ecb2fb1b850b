package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"redditdl/pkg/logger"
)

// CurrentVersion is written into every checkpoint file
const CurrentVersion = 1

// Counts mirrors the run counters so a resumed run reports cumulative totals
type Counts struct {
	Processed  int `json:"processed"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Exists     int `json:"exists"`
	Failed     int `json:"failed"`
}

// Checkpoint is the resumable state of one feed target
type Checkpoint struct {
	Target            string    `json:"target"`
	Multireddit       bool      `json:"multireddit"`
	Sort              string    `json:"sort,omitempty"`
	LastID            string    `json:"last_id"`
	LastProcessedPage int       `json:"last_processed_page"`
	Counts            Counts    `json:"counts"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Version           int       `json:"version"`
}

// Manager handles checkpoint operations for one feed target
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager returns a manager storing target's checkpoint under the
// per-user data directory.
func NewManager(target string, log logger.Logger) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dataDir, "checkpoints"), target, log)
}

// NewManagerAt is NewManager with an explicit checkpoint directory
func NewManagerAt(dir, target string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(dir, fileKey(target)+".checkpoint.json"),
		logger:         logger.OrNop(log),
	}, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_+-]+`)

// fileKey turns "user/jdoe/m/pics" or "pics+aww" into a flat file name
func fileKey(target string) string {
	key := unsafeKeyChars.ReplaceAllString(strings.ToLower(strings.Trim(target, "/")), "_")
	if key == "" {
		key = "_"
	}
	return key
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a fresh checkpoint and persists it
func (m *Manager) Create(target string, multireddit bool, sort string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		Target:      target,
		Multireddit: multireddit,
		Sort:        sort,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     CurrentVersion,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"target": target,
		"path":   m.checkpointPath,
	})

	return cp, nil
}

// Load returns the stored checkpoint, or nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version > CurrentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", cp.Version, CurrentVersion)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"target":     cp.Target,
		"last_id":    cp.LastID,
		"page":       cp.LastProcessedPage,
		"downloaded": cp.Counts.Downloaded,
		"updated_at": cp.UpdatedAt,
	})

	return &cp, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"target":  cp.Target,
		"last_id": cp.LastID,
		"page":    cp.LastProcessedPage,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// UpdateProgress records the cursor reached after a page and the counters
// accumulated so far.
func (m *Manager) UpdateProgress(cp *Checkpoint, lastID string, page int, counts Counts) error {
	cp.LastID = lastID
	cp.LastProcessedPage = page
	cp.Counts = counts
	return m.Save(cp)
}

func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "redditdl")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "redditdl")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "redditdl")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "redditdl")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
