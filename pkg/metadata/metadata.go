package metadata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WrongType is one event of the wrong-type log, written when a resolved URL
// served something other than an accepted image or video.
type WrongType struct {
	URL        string `json:"url"`
	TargetDir  string `json:"target_dir"`
	FileCount  int    `json:"filecount"`
	Downloaded int    `json:"_downloaded"`
	Filename   string `json:"filename"`

	PostID     string    `json:"post_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Log appends WrongType events as JSON lines. A Log with an empty path
// records nothing.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns a log appending to path
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Enabled reports whether events are written anywhere
func (l *Log) Enabled() bool {
	return l != nil && l.path != ""
}

// Path returns the log file path
func (l *Log) Path() string {
	return l.path
}

// Record appends ev as one line
func (l *Log) Record(ev WrongType) error {
	if !l.Enabled() {
		return nil
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal wrong-type event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open wrong-type log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write wrong-type event: %w", err)
	}
	return nil
}

// Load reads every event in the log at path. Blank lines are ignored.
func Load(path string) ([]WrongType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wrong-type log: %w", err)
	}
	defer f.Close()

	var events []WrongType
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev WrongType
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("line %d: failed to unmarshal wrong-type event: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wrong-type log: %w", err)
	}
	return events, nil
}
