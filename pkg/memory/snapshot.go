package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshotVersion is bumped whenever the on-disk layout changes. A mismatch
// on load silently resets the cache rather than failing.
const snapshotVersion = 1

type snapshot struct {
	Version    int     `json:"version"`
	MaxEntries int     `json:"max_entries"`
	Entries    []Entry `json:"entries"`
	Stats      Stats   `json:"stats"`
}

// Snapshotter persists the whole cache as one blob.
type Snapshotter interface {
	// Load returns the last saved blob, or os.ErrNotExist when none exists.
	Load() ([]byte, error)

	// Save atomically replaces the saved blob.
	Save(data []byte) error
}

// FileSnapshotter stores the cache snapshot as a JSON file.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter creates a file-backed snapshotter at the given path.
func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

func (f *FileSnapshotter) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *FileSnapshotter) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace cache snapshot: %w", err)
	}
	return nil
}

// discardSnapshotter is used when no persistence is configured.
type discardSnapshotter struct{}

func (discardSnapshotter) Load() ([]byte, error) { return nil, os.ErrNotExist }
func (discardSnapshotter) Save([]byte) error     { return nil }

// decodeSnapshot parses a snapshot blob, rejecting version mismatches. The
// caller decides the fallback; this function only reports what went wrong.
func decodeSnapshot(data []byte) (*snapshot, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse cache snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("cache snapshot version %d, want %d", s.Version, snapshotVersion)
	}
	return &s, nil
}
