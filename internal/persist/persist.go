// Package persist implements a JSON-backed SaveStore: snapshots land under
// <saves_dir>/<name>.json, written atomically via a temp file, fsync, and
// rename so a crash mid-write can never leave a half-written save behind.
package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	gojson "github.com/goccy/go-json"

	"starshipevents/internal/events"
	"starshipevents/internal/srs"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SafeName validates that name contains only [A-Za-z0-9_-], rejecting
// anything that could escape savesDir via path traversal or separators.
func SafeName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("%w: invalid save name %q", events.ErrValidation, name)
	}
	return nil
}

// JSONSaveStore is the disk-backed srs.SaveStore this core ships.
type JSONSaveStore struct {
	dir string
}

// New constructs a JSONSaveStore rooted at dir, creating it if necessary.
func New(dir string) (*JSONSaveStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: creating saves dir %s: %w", dir, err)
	}
	return &JSONSaveStore{dir: dir}, nil
}

func (s *JSONSaveStore) pathFor(name string) (string, error) {
	if err := SafeName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save atomically writes snap to <name>.json, returning the final path.
func (s *JSONSaveStore) Save(snap *srs.Snapshot, name string) (string, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return "", err
	}

	data, err := gojson.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("persist: marshal snapshot %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("persist: create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("persist: write temp file for %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("persist: fsync temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("persist: close temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("persist: rename into place for %s: %w", name, err)
	}
	return path, nil
}

// Load reads and validates the snapshot stored under name.
func (s *JSONSaveStore) Load(name string) (*srs.Snapshot, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: save %q", events.ErrNotFound, name)
		}
		return nil, fmt.Errorf("persist: read %s: %w", name, err)
	}

	var snap srs.Snapshot
	if err := gojson.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: malformed snapshot %q: %v", events.ErrValidation, name, err)
	}
	if snap.Meta.Schema == "" || snap.State == nil {
		return nil, fmt.Errorf("%w: snapshot %q missing meta or state", events.ErrValidation, name)
	}
	return &snap, nil
}
