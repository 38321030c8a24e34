package main

import (
	"fmt"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"

	"starshipevents/internal/config"
	"starshipevents/internal/engine"
)

// loadEngine reads the engine bundle from cfg.Paths.StateFile, returning a
// fresh empty Engine if the file does not yet exist — the first invocation
// of any starshipctl subcommand always succeeds.
func loadEngine(cfg *config.Config) (*engine.Engine, error) {
	path := cfg.Paths.StateFile
	if path == "" {
		return engine.New(cfg), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.New(cfg), nil
		}
		return nil, fmt.Errorf("starshipctl: reading state file %s: %w", path, err)
	}

	var st engine.State
	if err := gojson.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("starshipctl: parsing state file %s: %w", path, err)
	}
	return engine.Restore(cfg, st)
}

// saveEngine atomically writes e's captured state to cfg.Paths.StateFile:
// temp file in the same directory, fsync, then rename into place, matching
// the save store's atomic-write discipline.
func saveEngine(cfg *config.Config, e *engine.Engine) error {
	path := cfg.Paths.StateFile
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("starshipctl: creating state directory %s: %w", dir, err)
	}

	data, err := gojson.Marshal(e.Capture())
	if err != nil {
		return fmt.Errorf("starshipctl: marshaling state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state.*.tmp")
	if err != nil {
		return fmt.Errorf("starshipctl: creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("starshipctl: writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("starshipctl: fsyncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("starshipctl: closing temp state file: %w", err)
	}
	return os.Rename(tmpPath, path)
}
