// Package state persists the accumulated results between runs as a single
// JSON snapshot: {"last_check": RFC3339, "results": {url: [names...]}}.
// The file is read once at process start and overwritten atomically at
// process end; no intermediate snapshots are retained.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/use-agent/modelwatch/models"
)

// DefaultPath returns the snapshot location under the XDG state directory
// (e.g. ~/.local/state/modelwatch/state.json). It falls back to the current
// directory when the XDG lookup fails.
func DefaultPath() string {
	path, err := xdg.StateFile("modelwatch/state.json")
	if err != nil {
		slog.Warn("xdg state dir unavailable, using working directory", "error", err)
		return "modelwatch-state.json"
	}
	return path
}

// Load reads the snapshot at path. A missing file means a first run and
// returns (nil, nil). An unreadable or corrupt file also degrades to first
// run with a warning, never an error: a broken snapshot must not stop the
// scan.
func Load(path string) (*models.PersistedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		slog.Warn("state file unreadable, treating as first run", "path", path, "error", err)
		return nil, nil
	}

	var st models.PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		slog.Warn("state file corrupt, treating as first run", "path", path, "error", err)
		return nil, nil
	}
	if st.Results == nil {
		st.Results = make(map[string][]string)
	}
	return &st, nil
}

// Save writes the snapshot atomically: marshal, write to a temp file in the
// same directory, then rename over the target. The rename is the only
// visible mutation, so a crashed run never leaves a half-written snapshot.
func Save(path string, st *models.PersistedState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return models.NewWatchError(models.ErrCodeState, "marshal state", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return models.NewWatchError(models.ErrCodeState, "create state directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return models.NewWatchError(models.ErrCodeState, "create temp state file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return models.NewWatchError(models.ErrCodeState, "write temp state file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return models.NewWatchError(models.ErrCodeState, "close temp state file", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return models.NewWatchError(models.ErrCodeState, "chmod temp state file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return models.NewWatchError(models.ErrCodeState, "replace state file", err)
	}
	return nil
}

// New builds a snapshot for the given merged results, timestamped now (UTC).
func New(results map[string][]string) *models.PersistedState {
	return &models.PersistedState{
		LastCheck: time.Now().UTC().Truncate(time.Second),
		Results:   results,
	}
}

// Describe renders a short one-line summary, used by status outputs.
func Describe(st *models.PersistedState) string {
	if st == nil {
		return "no prior state (first run)"
	}
	return fmt.Sprintf("last check %s, %d tracked URLs",
		st.LastCheck.Format(time.RFC3339), len(st.Results))
}
