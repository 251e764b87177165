// Package history tracks recently viewed issues so `jt recent` and the
// TUI can offer a way back to them, network or not.
package history

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/raphi011/jt/internal/storage"
)

// maxEntries caps the history file; the oldest entries fall off.
const maxEntries = 50

// Entry is one viewed issue.
type Entry struct {
	Key      string    `json:"key"`
	Summary  string    `json:"summary"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Path returns the history file location.
func Path() (string, error) {
	dir, err := storage.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// Load reads the history, most recent first. A missing or corrupted
// file is an empty history, never an error: history is a convenience,
// not state worth failing over.
func Load() ([]Entry, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := storage.LoadJSON(path, &entries); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, nil
	}
	return entries, nil
}

// Record notes that an issue was viewed now. An issue already in the
// history moves to the front with a fresh summary and timestamp.
func Record(key, summary string) error {
	entries, err := Load()
	if err != nil {
		return err
	}

	updated := make([]Entry, 0, len(entries)+1)
	updated = append(updated, Entry{Key: key, Summary: summary, ViewedAt: time.Now()})
	for _, e := range entries {
		if e.Key == key {
			continue
		}
		updated = append(updated, e)
	}
	if len(updated) > maxEntries {
		updated = updated[:maxEntries]
	}

	path, err := Path()
	if err != nil {
		return err
	}
	return storage.SaveJSON(path, updated)
}
