package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// History is a bounded, persisted most-recent-first list used for the search
// and replace prompts.
type History struct {
	path    string
	max     int
	Entries []string
}

const defaultHistoryMax = 100

// LoadHistory reads a history file; a missing or malformed file yields an
// empty history.
func LoadHistory(path string) *History {
	h := &History{path: path, max: defaultHistoryMax}
	data, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	// Malformed history is dropped rather than surfaced: it is regenerated
	// on the next save.
	_ = json.Unmarshal(data, &h.Entries)
	return h
}

// Add pushes entry to the front, dropping duplicates and truncating to the
// bound.
func (h *History) Add(entry string) {
	if entry == "" {
		return
	}
	out := make([]string, 0, len(h.Entries)+1)
	out = append(out, entry)
	for _, e := range h.Entries {
		if e != entry {
			out = append(out, e)
		}
	}
	if len(out) > h.max {
		out = out[:h.max]
	}
	h.Entries = out
}

// Save writes the history atomically, creating the parent directory.
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(h.Entries, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(h.path, data, 0o644)
}
