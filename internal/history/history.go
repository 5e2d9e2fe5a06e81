// Package history keeps the most-recently-opened document list.
//
// History is a convenience: load and save failures are logged and swallowed,
// never returned. This is the one exception to the strict error propagation
// used by the ledger packages.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"
)

// FileName is the history file name inside the config directory
const FileName = "excel_history.json"

// Store is a bounded, deduplicated MRU list persisted as a JSON array of
// strings, most recent first
type Store struct {
	file  string
	max   int
	items []string
}

// New loads the history persisted at file. An empty file path keeps the
// history in memory only.
func New(file string) *Store {
	s := &Store{file: file, max: model.MaxHistory}
	s.load()
	return s
}

// Items returns a snapshot, most recent first
func (s *Store) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Add moves path to the front, dropping any equal entry and anything beyond the cap
func (s *Store) Add(path string) {
	path = canonical(path)
	s.items = append([]string{path}, without(s.items, path)...)
	if len(s.items) > s.max {
		s.items = s.items[:s.max]
	}
	s.save()
}

// Remove drops path if present
func (s *Store) Remove(path string) {
	path = canonical(path)
	next := without(s.items, path)
	if len(next) == len(s.items) {
		return
	}
	s.items = next
	s.save()
}

// Clear empties the list and deletes the backing file
func (s *Store) Clear() {
	s.items = nil
	if s.file == "" {
		return
	}
	if err := os.Remove(s.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.LogSwallowed(s.file, err, "history clear")
	}
}

func (s *Store) load() {
	if s.file == "" {
		return
	}

	data, err := os.ReadFile(s.file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.LogSwallowed(s.file, err, "history load")
		}
		return
	}

	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.LogSwallowed(s.file, err, "history load")
		return
	}

	// Tolerate hand-edited files: dedupe and cap
	for _, p := range stored {
		if p == "" {
			continue
		}
		p = canonical(p)
		if len(without(s.items, p)) == len(s.items) && len(s.items) < s.max {
			s.items = append(s.items, p)
		}
	}
}

func (s *Store) save() {
	if s.file == "" {
		return
	}

	items := s.items
	if items == nil {
		items = []string{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		logger.LogSwallowed(s.file, err, "history save")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0755); err != nil {
		logger.LogSwallowed(s.file, err, "history save")
		return
	}
	if err := os.WriteFile(s.file, data, 0644); err != nil {
		logger.LogSwallowed(s.file, err, "history save")
	}
}

// canonical resolves path to an absolute, cleaned form for comparison
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func without(items []string, path string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it != path {
			out = append(out, it)
		}
	}
	return out
}
