package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileTracker persists the set of fully ingested source files as a single
// JSON array, read in full and rewritten in full on each mark. The mutex
// covers sequential runs within one process; concurrent writers from multiple
// processes are not safe and must be excluded operationally (one scheduled
// loader at a time).
type FileTracker struct {
	path string
	mu   sync.Mutex
}

func NewFileTracker(path string) *FileTracker {
	return &FileTracker{path: path}
}

// Load returns the persisted set of ingested file identifiers. Missing
// tracker state means nothing has been ingested yet.
func (t *FileTracker) Load() (map[string]bool, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tracker: %w", err)
	}

	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("parse tracker: %w", err)
	}

	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[f] = true
	}
	return set, nil
}

// MarkIngested adds one file identifier to the persisted set, creating the
// tracker directory on first write.
func (t *FileTracker) MarkIngested(file string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, err := t.Load()
	if err != nil {
		return err
	}
	set[file] = true

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)

	if err := os.MkdirAll(filepath.Dir(t.path), 0o750); err != nil {
		return fmt.Errorf("create tracker dir: %w", err)
	}

	data, err := json.Marshal(files)
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.path, data, 0o600); err != nil {
		return fmt.Errorf("write tracker: %w", err)
	}
	return nil
}
