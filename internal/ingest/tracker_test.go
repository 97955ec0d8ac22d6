package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTracker_LoadMissing(t *testing.T) {
	tracker := NewFileTracker(filepath.Join(t.TempDir(), "tracker", "ingested.json"))

	set, err := tracker.Load()
	assert.NoError(t, err)
	assert.Empty(t, set)
}

func TestFileTracker_MarkAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker", "ingested.json")
	tracker := NewFileTracker(path)

	require.NoError(t, tracker.MarkIngested("data/tickets/tickets_2025-01-01.json"))
	require.NoError(t, tracker.MarkIngested("data/tickets/tickets_2025-01-02.json"))

	set, err := tracker.Load()
	assert.NoError(t, err)
	assert.True(t, set["data/tickets/tickets_2025-01-01.json"])
	assert.True(t, set["data/tickets/tickets_2025-01-02.json"])
	assert.Len(t, set, 2)
}

func TestFileTracker_CreatesDirectoryOnFirstWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "ingested.json")
	tracker := NewFileTracker(path)

	require.NoError(t, tracker.MarkIngested("a.json"))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileTracker_DurableAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingested.json")

	first := NewFileTracker(path)
	require.NoError(t, first.MarkIngested("tickets_2025-01-01.json"))

	// A restarted process sees what the previous one marked.
	second := NewFileTracker(path)
	set, err := second.Load()
	assert.NoError(t, err)
	assert.True(t, set["tickets_2025-01-01.json"])

	require.NoError(t, second.MarkIngested("tickets_2025-01-02.json"))
	set, err = second.Load()
	assert.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestFileTracker_PersistsSingleJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingested.json")
	tracker := NewFileTracker(path)

	require.NoError(t, tracker.MarkIngested("b.json"))
	require.NoError(t, tracker.MarkIngested("a.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var files []string
	require.NoError(t, json.Unmarshal(data, &files))
	assert.Equal(t, []string{"a.json", "b.json"}, files)
}

func TestFileTracker_MarkIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingested.json")
	tracker := NewFileTracker(path)

	require.NoError(t, tracker.MarkIngested("a.json"))
	require.NoError(t, tracker.MarkIngested("a.json"))

	set, err := tracker.Load()
	assert.NoError(t, err)
	assert.Len(t, set, 1)
}

func TestFileTracker_CorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingested.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	tracker := NewFileTracker(path)
	_, err := tracker.Load()
	assert.Error(t, err)
}
