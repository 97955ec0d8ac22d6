package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opslens/internal/ingest"
)

func TestTickets_FileNamingAndContents(t *testing.T) {
	dir := t.TempDir()
	g := New(filepath.Join(dir, "logs"), filepath.Join(dir, "tickets"))

	path, err := g.Tickets("2025-03-10", 10)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tickets", "tickets_2025-03-10.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var tickets []ingest.Ticket
	require.NoError(t, json.Unmarshal(data, &tickets))
	require.Len(t, tickets, 10)

	assert.Equal(t, "INC000000001", tickets[0].TicketID)
	assert.Equal(t, "INC000000010", tickets[9].TicketID)

	for _, tk := range tickets {
		assert.NotEmpty(t, tk.Message)
		assert.NotEmpty(t, tk.SuggestedAction)
		assert.NotEmpty(t, tk.TraceID)
		assert.Contains(t, tk.Timestamp, "2025-03-10")
		assert.Contains(t, ticketTypes, tk.TicketType)
	}
}

func TestLogs_FileNamingAndContents(t *testing.T) {
	dir := t.TempDir()
	g := New(filepath.Join(dir, "logs"), filepath.Join(dir, "tickets"))

	path, err := g.Logs("2025-03-11", 5)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs", "logs_2025-03-11.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []ingest.LogRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 5)

	for _, r := range records {
		assert.Contains(t, logLevels, r.Level)
		assert.NotEmpty(t, r.Message)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	g := New(t.TempDir(), t.TempDir())

	_, err := g.Tickets("10-03-2025", 5)
	assert.Error(t, err)

	_, err = g.Logs("2025-03-10", 0)
	assert.Error(t, err)
}

func TestGeneratedFilesAreLoadable(t *testing.T) {
	// The generator's output must round-trip through the loader's parsers.
	dir := t.TempDir()
	g := New(filepath.Join(dir, "logs"), filepath.Join(dir, "tickets"))

	logPath, err := g.Logs("2025-03-12", 3)
	require.NoError(t, err)
	ticketPath, err := g.Tickets("2025-03-12", 3)
	require.NoError(t, err)

	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logDocs, err := ingest.ParseLogs(logData)
	require.NoError(t, err)
	assert.Len(t, logDocs, 3)

	ticketData, err := os.ReadFile(ticketPath)
	require.NoError(t, err)
	ticketDocs, err := ingest.ParseTickets(ticketData)
	require.NoError(t, err)
	assert.Len(t, ticketDocs, 3)
	assert.Contains(t, ticketDocs[0].Text, "Ticket ID: INC000000001")
}
