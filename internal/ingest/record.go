package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"opslens/internal/retrieval"
)

// Record kinds, matching the source-file naming convention
// <kind>_<YYYY-MM-DD>.json.
const (
	KindLogs    = "logs"
	KindTickets = "tickets"
)

// LogGlob returns the selector for daily log files under dir.
func LogGlob(dir string) string {
	return filepath.Join(dir, "logs_*.json")
}

// TicketGlob returns the selector for daily ticket files under dir.
func TicketGlob(dir string) string {
	return filepath.Join(dir, "tickets_*.json")
}

// LogRecord is one synthetic log line as generated into a daily file.
type LogRecord struct {
	Timestamp   string `json:"timestamp"`
	Level       string `json:"level"`
	Namespace   string `json:"namespace"`
	Pod         string `json:"pod"`
	Application string `json:"application"`
	Node        string `json:"node"`
	Message     string `json:"message"`
	TraceID     string `json:"traceId"`
}

// Document renders the log into an indexable document. The text body is a
// fixed template over the embedding-relevant fields, not the raw payload;
// the metadata carries every field.
func (l LogRecord) Document() retrieval.Document {
	text := fmt.Sprintf("Level: %s\nMessage: %s\nApplication: %s\nNamespace: %s",
		l.Level, l.Message, l.Application, l.Namespace)

	return retrieval.Document{
		Text: text,
		Metadata: map[string]interface{}{
			"timestamp":   l.Timestamp,
			"level":       l.Level,
			"namespace":   l.Namespace,
			"pod":         l.Pod,
			"application": l.Application,
			"node":        l.Node,
			"message":     l.Message,
			"traceId":     l.TraceID,
		},
	}
}

// Ticket is one synthetic incident ticket as generated into a daily file.
type Ticket struct {
	TicketID        string `json:"ticketId"`
	Timestamp       string `json:"timestamp"`
	Namespace       string `json:"namespace"`
	Pod             string `json:"pod"`
	Application     string `json:"application"`
	Node            string `json:"node"`
	TicketType      string `json:"ticketType"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggestedAction"`
	TraceID         string `json:"traceId"`
}

func (t Ticket) Document() retrieval.Document {
	text := fmt.Sprintf("Ticket ID: %s\nTicket Type: %s\nMessage: %s\nSuggested Action: %s",
		t.TicketID, t.TicketType, t.Message, t.SuggestedAction)

	return retrieval.Document{
		Text: text,
		Metadata: map[string]interface{}{
			"ticketId":        t.TicketID,
			"timestamp":       t.Timestamp,
			"namespace":       t.Namespace,
			"pod":             t.Pod,
			"application":     t.Application,
			"node":            t.Node,
			"ticketType":      t.TicketType,
			"message":         t.Message,
			"suggestedAction": t.SuggestedAction,
			"traceId":         t.TraceID,
		},
	}
}

// ParseFunc turns one source file's raw bytes into documents, preserving
// record order.
type ParseFunc func(data []byte) ([]retrieval.Document, error)

func ParseLogs(data []byte) ([]retrieval.Document, error) {
	var records []LogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse logs: %w", err)
	}
	docs := make([]retrieval.Document, len(records))
	for i, r := range records {
		docs[i] = r.Document()
	}
	return docs, nil
}

func ParseTickets(data []byte) ([]retrieval.Document, error) {
	var records []Ticket
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse tickets: %w", err)
	}
	docs := make([]retrieval.Document, len(records))
	for i, r := range records {
		docs[i] = r.Document()
	}
	return docs, nil
}
