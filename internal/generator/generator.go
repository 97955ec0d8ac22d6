package generator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"opslens/internal/ingest"
)

var (
	namespaces   = []string{"payments", "checkout", "identity", "inventory", "shipping"}
	applications = []string{"checkout-api", "payment-svc", "auth-svc", "catalog-svc", "notifier"}
	nodes        = []string{"aks-node-1", "aks-node-2", "aks-node-3", "aks-node-4"}
	logLevels    = []string{"INFO", "WARN", "ERROR"}
	ticketTypes  = []string{"DatabaseTimeout", "HighCPU", "HighMemory", "PodCrash", "AuthFailure"}
)

// Generator writes synthetic daily log and ticket files for the ingestion
// pipeline to pick up. One JSON array per calendar day, named
// <kind>_<YYYY-MM-DD>.json.
type Generator struct {
	logDir    string
	ticketDir string
	rng       *rand.Rand
}

func New(logDir, ticketDir string) *Generator {
	return &Generator{
		logDir:    logDir,
		ticketDir: ticketDir,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- synthetic test data, not security material
	}
}

// Logs generates count log records spread evenly across the given day and
// writes them to logs_<date>.json, returning the file path.
func (g *Generator) Logs(date string, count int) (string, error) {
	day, err := parseDay(date)
	if err != nil {
		return "", err
	}
	if err := validateCount(count); err != nil {
		return "", err
	}

	records := make([]ingest.LogRecord, count)
	for i := range records {
		namespace := pick(g.rng, namespaces)
		app := pick(g.rng, applications)
		pod := fmt.Sprintf("%s-pod-%d", app, g.rng.Intn(5)+1)
		level := pick(g.rng, logLevels)

		records[i] = ingest.LogRecord{
			Timestamp:   stamp(day, count, i),
			Level:       level,
			Namespace:   namespace,
			Pod:         pod,
			Application: app,
			Node:        pick(g.rng, nodes),
			Message:     logMessage(level, namespace, app, pod),
			TraceID:     uuid.New().String(),
		}
	}

	return writeDaily(g.logDir, ingest.KindLogs, date, records)
}

// Tickets generates count incident tickets spread evenly across the given day
// and writes them to tickets_<date>.json, returning the file path.
func (g *Generator) Tickets(date string, count int) (string, error) {
	day, err := parseDay(date)
	if err != nil {
		return "", err
	}
	if err := validateCount(count); err != nil {
		return "", err
	}

	tickets := make([]ingest.Ticket, count)
	for i := range tickets {
		namespace := pick(g.rng, namespaces)
		app := pick(g.rng, applications)
		pod := fmt.Sprintf("%s-pod-%d", app, g.rng.Intn(5)+1)
		node := pick(g.rng, nodes)
		ticketType := pick(g.rng, ticketTypes)
		message, action := ticketDetails(ticketType, namespace, app, pod, node)

		tickets[i] = ingest.Ticket{
			TicketID:        fmt.Sprintf("INC%09d", i+1),
			Timestamp:       stamp(day, count, i),
			Namespace:       namespace,
			Pod:             pod,
			Application:     app,
			Node:            node,
			TicketType:      ticketType,
			Message:         message,
			SuggestedAction: action,
			TraceID:         uuid.New().String(),
		}
	}

	return writeDaily(g.ticketDir, ingest.KindTickets, date, tickets)
}

func ticketDetails(ticketType, namespace, app, pod, node string) (message, action string) {
	switch ticketType {
	case "DatabaseTimeout":
		return fmt.Sprintf("Database connection timeout in %s for %s", namespace, app),
			"Check DB connectivity and restart DB pods if necessary."
	case "HighCPU":
		return fmt.Sprintf("High CPU usage detected on %s in %s", node, namespace),
			"Investigate running pods, consider scaling node pool."
	case "HighMemory":
		return fmt.Sprintf("High memory usage detected on %s in %s", pod, namespace),
			"Investigate memory leaks, restart pods, consider scaling memory limits."
	case "PodCrash":
		return fmt.Sprintf("%s crashed in %s", pod, namespace),
			"Check pod logs and redeploy if necessary."
	default: // AuthFailure
		return fmt.Sprintf("Multiple failed login attempts in %s", namespace),
			"Investigate security issues and reset affected credentials."
	}
}

func logMessage(level, namespace, app, pod string) string {
	switch level {
	case "ERROR":
		return fmt.Sprintf("Request to %s failed in %s: connection reset by peer", app, namespace)
	case "WARN":
		return fmt.Sprintf("%s nearing memory limit in %s", pod, namespace)
	default:
		return fmt.Sprintf("%s handled request in %s", app, namespace)
	}
}

func parseDay(date string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", date, err)
	}
	return day, nil
}

func validateCount(count int) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	return nil
}

// stamp spreads record i of count evenly across the day.
func stamp(day time.Time, count, i int) string {
	offset := time.Duration(86400/count*i) * time.Second
	return day.Add(offset).UTC().Format(time.RFC3339)
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func writeDaily(dir, kind, date string, records interface{}) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", kind, date))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s file: %w", kind, err)
	}

	slog.Info("generated synthetic records", "kind", kind, "date", date, "path", path)
	return path, nil
}
