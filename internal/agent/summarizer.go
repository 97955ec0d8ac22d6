package agent

import (
	"context"
	"fmt"
	"strings"

	"opslens/internal/retrieval"
)

// NoDataMessage is returned without calling the completion service when there
// is nothing to summarize.
const NoDataMessage = "No logs or system tickets found for your query."

const noLogsPlaceholder = "No logs found."

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer composes retrieved logs and tickets into one human-readable
// answer. Log bodies are condensed by the completion service; tickets are
// listed verbatim and never rewritten.
type Summarizer struct {
	completer Completer
}

func NewSummarizer(c Completer) *Summarizer {
	return &Summarizer{completer: c}
}

func (s *Summarizer) Summarize(ctx context.Context, logs, tickets []retrieval.Match) (string, error) {
	if len(logs) == 0 && len(tickets) == 0 {
		return NoDataMessage, nil
	}

	summary := noLogsPlaceholder
	if len(logs) > 0 {
		bodies := make([]string, len(logs))
		for i, m := range logs {
			bodies[i] = m.Document.Text
		}
		prompt := "Summarize the following logs into a concise human-readable summary of key issues:\n" + strings.Join(bodies, "\n")

		out, err := s.completer.Complete(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("summarize logs: %w", err)
		}
		summary = strings.TrimSpace(out)
	}

	lines := []string{summary}
	if len(tickets) > 0 {
		lines = append(lines, "", "Related System Tickets:")
		for _, m := range tickets {
			message := strings.TrimSpace(m.Document.Text)
			if id, ok := m.Document.Metadata["ticketId"].(string); ok && id != "" {
				lines = append(lines, fmt.Sprintf("%s → %s", id, message))
			} else {
				lines = append(lines, message)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
