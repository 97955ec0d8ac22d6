package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"opslens/internal/middleware"
	"opslens/internal/retrieval"
)

// ToolSpec describes one capability to the planner.
type ToolSpec struct {
	Name        string
	Description string
}

// Step is one completed reasoning step: the capability invoked, its input,
// and what it returned.
type Step struct {
	Tool        string
	Input       string
	Observation string
}

type ToolInvocation struct {
	Tool  string
	Input string
}

// Decision is the tagged variant produced by the planner at every step:
// either invoke a capability or finish with a final answer. Exactly one of
// the fields is set.
type Decision struct {
	Invoke *ToolInvocation
	Finish *string
}

// Planner is the reasoning component. Given the question, the available
// capabilities, and the steps taken so far, it decides what happens next.
type Planner interface {
	Decide(ctx context.Context, question string, tools []ToolSpec, steps []Step) (Decision, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]retrieval.Match, error)
}

// InconclusiveAnswer is returned when the planner does not finish within the
// step cap. Exceeding the cap is a recoverable outcome, not an error.
const InconclusiveAnswer = "I could not reach a conclusive answer within the allowed number of steps. Please narrow your question and try again."

// Orchestrator answers free-text questions by letting the planner drive a
// reasoning-and-acting loop over three capabilities: search logs, search
// tickets, and summarize. Capability errors are fed back to the planner as
// observations; only planner failures propagate to the caller.
type Orchestrator struct {
	planner    Planner
	logs       Retriever
	tickets    Retriever
	summarizer *Summarizer
	maxSteps   int
	trace      *TraceRecorder
}

func NewOrchestrator(p Planner, logs, tickets Retriever, s *Summarizer, maxSteps int, trace *TraceRecorder) *Orchestrator {
	return &Orchestrator{
		planner:    p,
		logs:       logs,
		tickets:    tickets,
		summarizer: s,
		maxSteps:   maxSteps,
		trace:      trace,
	}
}

func (o *Orchestrator) Answer(ctx context.Context, question string) (string, []TraceEvent, error) {
	var recorded []TraceEvent
	record := func(event TraceEvent) {
		event.Timestamp = time.Now().UTC()
		event.CorrelationID = middleware.GetCorrelationID(ctx)
		recorded = append(recorded, event)
		if o.trace != nil {
			o.trace.Record(event)
		}
	}

	// Matches collected by the search tools feed the summarize tool. The
	// state is local to this call, so concurrent questions stay independent.
	var foundLogs, foundTickets []retrieval.Match

	tools := []struct {
		spec ToolSpec
		run  func(ctx context.Context, input string) (string, error)
	}{
		{
			spec: ToolSpec{Name: "search_logs", Description: "Search observability logs semantically related to a query."},
			run: func(ctx context.Context, input string) (string, error) {
				matches, err := o.logs.Retrieve(ctx, input)
				if err != nil {
					return "", err
				}
				foundLogs = matches
				return formatMatches(matches), nil
			},
		},
		{
			spec: ToolSpec{Name: "search_tickets", Description: "Search incident tickets semantically related to a query."},
			run: func(ctx context.Context, input string) (string, error) {
				matches, err := o.tickets.Retrieve(ctx, input)
				if err != nil {
					return "", err
				}
				foundTickets = matches
				return formatMatches(matches), nil
			},
		},
		{
			spec: ToolSpec{Name: "summarize", Description: "Compose a final human-readable answer from the logs and tickets retrieved so far."},
			run: func(ctx context.Context, _ string) (string, error) {
				return o.summarizer.Summarize(ctx, foundLogs, foundTickets)
			},
		},
	}

	specs := make([]ToolSpec, len(tools))
	byName := make(map[string]func(context.Context, string) (string, error), len(tools))
	for i, t := range tools {
		specs[i] = t.spec
		byName[t.spec.Name] = t.run
	}

	var steps []Step
	for i := 0; i < o.maxSteps; i++ {
		decision, err := o.planner.Decide(ctx, question, specs, steps)
		if err != nil {
			return "", recorded, fmt.Errorf("planner: %w", err)
		}

		if decision.Finish != nil {
			record(TraceEvent{Type: EventFinish, Output: *decision.Finish})
			return *decision.Finish, recorded, nil
		}
		if decision.Invoke == nil {
			return "", recorded, fmt.Errorf("planner returned neither invocation nor answer")
		}

		invocation := *decision.Invoke
		var observation string
		if run, ok := byName[invocation.Tool]; !ok {
			observation = fmt.Sprintf("unknown tool %q", invocation.Tool)
		} else if out, err := run(ctx, invocation.Input); err != nil {
			// Capability errors are observations, not orchestrator failures.
			slog.WarnContext(ctx, "tool invocation failed", "tool", invocation.Tool, "error", err)
			observation = fmt.Sprintf("tool error: %v", err)
		} else {
			observation = out
		}

		record(TraceEvent{Type: EventToolCall, Tool: invocation.Tool, Input: invocation.Input, Output: observation})
		steps = append(steps, Step{Tool: invocation.Tool, Input: invocation.Input, Observation: observation})
	}

	slog.WarnContext(ctx, "agent exceeded step cap", "max_steps", o.maxSteps, "question", question)
	record(TraceEvent{Type: EventFinish, Output: InconclusiveAnswer})
	return InconclusiveAnswer, recorded, nil
}

func formatMatches(matches []retrieval.Match) string {
	if len(matches) == 0 {
		return "no results above the similarity threshold"
	}

	type entry struct {
		Content  string                 `json:"content"`
		Score    float32                `json:"similarity_score"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	entries := make([]entry, len(matches))
	for i, m := range matches {
		entries[i] = entry{
			Content:  m.Document.Text,
			Score:    m.Score,
			Metadata: m.Document.Metadata,
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Sprintf("failed to format results: %v", err)
	}
	return string(data)
}
