package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"opslens/internal/agent"
)

const plannerInstruction = "You are an observability assistant. Answer operator questions about " +
	"logs and incident tickets by calling the provided tools, then reply with a final answer. " +
	"Prefer calling summarize once you have retrieved the relevant material."

// Planner drives the agent loop through Gemini function calling. Each Decide
// call replays the steps taken so far as chat history and maps the model's
// next output to a tagged decision: a function call becomes an invocation,
// plain text becomes the final answer.
type Planner struct {
	client *genai.Client
	model  string
}

func NewPlanner(client *genai.Client, model string) *Planner {
	return &Planner{client: client, model: model}
}

func (p *Planner) Decide(ctx context.Context, question string, tools []agent.ToolSpec, steps []agent.Step) (agent.Decision, error) {
	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(plannerInstruction)}}
	model.Tools = []*genai.Tool{{FunctionDeclarations: declarations(tools)}}

	history := []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(question)}},
	}
	for _, step := range steps {
		history = append(history,
			&genai.Content{Role: "model", Parts: []genai.Part{genai.FunctionCall{
				Name: step.Tool,
				Args: map[string]interface{}{"query": step.Input},
			}}},
			&genai.Content{Role: "function", Parts: []genai.Part{genai.FunctionResponse{
				Name:     step.Tool,
				Response: map[string]interface{}{"result": step.Observation},
			}}},
		)
	}

	session := model.StartChat()
	session.History = history[:len(history)-1]
	last := history[len(history)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return agent.Decision{}, fmt.Errorf("gemini: empty response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.FunctionCall:
			input, _ := v.Args["query"].(string)
			return agent.Decision{Invoke: &agent.ToolInvocation{Tool: v.Name, Input: input}}, nil
		case genai.Text:
			text.WriteString(string(v))
		}
	}

	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return agent.Decision{}, fmt.Errorf("gemini: response carried neither function call nor text")
	}
	return agent.Decision{Finish: &answer}, nil
}

func declarations(tools []agent.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {Type: genai.TypeString, Description: "Free-text search query."},
				},
			},
		}
	}
	return decls
}
