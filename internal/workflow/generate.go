package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/baterms/chatbot/internal/language"
	"github.com/baterms/chatbot/internal/llm"
)

// ResponseGenerator produces the assistant reply from the system prompt,
// conversation history, retrieved context, and the user message. Unlike
// the other stages its error propagates: without a reply there is nothing
// useful to hand back, so the engine owns the fallback.
type ResponseGenerator struct {
	Provider llm.Provider
	Model    string
}

func (g *ResponseGenerator) Name() string { return "response_generator" }

func (g *ResponseGenerator) Run(ctx context.Context, state *ChatState) error {
	if g.Provider == nil {
		return fmt.Errorf("workflow: no completion provider configured")
	}

	messages := make([]llm.Message, 0, len(state.History)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: buildSystemPrompt(state),
	})
	for _, entry := range state.History {
		role := llm.RoleUser
		if entry.Role == "assistant" {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: entry.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: state.UserMessage})

	resp, err := g.Provider.Complete(ctx, llm.CompletionRequest{
		Model:       g.Model,
		Messages:    messages,
		Temperature: 0.3,
	})
	if err != nil {
		return fmt.Errorf("workflow: response generation: %w", err)
	}

	state.Response = strings.TrimSpace(resp.Content)
	if state.Response == "" {
		return fmt.Errorf("workflow: response generation returned empty content")
	}
	return nil
}

func buildSystemPrompt(state *ChatState) string {
	var sb strings.Builder
	if state.SystemPrompt != "" {
		sb.WriteString(state.SystemPrompt)
	} else {
		sb.WriteString("You are Bate, a helpful assistant for a rental property management platform. Answer questions for landlords, tenants, and administrators using the provided system information.")
	}
	sb.WriteString("\n\nRespond in ")
	sb.WriteString(language.DisplayName(state.Language))
	sb.WriteString(".")
	if role := state.Metadata[MetaInferredRole]; role != "" && role != DefaultRole {
		sb.WriteString(" The user appears to be a ")
		sb.WriteString(strings.ReplaceAll(role, "_", " "))
		sb.WriteString("; tailor the answer to that perspective.")
	}
	if state.Context != "" {
		sb.WriteString("\n\n")
		sb.WriteString(state.Context)
	}
	return sb.String()
}
