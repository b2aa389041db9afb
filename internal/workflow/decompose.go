package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/baterms/chatbot/internal/llm"
)

const maxSubQueries = 3

// QueryDecomposer asks the LLM to break a user message into 1-3 focused
// sub-queries, each of which is searched independently. Any failure of the
// external service falls back to the original message as the sole
// sub-query; this stage never aborts the pipeline.
type QueryDecomposer struct {
	Provider llm.Provider
	Model    string
}

func (d *QueryDecomposer) Name() string { return "query_decomposer" }

func (d *QueryDecomposer) Run(ctx context.Context, state *ChatState) error {
	state.SubQueries = []string{state.UserMessage}

	if d.Provider == nil {
		return nil
	}

	prompt := fmt.Sprintf(
		"Decompose the following user query into 1-3 simpler, focused sub-queries. Return them as a comma-separated list with no extra text.\nUser Query: %s",
		state.UserMessage,
	)

	resp, err := d.Provider.Complete(ctx, llm.CompletionRequest{
		Model:       d.Model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		log.Printf("workflow: query decomposition failed, using original message: %v", err)
		return nil
	}

	if subs := parseSubQueries(resp.Content); len(subs) > 0 {
		state.SubQueries = subs
	}
	return nil
}

func parseSubQueries(raw string) []string {
	var subs []string
	for _, part := range strings.Split(raw, ",") {
		if q := strings.TrimSpace(part); q != "" {
			subs = append(subs, q)
		}
		if len(subs) == maxSubQueries {
			break
		}
	}
	return subs
}
