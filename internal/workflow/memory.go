package workflow

import (
	"context"
	"log"
	"time"

	"github.com/baterms/chatbot/internal/history"
)

// MemoryUpdater records the completed exchange in the conversation history
// and the audit log. It runs last and never fails the pipeline: by the time
// it executes the response already exists, and losing an audit line is
// preferable to losing the reply.
type MemoryUpdater struct {
	Audit *history.Log
}

func (m *MemoryUpdater) Name() string { return "memory_updater" }

func (m *MemoryUpdater) Run(_ context.Context, state *ChatState) error {
	state.AppendTurn(state.UserMessage, state.Response)
	state.Metadata[MetaTimestamp] = time.Now().UTC().Format(time.RFC3339)

	if m.Audit == nil {
		return nil
	}
	rec := history.Record{
		SessionID:        state.Metadata[MetaSessionID],
		UserMessage:      state.UserMessage,
		InferredRole:     state.Metadata[MetaInferredRole],
		SubQueries:       state.SubQueries,
		RetrievedContext: state.Context,
		AIResponse:       state.Response,
		Language:         state.Language,
		Metadata:         state.Metadata,
	}
	if err := m.Audit.Append(rec); err != nil {
		log.Printf("workflow: audit log append failed: %v", err)
	}
	return nil
}
