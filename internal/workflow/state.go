// Package workflow implements the per-request chat pipeline: role analysis,
// query decomposition, context retrieval, response generation, and memory
// update, run strictly in that order over a shared ChatState.
package workflow

import "context"

// HistoryLimit caps the conversation history at the 10 most recent entries,
// i.e. the last 5 user/assistant turns.
const HistoryLimit = 10

// Documented metadata keys written by pipeline stages.
const (
	MetaInferredRole    = "inferred_role"
	MetaRetrievedDocs   = "retrieved_docs_count"
	MetaRetrievalMethod = "retrieval_method"
	MetaTimestamp       = "timestamp"
	MetaSessionID       = "session_id"
)

// HistoryEntry is one role/content pair in the conversation history.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatState is the mutable per-turn record threaded through every stage.
// It is created at the start of request processing and discarded after the
// session store is updated.
type ChatState struct {
	UserMessage  string            `json:"user_message"`
	Language     string            `json:"current_language"`
	SystemPrompt string            `json:"system_prompt"`
	History      []HistoryEntry    `json:"history"`
	SubQueries   []string          `json:"sub_queries,omitempty"`
	Context      string            `json:"context,omitempty"`
	Response     string            `json:"response,omitempty"`
	Metadata     map[string]string `json:"metadata"`
}

// NewChatState creates the initial state for one turn.
func NewChatState(userMessage, lang string) *ChatState {
	return &ChatState{
		UserMessage: userMessage,
		Language:    lang,
		Metadata:    make(map[string]string),
	}
}

// AppendTurn records a completed user/assistant exchange, truncating the
// history to the HistoryLimit most recent entries.
func (s *ChatState) AppendTurn(userMessage, response string) {
	s.History = append(s.History,
		HistoryEntry{Role: "user", Content: userMessage},
		HistoryEntry{Role: "assistant", Content: response},
	)
	if len(s.History) > HistoryLimit {
		s.History = s.History[len(s.History)-HistoryLimit:]
	}
}

// Stage is one step of the pipeline. Every stage except the response
// generator absorbs its own failures and writes a safe default into the
// state; the generator's error propagates to the engine.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *ChatState) error
}
