// Package session persists per-session conversation state between chat
// turns. A session carries the resolved language and the bounded history;
// per-message fields are never stored.
package session

import (
	"context"
	"time"

	"github.com/baterms/chatbot/internal/workflow"
)

// Snapshot is the durable part of a session between turns.
type Snapshot struct {
	SessionID string                  `json:"session_id"`
	Language  string                  `json:"language"`
	History   []workflow.HistoryEntry `json:"history"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Store loads and saves session snapshots. Implementations must be safe
// for concurrent use; the engine additionally serializes turns that share
// a session id, so a Store never sees two concurrent Saves for one id.
type Store interface {
	// Load returns the snapshot for id. The second result is false when no
	// session with that id exists yet; that is not an error.
	Load(ctx context.Context, id string) (Snapshot, bool, error)

	// Save upserts the snapshot, stamping UpdatedAt.
	Save(ctx context.Context, snap Snapshot) error

	// Delete removes a session. Deleting a missing session is a no-op.
	Delete(ctx context.Context, id string) error

	Close() error
}
