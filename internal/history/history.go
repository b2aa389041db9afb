// Package history persists an append-only audit trail of chat turns, one
// JSON record per line. The file grows unbounded; consumers must tolerate
// that.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one audited chat turn.
type Record struct {
	ID               string            `json:"id"`
	Timestamp        time.Time         `json:"timestamp"`
	SessionID        string            `json:"session_id,omitempty"`
	UserMessage      string            `json:"user_message"`
	InferredRole     string            `json:"inferred_role,omitempty"`
	SubQueries       []string          `json:"sub_queries,omitempty"`
	RetrievedContext string            `json:"retrieved_context,omitempty"`
	AIResponse       string            `json:"ai_response,omitempty"`
	Language         string            `json:"language"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Log appends records to a single file. Appends are serialized so
// concurrent turns never interleave partial lines.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates or opens the audit log at path for appending.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log %s: %w", path, err)
	}
	return &Log{file: f}, nil
}

// Append writes one record as a single JSON line. A zero timestamp is
// filled in; an empty ID gets a generated UUID.
func (l *Log) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling audit record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
