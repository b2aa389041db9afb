package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/baterms/chatbot/internal/workflow"
)

// SQLiteStore keeps sessions in a single SQLite table. History is stored
// as a JSON column; sessions are small and bounded, so there is no reason
// to normalize individual entries.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    language TEXT NOT NULL DEFAULT '',
    history TEXT NOT NULL DEFAULT '[]',
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

// OpenSQLite creates or opens the session database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating session database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating session database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Snapshot, bool, error) {
	var (
		snap        Snapshot
		historyJSON string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, language, history, updated_at FROM sessions WHERE id = ?`, id)
	err := row.Scan(&snap.SessionID, &snap.Language, &historyJSON, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("loading session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(historyJSON), &snap.History); err != nil {
		return Snapshot{}, false, fmt.Errorf("decoding history for session %s: %w", id, err)
	}
	return snap, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	history := snap.History
	if history == nil {
		history = []workflow.HistoryEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding history for session %s: %w", snap.SessionID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, language, history, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			language = excluded.language,
			history = excluded.history,
			updated_at = excluded.updated_at`,
		snap.SessionID, snap.Language, string(historyJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving session %s: %w", snap.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
