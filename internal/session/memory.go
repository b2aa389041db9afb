package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a map. It backs tests and single-process
// runs that do not need durability across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Snapshot)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, false, nil
	}
	// Copy the history so callers cannot mutate the stored slice.
	snap.History = append(snap.History[:0:0], snap.History...)
	return snap, true, nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	snap.UpdatedAt = time.Now().UTC()
	snap.History = append(snap.History[:0:0], snap.History...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[snap.SessionID] = snap
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
