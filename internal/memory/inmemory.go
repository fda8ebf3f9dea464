package memory

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps session history in process memory. It backs
// local development and tests; nothing survives a restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]StoredRecord
	nextID  int64
	lastAt  time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]StoredRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, sessionID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	if !now.After(s.lastAt) {
		now = s.lastAt.Add(time.Microsecond)
	}
	s.lastAt = now

	s.records[sessionID] = append(s.records[sessionID], StoredRecord{
		ID:        s.nextID,
		SessionID: sessionID,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: now,
	})
	return nil
}

func (s *InMemoryStore) ReadAll(_ context.Context, sessionID string) ([]StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[sessionID]
	out := make([]StoredRecord, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	arr := s.records[sessionID]
	kept := make([]StoredRecord, 0, len(arr))
	for _, r := range arr {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	s.records[sessionID] = kept
	return nil
}

func (s *InMemoryStore) Count(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[sessionID]), nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}

func (s *InMemoryStore) TableName() string { return "in-memory" }

func (s *InMemoryStore) Close() error { return nil }
