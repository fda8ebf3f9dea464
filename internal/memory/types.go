package memory

import (
	"context"
	"time"
)

// Role discriminates who authored a chat turn.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Message is a single chat turn exchanged with the agent.
type Message struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StoredRecord is one durable row of a session's history. Rows are
// immutable once written; id and created_at both grow monotonically
// with insertion order.
type StoredRecord struct {
	ID        int64
	SessionID string
	Payload   []byte
	CreatedAt time.Time
}

// Store persists session message history. Implementations return
// honest errors; degradation policy (fail-open counts, raw fallbacks)
// belongs to History.
type Store interface {
	Append(ctx context.Context, sessionID string, payload []byte) error
	ReadAll(ctx context.Context, sessionID string) ([]StoredRecord, error)
	Delete(ctx context.Context, sessionID string, ids []int64) error
	Count(ctx context.Context, sessionID string) (int, error)
	Clear(ctx context.Context, sessionID string) error
	TableName() string
	Close() error
}
