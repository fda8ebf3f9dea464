package memory

import (
	"context"
	"strings"
)

// NewStore selects the backing store: Postgres when a database URL is
// configured, SQLite when a database file path is, otherwise
// in-process memory.
func NewStore(ctx context.Context, databaseURL, sqlitePath, tableName string) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL, tableName)
	}
	if strings.TrimSpace(sqlitePath) != "" {
		return NewSQLiteStore(ctx, sqlitePath, tableName)
	}
	return NewInMemoryStore(), nil
}
