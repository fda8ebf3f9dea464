package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a file-backed store for single-node deployments
// without a Postgres instance.
type SQLiteStore struct {
	db    *sql.DB
	table string

	mu     sync.Mutex
	lastAt time.Time
}

func NewSQLiteStore(ctx context.Context, dbPath, tableName string) (*SQLiteStore, error) {
	table, err := normalizeTableName(tableName)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, table: table}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s (session_id);`, s.table, s.table),
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// now hands out strictly increasing timestamps so created_at ordering
// always agrees with id ordering, even for appends within the same
// clock tick. SQLite's own CURRENT_TIMESTAMP only has second
// resolution, which is too coarse for that invariant.
func (s *SQLiteStore) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := time.Now().UTC()
	if !t.After(s.lastAt) {
		t = s.lastAt.Add(time.Microsecond)
	}
	s.lastAt = t
	return t
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (session_id, message, created_at) VALUES (?, ?, ?)`, s.table),
		sessionID,
		string(payload),
		s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ReadAll(ctx context.Context, sessionID string) ([]StoredRecord, error) {
	// Ordering by id is exact here: this store assigns both id and
	// created_at, and they grow together.
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, message, created_at FROM %s WHERE session_id = ? ORDER BY id ASC`, s.table),
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var (
			payload   string
			createdAt string
		)
		r := StoredRecord{SessionID: sessionID}
		if err := rows.Scan(&r.ID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.Payload = []byte(payload)
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, sessionID)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE session_id = ? AND id IN (%s)`, s.table, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = ?`, s.table),
		sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, s.table),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TableName() string { return s.table }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
