package memory

import (
	"context"
	"fmt"
	"testing"
)

func TestInMemoryAppendAssignsMonotonicOrder(t *testing.T) {
	s := NewInMemoryStore()
	for i := 1; i <= 5; i++ {
		payload := []byte(fmt.Sprintf(`{"type":"human","content":"m%d"}`, i))
		if err := s.Append(context.Background(), "s1", payload); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	records, err := s.ReadAll(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("ReadAll() returned %d rows, want 5", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].ID <= records[i-1].ID {
			t.Fatalf("ids not increasing: %d then %d", records[i-1].ID, records[i].ID)
		}
		if !records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Fatalf("created_at not strictly increasing at row %d", i)
		}
	}
}

func TestInMemoryDeleteSubset(t *testing.T) {
	s := NewInMemoryStore()
	for i := 1; i <= 4; i++ {
		if err := s.Append(context.Background(), "s1", []byte(`{"type":"human","content":"x"}`)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if err := s.Delete(context.Background(), "s1", nil); err != nil {
		t.Fatalf("Delete(empty) error = %v", err)
	}
	if n, _ := s.Count(context.Background(), "s1"); n != 4 {
		t.Fatalf("Count() after empty delete = %d, want 4", n)
	}

	records, _ := s.ReadAll(context.Background(), "s1")
	if err := s.Delete(context.Background(), "s1", []int64{records[0].ID, records[1].ID}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	remaining, _ := s.ReadAll(context.Background(), "s1")
	if len(remaining) != 2 {
		t.Fatalf("remaining rows = %d, want 2", len(remaining))
	}
	if remaining[0].ID != records[2].ID {
		t.Fatalf("remaining[0].ID = %d, want %d", remaining[0].ID, records[2].ID)
	}
}

func TestInMemoryClearAndCount(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.Append(context.Background(), "s1", []byte(`{"type":"ai","content":"hi"}`)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := s.Count(context.Background(), "s1"); n != 0 {
		t.Fatalf("Count() after Clear = %d, want 0", n)
	}
}

func TestInMemorySessionsIndependent(t *testing.T) {
	s := NewInMemoryStore()
	_ = s.Append(context.Background(), "a", []byte(`{"type":"human","content":"1"}`))
	_ = s.Append(context.Background(), "b", []byte(`{"type":"human","content":"2"}`))

	if err := s.Clear(context.Background(), "a"); err != nil {
		t.Fatalf("Clear(a) error = %v", err)
	}
	if n, _ := s.Count(context.Background(), "b"); n != 1 {
		t.Fatalf("Count(b) = %d, want 1 after clearing session a", n)
	}
}
