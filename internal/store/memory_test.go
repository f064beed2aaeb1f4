package store

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "user:1", `{"name":"alice"}`, 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, ok, err := m.Get(ctx, "user:1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}
	if value != `{"name":"alice"}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestMemory_GetMissingKey(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "token:abc", "user-1", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if _, ok, _ := m.Get(ctx, "token:abc"); !ok {
		t.Fatal("expected key before expiry")
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := m.Get(ctx, "token:abc"); ok {
		t.Fatal("expected key to have expired")
	}
}

func TestMemory_AppendNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := m.Append(ctx, "user_conversations:1", id); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	values, err := m.Range(ctx, "user_conversations:1", 0, -1)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	if values[0] != "c" || values[2] != "a" {
		t.Fatalf("expected newest-first order, got %v", values)
	}
}

func TestMemory_RangeBounds(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		_ = m.Append(ctx, "list", id)
	}

	values, err := m.Range(ctx, "list", 0, 1)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	if len(values) != 2 || values[0] != "d" || values[1] != "c" {
		t.Fatalf("unexpected head range %v", values)
	}

	values, _ = m.Range(ctx, "list", 0, 100)
	if len(values) != 4 {
		t.Fatalf("expected clamped range of 4, got %v", values)
	}

	values, _ = m.Range(ctx, "missing", 0, -1)
	if values != nil {
		t.Fatalf("expected nil for missing list, got %v", values)
	}
}

func TestMemory_KeysPattern(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "character:1", "{}", 0)
	_ = m.Set(ctx, "character:2", "{}", 0)
	_ = m.Set(ctx, "user:1", "{}", 0)

	keys, err := m.Keys(ctx, "character:*")
	if err != nil {
		t.Fatalf("Keys returned error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 character keys, got %v", keys)
	}
}

func TestMemory_DeleteRemovesValueAndList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "k", "v", 0)
	_ = m.Append(ctx, "k", "item")

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected value deleted")
	}
	if values, _ := m.Range(ctx, "k", 0, -1); len(values) != 0 {
		t.Fatalf("expected list deleted, got %v", values)
	}
}
