package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteStoreSetGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 2, 15, 4, 5, 600, time.UTC)
	s.now = func() time.Time { return at }

	if _, ok := s.Get(ctx, "transactions"); ok {
		t.Fatal("fresh database should have no snapshot")
	}

	if err := s.Set(ctx, "transactions", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "transactions", []byte(`[{"id":"2"}]`)); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	got, ok := s.Get(ctx, "transactions")
	if !ok || string(got) != `[{"id":"2"}]` {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	ts, ok := s.UpdatedAt(ctx, "transactions")
	if !ok || !ts.Equal(at) {
		t.Errorf("UpdatedAt = %v, %v; want %v", ts, ok, at)
	}

	if err := s.Remove(ctx, "transactions"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Get(ctx, "transactions"); ok {
		t.Error("removed snapshot still present")
	}
}

func TestSQLiteStoreFailedSetKeepsPrevious(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "categories", []byte(`["old"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Set(cancelled, "categories", []byte(`["new"]`)); err == nil {
		t.Fatal("Set with cancelled context should fail")
	}

	got, ok := s.Get(ctx, "categories")
	if !ok || string(got) != `["old"]` {
		t.Errorf("Get = %q, %v; want previous payload", got, ok)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "payment_methods", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get(ctx, "payment_methods")
	if !ok || string(got) != `[]` {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}
