package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/remote/notion"
)

func TestSeededCollections(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	cats, err := s.Fetch(ctx, core.Categories)
	if err != nil {
		t.Fatalf("Fetch categories: %v", err)
	}
	got, errs := notion.NormalizeCategories(cats)
	if len(errs) != 0 || len(got) != 3 || got[0].Name != "Food" || got[0].Icon != "🍔" {
		t.Fatalf("unexpected categories: %+v %v", got, errs)
	}

	pms, _ := s.Fetch(ctx, core.PaymentMethods)
	if len(pms) != 2 {
		t.Fatalf("got %d payment methods, want 2", len(pms))
	}
}

func TestCreateUpdateArchive(t *testing.T) {
	s := New()
	ctx := context.Background()
	clock := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return clock })

	first, err := s.CreateTransaction(ctx, core.TransactionInput{Amount: "5", Note: "Coffee", CategoryID: "c", PaymentMethodID: "p"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clock = clock.Add(time.Minute)
	second, _ := s.CreateTransaction(ctx, core.TransactionInput{Amount: "7", CategoryID: "c", PaymentMethodID: "p"})

	pages, _ := s.Fetch(ctx, core.Transactions)
	if len(pages) != 2 || pages[0].ID.String() != second {
		t.Fatalf("expected most recently edited first, got %v", pages)
	}

	clock = clock.Add(time.Minute)
	if err := s.UpdateTransaction(ctx, first, core.TransactionInput{Amount: "6", Note: "Latte", CategoryID: "c", PaymentMethodID: "p"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	pages, _ = s.Fetch(ctx, core.Transactions)
	txs, _ := notion.NormalizeTransactions(pages, clock)
	if txs[0].ID != first || txs[0].Note != "Latte" || txs[0].Amount != 6 {
		t.Fatalf("unexpected update result %+v", txs[0])
	}

	if err := s.ArchiveTransaction(ctx, second); err != nil {
		t.Fatalf("archive: %v", err)
	}
	pages, _ = s.Fetch(ctx, core.Transactions)
	if len(pages) != 1 {
		t.Fatalf("archived page should be hidden, got %d pages", len(pages))
	}
	if p, ok := s.Page(second); !ok || !p.Archived {
		t.Error("archived page should still be stored")
	}

	s.IncludeArchived = true
	pages, _ = s.Fetch(ctx, core.Transactions)
	if len(pages) != 2 {
		t.Errorf("IncludeArchived: got %d pages, want 2", len(pages))
	}
}

func TestFailNext(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	boom := errors.New("boom")

	s.FailNext(OpFetch, boom)
	_, err := s.Fetch(ctx, core.Categories)
	var netErr *core.NetworkError
	if !errors.As(err, &netErr) || !errors.Is(err, boom) {
		t.Fatalf("expected NetworkError wrapping boom, got %v", err)
	}
	if _, err := s.Fetch(ctx, core.Categories); err != nil {
		t.Fatalf("failure should apply once: %v", err)
	}

	s.FailNext(OpCreate, boom)
	_, err = s.CreateTransaction(ctx, core.TransactionInput{Amount: "1"})
	var rej *core.RemoteRejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected RemoteRejection, got %v", err)
	}

	if err := s.ArchiveTransaction(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("archive unknown id: got %v", err)
	}
	if got := s.Calls(OpFetch); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestHoldFetches(t *testing.T) {
	s := NewSeeded()
	release := s.HoldFetches()

	done := make(chan error, 1)
	go func() {
		_, err := s.Fetch(context.Background(), core.Categories)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("fetch returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()
	if err := <-done; err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestHeldFetchHonoursContext(t *testing.T) {
	s := NewSeeded()
	defer s.HoldFetches()()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx, core.Categories); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
