package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/remote/memory"
	"ledger/internal/services"
	"ledger/internal/view"
)

type setFlags map[string]bool

func (s setFlags) Changed(name string) bool { return s[name] }

func TestParseQuery(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		flags     viewFlags
		wantDate  view.DateFilter
		wantType  view.TypeFilter
		wantRange bool
		wantErr   bool
	}{
		{name: "defaults", flags: viewFlags{}, wantDate: view.DateAll, wantType: view.TypeAll},
		{name: "hyphenated month", flags: viewFlags{date: "this-month", txType: "expense"}, wantDate: view.DateThisMonth, wantType: view.TypeExpense},
		{name: "from implies custom", flags: viewFlags{from: "2024-03-01", to: "2024-03-10"}, wantDate: view.DateCustom, wantType: view.TypeAll, wantRange: true},
		{name: "from alone is one day", flags: viewFlags{from: "2024-03-01"}, wantDate: view.DateCustom, wantType: view.TypeAll, wantRange: true},
		{name: "custom without range", flags: viewFlags{date: "custom"}, wantErr: true},
		{name: "unknown type", flags: viewFlags{txType: "transfer"}, wantErr: true},
		{name: "bad range date", flags: viewFlags{from: "03/01/2024"}, wantErr: true},
		{name: "bad divisor", flags: viewFlags{divisor: "income"}, wantErr: true},
		{name: "from with explicit custom", flags: viewFlags{date: "custom", from: "2024-03-01"}, wantDate: view.DateCustom, wantType: view.TypeAll, wantRange: true},
		{name: "from with this month", flags: viewFlags{date: "this-month", from: "2024-03-01"}, wantErr: true},
		{name: "from with last month", flags: viewFlags{date: "last_month", from: "2024-02-01", to: "2024-02-10"}, wantErr: true},
		{name: "to without from", flags: viewFlags{to: "2024-03-10"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parseQuery(tt.flags, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if q.Date != tt.wantDate || q.Type != tt.wantType {
				t.Errorf("got %s/%s, want %s/%s", q.Date, q.Type, tt.wantDate, tt.wantType)
			}
			if (q.Range != nil) != tt.wantRange {
				t.Errorf("range = %v, wantRange %v", q.Range, tt.wantRange)
			}
			if q.Range != nil && tt.flags.to == "" && q.Range.Start != q.Range.End {
				t.Errorf("single-day range = %+v", q.Range)
			}
		})
	}
}

func TestOverlay(t *testing.T) {
	cats := []core.Category{{ID: "cat-food", Name: "Food"}}
	pms := []core.PaymentMethod{{ID: "pm-card", Name: "Card"}}
	now := time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)

	t.Run("add with names and default date", func(t *testing.T) {
		f := txFlags{amount: "12.50", category: "food", paymentMethod: "Card"}
		in, err := f.overlay(core.TransactionInput{}, setFlags{"amount": true, "category": true, "payment-method": true}, cats, pms, now)
		if err != nil {
			t.Fatalf("overlay: %v", err)
		}
		if in.CategoryID != "cat-food" || in.PaymentMethodID != "pm-card" {
			t.Errorf("ids = %s/%s", in.CategoryID, in.PaymentMethodID)
		}
		if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !in.Date.Equal(want) {
			t.Errorf("date = %v, want %v", in.Date, want)
		}
		if err := in.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("edit keeps unset fields", func(t *testing.T) {
		base := inputFrom(core.Transaction{
			ID: "tx-1", Amount: 9.5, Note: "Lunch", CategoryID: "cat-food", PaymentMethodID: "pm-card",
			Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Type: core.Expense, Prepared: core.PreparedYes,
		})
		f := txFlags{note: "Dinner", date: "2024-03-02"}
		in, err := f.overlay(base, setFlags{"note": true, "date": true}, cats, pms, now)
		if err != nil {
			t.Fatalf("overlay: %v", err)
		}
		if in.Amount != "9.5" || in.Note != "Dinner" || !in.Prepared || in.Type != core.Expense {
			t.Errorf("input = %+v", in)
		}
		if in.Date.Day() != 2 {
			t.Errorf("date = %v", in.Date)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		f := txFlags{date: "tomorrow"}
		if _, err := f.overlay(core.TransactionInput{}, setFlags{"date": true}, cats, pms, now); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("unknown name passes through", func(t *testing.T) {
		f := txFlags{category: "raw-id"}
		in, _ := f.overlay(core.TransactionInput{}, setFlags{"category": true}, cats, pms, now)
		if in.CategoryID != "raw-id" {
			t.Errorf("CategoryID = %s", in.CategoryID)
		}
	})
}

func TestBuildViewAndRender(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	remote := memory.NewSeeded()
	remote.SetClock(func() time.Time { return now })
	pipeline := services.NewMutationPipeline(remote, nil)
	for _, in := range []core.TransactionInput{
		{Amount: "30", Note: "Groceries", CategoryID: "cat-food", PaymentMethodID: "pm-card", Date: now},
		{Amount: "2000", Note: "March pay", CategoryID: "cat-salary", PaymentMethodID: "pm-card", Date: now, Type: core.Income},
	} {
		if _, err := pipeline.Create(ctx, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	coord := services.NewCoordinator(remote, cache.NewMemoryStore())
	defer coord.Wait()

	v, err := buildView(ctx, coord, viewFlags{}, now)
	if err != nil {
		t.Fatalf("buildView: %v", err)
	}
	if v.Count != 2 {
		t.Fatalf("Count = %d, want 2", v.Count)
	}

	var buf bytes.Buffer
	renderSections(&buf, v)
	out := buf.String()
	for _, want := range []string{"2 transactions", "Today", "Groceries", "March pay", "2000.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("sections output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	renderSummary(&buf, v)
	out = buf.String()
	for _, want := range []string{"By category", "Food", "By payment method", "Card"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSections_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderSections(&buf, view.View{})
	if !strings.Contains(buf.String(), "No transactions.") {
		t.Errorf("output = %q", buf.String())
	}
}
