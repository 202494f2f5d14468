package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/remote/memory"
)

type fakePublisher struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (f *fakePublisher) PublishRefresh(_ context.Context, coll core.Collection, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, coll.String()+":"+reason)
	return f.err
}

// plainWriter fails with an untyped error.
type plainWriter struct{ *memory.Store }

func (plainWriter) UpdateTransaction(context.Context, string, core.TransactionInput) error {
	return errors.New("503 service unavailable")
}

func validInput() core.TransactionInput {
	return core.TransactionInput{
		Amount:          "120.50",
		Note:            "Dinner",
		CategoryID:      "cat-food",
		PaymentMethodID: "pm-card",
		Date:            time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name  string
		input func() core.TransactionInput
		field string
		want  error
	}{
		{"zero amount", func() core.TransactionInput { in := validInput(); in.Amount = "0"; return in }, "amount", core.ErrInvalidAmount},
		{"negative amount", func() core.TransactionInput { in := validInput(); in.Amount = "-5"; return in }, "amount", core.ErrInvalidAmount},
		{"garbage amount", func() core.TransactionInput { in := validInput(); in.Amount = "abc"; return in }, "amount", core.ErrInvalidAmount},
		{"no category", func() core.TransactionInput { in := validInput(); in.CategoryID = " "; return in }, "categoryId", core.ErrEmptyCategory},
		{"no payment method", func() core.TransactionInput { in := validInput(); in.PaymentMethodID = ""; return in }, "paymentMethodId", core.ErrEmptyPaymentMethod},
		{"long note", func() core.TransactionInput { in := validInput(); in.Note = strings.Repeat("x", 2001); return in }, "note", core.ErrNoteTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := memory.NewSeeded()
			m := NewMutationPipeline(remote, nil)

			_, err := m.Create(context.Background(), tt.input())
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field || !errors.Is(err, tt.want) {
				t.Fatalf("Create = %v, want %s validation error", err, tt.field)
			}
			if err := m.Update(context.Background(), "mem-1", tt.input()); !errors.Is(err, tt.want) {
				t.Errorf("Update = %v, want %v", err, tt.want)
			}
			if remote.Calls(memory.OpCreate)+remote.Calls(memory.OpUpdate) != 0 {
				t.Error("remote called despite invalid input")
			}
		})
	}
}

func TestEmptyIDRejected(t *testing.T) {
	remote := memory.NewSeeded()
	m := NewMutationPipeline(remote, nil)

	if err := m.Archive(context.Background(), "  "); !errors.Is(err, core.ErrEmptyID) {
		t.Errorf("Archive = %v, want ErrEmptyID", err)
	}
	if err := m.Update(context.Background(), "", validInput()); !errors.Is(err, core.ErrEmptyID) {
		t.Errorf("Update = %v, want ErrEmptyID", err)
	}
	if remote.Calls(memory.OpArchive)+remote.Calls(memory.OpUpdate) != 0 {
		t.Error("remote called with empty id")
	}
}

func TestCreateUpdateArchive(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewSeeded()
	pub := &fakePublisher{}
	m := NewMutationPipeline(remote, pub)

	id, err := m.Create(ctx, validInput())
	if err != nil || id == "" {
		t.Fatalf("Create = %q, %v", id, err)
	}

	in := validInput()
	in.Amount = "99"
	in.Type = core.Income
	if err := m.Update(ctx, id, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := m.Archive(ctx, id); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	page, ok := remote.Page(id)
	if !ok || !page.Archived {
		t.Fatalf("page %s should be archived, not deleted", id)
	}

	want := []string{"transactions:create", "transactions:update", "transactions:archive"}
	if len(pub.reasons) != len(want) {
		t.Fatalf("published %v, want %v", pub.reasons, want)
	}
	for i := range want {
		if pub.reasons[i] != want[i] {
			t.Errorf("publish %d = %q, want %q", i, pub.reasons[i], want[i])
		}
	}
}

func TestMutationDoesNotTouchCache(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewSeeded()
	m := NewMutationPipeline(remote, nil)

	if _, err := m.Create(ctx, validInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if remote.Calls(memory.OpFetch) != 0 {
		t.Error("mutation should not refresh anything")
	}
}

func TestPublishFailureKeepsSuccess(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	m := NewMutationPipeline(memory.NewSeeded(), pub)

	if _, err := m.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
	if len(pub.reasons) != 1 {
		t.Errorf("expected one publish attempt, got %d", len(pub.reasons))
	}
}

func TestRemoteRejection(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewSeeded()
	pub := &fakePublisher{}
	m := NewMutationPipeline(remote, pub)

	remote.FailNext(memory.OpCreate, errors.New("validation_error"))
	_, err := m.Create(ctx, validInput())
	var rej *core.RemoteRejection
	if !errors.As(err, &rej) || rej.Op != "create" {
		t.Fatalf("Create = %v, want RemoteRejection", err)
	}

	if err := m.Archive(ctx, "does-not-exist"); !errors.As(err, &rej) || rej.ID != "does-not-exist" {
		t.Errorf("Archive = %v, want RemoteRejection", err)
	}
	if len(pub.reasons) != 0 {
		t.Errorf("failed mutations should not publish: %v", pub.reasons)
	}

	m = NewMutationPipeline(plainWriter{remote}, nil)
	err = m.Update(ctx, "mem-1", validInput())
	if !errors.As(err, &rej) || rej.Op != "update" || rej.Detail != "503 service unavailable" {
		t.Errorf("untyped failure should become RemoteRejection, got %v", err)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestMutationFailureLogsErrorType(t *testing.T) {
	buf := captureLogs(t)
	m := NewMutationPipeline(plainWriter{memory.NewSeeded()}, nil)

	if err := m.Update(context.Background(), "mem-1", validInput()); err == nil {
		t.Fatal("Update should fail")
	}

	out := buf.String()
	for _, want := range []string{
		"component=mutation",
		"operation=update",
		"record_id=mem-1",
		"error_type=remote_rejection",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
