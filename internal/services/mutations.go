package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/remote"
)

// RefreshPublisher announces that a collection changed remotely.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, coll core.Collection, reason string) error
}

// MutationPipeline validates transaction writes and forwards them to the
// remote store. It never touches the cache; callers refresh afterwards.
type MutationPipeline struct {
	writer    remote.TransactionWriter
	publisher RefreshPublisher
}

// NewMutationPipeline creates a pipeline. publisher may be nil.
func NewMutationPipeline(writer remote.TransactionWriter, publisher RefreshPublisher) *MutationPipeline {
	return &MutationPipeline{
		writer:    writer,
		publisher: publisher,
	}
}

// Create validates in and creates the transaction remotely, returning its id.
func (m *MutationPipeline) Create(ctx context.Context, in core.TransactionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id, err := m.writer.CreateTransaction(ctx, in)
	if err != nil {
		return "", m.failed(ctx, log.OpCreate, "", err)
	}

	slog.InfoContext(ctx, "Transaction created", mutationFields(log.OpCreate).
		WithTransaction(id, in.Amount, in.CategoryID, in.PaymentMethodID, string(in.Type)).
		ToSlice()...)

	m.announce(ctx, log.OpCreate)
	return id, nil
}

// Update replaces the editable fields of transaction id.
func (m *MutationPipeline) Update(ctx context.Context, id string, in core.TransactionInput) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	if err := m.writer.UpdateTransaction(ctx, id, in); err != nil {
		return m.failed(ctx, log.OpUpdate, id, err)
	}

	slog.InfoContext(ctx, "Transaction updated", mutationFields(log.OpUpdate).
		WithTransaction(id, in.Amount, in.CategoryID, in.PaymentMethodID, string(in.Type)).
		ToSlice()...)
	m.announce(ctx, log.OpUpdate)
	return nil
}

// Archive flags transaction id archived remotely.
func (m *MutationPipeline) Archive(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	if err := m.writer.ArchiveTransaction(ctx, id); err != nil {
		return m.failed(ctx, log.OpArchive, id, err)
	}

	slog.InfoContext(ctx, "Transaction archived", mutationFields(log.OpArchive).
		With(log.FieldRecordID, id).
		ToSlice()...)
	m.announce(ctx, log.OpArchive)
	return nil
}

func (m *MutationPipeline) failed(ctx context.Context, op, id string, err error) error {
	var cfgErr *core.ConfigurationError
	var rej *core.RemoteRejection
	if !errors.As(err, &cfgErr) && !errors.As(err, &rej) {
		err = &core.RemoteRejection{Op: op, ID: id, Detail: err.Error(), Err: err}
	}
	f := mutationFields(op).WithError(err)
	if id != "" {
		f.With(log.FieldRecordID, id)
	}
	slog.WarnContext(ctx, "Transaction mutation failed", f.ToSlice()...)
	return err
}

// announce publishes a refresh request. A mutation that reached the remote
// store stays successful whatever happens here.
func (m *MutationPipeline) announce(ctx context.Context, reason string) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishRefresh(ctx, core.Transactions, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish refresh request", mutationFields(log.OpPublish).
			WithCollection(core.Transactions.String()).
			With(log.FieldReason, reason).
			WithError(err).
			ToSlice()...)
	}
}

func mutationFields(op string) log.LogFields {
	return log.NewFields().WithComponent(log.ComponentMutation).WithOperation(op)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &core.ValidationError{Field: "id", Err: core.ErrEmptyID}
	}
	return nil
}
