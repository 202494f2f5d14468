package remote

import (
	"context"

	"ledger/internal/core"

	"github.com/jomei/notionapi"
)

// Ports for outbound adapters.
type (
	// Source lists every record of one collection, raw and unnormalized.
	Source interface {
		Fetch(ctx context.Context, c core.Collection) ([]notionapi.Page, error)
	}

	TransactionWriter interface {
		// CreateTransaction returns the id assigned by the remote store.
		CreateTransaction(ctx context.Context, in core.TransactionInput) (string, error)
		UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) error
		// ArchiveTransaction flags the record archived; nothing is deleted.
		ArchiveTransaction(ctx context.Context, id string) error
	}

	Ledger interface {
		Source
		TransactionWriter
	}
)
