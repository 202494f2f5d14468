package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/trace"
)

// Refresher is the part of the coordinator the worker drives.
type Refresher interface {
	Refresh(ctx context.Context, coll core.Collection) error
	RefreshIfStale(ctx context.Context, coll core.Collection, maxAge time.Duration) (bool, error)
}

// RefreshWorker applies refresh requests coming off the queue and makes sure
// the mirror is not stale when the worker starts.
type RefreshWorker struct {
	refresher Refresher
	maxAge    time.Duration
}

func NewRefreshWorker(refresher Refresher, maxAge time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		maxAge:    maxAge,
	}
}

// HandleRefreshRequest processes a single refresh request from AMQP
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequest) error {
	// Remote calls made for this message log under its id
	ctx = trace.WithRequestID(ctx, "msg_"+msg.ID.String())

	slog.InfoContext(ctx, "Processing refresh request", log.NewFields().
		WithComponent(log.ComponentWorker).
		WithOperation(log.OpRefresh).
		WithCollection(msg.Collection.String()).
		With(log.FieldMessageID, msg.ID.String()).
		With(log.FieldReason, msg.Reason).
		With("queued_for", time.Since(msg.Timestamp).Round(time.Millisecond)).
		ToSlice()...)

	if err := w.refresher.Refresh(ctx, msg.Collection); err != nil {
		return fmt.Errorf("refresh %s: %w", msg.Collection, err)
	}
	return nil
}

// StartupCheck refreshes every collection whose snapshot is missing or older
// than the configured max age. This recovers from requests missed while the
// worker was down. Individual failures are logged and counted, not returned,
// unless every collection failed.
func (w *RefreshWorker) StartupCheck(ctx context.Context) error {
	var refreshed, failed int
	var lastErr error

	for _, coll := range core.Collections() {
		ran, err := w.refresher.RefreshIfStale(ctx, coll, w.maxAge)
		if err != nil {
			slog.ErrorContext(ctx, "Startup refresh failed", log.NewFields().
				WithComponent(log.ComponentWorker).
				WithOperation(log.OpStartup).
				WithCollection(coll.String()).
				WithError(err).
				ToSlice()...)
			failed++
			lastErr = err
			continue
		}
		if ran {
			refreshed++
		}
	}

	slog.InfoContext(ctx, "Startup check completed",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpStartup,
		"collections", len(core.Collections()),
		"refreshed", refreshed,
		"errors", failed)

	if failed == len(core.Collections()) {
		return fmt.Errorf("startup check: %w", lastErr)
	}
	return nil
}
