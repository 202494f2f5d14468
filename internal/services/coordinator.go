package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/remote"
	"ledger/internal/remote/notion"
	"ledger/internal/view"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Event is delivered to subscribers after a refresh has been applied.
type Event struct {
	Collection core.Collection
	Count      int
	At         time.Time
}

type slot[T any] struct {
	items []T
	set   bool
}

// Coordinator owns the in-memory snapshot of each collection and decides
// when the cache is read and when the remote source is consulted.
//
// Snapshots are replaced wholesale on refresh and never modified in place;
// slices handed out must be treated as read-only.
type Coordinator struct {
	source remote.Source
	store  cache.Store
	now    func() time.Time

	mu             sync.RWMutex
	categories     slot[core.Category]
	paymentMethods slot[core.PaymentMethod]
	transactions   slot[core.Transaction]

	inflight singleflight.Group
	bg       sync.WaitGroup

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

func NewCoordinator(source remote.Source, store cache.Store) *Coordinator {
	return &Coordinator{
		source: source,
		store:  store,
		now:    time.Now,
		subs:   make(map[int]func(Event)),
	}
}

// LoadCategories returns the best categories snapshot available right now,
// from memory or else from the cache, and starts a background refresh.
// ok is false when neither holds one yet.
func (c *Coordinator) LoadCategories(ctx context.Context) ([]core.Category, bool) {
	items, ok := load(ctx, c, &c.categories, core.Categories)
	c.refreshInBackground(ctx, core.Categories)
	return items, ok
}

func (c *Coordinator) LoadPaymentMethods(ctx context.Context) ([]core.PaymentMethod, bool) {
	items, ok := load(ctx, c, &c.paymentMethods, core.PaymentMethods)
	c.refreshInBackground(ctx, core.PaymentMethods)
	return items, ok
}

func (c *Coordinator) LoadTransactions(ctx context.Context) ([]core.Transaction, bool) {
	items, ok := load(ctx, c, &c.transactions, core.Transactions)
	c.refreshInBackground(ctx, core.Transactions)
	return items, ok
}

// Load adopts the cached snapshot of coll into memory and starts a
// background refresh of it.
func (c *Coordinator) Load(ctx context.Context, coll core.Collection) error {
	switch coll {
	case core.Categories:
		c.LoadCategories(ctx)
	case core.PaymentMethods:
		c.LoadPaymentMethods(ctx)
	case core.Transactions:
		c.LoadTransactions(ctx)
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownCollection, coll)
	}
	return nil
}

func (c *Coordinator) RefreshCategories(ctx context.Context) error {
	return c.Refresh(ctx, core.Categories)
}

func (c *Coordinator) RefreshPaymentMethods(ctx context.Context) error {
	return c.Refresh(ctx, core.PaymentMethods)
}

func (c *Coordinator) RefreshTransactions(ctx context.Context) error {
	return c.Refresh(ctx, core.Transactions)
}

// Refresh fetches coll from the remote source and replaces the cached and
// in-memory snapshots. Concurrent calls for the same collection share one
// fetch and its outcome. On failure both snapshots are left untouched.
//
// Returning early because ctx is done does not stop the refresh; its result
// is still applied when it lands.
func (c *Coordinator) Refresh(ctx context.Context, coll core.Collection) error {
	if !coll.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownCollection, coll)
	}

	key := coll.String()
	detached := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (any, error) {
		ev, err := c.refresh(detached, coll)
		// Subscribers run outside the flight: a Refresh from inside one
		// starts a new fetch instead of waiting on this one.
		c.inflight.Forget(key)
		if err == nil {
			c.notify(ev)
		}
		return nil, err
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.DebugContext(ctx, "Joined in-flight refresh", fields(log.OpRefresh, coll).ToSlice()...)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshAll refreshes every collection concurrently and returns the first
// error. Each collection is applied independently of the others' outcome.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, coll := range core.Collections() {
		g.Go(func() error {
			return c.Refresh(ctx, coll)
		})
	}
	return g.Wait()
}

// RefreshIfStale refreshes coll when its cache slot is missing or was last
// written more than maxAge ago. It reports whether a refresh ran.
func (c *Coordinator) RefreshIfStale(ctx context.Context, coll core.Collection, maxAge time.Duration) (bool, error) {
	if updated, ok := c.store.UpdatedAt(ctx, coll.String()); ok {
		age := c.now().Sub(updated)
		if age <= maxAge {
			slog.DebugContext(ctx, "Snapshot is fresh",
				fields(log.OpRefresh, coll).With("age", age.Round(time.Second)).ToSlice()...)
			return false, nil
		}
		slog.InfoContext(ctx, "Snapshot is stale, refreshing", fields(log.OpRefresh, coll).
			With("last_update", updated.Format(time.RFC3339)).
			With("age", age.Round(time.Second)).
			ToSlice()...)
	}
	return true, c.Refresh(ctx, coll)
}

// Snapshot returns the current in-memory snapshots. Unset collections are nil.
func (c *Coordinator) Snapshot() view.Ledger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return view.Ledger{
		Categories:     c.categories.items,
		PaymentMethods: c.paymentMethods.items,
		Transactions:   c.transactions.items,
	}
}

// Subscribe registers fn for refresh events. fn runs after the snapshot is
// applied and may itself call Refresh. The returned func unregisters it.
func (c *Coordinator) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// Wait blocks until every background refresh started by a Load has finished.
func (c *Coordinator) Wait() {
	c.bg.Wait()
}

func (c *Coordinator) refreshInBackground(ctx context.Context, coll core.Collection) {
	detached := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		// Failures are logged by refresh; the caller keeps its snapshot.
		_ = c.Refresh(detached, coll)
	}()
}

func (c *Coordinator) refresh(ctx context.Context, coll core.Collection) (Event, error) {
	start := c.now()
	pages, err := c.source.Fetch(ctx, coll)
	if err != nil {
		slog.WarnContext(ctx, "Refresh failed, keeping last snapshot", fields(log.OpFetch, coll).
			WithError(err).
			With("recoverable", core.IsRecoverable(err)).
			ToSlice()...)
		return Event{}, err
	}

	var count int
	switch coll {
	case core.Categories:
		items, errs := notion.NormalizeCategories(pages)
		logDropped(ctx, coll, errs)
		count = commit(ctx, c, &c.categories, coll, items)
	case core.PaymentMethods:
		items, errs := notion.NormalizePaymentMethods(pages)
		logDropped(ctx, coll, errs)
		count = commit(ctx, c, &c.paymentMethods, coll, items)
	case core.Transactions:
		items, errs := notion.NormalizeTransactions(pages, c.now())
		logDropped(ctx, coll, errs)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].LastEditedTime.After(items[j].LastEditedTime)
		})
		count = commit(ctx, c, &c.transactions, coll, items)
	}

	slog.InfoContext(ctx, "Collection refreshed", fields(log.OpRefresh, coll).
		With(log.FieldCount, count).
		With(log.FieldDuration, c.now().Sub(start).Milliseconds()).
		ToSlice()...)

	return Event{Collection: coll, Count: count, At: c.now()}, nil
}

func (c *Coordinator) notify(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func load[T any](ctx context.Context, c *Coordinator, s *slot[T], coll core.Collection) ([]T, bool) {
	c.mu.RLock()
	if s.set {
		items := s.items
		c.mu.RUnlock()
		return items, true
	}
	c.mu.RUnlock()

	items, ok := cache.Load[T](ctx, c.store, coll.String())
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A refresh may have landed while the cache was read.
	if s.set {
		return s.items, true
	}
	s.items, s.set = items, true
	return items, true
}

// commit writes items to the cache, then to memory. A cache failure is
// logged; memory still advances.
func commit[T any](ctx context.Context, c *Coordinator, s *slot[T], coll core.Collection, items []T) int {
	if err := cache.Save(ctx, c.store, coll.String(), items); err != nil {
		slog.ErrorContext(ctx, "Failed to persist snapshot", fields(log.OpPersist, coll).
			WithError(err).
			WithErrorType(log.ErrorTypeDatabase).
			ToSlice()...)
	}

	c.mu.Lock()
	s.items, s.set = items, true
	c.mu.Unlock()
	return len(items)
}

func logDropped(ctx context.Context, coll core.Collection, errs []error) {
	if len(errs) == 0 {
		return
	}
	slog.WarnContext(ctx, "Dropped unparseable records", fields(log.OpNormalize, coll).
		With(log.FieldDropped, len(errs)).
		WithError(errors.Join(errs...)).
		ToSlice()...)
}

func fields(op string, coll core.Collection) log.LogFields {
	return log.NewFields().
		WithComponent(log.ComponentCoordinator).
		WithOperation(op).
		WithCollection(coll.String())
}
