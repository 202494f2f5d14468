// Package memory provides an in-process remote ledger. It backs the
// "memory" remote backend and the tests of everything above the transport.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/remote/notion"

	"github.com/jomei/notionapi"
)

// Operation names accepted by FailNext and Calls.
const (
	OpFetch   = "fetch"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpArchive = "archive"
)

var ErrNotFound = errors.New("page not found")

type Store struct {
	mu       sync.Mutex
	pages    map[core.Collection][]notionapi.Page
	failures map[string]error
	calls    map[string]int
	gate     chan struct{}
	seq      int
	now      func() time.Time

	// IncludeArchived makes Fetch return archived pages too.
	IncludeArchived bool
}

func New() *Store {
	return &Store{
		pages:    map[core.Collection][]notionapi.Page{},
		failures: map[string]error{},
		calls:    map[string]int{},
		now:      time.Now,
	}
}

// NewSeeded returns a store holding a small default ledger.
func NewSeeded() *Store {
	s := New()
	s.AddCategory("cat-food", "Food", "🍔")
	s.AddCategory("cat-home", "Home", "🏠")
	s.AddCategory("cat-salary", "Salary", "💼")
	s.AddPaymentMethod("pm-cash", "Cash", "💵")
	s.AddPaymentMethod("pm-card", "Card", "💳")
	return s
}

// SetClock replaces the time source used for created and edited timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Put appends a raw page to a collection.
func (s *Store) Put(c core.Collection, p notionapi.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[c] = append(s.pages[c], p)
}

func (s *Store) AddCategory(id, name, icon string) {
	s.Put(core.Categories, namedPage(id, name, icon))
}

func (s *Store) AddPaymentMethod(id, name, icon string) {
	s.Put(core.PaymentMethods, namedPage(id, name, icon))
}

// FailNext makes the next call of op return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// HoldFetches blocks every Fetch until the returned release func is called.
func (s *Store) HoldFetches() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Store) Fetch(ctx context.Context, c core.Collection) ([]notionapi.Page, error) {
	s.mu.Lock()
	s.calls[OpFetch]++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &core.NetworkError{Op: OpFetch, Collection: c, Err: ctx.Err()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpFetch); err != nil {
		return nil, &core.NetworkError{Op: OpFetch, Collection: c, Err: err}
	}
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCollection, c)
	}

	out := make([]notionapi.Page, 0, len(s.pages[c]))
	for _, p := range s.pages[c] {
		if p.Archived && !s.IncludeArchived {
			continue
		}
		out = append(out, p)
	}
	if c == core.Transactions {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastEditedTime.After(out[j].LastEditedTime)
		})
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, in core.TransactionInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpCreate]++
	if err := s.takeFailure(OpCreate); err != nil {
		return "", &core.RemoteRejection{Op: OpCreate, Detail: err.Error(), Err: err}
	}

	s.seq++
	id := fmt.Sprintf("mem-%d", s.seq)
	now := s.now()
	s.pages[core.Transactions] = append(s.pages[core.Transactions], notionapi.Page{
		ID:             notionapi.ObjectID(id),
		CreatedTime:    now,
		LastEditedTime: now,
		Properties:     notion.TransactionProperties(in),
	})
	return id, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, in core.TransactionInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpUpdate]++
	if err := s.takeFailure(OpUpdate); err != nil {
		return &core.RemoteRejection{Op: OpUpdate, ID: id, Detail: err.Error(), Err: err}
	}

	i := s.index(id)
	if i < 0 {
		return &core.RemoteRejection{Op: OpUpdate, ID: id, Detail: ErrNotFound.Error(), Err: ErrNotFound}
	}
	page := s.pages[core.Transactions][i]
	props := make(notionapi.Properties, len(page.Properties))
	for k, v := range page.Properties {
		props[k] = v
	}
	for k, v := range notion.TransactionProperties(in) {
		props[k] = v
	}
	page.Properties = props
	page.LastEditedTime = s.now()
	s.pages[core.Transactions][i] = page
	return nil
}

func (s *Store) ArchiveTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpArchive]++
	if err := s.takeFailure(OpArchive); err != nil {
		return &core.RemoteRejection{Op: OpArchive, ID: id, Detail: err.Error(), Err: err}
	}

	i := s.index(id)
	if i < 0 {
		return &core.RemoteRejection{Op: OpArchive, ID: id, Detail: ErrNotFound.Error(), Err: ErrNotFound}
	}
	s.pages[core.Transactions][i].Archived = true
	s.pages[core.Transactions][i].LastEditedTime = s.now()
	return nil
}

// Page returns the stored transaction page, archived or not.
func (s *Store) Page(id string) (notionapi.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return notionapi.Page{}, false
	}
	return s.pages[core.Transactions][i], true
}

func (s *Store) index(id string) int {
	for i, p := range s.pages[core.Transactions] {
		if p.ID.String() == id {
			return i
		}
	}
	return -1
}

func (s *Store) takeFailure(op string) error {
	err := s.failures[op]
	delete(s.failures, op)
	return err
}

func namedPage(id, name, icon string) notionapi.Page {
	p := notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			notion.PropName: notionapi.TitleProperty{
				Title: []notionapi.RichText{{
					Type:      notionapi.ObjectTypeText,
					Text:      &notionapi.Text{Content: name},
					PlainText: name,
				}},
			},
		},
	}
	if icon != "" {
		e := notionapi.Emoji(icon)
		p.Icon = &notionapi.Icon{Emoji: &e}
	}
	return p
}
