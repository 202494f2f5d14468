package backend

import (
	"context"
	"errors"

	"ledger/internal/cache"
	"ledger/internal/remote"
	"ledger/internal/remote/notion"
	"ledger/internal/services"
)

// Backend is the wired object graph shared by the CLI and the worker.
type Backend struct {
	Remote      remote.Ledger
	Store       cache.Store
	Coordinator *services.Coordinator
	Mutations   *services.MutationPipeline

	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher services.RefreshPublisher

	closers []func() error
}

// Close waits for background refreshes and releases every resource.
func (b *Backend) Close() error {
	if b.Coordinator != nil {
		b.Coordinator.Wait()
	}
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Remote RemoteType
	Cache  CacheType

	Notion notion.Config

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// RemoteType selects where records come from.
type RemoteType string

// CacheType selects where snapshots are kept between runs.
type CacheType string

const (
	NotionRemote RemoteType = "notion"
	MemoryRemote RemoteType = "memory"

	SQLiteCache CacheType = "sqlite"
	MemoryCache CacheType = "memory"
)

// String implements fmt.Stringer
func (rt RemoteType) String() string {
	return string(rt)
}

// IsValid returns true if the remote type is valid
func (rt RemoteType) IsValid() bool {
	switch rt {
	case NotionRemote, MemoryRemote:
		return true
	default:
		return false
	}
}

func (ct CacheType) String() string {
	return string(ct)
}

func (ct CacheType) IsValid() bool {
	switch ct {
	case SQLiteCache, MemoryCache:
		return true
	default:
		return false
	}
}
