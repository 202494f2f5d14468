package backend

import (
	"context"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/log"
	"ledger/internal/remote"
	"ledger/internal/remote/memory"
	"ledger/internal/remote/notion"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dialAMQP is replaceable in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{}

	store, closeStore, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	b.Store = store
	if closeStore != nil {
		b.closers = append(b.closers, closeStore)
	}

	r, closeRemote := f.createRemote(ctx, config)
	b.Remote = r
	if closeRemote != nil {
		b.closers = append(b.closers, closeRemote)
	}

	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without refresh announcements", "error", err)
		} else {
			b.Publisher = client
			b.closers = append(b.closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	b.Coordinator = services.NewCoordinator(b.Remote, b.Store)
	b.Mutations = services.NewMutationPipeline(b.Remote, b.Publisher)

	f.logger.InfoContext(ctx, "Initialized backend",
		"remote", config.Remote,
		"cache", config.Cache,
		"amqp_enabled", b.Publisher != nil)

	return b, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (cache.Store, func() error, error) {
	switch config.Cache {
	case SQLiteCache:
		sqliteStore, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite cache", "db_path", config.SQLiteDBPath)
		return sqliteStore, sqliteStore.Close, nil
	case MemoryCache:
		return cache.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache type: %s", config.Cache)
	}
}

// createRemote returns the remote and, for Notion, a closer that reports
// the API traffic of the run.
func (f *DefaultFactory) createRemote(ctx context.Context, config Config) (remote.Ledger, func() error) {
	if config.Remote == MemoryRemote {
		f.logger.InfoContext(ctx, "Using in-memory remote with seed data")
		return memory.NewSeeded(), nil
	}
	client := notion.New(config.Notion)
	return client, func() error {
		m := client.Metrics()
		f.logger.Debug("Notion API usage",
			"requests", m.Requests,
			"failed", m.Failed,
			"rate_limited", m.Waited,
			"throttled", m.Throttled)
		return nil
	}
}

var _ Factory = (*DefaultFactory)(nil)
