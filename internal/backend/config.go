package backend

import (
	"fmt"

	"ledger/internal/config"
	"ledger/internal/remote/notion"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Remote: RemoteType(appConfig.RemoteBackend),
		Cache:  CacheType(appConfig.CacheBackend),

		Notion: notion.Config{
			Token:            appConfig.NotionToken,
			CategoriesDB:     appConfig.NotionCategoriesDB,
			PaymentMethodsDB: appConfig.NotionPaymentMethodsDB,
			TransactionsDB:   appConfig.NotionTransactionsDB,
			Timeout:          appConfig.NotionTimeout,
		},

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration. Notion credentials are
// checked per call by the client, not here.
func (c Config) Validate() error {
	if !c.Remote.IsValid() {
		return fmt.Errorf("invalid remote type: %s", c.Remote)
	}
	if !c.Cache.IsValid() {
		return fmt.Errorf("invalid cache type: %s", c.Cache)
	}
	if c.Cache == SQLiteCache && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite cache")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}
