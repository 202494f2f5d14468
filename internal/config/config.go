package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Notion
	NotionToken            string
	NotionCategoriesDB     string
	NotionPaymentMethodsDB string
	NotionTransactionsDB   string
	NotionTimeout          time.Duration

	// Backend selection
	RemoteBackend string
	CacheBackend  string

	// Database
	SQLiteDBPath string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Refresh
	RefreshInterval time.Duration
	CacheMaxAge     time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

var (
	validRemoteBackends = []string{"notion", "memory"}
	validCacheBackends  = []string{"sqlite", "memory"}
	validLogLevels      = []string{"debug", "info", "warn", "warning", "error"}
)

func Load() *Config {
	return &Config{
		NotionToken:            getEnv("NOTION_TOKEN", ""),
		NotionCategoriesDB:     getEnv("NOTION_CATEGORIES_DB_ID", ""),
		NotionPaymentMethodsDB: getEnv("NOTION_PAYMENT_METHODS_DB_ID", ""),
		NotionTransactionsDB:   getEnv("NOTION_TRANSACTIONS_DB_ID", ""),
		NotionTimeout:          getEnvDuration("NOTION_TIMEOUT", 30*time.Second),

		RemoteBackend: getEnv("REMOTE_BACKEND", "notion"),
		CacheBackend:  getEnv("CACHE_BACKEND", "sqlite"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_requests"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		CacheMaxAge:     getEnvDuration("CACHE_MAX_AGE", 15*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid.
// Missing Notion credentials are not an error here: each remote call reports
// exactly which ones it needs.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validRemoteBackends, c.RemoteBackend) {
		errs = append(errs, fmt.Sprintf("invalid remote backend '%s': must be one of %v", c.RemoteBackend, validRemoteBackends))
	}
	if !slices.Contains(validCacheBackends, c.CacheBackend) {
		errs = append(errs, fmt.Sprintf("invalid cache backend '%s': must be one of %v", c.CacheBackend, validCacheBackends))
	}

	if c.CacheBackend == "sqlite" && c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty when using sqlite cache")
	}

	if c.NotionTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid notion timeout %v: must be positive", c.NotionTimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RefreshInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if c.CacheMaxAge < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache max age %v: must not be negative", c.CacheMaxAge))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether refresh requests should go over a broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare integers are seconds
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
