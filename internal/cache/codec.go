package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Load decodes the snapshot stored under key. A payload that does not decode
// is logged and reported as absent.
func Load[T any](ctx context.Context, s Store, key string) ([]T, bool) {
	payload, ok := s.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		slog.WarnContext(ctx, "Discarding undecodable cache payload",
			"cache_key", key,
			"bytes", len(payload),
			"error", err)
		return nil, false
	}
	if items == nil {
		items = []T{}
	}
	return items, true
}

// Save encodes items and stores them under key.
func Save[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", key, err)
	}
	if err := s.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("store %s snapshot: %w", key, err)
	}
	return nil
}
