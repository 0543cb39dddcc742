// Package cache holds short-lived snapshots of fetched collections, one per
// resource key, so a screen revisited inside the TTL window does not refetch
// from the upstream API.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// DefaultTTL is how long a stored snapshot stays fresh.
const DefaultTTL = 60 * time.Second

// Store is the backing storage for serialized cache entries. Entries are
// scoped to a browser session via key prefixes and removed wholesale at
// logout with DeleteByPrefix.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// entry is the stored layout: the records plus the fetch timestamp in
// epoch milliseconds.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// ListCache wraps a Store with the freshness rule: an entry older than the
// TTL is a miss, as is anything that fails to parse.
type ListCache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates a ListCache over store. ttl <= 0 falls back to DefaultTTL.
func New(store Store, ttl time.Duration, logger *slog.Logger) *ListCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ListCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get loads the entry for key into dest. It returns false (a miss) when the
// entry is absent, older than the TTL, or cannot be parsed; corruption is
// logged and swallowed so the caller always falls back to a fresh fetch.
func (c *ListCache) Get(ctx context.Context, key string, dest any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !ok {
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("discarding corrupt cache entry", slog.String("key", key), slog.Any("error", err))
		_ = c.store.Delete(ctx, key)
		return false
	}

	age := c.now().UnixMilli() - e.Timestamp
	if age >= c.ttl.Milliseconds() {
		return false
	}

	if err := json.Unmarshal(e.Data, dest); err != nil {
		c.logger.Warn("discarding corrupt cache entry", slog.String("key", key), slog.Any("error", err))
		_ = c.store.Delete(ctx, key)
		return false
	}
	return true
}

// Put overwrites the entry for key with records and a timestamp of now.
// Storage failures are logged, never surfaced; the cache is an optimization.
func (c *ListCache) Put(ctx context.Context, key string, records any) {
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	raw, err := json.Marshal(entry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.logger.Warn("cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Invalidate removes the entry for key unconditionally.
func (c *ListCache) Invalidate(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache delete failed", slog.String("key", key), slog.Any("error", err))
	}
}

// InvalidateSession removes every entry belonging to one browser session.
// Called at logout, mirroring a session-storage clear.
func (c *ListCache) InvalidateSession(ctx context.Context, sessionID string) {
	if err := c.store.DeleteByPrefix(ctx, sessionID+":"); err != nil {
		c.logger.Warn("cache session clear failed", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

// Key builds the storage key for one resource within one browser session,
// e.g. "<sid>:usuarios_cache".
func Key(sessionID, resource string) string {
	return sessionID + ":" + resource + "_cache"
}
