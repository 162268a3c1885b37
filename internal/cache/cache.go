// Package cache stores fetched post history so repeated analysis runs do not
// hit the upstream API every time.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/logger"
)

// Cache is a keyed store of post lists with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]content.Post, bool, error)
	Put(ctx context.Context, key string, posts []content.Post, ttl time.Duration) error
}

// SQLite is a Cache backed by the post_cache table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite returns a Cache that stores entries in database.
func NewSQLite(database *sql.DB) *SQLite {
	return &SQLite{db: database, now: time.Now}
}

// Get returns the posts stored under key if the entry has not expired.
func (c *SQLite) Get(ctx context.Context, key string) ([]content.Post, bool, error) {
	payload, ok, err := db.CacheGet(ctx, c.db, key, c.now().Unix())
	if err != nil || !ok {
		return nil, false, err
	}
	var posts []content.Post
	if err := json.Unmarshal([]byte(payload), &posts); err != nil {
		return nil, false, qerrors.NewInternal(fmt.Errorf("decode cached posts: %w", err))
	}
	return posts, true, nil
}

// Put stores posts under key for ttl.
func (c *SQLite) Put(ctx context.Context, key string, posts []content.Post, ttl time.Duration) error {
	payload, err := json.Marshal(posts)
	if err != nil {
		return qerrors.NewInternal(err)
	}
	now := c.now()
	return db.CachePut(ctx, c.db, key, string(payload), now.Unix(), now.Add(ttl).Unix())
}

// Purge removes expired entries and returns how many were deleted.
func (c *SQLite) Purge(ctx context.Context) (int, error) {
	return db.CachePurge(ctx, c.db, c.now().Unix())
}

// HistorySource fetches an account's most recent posts.
type HistorySource interface {
	ListRecentPosts(ctx context.Context, limit int) ([]content.Post, error)
}

// CachedHistory wraps a HistorySource with a Cache. A TTL of zero or less
// passes every call straight through.
type CachedHistory struct {
	Source HistorySource
	Cache  Cache
	TTL    time.Duration
	Prefix string // key namespace, e.g. "threads"
}

// ListRecentPosts returns cached posts for limit when present and fresh,
// otherwise fetches from the source and stores the result. Cache failures
// are logged and the source result is returned; source failures are not cached.
func (h *CachedHistory) ListRecentPosts(ctx context.Context, limit int) ([]content.Post, error) {
	if h.TTL <= 0 || h.Cache == nil {
		return h.Source.ListRecentPosts(ctx, limit)
	}

	key := h.key(limit)
	posts, ok, err := h.Cache.Get(ctx, key)
	if err != nil {
		logger.WarnWithFields("history cache read failed", logger.Fields{"key": key, "error": err.Error()})
	} else if ok {
		logger.DebugWithFields("history cache hit", logger.Fields{"key": key, "posts": len(posts)})
		return posts, nil
	}

	posts, err = h.Source.ListRecentPosts(ctx, limit)
	if err != nil {
		return nil, err
	}

	if err := h.Cache.Put(ctx, key, posts, h.TTL); err != nil {
		logger.WarnWithFields("history cache write failed", logger.Fields{"key": key, "error": err.Error()})
	}
	return posts, nil
}

func (h *CachedHistory) key(limit int) string {
	prefix := h.Prefix
	if prefix == "" {
		prefix = "history"
	}
	return fmt.Sprintf("%s:recent:%d", prefix, limit)
}
