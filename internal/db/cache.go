package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/quill/internal/errors"
)

// CacheGet returns the payload stored under key if it has not expired at now.
func CacheGet(ctx context.Context, db *sql.DB, key string, now int64) (string, bool, error) {
	var payload string
	err := db.QueryRowContext(ctx,
		`SELECT payload_json FROM post_cache WHERE key = ? AND expires_at > ?`, key, now,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	return payload, true, nil
}

// CachePut stores payload under key until expiresAt, replacing any previous entry.
func CachePut(ctx context.Context, db *sql.DB, key, payload string, now, expiresAt int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO post_cache (key, payload_json, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload_json = excluded.payload_json,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, payload, now, expiresAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CachePurge deletes entries that expired at or before now.
func CachePurge(ctx context.Context, db *sql.DB, now int64) (int, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM post_cache WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}
