// Package cache is the shared fetch cache for the external data clients:
// a SQLite-backed key/value store holding JSON payloads with a TTL.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache stores JSON payloads by namespaced key with per-entry expiry.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens (or creates) the SQLite cache at path and configures WAL mode.
// ttl is the default lifetime applied by Set.
func Open(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	c := &Cache{db: db, ttl: ttl}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS entries (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL,
	PRIMARY KEY (namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_entries_expires_at ON entries(expires_at);
`

func (c *Cache) migrate() error {
	_, err := c.db.Exec(migration)
	return eris.Wrap(err, "cache: migrate")
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get unmarshals the cached payload for namespace/key into dst. The second
// return is false on a miss or an expired entry.
func (c *Cache) Get(ctx context.Context, namespace, key string, dst any) (bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT payload FROM entries
		 WHERE namespace = ? AND key = ? AND expires_at > datetime('now')`,
		namespace, key,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "cache: get")
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return false, eris.Wrap(err, "cache: unmarshal payload")
	}
	return true, nil
}

// Set stores the JSON-marshalled value under namespace/key with the default
// TTL, replacing any previous entry.
func (c *Cache) Set(ctx context.Context, namespace, key string, value any) error {
	return c.SetTTL(ctx, namespace, key, value, c.ttl)
}

// SetTTL is Set with an explicit lifetime.
func (c *Cache) SetTTL(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return eris.Wrap(err, "cache: marshal payload")
	}

	// Stored as sqlite datetime text so expiry comparisons against
	// datetime('now') stay lexicographic.
	const layout = "2006-01-02 15:04:05"
	now := time.Now().UTC()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO entries (namespace, key, payload, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET payload = excluded.payload,
		   created_at = excluded.created_at, expires_at = excluded.expires_at`,
		namespace, key, string(payload), now.Format(layout), now.Add(ttl).Format(layout),
	)
	return eris.Wrap(err, "cache: set")
}

// PurgeExpired removes entries past their expiry and reports the count.
func (c *Cache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: rows affected")
}

// PurgeAll drops every entry, expired or not.
func (c *Cache) PurgeAll(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge all")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: rows affected")
}
