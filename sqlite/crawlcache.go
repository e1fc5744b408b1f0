package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.CrawlCache = (*CrawlCache)(nil)

// CrawlCache implements sitecrawl.CrawlCache using SQLite. Each source keeps
// its own database file, so the tables hold a single crawl at a time.
type CrawlCache struct {
	db *DB
}

// NewCrawlCache creates a new CrawlCache.
func NewCrawlCache(db *DB) *CrawlCache {
	return &CrawlCache{db: db}
}

// MarkVisited records a request ID. Marking twice is a no-op.
func (c *CrawlCache) MarkVisited(ctx context.Context, id uint64) error {
	_, err := c.db.ExecContext(ctx, "INSERT OR IGNORE INTO crawl_visited (request_id) VALUES (?)", int64(id))
	return err
}

// IsVisited reports whether a request ID was recorded.
func (c *CrawlCache) IsVisited(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawl_visited WHERE request_id = ?", int64(id)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// VisitedIDs returns every recorded request ID.
func (c *CrawlCache) VisitedIDs(ctx context.Context) ([]uint64, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT request_id FROM crawl_visited")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// Cookies returns the serialized cookies of a host, or "" if none are stored.
func (c *CrawlCache) Cookies(ctx context.Context, host string) (string, error) {
	var cookies string
	err := c.db.QueryRowContext(ctx, "SELECT cookies FROM crawl_cookies WHERE host = ?", host).Scan(&cookies)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return cookies, err
}

// SetCookies replaces the serialized cookies of a host.
func (c *CrawlCache) SetCookies(ctx context.Context, host, cookies string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO crawl_cookies (host, cookies) VALUES (?, ?)
		ON CONFLICT(host) DO UPDATE SET cookies = excluded.cookies
	`, host, cookies)
	return err
}

// PushRequest appends a serialized request to the queue.
func (c *CrawlCache) PushRequest(ctx context.Context, request []byte) error {
	_, err := c.db.ExecContext(ctx, "INSERT INTO crawl_queue (request) VALUES (?)", request)
	return err
}

// PopRequest removes and returns the oldest queued request, or nil when the
// queue is empty.
func (c *CrawlCache) PopRequest(ctx context.Context) ([]byte, error) {
	tx, err := c.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var seq int64
	var request []byte
	err = tx.QueryRowContext(ctx, "SELECT seq, request FROM crawl_queue ORDER BY seq LIMIT 1").Scan(&seq, &request)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM crawl_queue WHERE seq = ?", seq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to pop request: %w", err)
	}
	return request, nil
}

// QueueSize returns the number of queued requests.
func (c *CrawlCache) QueueSize(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawl_queue").Scan(&n)
	return n, err
}

// Reset discards the visited set, cookies and queue.
func (c *CrawlCache) Reset(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"crawl_visited", "crawl_cookies", "crawl_queue"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
